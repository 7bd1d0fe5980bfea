// Aoska Software Store
// Copyright (C) 2025 Дмитрий Удалов dmitry@udalov.online
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package store

import (
	"aoska/internal/common/app"
	"aoska/internal/common/reply"
	"aoska/internal/store/client"
	"aoska/internal/store/endpoint"
	"context"
	"fmt"
)

// ClientActions действия CLI: вызовы фасада и разрешение путей ресурсов
type ClientActions struct {
	client   *client.Client
	endpoint endpoint.Endpoint
}

// NewClientActions загружает адрес репозитория один раз.
// Ошибка загрузки пишется в лог, пути ресурсов тогда остаются относительными.
func NewClientActions(ctx context.Context, c *client.Client) *ClientActions {
	ep, err := endpoint.Load(ctx, c)
	if err != nil {
		app.Log.Error(fmt.Sprintf(app.T_("Failed to load store endpoint: %v"), err))
	}
	return &ClientActions{client: c, endpoint: ep}
}

// Endpoint загруженный адрес репозитория
func (a *ClientActions) Endpoint() endpoint.Endpoint {
	return a.endpoint
}

// ShowEndpoint базовый адрес ресурсов
func (a *ClientActions) ShowEndpoint(_ context.Context) (*reply.APIResponse, error) {
	return &reply.APIResponse{
		Data: map[string]interface{}{
			"message":  app.T_("Store endpoint"),
			"endpoint": a.endpoint.Base(),
		},
	}, nil
}

// Index каталог целиком
func (a *ClientActions) Index(ctx context.Context) (*reply.APIResponse, error) {
	index, err := a.client.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}
	index = resolveIndex(a.endpoint, index)

	return &reply.APIResponse{
		Data: map[string]interface{}{
			"message":      app.T_("Store catalog"),
			"version":      index.Version,
			"generated_at": index.GeneratedAt,
			"categories":   index.Packages,
		},
	}, nil
}

// Category пакеты одного раздела
func (a *ClientActions) Category(ctx context.Context, category string) (*reply.APIResponse, error) {
	group, err := a.client.FetchByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	group = resolveCategory(a.endpoint, group)

	return &reply.APIResponse{
		Data: map[string]interface{}{
			"message":  fmt.Sprintf(app.T_("Category %s"), group.Category),
			"category": group.Category,
			"packages": group.Packages,
			"count":    len(group.Packages),
		},
	}, nil
}

// Recommend подборка рекомендаций
func (a *ClientActions) Recommend(ctx context.Context) (*reply.APIResponse, error) {
	rec, err := a.client.FetchRecommend(ctx)
	if err != nil {
		return nil, err
	}
	rec = resolveRecommend(a.endpoint, rec)

	return &reply.APIResponse{
		Data: map[string]interface{}{
			"message":  app.T_("Recommended packages"),
			"date":     rec.Date,
			"packages": rec.Packages,
		},
	}, nil
}

// Detail карточка пакета
func (a *ClientActions) Detail(ctx context.Context, pkgName string) (*reply.APIResponse, error) {
	detail, err := a.client.FetchDetail(ctx, pkgName)
	if err != nil {
		return nil, err
	}
	detail = resolveDetail(a.endpoint, detail)

	return &reply.APIResponse{
		Data: map[string]interface{}{
			"message": app.T_("Package details"),
			"package": detail,
		},
	}, nil
}

// UpdateDetail план обновления системы
func (a *ClientActions) UpdateDetail(ctx context.Context) (*reply.APIResponse, error) {
	op, err := a.client.FetchUpdateDetail(ctx)
	if err != nil {
		return nil, err
	}

	return &reply.APIResponse{
		Data: map[string]interface{}{
			"message": fmt.Sprintf(app.TN_("%d update pending", "%d updates pending", op.UpgradableCount()), op.UpgradableCount()),
			"updates": op,
			"count":   op.UpgradableCount(),
		},
	}, nil
}

// UpdateCount число ожидающих обновлений
func (a *ClientActions) UpdateCount(ctx context.Context) (*reply.APIResponse, error) {
	count, err := a.client.FetchUpdateCount(ctx)
	if err != nil {
		return nil, err
	}

	return &reply.APIResponse{
		Data: map[string]interface{}{
			"message": app.T_("Pending updates"),
			"count":   count,
		},
	}, nil
}

// TumUpdate темы обновлений
func (a *ClientActions) TumUpdate(ctx context.Context) (*reply.APIResponse, error) {
	updates, err := a.client.FetchTumUpdate(ctx)
	if err != nil {
		return nil, err
	}

	return &reply.APIResponse{
		Data: map[string]interface{}{
			"message": app.T_("Topic updates"),
			"updates": updates,
			"count":   len(updates),
		},
	}, nil
}
