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
	"aoska/internal/common/helper"
	"aoska/internal/common/reply"
	"aoska/internal/store/model"
	"aoska/internal/store/service"
	"context"
	"fmt"
	"net/http"
	"os"
)

// Actions серверная сторона магазина: то, что сервис отдаёт по D-Bus
type Actions struct {
	catalog    *service.CatalogService
	planner    *service.UpdatePlanner
	tum        *service.TumMatcher
	downloader *service.Downloader
	mock       *service.MockServer
}

// NewActionsWithDeps создаёт новый экземпляр Actions с ручными управлением зависимостями
func NewActionsWithDeps(
	catalog *service.CatalogService,
	planner *service.UpdatePlanner,
	tum *service.TumMatcher,
	downloader *service.Downloader,
) *Actions {
	return &Actions{
		catalog:    catalog,
		planner:    planner,
		tum:        tum,
		downloader: downloader,
	}
}

// NewActions собирает Actions из конфигурации приложения.
// В dev-окружении при наличии каталога mock-данных поднимается локальный сервер и его адрес становится базовым.
func NewActions(appConfig *app.Config) (*Actions, error) {
	config := appConfig.ConfigManager.GetConfig()

	var mock *service.MockServer
	baseURL := config.Endpoint
	if config.DevMode {
		if _, err := os.Stat(config.PathMockData); err == nil {
			mock, err = service.StartMockServer(config.PathMockData)
			if err != nil {
				return nil, err
			}
			baseURL = mock.URL()
		}
	}

	cache, err := service.NewCatalogCache(appConfig.DatabaseManager.GetKeyValueDB())
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	catalog := service.NewCatalogService(httpClient, cache, service.CatalogConfig{
		BaseURL:            baseURL,
		UserAgent:          config.UserAgent,
		IndexPath:          config.IndexPath,
		RecommendIndexPath: config.RecommendIndexPath,
	})

	actions := NewActionsWithDeps(
		catalog,
		service.NewUpdatePlanner(helper.NewCommandRunner(config.CommandPrefix)),
		service.NewTumMatcher(config.PathTum),
		service.NewDownloader(httpClient, config.PathDownloads, config.DownloadThread, config.UserAgent),
	)
	actions.mock = mock

	return actions, nil
}

// Close останавливает mock-сервер, если он был запущен
func (a *Actions) Close(ctx context.Context) error {
	if a.mock == nil {
		return nil
	}
	return a.mock.Close(ctx)
}

// GetEndpointBaseURL адрес, относительно которого клиенты разрешают пути ресурсов
func (a *Actions) GetEndpointBaseURL(_ context.Context) (string, error) {
	return a.catalog.BaseURL(), nil
}

// FetchIndex полный индекс каталога
func (a *Actions) FetchIndex(ctx context.Context) (model.Index, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("store.FetchIndex"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("store.FetchIndex"))

	return a.catalog.FetchIndex(ctx)
}

// FetchByCategory группа пакетов одного раздела
func (a *Actions) FetchByCategory(ctx context.Context, category string) (model.CategoryIndex, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("store.FetchByCategory"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("store.FetchByCategory"))

	return a.catalog.FetchByCategory(ctx, category)
}

// FetchRecommend подборка рекомендаций
func (a *Actions) FetchRecommend(ctx context.Context) (model.RecommendIndex, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("store.FetchRecommend"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("store.FetchRecommend"))

	return a.catalog.FetchRecommend(ctx)
}

// FetchDetail карточка пакета
func (a *Actions) FetchDetail(ctx context.Context, pkgName string) (model.PackageDetail, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("store.FetchDetail"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("store.FetchDetail"))

	return a.catalog.FetchDetail(ctx, pkgName)
}

// FetchUpdateDetail план полного обновления системы
func (a *Actions) FetchUpdateDetail(ctx context.Context) (model.OmaOperation, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("store.FetchUpdateDetail"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("store.FetchUpdateDetail"))

	return a.planner.Plan(ctx)
}

// FetchUpdateCount число ожидающих обновлений
func (a *Actions) FetchUpdateCount(ctx context.Context) (int, error) {
	return a.planner.Count(ctx)
}

// FetchTumUpdate темы обновлений, совпавшие с текущим планом
func (a *Actions) FetchTumUpdate(ctx context.Context) ([]model.TumUpdateInfo, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("store.FetchTumUpdate"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("store.FetchTumUpdate"))

	op, err := a.planner.Plan(ctx)
	if err != nil {
		return nil, err
	}
	updates, err := a.tum.Match(op)
	if err != nil {
		return nil, err
	}
	if updates == nil {
		updates = []model.TumUpdateInfo{}
	}
	return updates, nil
}

// DownloadUpdates загружает пакеты плана обновления в каталог загрузок
func (a *Actions) DownloadUpdates(ctx context.Context) ([]string, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("store.Download"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("store.Download"))

	op, err := a.planner.Plan(ctx)
	if err != nil {
		return nil, err
	}
	files, err := a.downloader.DownloadPlan(ctx, op)
	if err != nil {
		return files, fmt.Errorf(app.T_("Failed to download updates: %w"), err)
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}
