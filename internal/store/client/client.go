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

package client

import (
	"aoska/internal/common/app"
	"aoska/internal/store/model"
	"context"
	"errors"
)

// ErrCallFailed единственный вид ошибки фасада. Подробности пишутся в debug-лог.
var ErrCallFailed = errors.New("backend call failed")

// CallError сообщает, какая операция не удалась, не раскрывая причину
type CallError struct {
	Op string
}

func (e *CallError) Error() string {
	return ErrCallFailed.Error() + ": " + e.Op
}

func (e *CallError) Is(target error) bool {
	return target == ErrCallFailed
}

// Transport выполняет один вызов бэкенда и возвращает сырой JSON-ответ
type Transport interface {
	Call(ctx context.Context, method string, args ...interface{}) ([]byte, error)
}

// Client типизированный фасад бэкенда магазина.
// Каждый вызов выполняется ровно один раз, без повторов и кеша.
type Client struct {
	transport Transport
}

// New создаёт фасад поверх транспорта
func New(transport Transport) *Client {
	return &Client{transport: transport}
}

// GetEndpointBaseURL возвращает базовый адрес репозитория магазина
func (c *Client) GetEndpointBaseURL(ctx context.Context) (string, error) {
	return invoke[string](ctx, c, "GetEndpointBaseUrl")
}

// FetchIndex возвращает полный индекс каталога
func (c *Client) FetchIndex(ctx context.Context) (model.Index, error) {
	return invoke[model.Index](ctx, c, "FetchIndex")
}

// FetchByCategory возвращает пакеты одного раздела
func (c *Client) FetchByCategory(ctx context.Context, category string) (model.CategoryIndex, error) {
	return invoke[model.CategoryIndex](ctx, c, "FetchByCategory", category)
}

// FetchRecommend возвращает подборку рекомендованных пакетов
func (c *Client) FetchRecommend(ctx context.Context) (model.RecommendIndex, error) {
	return invoke[model.RecommendIndex](ctx, c, "FetchRecommend")
}

// FetchDetail возвращает карточку пакета
func (c *Client) FetchDetail(ctx context.Context, pkgName string) (model.PackageDetail, error) {
	return invoke[model.PackageDetail](ctx, c, "FetchDetail", pkgName)
}

// FetchUpdateDetail возвращает план ожидающих обновлений
func (c *Client) FetchUpdateDetail(ctx context.Context) (model.OmaOperation, error) {
	return invoke[model.OmaOperation](ctx, c, "FetchUpdateDetail")
}

// FetchUpdateCount возвращает число ожидающих обновлений
func (c *Client) FetchUpdateCount(ctx context.Context) (int, error) {
	count, err := invoke[int](ctx, c, "FetchUpdateCount")
	if err != nil {
		return 0, err
	}
	if count < 0 {
		app.Log.Debugf("FetchUpdateCount: negative count %d", count)
		return 0, &CallError{Op: "FetchUpdateCount"}
	}
	return count, nil
}

// FetchTumUpdate возвращает наборы тематических обновлений
func (c *Client) FetchTumUpdate(ctx context.Context) ([]model.TumUpdateInfo, error) {
	return invoke[[]model.TumUpdateInfo](ctx, c, "FetchTumUpdate")
}

func invoke[T any](ctx context.Context, c *Client, op string, args ...interface{}) (T, error) {
	var zero T

	payload, err := c.transport.Call(ctx, op, args...)
	if err != nil {
		app.Log.Debugf("%s: transport error: %v", op, err)
		return zero, &CallError{Op: op}
	}

	result, err := model.Decode[T](payload)
	if err != nil {
		app.Log.Debugf("%s: decode error: %v", op, err)
		return zero, &CallError{Op: op}
	}
	return result, nil
}
