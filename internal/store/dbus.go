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
	"context"
	"encoding/json"

	"github.com/godbus/dbus/v5"
)

// DBusWrapper – обёртка над Actions для экспорта интерфейса io.aosc.Aoska.store.
// Каждый метод возвращает JSON-представление результата строкой.
type DBusWrapper struct {
	actions *Actions
	ctx     context.Context
}

// NewDBusWrapper создаёт новую обёртку над actions
func NewDBusWrapper(a *Actions, ctx context.Context) *DBusWrapper {
	return &DBusWrapper{actions: a, ctx: ctx}
}

func jsonResult(v interface{}, err error) (string, *dbus.Error) {
	if err != nil {
		app.Log.Error(err)
		return "", dbus.MakeFailedError(err)
	}
	data, jerr := json.Marshal(v)
	if jerr != nil {
		return "", dbus.MakeFailedError(jerr)
	}
	return string(data), nil
}

// GetEndpointBaseUrl – базовый адрес ресурсов каталога
func (w *DBusWrapper) GetEndpointBaseUrl() (string, *dbus.Error) {
	return jsonResult(w.actions.GetEndpointBaseURL(w.ctx))
}

// FetchIndex – полный индекс каталога
func (w *DBusWrapper) FetchIndex() (string, *dbus.Error) {
	return jsonResult(w.actions.FetchIndex(w.ctx))
}

// FetchByCategory – пакеты раздела
func (w *DBusWrapper) FetchByCategory(category string) (string, *dbus.Error) {
	return jsonResult(w.actions.FetchByCategory(w.ctx, category))
}

// FetchRecommend – рекомендации
func (w *DBusWrapper) FetchRecommend() (string, *dbus.Error) {
	return jsonResult(w.actions.FetchRecommend(w.ctx))
}

// FetchDetail – карточка пакета
func (w *DBusWrapper) FetchDetail(pkgName string) (string, *dbus.Error) {
	return jsonResult(w.actions.FetchDetail(w.ctx, pkgName))
}

// FetchUpdateDetail – план обновления системы
func (w *DBusWrapper) FetchUpdateDetail() (string, *dbus.Error) {
	return jsonResult(w.actions.FetchUpdateDetail(w.ctx))
}

// FetchUpdateCount – число ожидающих обновлений
func (w *DBusWrapper) FetchUpdateCount() (string, *dbus.Error) {
	return jsonResult(w.actions.FetchUpdateCount(w.ctx))
}

// FetchTumUpdate – темы обновлений
func (w *DBusWrapper) FetchTumUpdate() (string, *dbus.Error) {
	return jsonResult(w.actions.FetchTumUpdate(w.ctx))
}

// unwrapDBus превращает *dbus.Error в обычный error без typed-nil
func unwrapDBus(result string, derr *dbus.Error) (string, error) {
	if derr != nil {
		return "", derr
	}
	return result, nil
}
