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
	"context"

	"github.com/godbus/dbus/v5"
)

// StoreInterface D-Bus интерфейс методов магазина
const StoreInterface = app.DBusServiceName + ".store"

// DBusTransport вызывает методы сессионного сервиса aoska
type DBusTransport struct {
	object dbus.BusObject
}

// NewDBusTransport создаёт транспорт поверх готового подключения к шине
func NewDBusTransport(conn *dbus.Conn) *DBusTransport {
	return &DBusTransport{object: conn.Object(app.DBusServiceName, app.DBusObjectPath)}
}

// Call вызывает метод интерфейса io.aosc.Aoska.store и возвращает строку-ответ как JSON
func (t *DBusTransport) Call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	call := t.object.CallWithContext(ctx, StoreInterface+"."+method, 0, args...)
	if call.Err != nil {
		return nil, call.Err
	}

	var result string
	if err := call.Store(&result); err != nil {
		return nil, err
	}
	return []byte(result), nil
}
