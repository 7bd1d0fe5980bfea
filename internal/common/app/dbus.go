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

package app

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Координаты сервиса магазина на шине
const (
	DBusServiceName = "io.aosc.Aoska"
	DBusObjectPath  = dbus.ObjectPath("/io/aosc/Aoska")
)

// DBusManager управляет соединениями с DBus
type DBusManager interface {
	GetConnection() *dbus.Conn
	SystemConnection() (*dbus.Conn, error)
	ConnectSessionBus() error
	ConnectSessionClient() error
	Close() error
	IsConnected() bool
}

// dbusManagerImpl реализация DBusManager
type dbusManagerImpl struct {
	conn       *dbus.Conn
	systemConn *dbus.Conn
	connected  bool
}

// NewDBusManager создает новый менеджер DBus
func NewDBusManager() DBusManager {
	return &dbusManagerImpl{}
}

// GetConnection возвращает текущее соединение
func (dm *dbusManagerImpl) GetConnection() *dbus.Conn {
	return dm.conn
}

// SystemConnection открывает при первом обращении отдельное соединение с системной шиной.
// Имя сервиса на нём не регистрируется, оно нужно для обращений к polkit.
func (dm *dbusManagerImpl) SystemConnection() (*dbus.Conn, error) {
	if dm.systemConn != nil {
		return dm.systemConn, nil
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf(T_("failed to connect to DBus: %w"), err)
	}

	dm.systemConn = conn
	Log.Debug("DBus system connection established")

	return conn, nil
}

// ConnectSessionBus подключается к пользовательской шине DBus и занимает имя сервиса
func (dm *dbusManagerImpl) ConnectSessionBus() error {
	var err error

	dm.conn, err = dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf(T_("failed to connect to DBus: %w"), err)
	}

	// Регистрируем имя сервиса
	reply, err := dm.conn.RequestName(DBusServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = dm.conn.Close()
		dm.conn = nil
		return fmt.Errorf(T_("failed to request DBus name: %w"), err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = dm.conn.Close()
		dm.conn = nil
		return fmt.Errorf(T_("Interface %s is already in use"), DBusServiceName)
	}

	dm.connected = true
	Log.Debug("DBus connection established")

	return nil
}

// ConnectSessionClient подключается к пользовательской шине без регистрации имени сервиса
func (dm *dbusManagerImpl) ConnectSessionClient() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf(T_("failed to connect to DBus: %w"), err)
	}

	dm.conn = conn
	dm.connected = true
	Log.Debug("DBus client connection established")

	return nil
}

// Close закрывает соединение с DBus
func (dm *dbusManagerImpl) Close() error {
	if dm.systemConn != nil {
		_ = dm.systemConn.Close()
		dm.systemConn = nil
	}
	if dm.conn != nil {
		err := dm.conn.Close()
		dm.conn = nil
		dm.connected = false
		if err != nil {
			return fmt.Errorf(T_("failed to close DBus connection: %w"), err)
		}
		Log.Debug("DBus connection closed")
	}
	return nil
}

// IsConnected проверяет, установлено ли соединение
func (dm *dbusManagerImpl) IsConnected() bool {
	return dm.connected && dm.conn != nil
}
