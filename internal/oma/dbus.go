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

package oma

import (
	"aoska/internal/common/app"
	"aoska/internal/common/helper"
	"aoska/internal/oma/service"
	"context"
	"encoding/json"

	"github.com/godbus/dbus/v5"
)

// PermissionChecker проверяет право отправителя на действие polkit
type PermissionChecker interface {
	Check(sender dbus.Sender, actionID string) error
}

// DBusWrapper – обёртка для управления oma, предназначенная для экспорта через DBus.
type DBusWrapper struct {
	actions *Actions
	polkit  PermissionChecker
	ctx     context.Context
}

// NewDBusWrapper создаёт новую обёртку над actions
func NewDBusWrapper(a *Actions, polkit PermissionChecker, ctx context.Context) *DBusWrapper {
	return &DBusWrapper{actions: a, polkit: polkit, ctx: ctx}
}

// checkManagePermission проверяет права io.aosc.Aoska.manage
func (w *DBusWrapper) checkManagePermission(sender dbus.Sender, method string) *dbus.Error {
	if err := w.polkit.Check(sender, helper.ManageAction); err != nil {
		app.Log.WithField("dbus_method", method).WithField("sender", string(sender)).Error(err)
		return dbus.MakeFailedError(err)
	}
	return nil
}

func startOptions(follow bool, unit string, assumeYes bool) service.StartOptions {
	return service.StartOptions{Follow: follow, Unit: unit, AssumeYes: assumeYes}
}

func textResult(method, unit, out string, err error) (string, *dbus.Error) {
	if err != nil {
		app.Log.WithField("dbus_method", method).WithField("unit", unit).Error(err)
		return "", dbus.MakeFailedError(err)
	}
	return out, nil
}

// IsBusy – oma держит блокировку
func (w *DBusWrapper) IsBusy() (bool, *dbus.Error) {
	return w.actions.IsBusy(w.ctx), nil
}

// StartUpgrade – Полное обновление системы, возвращает имя юнита
func (w *DBusWrapper) StartUpgrade(sender dbus.Sender, follow bool, unit string, assumeYes bool) (string, *dbus.Error) {
	if err := w.checkManagePermission(sender, "StartUpgrade"); err != nil {
		return "", err
	}
	out, err := w.actions.StartUpgrade(w.ctx, startOptions(follow, unit, assumeYes))
	return textResult("StartUpgrade", unit, out, err)
}

// StartInstall – Установка пакетов
func (w *DBusWrapper) StartInstall(sender dbus.Sender, packages []string, follow bool, unit string, assumeYes bool) (string, *dbus.Error) {
	if err := w.checkManagePermission(sender, "StartInstall"); err != nil {
		return "", err
	}
	out, err := w.actions.StartInstall(w.ctx, packages, startOptions(follow, unit, assumeYes))
	return textResult("StartInstall", unit, out, err)
}

// StartRemove – Удаление пакетов
func (w *DBusWrapper) StartRemove(sender dbus.Sender, packages []string, removeConfig bool, follow bool, unit string, assumeYes bool) (string, *dbus.Error) {
	if err := w.checkManagePermission(sender, "StartRemove"); err != nil {
		return "", err
	}
	out, err := w.actions.StartRemove(w.ctx, packages, removeConfig, startOptions(follow, unit, assumeYes))
	return textResult("StartRemove", unit, out, err)
}

// UnitStatus – Состояние юнита
func (w *DBusWrapper) UnitStatus(unit string) (string, *dbus.Error) {
	out, err := w.actions.UnitStatus(w.ctx, unit)
	return textResult("UnitStatus", unit, out, err)
}

// UnitLogs – Журнал юнита
func (w *DBusWrapper) UnitLogs(unit string) (string, *dbus.Error) {
	out, err := w.actions.UnitLogs(w.ctx, unit)
	return textResult("UnitLogs", unit, out, err)
}

// UnitResult – Итог юнита
func (w *DBusWrapper) UnitResult(unit string) (string, *dbus.Error) {
	out, err := w.actions.UnitResult(w.ctx, unit)
	return textResult("UnitResult", unit, out, err)
}

// CancelUnit – Остановка юнита
func (w *DBusWrapper) CancelUnit(unit string) (string, *dbus.Error) {
	out, err := w.actions.CancelUnit(w.ctx, unit)
	return textResult("CancelUnit", unit, out, err)
}

// ListUnits – Список задач omactl
func (w *DBusWrapper) ListUnits() (string, *dbus.Error) {
	out, err := w.actions.ListUnits(w.ctx)
	return textResult("ListUnits", "", out, err)
}

// FollowLogs – Пересылка журнала юнита сигналом OmaLog
func (w *DBusWrapper) FollowLogs(unit string) *dbus.Error {
	if err := w.actions.FollowLogs(w.ctx, unit); err != nil {
		app.Log.WithField("dbus_method", "FollowLogs").WithField("unit", unit).Error(err)
		return dbus.MakeFailedError(err)
	}
	return nil
}

// StopFollowLogs – Прекращение пересылки журнала
func (w *DBusWrapper) StopFollowLogs(unit string) *dbus.Error {
	w.actions.StopFollowLogs(w.ctx, unit)
	return nil
}

// History – История запущенных задач
func (w *DBusWrapper) History(limit int64, offset int64) (string, *dbus.Error) {
	resp, err := w.actions.History(w.ctx, int(limit), int(offset))
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	data, jerr := json.Marshal(resp)
	if jerr != nil {
		return "", dbus.MakeFailedError(jerr)
	}
	return string(data), nil
}
