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
	"aoska/internal/common/reply"
	"aoska/internal/oma/service"
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/godbus/dbus/v5"
)

// Actions управление задачами oma через omactl
type Actions struct {
	ctl      *service.OmaCtl
	follower *service.Follower
	history  *service.HistoryService
}

// HistoryResponse страница истории задач
type HistoryResponse struct {
	Tasks      []service.TaskRecord `json:"tasks"`
	TotalCount int                  `json:"totalCount"`
}

// NewActionsWithDeps создаёт новый экземпляр Actions с ручными управлением зависимостями
func NewActionsWithDeps(ctl *service.OmaCtl, follower *service.Follower, history *service.HistoryService) *Actions {
	return &Actions{
		ctl:      ctl,
		follower: follower,
		history:  history,
	}
}

// NewActions собирает Actions из конфигурации приложения, строки журналов уходят в sink
func NewActions(appConfig *app.Config, sink service.LogSink) (*Actions, error) {
	config := appConfig.ConfigManager.GetConfig()

	history, err := service.NewHistoryService(appConfig.DatabaseManager.GetUserDB())
	if err != nil {
		return nil, err
	}

	return NewActionsWithDeps(
		service.NewOmaCtl(helper.NewCommandRunner(config.CommandPrefix), config.OmaCtlBinary, config.PathOmaLock),
		service.NewFollower(nil, sink),
		history,
	), nil
}

// Available установлен ли omactl
func Available(binary string) bool {
	if binary == "" {
		binary = "omactl"
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// DBusLogSink отправляет строки журнала сигналом OmaLog
func DBusLogSink(conn *dbus.Conn) service.LogSink {
	return func(line service.LogLine) {
		reply.SendOmaLog(conn, reply.OmaLogLine{Unit: line.Unit, Line: line.Line})
	}
}

// WriterLogSink печатает строки журнала как есть
func WriterLogSink(w io.Writer) service.LogSink {
	return func(line service.LogLine) {
		_, _ = fmt.Fprintln(w, line.Line)
	}
}

// Close прекращает все слежения за журналами
func (a *Actions) Close() {
	a.follower.StopAll()
}

// IsBusy выполняет ли oma транзакцию
func (a *Actions) IsBusy(_ context.Context) bool {
	return a.ctl.IsBusy()
}

// StartUpgrade запускает полное обновление системы
func (a *Actions) StartUpgrade(ctx context.Context, opts service.StartOptions) (string, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("oma.Start"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("oma.Start"))

	unit, err := a.ctl.StartUpgrade(ctx, opts)
	if err != nil {
		return "", err
	}
	a.record(ctx, service.ActionUpgrade, nil, unit)
	return unit, nil
}

// StartInstall запускает установку пакетов
func (a *Actions) StartInstall(ctx context.Context, packages []string, opts service.StartOptions) (string, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("oma.Start"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("oma.Start"))

	unit, err := a.ctl.StartInstall(ctx, packages, opts)
	if err != nil {
		return "", err
	}
	a.record(ctx, service.ActionInstall, packages, unit)
	return unit, nil
}

// StartRemove запускает удаление пакетов
func (a *Actions) StartRemove(ctx context.Context, packages []string, removeConfig bool, opts service.StartOptions) (string, error) {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("oma.Start"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("oma.Start"))

	unit, err := a.ctl.StartRemove(ctx, packages, removeConfig, opts)
	if err != nil {
		return "", err
	}
	a.record(ctx, service.ActionRemove, packages, unit)
	return unit, nil
}

// record ошибка записи истории не отменяет уже запущенную задачу
func (a *Actions) record(ctx context.Context, action string, packages []string, unit string) {
	if a.history == nil {
		return
	}
	err := a.history.Save(ctx, service.TaskRecord{
		Unit:     unit,
		Action:   action,
		Packages: packages,
	})
	if err != nil {
		app.Log.Warning(err)
	}
}

func (a *Actions) UnitStatus(ctx context.Context, unit string) (string, error) {
	return a.ctl.Status(ctx, unit)
}

func (a *Actions) UnitLogs(ctx context.Context, unit string) (string, error) {
	return a.ctl.Logs(ctx, unit)
}

func (a *Actions) UnitResult(ctx context.Context, unit string) (string, error) {
	return a.ctl.Result(ctx, unit)
}

func (a *Actions) CancelUnit(ctx context.Context, unit string) (string, error) {
	return a.ctl.Cancel(ctx, unit)
}

func (a *Actions) ListUnits(ctx context.Context) (string, error) {
	return a.ctl.ListUnits(ctx)
}

// FollowLogs начинает пересылку журнала юнита
func (a *Actions) FollowLogs(ctx context.Context, unit string) error {
	reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("oma.Follow"))
	defer reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("oma.Follow"))

	return a.follower.Follow(unit)
}

// StopFollowLogs прекращает пересылку журнала юнита
func (a *Actions) StopFollowLogs(_ context.Context, unit string) {
	a.follower.Stop(unit)
}

// WaitFollowers ждёт, пока все процессы слежения не завершатся
func (a *Actions) WaitFollowers() {
	a.follower.Wait()
}

// History страница истории задач, от новых к старым
func (a *Actions) History(ctx context.Context, limit, offset int) (HistoryResponse, error) {
	if a.history == nil {
		return HistoryResponse{Tasks: []service.TaskRecord{}}, nil
	}

	tasks, err := a.history.List(ctx, limit, offset)
	if err != nil {
		return HistoryResponse{}, err
	}
	total, err := a.history.Count(ctx)
	if err != nil {
		return HistoryResponse{}, err
	}

	return HistoryResponse{Tasks: tasks, TotalCount: total}, nil
}
