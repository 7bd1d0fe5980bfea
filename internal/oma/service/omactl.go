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

package service

import (
	"aoska/internal/common/app"
	"aoska/internal/common/helper"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrOmaBusy       = errors.New("oma is busy")
	ErrEmptyPackages = errors.New("packages is empty")
	ErrEmptyUnit     = errors.New("unit name is empty")
)

// BusyError oma уже выполняет транзакцию
type BusyError struct {
	Unit string
}

func (e *BusyError) Error() string {
	if e.Unit == "" {
		return ErrOmaBusy.Error()
	}
	return fmt.Sprintf("%s (unit=%s)", ErrOmaBusy, e.Unit)
}

func (e *BusyError) Unwrap() error {
	return ErrOmaBusy
}

// StartOptions параметры запуска задачи omactl
type StartOptions struct {
	Wait      bool
	Follow    bool
	Unit      string
	AssumeYes bool
}

// DefaultStartOptions без ожидания и с автоматическим подтверждением
func DefaultStartOptions() StartOptions {
	return StartOptions{AssumeYes: true}
}

// OmaCtl запускает oma в отдельных systemd-юнитах через omactl
type OmaCtl struct {
	run      helper.CommandRunner
	binary   string
	lockPath string
}

// NewOmaCtl - конструктор. lockPath указывает на файл блокировки oma.
func NewOmaCtl(run helper.CommandRunner, binary, lockPath string) *OmaCtl {
	if binary == "" {
		binary = "omactl"
	}
	return &OmaCtl{run: run, binary: binary, lockPath: lockPath}
}

// IsBusy oma держит файл блокировки
func (o *OmaCtl) IsBusy() bool {
	_, err := os.Stat(o.lockPath)
	return err == nil
}

// StartUpgrade запускает полное обновление системы и возвращает имя юнита
func (o *OmaCtl) StartUpgrade(ctx context.Context, opts StartOptions) (string, error) {
	args := []string{"upgrade"}
	if opts.AssumeYes {
		args = append(args, "--yes")
	}
	args = append(args, "--no-progress")

	return o.runOma(ctx, args, opts)
}

// StartInstall устанавливает пакеты
func (o *OmaCtl) StartInstall(ctx context.Context, packages []string, opts StartOptions) (string, error) {
	if len(packages) == 0 {
		return "", ErrEmptyPackages
	}

	args := []string{"install"}
	if opts.AssumeYes {
		args = append(args, "--yes")
	}
	args = append(args, "--no-progress")
	args = append(args, packages...)

	return o.runOma(ctx, args, opts)
}

// StartRemove удаляет пакеты. removeConfig удаляет и их конфигурацию.
func (o *OmaCtl) StartRemove(ctx context.Context, packages []string, removeConfig bool, opts StartOptions) (string, error) {
	if len(packages) == 0 {
		return "", ErrEmptyPackages
	}

	args := []string{"remove"}
	if opts.AssumeYes {
		args = append(args, "--yes")
	}
	if removeConfig {
		args = append(args, "--remove_config")
	}
	args = append(args, "--no-progress")
	args = append(args, packages...)

	return o.runOma(ctx, args, opts)
}

// ListUnits список задач omactl
func (o *OmaCtl) ListUnits(ctx context.Context) (string, error) {
	return o.run(ctx, o.binary, "list")
}

// Status текущее состояние юнита
func (o *OmaCtl) Status(ctx context.Context, unit string) (string, error) {
	return o.unitCommand(ctx, "status", unit)
}

// Logs накопленный журнал юнита
func (o *OmaCtl) Logs(ctx context.Context, unit string) (string, error) {
	return o.unitCommand(ctx, "logs", unit)
}

// Result итог выполнения юнита
func (o *OmaCtl) Result(ctx context.Context, unit string) (string, error) {
	return o.unitCommand(ctx, "result", unit)
}

// Cancel останавливает юнит
func (o *OmaCtl) Cancel(ctx context.Context, unit string) (string, error) {
	return o.unitCommand(ctx, "cancel", unit)
}

func (o *OmaCtl) unitCommand(ctx context.Context, verb, unit string) (string, error) {
	if strings.TrimSpace(unit) == "" {
		return "", ErrEmptyUnit
	}
	return o.run(ctx, o.binary, verb, unit)
}

// runOma выполняет omactl run [--wait] [--follow] [--unit=U] -- <args>.
// Имя юнита берётся из строки unit=..., при её отсутствии возвращается весь вывод.
func (o *OmaCtl) runOma(ctx context.Context, omaArgs []string, opts StartOptions) (string, error) {
	if o.IsBusy() {
		return "", &BusyError{Unit: opts.Unit}
	}

	args := []string{"run"}
	if opts.Wait {
		args = append(args, "--wait")
	}
	if opts.Follow {
		args = append(args, "--follow")
	}
	if opts.Unit != "" {
		args = append(args, "--unit="+opts.Unit)
	}
	args = append(args, "--")
	args = append(args, omaArgs...)

	out, err := o.run(ctx, o.binary, args...)
	if err != nil {
		return "", err
	}

	unit := parseUnit(out)
	if unit == "" {
		app.Log.Debugf("omactl did not report a unit name, output: %s", out)
		return out, nil
	}
	return unit, nil
}

func parseUnit(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "unit="); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
