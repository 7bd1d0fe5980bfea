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

package helper

import (
	"aoska/internal/common/app"
	"fmt"
	"os"
	"strconv"

	"github.com/godbus/dbus/v5"
)

// PolkitChecker проверяет право вызывающего на действие через polkit.
// PID вызывающего спрашивается у шины, на которой экспортирован сервис,
// а сам polkit доступен только на системной шине.
type PolkitChecker struct {
	bus       dbus.BusObject
	authority dbus.BusObject
}

// NewPolkitChecker создаёт проверку для сервиса на serviceConn.
func NewPolkitChecker(serviceConn, systemConn *dbus.Conn) *PolkitChecker {
	return NewPolkitCheckerWithObjects(
		serviceConn.Object("org.freedesktop.DBus", "/org/freedesktop/DBus"),
		systemConn.Object("org.freedesktop.PolicyKit1", "/org/freedesktop/PolicyKit1/Authority"),
	)
}

// NewPolkitCheckerWithObjects собирает проверку из готовых объектов шины и polkit.
func NewPolkitCheckerWithObjects(bus, authority dbus.BusObject) *PolkitChecker {
	return &PolkitChecker{bus: bus, authority: authority}
}

// callerPID возвращает PID процесса, пославшего D-Bus-сообщение.
func (p *PolkitChecker) callerPID(sender dbus.Sender) (uint32, error) {
	var pid uint32
	err := p.bus.Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, string(sender)).Store(&pid)

	return pid, err
}

// getStartTime считывает поле 22 (/proc/PID/stat) – время запуска в тиках.
func getStartTime(pid uint32) (uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, err
	}

	fields := make([][]byte, 0, 24)
	inParen := false
	var field []byte
	for _, c := range data {
		switch {
		case c == '(':
			inParen = true
		case c == ')' && inParen:
			inParen = false
		case c == ' ' && !inParen:
			fields = append(fields, field)
			field = []byte{}
			continue
		}
		field = append(field, c)
	}

	if len(fields) < 22 {
		return 0, fmt.Errorf("unexpected /proc/%d/stat format", pid)
	}
	startTime, err := strconv.ParseUint(string(fields[21]), 10, 64)

	return startTime, err
}

// ManageAction действие polkit, требуемое для запуска транзакций oma
const ManageAction = "io.aosc.Aoska.manage"

const (
	polkitFlagNone             uint32 = 0
	polkitFlagAllowInteraction uint32 = 1
)

// Check сначала спрашивает polkit без диалога, затем с разрешением интерактивной аутентификации.
func (p *PolkitChecker) Check(sender dbus.Sender, actionID string) error {
	pid, err := p.callerPID(sender)
	if err != nil {
		return fmt.Errorf(app.T_("polkit caller lookup failure: %w"), err)
	}
	stime, err := getStartTime(pid)
	if err != nil {
		return fmt.Errorf(app.T_("polkit caller lookup failure: %w"), err)
	}
	subject := struct {
		Kind    string
		Details map[string]dbus.Variant
	}{
		Kind: "unix-process",
		Details: map[string]dbus.Variant{
			"pid":        dbus.MakeVariant(pid),
			"start-time": dbus.MakeVariant(stime),
		},
	}

	check := func(flags uint32) (granted bool, err error) {
		var reply struct {
			Granted   bool
			Challenge bool
			Details   map[string]string
		}
		c := p.authority.Call(
			"org.freedesktop.PolicyKit1.Authority.CheckAuthorization",
			0,
			subject, actionID,
			map[string]string{},
			flags,
			"",
		)
		if c.Err != nil {
			return false, fmt.Errorf(app.T_("polkit dbus failure: %w"), c.Err)
		}
		if err := c.Store(&reply); err != nil {
			return false, fmt.Errorf(app.T_("polkit unpack failure: %w"), err)
		}
		return reply.Granted, nil
	}

	granted, err := check(polkitFlagNone)
	if err != nil {
		return err
	}

	if granted {
		return nil
	}

	granted, err = check(polkitFlagAllowInteraction)
	if err != nil {
		return err
	}

	if !granted {
		app.Log.WithField("action", actionID).WithField("pid", pid).Warning("polkit denied")
		return fmt.Errorf(app.T_("not authorized by polkit (action=%s)"), actionID)
	}

	return nil
}
