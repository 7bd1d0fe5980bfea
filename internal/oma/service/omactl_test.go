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
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aoska/internal/common/helper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	output string
	err    error
	calls  [][]string
}

func (r *recordingRunner) run(_ context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.output, r.err
}

func newTestOmaCtl(t *testing.T, runner *recordingRunner) (*OmaCtl, string) {
	t.Helper()
	lock := filepath.Join(t.TempDir(), "oma.lock")
	return NewOmaCtl(runner.run, "omactl", lock), lock
}

func TestOmaCtl_StartUpgrade(t *testing.T) {
	runner := &recordingRunner{output: "starting\nunit=oma-task-20250301-abcd\n"}
	ctl, _ := newTestOmaCtl(t, runner)

	unit, err := ctl.StartUpgrade(context.Background(), DefaultStartOptions())
	require.NoError(t, err)
	assert.Equal(t, "oma-task-20250301-abcd", unit)
	assert.Equal(t, []string{"omactl", "run", "--", "upgrade", "--yes", "--no-progress"}, runner.calls[0])
}

func TestOmaCtl_StartInstallWithOptions(t *testing.T) {
	runner := &recordingRunner{output: "unit=my-unit\n"}
	ctl, _ := newTestOmaCtl(t, runner)

	_, err := ctl.StartInstall(context.Background(), []string{"firefox", "vlc"}, StartOptions{
		Follow: true,
		Unit:   "my-unit",
	})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"omactl", "run", "--follow", "--unit=my-unit", "--", "install", "--no-progress", "firefox", "vlc"},
		runner.calls[0])
}

func TestOmaCtl_StartRemove(t *testing.T) {
	runner := &recordingRunner{output: "unit=rm\n"}
	ctl, _ := newTestOmaCtl(t, runner)

	_, err := ctl.StartRemove(context.Background(), []string{"gimp"}, true, StartOptions{AssumeYes: true, Wait: true})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"omactl", "run", "--wait", "--", "remove", "--yes", "--remove_config", "--no-progress", "gimp"},
		runner.calls[0])
}

func TestOmaCtl_EmptyPackages(t *testing.T) {
	runner := &recordingRunner{}
	ctl, _ := newTestOmaCtl(t, runner)

	_, err := ctl.StartInstall(context.Background(), nil, DefaultStartOptions())
	assert.True(t, errors.Is(err, ErrEmptyPackages))
	_, err = ctl.StartRemove(context.Background(), []string{}, false, DefaultStartOptions())
	assert.True(t, errors.Is(err, ErrEmptyPackages))
	assert.Empty(t, runner.calls)
}

func TestOmaCtl_Busy(t *testing.T) {
	runner := &recordingRunner{}
	ctl, lock := newTestOmaCtl(t, runner)
	assert.False(t, ctl.IsBusy())

	require.NoError(t, os.WriteFile(lock, nil, 0o644))
	assert.True(t, ctl.IsBusy())

	_, err := ctl.StartUpgrade(context.Background(), StartOptions{Unit: "u1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOmaBusy))
	assert.Contains(t, err.Error(), "unit=u1")
	assert.Empty(t, runner.calls)
}

func TestOmaCtl_OutputWithoutUnit(t *testing.T) {
	runner := &recordingRunner{output: "done\n"}
	ctl, _ := newTestOmaCtl(t, runner)

	out, err := ctl.StartUpgrade(context.Background(), DefaultStartOptions())
	require.NoError(t, err)
	assert.Equal(t, "done\n", out)
}

func TestOmaCtl_CommandFailure(t *testing.T) {
	runner := &recordingRunner{err: &helper.CommandError{Command: "omactl run", Code: 1, Stderr: "denied"}}
	ctl, _ := newTestOmaCtl(t, runner)

	_, err := ctl.StartUpgrade(context.Background(), DefaultStartOptions())
	var cmdErr *helper.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "denied", cmdErr.Stderr)
}

func TestOmaCtl_UnitCommands(t *testing.T) {
	runner := &recordingRunner{output: "active\n"}
	ctl, _ := newTestOmaCtl(t, runner)
	ctx := context.Background()

	for verb, call := range map[string]func(context.Context, string) (string, error){
		"status": ctl.Status,
		"logs":   ctl.Logs,
		"result": ctl.Result,
		"cancel": ctl.Cancel,
	} {
		runner.calls = nil
		out, err := call(ctx, "unit-1")
		require.NoError(t, err, verb)
		assert.Equal(t, "active\n", out)
		assert.Equal(t, []string{"omactl", verb, "unit-1"}, runner.calls[0])

		_, err = call(ctx, " ")
		assert.True(t, errors.Is(err, ErrEmptyUnit), verb)
	}

	runner.calls = nil
	_, err := ctl.ListUnits(ctx)
	require.NoError(t, err)
	assert.Equal(t, "omactl list", strings.Join(runner.calls[0], " "))
}
