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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const TransactionKey contextKey = "transaction"

// CommandRunner запускает внешнюю программу и возвращает её stdout.
// Сервисы принимают его параметром, чтобы в тестах подменять вывод системных утилит.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// CommandError ошибка завершения внешней программы с сохранённым выводом
type CommandError struct {
	Command string
	Code    int
	Stdout  string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed: %s: status=%d\nstdout:\n%s\nstderr:\n%s", e.Command, e.Code, e.Stdout, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// RunCommand выполняет команду с LC_ALL=C и возвращает stdout, stderr и ошибку.
func RunCommand(ctx context.Context, name string, args ...string) (string, string, error) {
	app.Log.Debug("run command: ", name, " ", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// NewCommandRunner возвращает CommandRunner, добавляющий префикс (например, «sudo» или «distrobox enter»)
// и превращающий ненулевой код возврата в *CommandError.
func NewCommandRunner(prefix string) CommandRunner {
	prefixArgs := strings.Fields(prefix)

	return func(ctx context.Context, name string, args ...string) (string, error) {
		full := append(append(append([]string{}, prefixArgs...), name), args...)
		stdout, stderr, err := RunCommand(ctx, full[0], full[1:]...)
		if err != nil {
			code := -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			}
			return stdout, &CommandError{
				Command: strings.Join(full, " "),
				Code:    code,
				Stdout:  stdout,
				Stderr:  stderr,
				Err:     err,
			}
		}
		return stdout, nil
	}
}
