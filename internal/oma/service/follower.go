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
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/creack/pty"
)

// FailedSpawnLine отправляется вместо журнала, если journalctl не запустился
const FailedSpawnLine = "<failed to spawn journalctl>"

// LogLine строка журнала юнита
type LogLine struct {
	Unit string `json:"unit"`
	Line string `json:"line"`
}

// LogSink получает строки журнала. Вызывается из горутины follower-а.
type LogSink func(LogLine)

// CommandFactory создаёт процесс, печатающий журнал юнита
type CommandFactory func(ctx context.Context, unit string) *exec.Cmd

// JournalCommand journalctl -u <unit> -f -o cat
func JournalCommand(ctx context.Context, unit string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "journalctl", "-u", unit, "-f", "-o", "cat")
	cmd.Env = append(os.Environ(), "LC_ALL=C", "SYSTEMD_COLORS=0")
	return cmd
}

type followerEntry struct {
	id     uint64
	cancel context.CancelFunc
}

// Follower следит за журналами юнитов, не более одного слежения на юнит
type Follower struct {
	mu        sync.Mutex
	followers map[string]followerEntry
	nextID    uint64
	wg        sync.WaitGroup

	command CommandFactory
	sink    LogSink
}

// NewFollower - конструктор. command == nil означает journalctl.
func NewFollower(command CommandFactory, sink LogSink) *Follower {
	if command == nil {
		command = JournalCommand
	}
	return &Follower{
		followers: make(map[string]followerEntry),
		command:   command,
		sink:      sink,
	}
}

// Follow начинает слежение. Повторный вызов для того же юнита ничего не делает.
func (f *Follower) Follow(unit string) error {
	if strings.TrimSpace(unit) == "" {
		return ErrEmptyUnit
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.followers[unit]; ok {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.nextID++
	id := f.nextID
	f.followers[unit] = followerEntry{id: id, cancel: cancel}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer f.forget(unit, id)
		defer cancel()
		f.stream(ctx, unit)
	}()

	return nil
}

// Stop прекращает слежение за юнитом
func (f *Follower) Stop(unit string) {
	f.mu.Lock()
	entry, ok := f.followers[unit]
	delete(f.followers, unit)
	f.mu.Unlock()

	if ok {
		entry.cancel()
	}
}

// StopAll прекращает все слежения и дожидается их завершения
func (f *Follower) StopAll() {
	f.mu.Lock()
	entries := f.followers
	f.followers = make(map[string]followerEntry)
	f.mu.Unlock()

	for _, entry := range entries {
		entry.cancel()
	}
	f.wg.Wait()
}

// Wait дожидается завершения всех слежений
func (f *Follower) Wait() {
	f.wg.Wait()
}

// IsFollowing активно ли слежение за юнитом
func (f *Follower) IsFollowing(unit string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.followers[unit]
	return ok
}

func (f *Follower) forget(unit string, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.followers[unit]; ok && entry.id == id {
		delete(f.followers, unit)
	}
}

// stream запускает процесс под pty, чтобы journalctl не буферизовал вывод
func (f *Follower) stream(ctx context.Context, unit string) {
	cmd := f.command(ctx, unit)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		app.Log.Error(err)
		f.sink(LogLine{Unit: unit, Line: FailedSpawnLine})
		return
	}

	cmdDone := make(chan error, 1)
	go func() {
		cmdDone <- cmd.Wait()
	}()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)

		scanner := bufio.NewScanner(ptmx)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			f.sink(LogLine{Unit: unit, Line: strings.TrimRight(scanner.Text(), "\r")})
		}
	}()

	select {
	case <-readerDone:
		<-cmdDone
	case err = <-cmdDone:
		if err != nil && ctx.Err() == nil {
			app.Log.Debugf("log follower for %s exited: %v", unit, err)
		}
		<-readerDone
	}
	_ = ptmx.Close()
}
