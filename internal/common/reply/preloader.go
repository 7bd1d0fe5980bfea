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

package reply

import (
	"aoska/internal/common/app"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// spinnerState единственный экземпляр программы bubbletea на процесс
type spinnerState struct {
	mu         sync.Mutex
	program    *tea.Program
	done       chan struct{}
	tasksDone  chan struct{}
	lastLines  int
	lastRender string
	colors     app.Colors
}

var preloader spinnerState

// TaskUpdateMsg обновление задачи: eventType "TASK" или "PROGRESS"
type TaskUpdateMsg struct {
	eventType        string
	taskName         string
	viewName         string
	state            string
	progressValue    float64
	progressDoneText string
}

type task struct {
	eventType string
	name      string
	viewName  string
	state     string

	progressModel    *progress.Model
	progressDoneText string
}

type model struct {
	spinner      spinner.Model
	tasksSpinner spinner.Model
	tasks        []task
	colors       app.Colors
	tasksDone    chan struct{}
}

// spinnerEnabled спиннер нужен только для текстового вывода в терминал
func spinnerEnabled(ctx context.Context) bool {
	format, _ := outputSettings(ctx)
	return format == app.FormatText && IsTTY()
}

// CreateSpinner запускает bubbletea, пока CLI ждёт ответа сервиса
func CreateSpinner(ctx context.Context) {
	if !spinnerEnabled(ctx) {
		return
	}

	preloader.mu.Lock()
	defer preloader.mu.Unlock()

	if preloader.program != nil {
		return
	}
	_, preloader.colors = outputSettings(ctx)
	preloader.done = make(chan struct{})
	preloader.tasksDone = make(chan struct{})

	program := tea.NewProgram(
		newModel(preloader.colors, preloader.tasksDone),
		tea.WithOutput(os.Stdout),
		tea.WithInput(nil),
	)
	preloader.program = program
	done := preloader.done

	go func() {
		if _, err := program.Run(); err != nil {
			app.Log.Error(err.Error())
		}
		close(done)
	}()
}

// StopSpinner останавливает спиннер и оставляет на экране список задач
func StopSpinner(ctx context.Context) {
	if !spinnerEnabled(ctx) {
		return
	}

	preloader.mu.Lock()
	tasksDone := preloader.tasksDone
	preloader.mu.Unlock()

	if tasksDone != nil {
		select {
		case <-tasksDone:
		case <-time.After(100 * time.Millisecond):
		}
	}
	time.Sleep(60 * time.Millisecond)

	preloader.mu.Lock()
	defer preloader.mu.Unlock()

	if preloader.program == nil {
		return
	}
	preloader.program.Quit()
	<-preloader.done
	preloader.program = nil

	preloader.redrawWithoutHeader()
}

// redrawWithoutHeader стирает блок спиннера и выводит его снова без первой строки
func (s *spinnerState) redrawWithoutHeader() {
	if s.lastLines == 0 {
		return
	}
	for i := 0; i < s.lastLines-1; i++ {
		fmt.Print("\033[F")
	}
	for i := 0; i < s.lastLines; i++ {
		fmt.Print("\r\033[2K")
		if i < s.lastLines-1 {
			fmt.Print("\033[E")
		}
	}
	for i := 0; i < s.lastLines-1; i++ {
		fmt.Print("\033[F")
	}

	if lines := strings.Split(s.lastRender, "\n"); len(lines) > 1 {
		fmt.Print(strings.Join(lines[1:], "\n"))
		fmt.Print("\n")
	}
}

// UpdateTask отправляет задачу или прогресс в модель спиннера
func UpdateTask(ctx context.Context, eventType string, taskName string, viewName string, state string, progressValue float64, progressDone string) {
	if !spinnerEnabled(ctx) {
		return
	}

	preloader.mu.Lock()
	program := preloader.program
	preloader.mu.Unlock()

	if program != nil {
		program.Send(TaskUpdateMsg{
			eventType:        eventType,
			taskName:         taskName,
			viewName:         viewName,
			state:            state,
			progressValue:    progressValue,
			progressDoneText: progressDone,
		})
	}
}

func newModel(colors app.Colors, tasksDone chan struct{}) model {
	s := spinner.New()
	s.Spinner = spinner.Points

	ts := spinner.New()
	ts.Spinner = spinner.Jump

	return model{
		spinner:      s,
		tasksSpinner: ts,
		tasks:        []task{},
		colors:       colors,
		tasksDone:    tasksDone,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tasksSpinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd1, cmd2 tea.Cmd
		m.spinner, cmd1 = m.spinner.Update(msg)
		m.tasksSpinner, cmd2 = m.tasksSpinner.Update(msg)
		return m, tea.Batch(cmd1, cmd2)

	case progress.FrameMsg:
		var cmds []tea.Cmd
		for i, t := range m.tasks {
			if t.eventType == "PROGRESS" && t.state != StateAfter && t.progressModel != nil {
				updated, cmd := t.progressModel.Update(msg)
				*(m.tasks[i].progressModel) = updated.(progress.Model)
				if cmd != nil {
					cmds = append(cmds, cmd)
				}
			}
		}
		return m, tea.Batch(cmds...)

	case TaskUpdateMsg:
		return m.updateTask(msg)
	}
	return m, nil
}

func (m model) newProgress() *progress.Model {
	pm := progress.New(progress.WithGradient(m.colors.ProgressStart, m.colors.ProgressEnd))
	pm.Width = 40
	return &pm
}

func (m model) updateTask(msg TaskUpdateMsg) (tea.Model, tea.Cmd) {
	var batchCmds []tea.Cmd
	percent := min(max(msg.progressValue, 0), 100) / 100

	found := false
	for i := range m.tasks {
		if m.tasks[i].name != msg.taskName {
			continue
		}
		found = true
		m.tasks[i].eventType = msg.eventType
		m.tasks[i].viewName = msg.viewName
		m.tasks[i].state = msg.state

		if msg.eventType == "PROGRESS" {
			m.tasks[i].progressDoneText = msg.progressDoneText
			if m.tasks[i].progressModel == nil {
				m.tasks[i].progressModel = m.newProgress()
			}
			if msg.state != StateAfter {
				batchCmds = append(batchCmds, m.tasks[i].progressModel.SetPercent(percent))
			}
		}
		break
	}

	// первая посылка BEFORE создаёт задачу
	if !found && msg.state == StateBefore {
		newT := task{
			eventType: msg.eventType,
			name:      msg.taskName,
			viewName:  msg.viewName,
			state:     msg.state,
		}
		if msg.eventType == "PROGRESS" {
			newT.progressModel = m.newProgress()
			batchCmds = append(batchCmds, newT.progressModel.SetPercent(percent))
		}
		m.tasks = append(m.tasks, newT)
	}

	allFinished := true
	for _, t := range m.tasks {
		if t.state != StateAfter {
			allFinished = false
			break
		}
	}
	if allFinished && m.tasksDone != nil {
		select {
		case <-m.tasksDone:
		default:
			close(m.tasksDone)
		}
	}

	return m, tea.Batch(batchCmds...)
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\r\033[K%s \033[33m%s\033[0m", m.spinner.View(), app.T_("Executing tasks"))

	for _, t := range m.tasks {
		switch {
		case t.state == StateAfter && t.eventType == "PROGRESS":
			if t.progressDoneText != "" {
				fmt.Fprintf(&b, "\n[✓] %s", fmt.Sprintf(app.T_("Progress: %s completed"), t.progressDoneText))
			} else {
				fmt.Fprintf(&b, "\n[✓] %s", app.T_("Progress completed"))
			}
		case t.state == StateAfter:
			fmt.Fprintf(&b, "\n[✓] %s", t.viewName)
		case t.eventType == "PROGRESS" && t.progressModel != nil:
			fmt.Fprintf(&b, "\n%s %s", t.progressModel.View(), t.viewName)
		default:
			fmt.Fprintf(&b, "\n[%s] %s", m.tasksSpinner.View(), t.viewName)
		}
	}

	s := b.String()
	preloader.lastRender = s
	preloader.lastLines = strings.Count(s, "\n") + 1
	return s
}
