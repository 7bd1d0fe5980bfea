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
	"aoska/internal/common/helper"
	"context"
	"encoding/json"

	"github.com/godbus/dbus/v5"
)

// Сигналы сессионного сервиса
const (
	SignalNotification = app.DBusServiceName + ".Notification"
	SignalOmaLog       = app.DBusServiceName + ".OmaLog"
)

// EventData содержит данные события.
type EventData struct {
	Name            string  `json:"name"`
	View            string  `json:"message"`
	State           string  `json:"state"`
	Type            string  `json:"type"`
	ProgressPercent float64 `json:"progress"`
	ProgressDone    string  `json:"progressDone"`
	Transaction     string  `json:"transaction,omitempty"`
}

// OmaLogLine строка журнала задачи oma
type OmaLogLine struct {
	Unit string `json:"unit"`
	Line string `json:"line"`
}

var (
	EventTypeNotification = "NOTIFICATION"
	EventTypeProgress     = "PROGRESS"

	StateBefore = "BEFORE"
	StateAfter  = "AFTER"
)

// NotificationOption - функция-опция для настройки EventData.
type NotificationOption func(*EventData)

// WithEventName задаёт имя события.
func WithEventName(name string) NotificationOption {
	return func(ed *EventData) {
		ed.Name = name
	}
}

// WithEventView задаёт текст отображения события
func WithEventView(name string) NotificationOption {
	return func(ed *EventData) {
		ed.View = name
	}
}

// WithProgress указывает, что событие является прогрессом.
func WithProgress(isProgress bool) NotificationOption {
	return func(ed *EventData) {
		if isProgress {
			ed.Type = EventTypeProgress
		} else {
			ed.Type = EventTypeNotification
		}
	}
}

// WithProgressPercent задаёт процент выполнения.
func WithProgressPercent(percent float64) NotificationOption {
	return func(ed *EventData) {
		ed.ProgressPercent = percent
	}
}

// WithProgressDoneText задаёт текст в конце прогресса.
func WithProgressDoneText(text string) NotificationOption {
	return func(ed *EventData) {
		ed.ProgressDone = text
	}
}

// CreateEventNotification создаёт EventData, используя заданное состояние и опции.
func CreateEventNotification(ctx context.Context, state string, opts ...NotificationOption) {
	ed := EventData{
		State: state,
		Type:  EventTypeNotification,
	}

	for _, opt := range opts {
		opt(&ed)
	}

	if ed.Name == "" {
		ed.Name = "unknown"
	}
	if ed.View == "" {
		ed.View = getTaskText(ed.Name)
	}

	SendFuncNameDBUS(ctx, &ed)
}

// SendFuncNameDBUS показывает событие в спиннере, а в режиме dbus отправляет сигнал Notification.
func SendFuncNameDBUS(ctx context.Context, eventData *EventData) {
	if txStr, ok := ctx.Value(helper.TransactionKey).(string); ok {
		eventData.Transaction = txStr
	}

	eventType := "PROGRESS"
	if eventData.Type != EventTypeProgress {
		eventType = "TASK"
	}
	UpdateTask(ctx, eventType, eventData.Name, eventData.View, eventData.State, eventData.ProgressPercent, eventData.ProgressDone)

	appConfig, ok := ctx.Value(app.AppConfigKey).(*app.Config)
	if !ok || appConfig.ConfigManager.GetConfig().Format != app.FormatDBus {
		return
	}

	SendNotificationResponse(eventData, appConfig.DBusManager.GetConnection())
}

// SendNotificationResponse отправляет сигнал Notification.
func SendNotificationResponse(eventData *EventData, dbusConn *dbus.Conn) {
	message, err := json.MarshalIndent(eventData, "", "  ")
	if err != nil {
		app.Log.Debug(err.Error())
	}

	emit(dbusConn, SignalNotification, string(message))
}

// SendOmaLog отправляет сигнал OmaLog с очередной строкой журнала задачи.
func SendOmaLog(dbusConn *dbus.Conn, line OmaLogLine) {
	message, err := json.Marshal(line)
	if err != nil {
		app.Log.Debug(err.Error())
		return
	}

	emit(dbusConn, SignalOmaLog, string(message))
}

func emit(dbusConn *dbus.Conn, signal string, payload string) {
	if dbusConn == nil {
		app.Log.Error(app.T_("DBus connection is not initialized"))
		return
	}

	if err := dbusConn.Emit(app.DBusObjectPath, signal, payload); err != nil {
		app.Log.Errorf(app.T_("Error sending notification: %v"), err)
	}
}

func getTaskText(task string) string {
	switch task {
	case "store.FetchIndex":
		return app.T_("Loading store index")
	case "store.FetchByCategory":
		return app.T_("Loading category")
	case "store.FetchRecommend":
		return app.T_("Loading recommendations")
	case "store.FetchDetail":
		return app.T_("Loading package details")
	case "store.FetchUpdateDetail":
		return app.T_("Calculating system update")
	case "store.FetchTumUpdate":
		return app.T_("Matching topic updates")
	case "store.Download":
		return app.T_("Downloading packages")
	case "oma.Start":
		return app.T_("Starting oma task")
	case "oma.Follow":
		return app.T_("Following oma task log")
	case "maintainer.Generate":
		return app.T_("Generating catalog document")
	default:
		return task
	}
}
