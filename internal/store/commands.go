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

package store

import (
	"aoska/internal/common/app"
	"aoska/internal/common/reply"
	"aoska/internal/common/wrapper"
	"aoska/internal/store/client"
	"aoska/internal/store/model"
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ctxKey string

// localModeKey команда выполняется без сессионного сервиса
const localModeKey ctxKey = "storeLocal"

// newErrorResponse создаёт ответ с ошибкой и указанным сообщением.
func newErrorResponse(message string) reply.APIResponse {
	app.Log.Error(message)

	return reply.APIResponse{
		Data:  map[string]interface{}{"message": message},
		Error: true,
	}
}

// newTransport выбирает транспорт фасада: сессионная шина или Actions в этом же процессе
func newTransport(ctx context.Context, appConfig *app.Config) (client.Transport, error) {
	if local, _ := ctx.Value(localModeKey).(bool); local {
		actions, err := NewActions(appConfig)
		if err != nil {
			return nil, err
		}
		return NewLocalTransport(actions), nil
	}

	if !appConfig.DBusManager.IsConnected() {
		if err := appConfig.DBusManager.ConnectSessionClient(); err != nil {
			return nil, err
		}
	}
	return client.NewDBusTransport(appConfig.DBusManager.GetConnection()), nil
}

func newClientActions(ctx context.Context, appConfig *app.Config) (*ClientActions, error) {
	transport, err := newTransport(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	return NewClientActions(ctx, client.New(transport)), nil
}

func newBackendActions(_ context.Context, appConfig *app.Config) (*Actions, error) {
	return NewActions(appConfig)
}

var withClientWrapper = wrapper.WithOptions(wrapper.NoRootCheck, newClientActions, newErrorResponse)
var withBackendWrapper = wrapper.WithOptions(wrapper.NoRootCheck, newBackendActions, newErrorResponse)

func respond(ctx context.Context, resp *reply.APIResponse, err error) error {
	if err != nil {
		return reply.CliResponse(ctx, newErrorResponse(err.Error()))
	}
	return reply.CliResponse(ctx, *resp)
}

func completeCategories(_ context.Context, cmd *cli.Command) {
	if cmd.NArg() > 0 {
		return
	}
	for _, c := range model.Categories() {
		fmt.Println(c)
	}
}

// CommandList возвращает команду store со всеми подкомандами
func CommandList(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:    "store",
		Aliases: []string{"s"},
		Usage:   app.T_("Software store catalog"),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "local",
				Usage: app.T_("Run the backend in this process instead of calling the session service"),
				Value: false,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return context.WithValue(ctx, localModeKey, cmd.Bool("local")), nil
		},
		Commands: []*cli.Command{
			{
				Name:  "endpoint",
				Usage: app.T_("Show the base address of store assets"),
				Action: withClientWrapper(func(ctx context.Context, cmd *cli.Command, actions *ClientActions) error {
					resp, err := actions.ShowEndpoint(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "index",
				Usage: app.T_("Show the whole catalog"),
				Action: withClientWrapper(func(ctx context.Context, cmd *cli.Command, actions *ClientActions) error {
					resp, err := actions.Index(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:          "category",
				Usage:         app.T_("Show packages of a category"),
				ArgsUsage:     "working|games|video|creating",
				ShellComplete: completeCategories,
				Action: withClientWrapper(func(ctx context.Context, cmd *cli.Command, actions *ClientActions) error {
					if cmd.NArg() != 1 {
						return reply.CliResponse(ctx, newErrorResponse(app.T_("You must specify exactly one category")))
					}
					resp, err := actions.Category(ctx, cmd.Args().First())
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "recommend",
				Usage: app.T_("Show recommended packages"),
				Action: withClientWrapper(func(ctx context.Context, cmd *cli.Command, actions *ClientActions) error {
					resp, err := actions.Recommend(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:      "info",
				Usage:     app.T_("Show package details"),
				ArgsUsage: "package",
				Action: withClientWrapper(func(ctx context.Context, cmd *cli.Command, actions *ClientActions) error {
					if cmd.NArg() != 1 {
						return reply.CliResponse(ctx, newErrorResponse(app.T_("You must specify exactly one package")))
					}
					resp, err := actions.Detail(ctx, cmd.Args().First())
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "updates",
				Usage: app.T_("Show the pending system update plan"),
				Action: withClientWrapper(func(ctx context.Context, cmd *cli.Command, actions *ClientActions) error {
					resp, err := actions.UpdateDetail(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "update-count",
				Usage: app.T_("Show the number of pending updates"),
				Action: withClientWrapper(func(ctx context.Context, cmd *cli.Command, actions *ClientActions) error {
					resp, err := actions.UpdateCount(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "tum",
				Usage: app.T_("Show topic updates matching the pending plan"),
				Action: withClientWrapper(func(ctx context.Context, cmd *cli.Command, actions *ClientActions) error {
					resp, err := actions.TumUpdate(ctx)
					return respond(ctx, resp, err)
				}),
			},
			{
				Name:  "download",
				Usage: app.T_("Download packages of the pending update plan"),
				Action: withBackendWrapper(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					defer actions.Close(ctx)

					files, err := actions.DownloadUpdates(ctx)
					if err != nil {
						return reply.CliResponse(ctx, newErrorResponse(err.Error()))
					}
					return reply.CliResponse(ctx, reply.APIResponse{
						Data: map[string]interface{}{
							"message": fmt.Sprintf(app.TN_("%d package downloaded", "%d packages downloaded", len(files)), len(files)),
							"files":   files,
						},
					})
				}),
			},
		},
	}
}
