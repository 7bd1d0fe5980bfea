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
	"aoska/internal/common/reply"
	"aoska/internal/common/wrapper"
	"aoska/internal/oma/service"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// newErrorResponse создаёт ответ с ошибкой и указанным сообщением.
func newErrorResponse(message string) reply.APIResponse {
	app.Log.Error(message)

	return reply.APIResponse{
		Data:  map[string]interface{}{"message": message},
		Error: true,
	}
}

func newCliActions(_ context.Context, appConfig *app.Config) (*Actions, error) {
	return NewActions(appConfig, WriterLogSink(os.Stdout))
}

var withActions = wrapper.WithOptions(wrapper.NoRootCheck, newCliActions, newErrorResponse)

func startFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "wait",
			Usage: app.T_("Wait until the task finishes"),
		},
		&cli.BoolFlag{
			Name:  "follow",
			Usage: app.T_("Print the task log while waiting"),
		},
		&cli.StringFlag{
			Name:  "unit",
			Usage: app.T_("Name of the systemd unit for the task"),
		},
		&cli.BoolFlag{
			Name:  "yes",
			Usage: app.T_("Do not ask for confirmation"),
			Value: true,
		},
	}
}

func startOptionsFromCmd(cmd *cli.Command) service.StartOptions {
	return service.StartOptions{
		Wait:      cmd.Bool("wait"),
		Follow:    cmd.Bool("follow"),
		Unit:      cmd.String("unit"),
		AssumeYes: cmd.Bool("yes"),
	}
}

func startedResponse(ctx context.Context, unit string, err error) error {
	if err != nil {
		return reply.CliResponse(ctx, newErrorResponse(err.Error()))
	}
	return reply.CliResponse(ctx, reply.APIResponse{
		Data: map[string]interface{}{
			"message": app.T_("Task started"),
			"unit":    strings.TrimSpace(unit),
		},
	})
}

func outputResponse(ctx context.Context, unit string, out string, err error) error {
	if err != nil {
		return reply.CliResponse(ctx, newErrorResponse(err.Error()))
	}
	data := map[string]interface{}{
		"output": strings.TrimRight(out, "\n"),
	}
	if unit != "" {
		data["unit"] = unit
	}
	return reply.CliResponse(ctx, reply.APIResponse{Data: data})
}

func unitCommand(name, usage string, call func(*Actions, context.Context, string) (string, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "unit",
		Action: withActions(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
			if cmd.NArg() != 1 {
				return reply.CliResponse(ctx, newErrorResponse(app.T_("You must specify exactly one unit")))
			}
			unit := cmd.Args().First()
			out, err := call(actions, ctx, unit)
			return outputResponse(ctx, unit, out, err)
		}),
	}
}

// CommandList возвращает команду oma со всеми подкомандами
func CommandList(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "oma",
		Usage: app.T_("System package tasks through omactl"),
		Commands: []*cli.Command{
			{
				Name:  "busy",
				Usage: app.T_("Check whether oma is running a transaction"),
				Action: withActions(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					busy := actions.IsBusy(ctx)
					message := app.T_("oma is idle")
					if busy {
						message = app.T_("oma is busy")
					}
					return reply.CliResponse(ctx, reply.APIResponse{
						Data: map[string]interface{}{
							"message": message,
							"busy":    busy,
						},
					})
				}),
			},
			{
				Name:  "upgrade",
				Usage: app.T_("Start a full system upgrade"),
				Flags: startFlags(),
				Action: withActions(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					unit, err := actions.StartUpgrade(ctx, startOptionsFromCmd(cmd))
					return startedResponse(ctx, unit, err)
				}),
			},
			{
				Name:      "install",
				Usage:     app.T_("Start installing packages"),
				ArgsUsage: "packages",
				Flags:     startFlags(),
				Action: withActions(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					unit, err := actions.StartInstall(ctx, cmd.Args().Slice(), startOptionsFromCmd(cmd))
					return startedResponse(ctx, unit, err)
				}),
			},
			{
				Name:      "remove",
				Usage:     app.T_("Start removing packages"),
				ArgsUsage: "packages",
				Flags: append(startFlags(), &cli.BoolFlag{
					Name:  "remove-config",
					Usage: app.T_("Also remove configuration files"),
					Value: true,
				}),
				Action: withActions(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					unit, err := actions.StartRemove(ctx, cmd.Args().Slice(), cmd.Bool("remove-config"), startOptionsFromCmd(cmd))
					return startedResponse(ctx, unit, err)
				}),
			},
			unitCommand("status", app.T_("Show the state of a task"), (*Actions).UnitStatus),
			unitCommand("logs", app.T_("Show the accumulated log of a task"), (*Actions).UnitLogs),
			unitCommand("result", app.T_("Show the result of a task"), (*Actions).UnitResult),
			unitCommand("cancel", app.T_("Cancel a task"), (*Actions).CancelUnit),
			{
				Name:  "list",
				Usage: app.T_("List omactl tasks"),
				Action: withActions(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					out, err := actions.ListUnits(ctx)
					return outputResponse(ctx, "", out, err)
				}),
			},
			{
				Name:      "follow",
				Usage:     app.T_("Print the log of a task as it is written"),
				ArgsUsage: "unit",
				Action: withActions(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					if cmd.NArg() != 1 {
						return reply.CliResponse(ctx, newErrorResponse(app.T_("You must specify exactly one unit")))
					}
					reply.StopSpinner(ctx)

					if err := actions.FollowLogs(ctx, cmd.Args().First()); err != nil {
						return reply.CliResponse(ctx, newErrorResponse(err.Error()))
					}

					done := make(chan struct{})
					go func() {
						actions.WaitFollowers()
						close(done)
					}()

					select {
					case <-done:
					case <-ctx.Done():
						actions.Close()
					}
					return nil
				}),
			},
			{
				Name:  "history",
				Usage: app.T_("Show started tasks, newest first"),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: app.T_("Maximum number of records"),
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: app.T_("Number of records to skip"),
						Value: 0,
					},
				},
				Action: withActions(func(ctx context.Context, cmd *cli.Command, actions *Actions) error {
					resp, err := actions.History(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
					if err != nil {
						return reply.CliResponse(ctx, newErrorResponse(err.Error()))
					}
					return reply.CliResponse(ctx, reply.APIResponse{
						Data: map[string]interface{}{
							"message":    fmt.Sprintf(app.TN_("%d record found", "%d records found", resp.TotalCount), resp.TotalCount),
							"tasks":      resp.Tasks,
							"totalCount": resp.TotalCount,
						},
					})
				}),
			},
		},
	}
}
