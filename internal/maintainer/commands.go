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

package maintainer

import (
	"aoska/internal/common/app"
	"aoska/internal/common/reply"
	"aoska/internal/common/wrapper"
	"context"

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

func newGenerator(_ context.Context, _ *app.Config) (*Generator, error) {
	return NewGenerator(), nil
}

var withGenerator = wrapper.WithOptions(wrapper.NoRootCheck, newGenerator, newErrorResponse)

func fileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    app.T_("Input TOML file path"),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    app.T_("Output JSON file path"),
			Required: true,
		},
	}
}

func generated(ctx context.Context, cmd *cli.Command, message string, err error) error {
	reply.CreateEventNotification(ctx, reply.StateAfter, reply.WithEventName("maintainer.Generate"))
	if err != nil {
		return reply.CliResponse(ctx, newErrorResponse(err.Error()))
	}
	return reply.CliResponse(ctx, reply.APIResponse{
		Data: map[string]interface{}{
			"message": message,
			"output":  cmd.String("output"),
		},
	})
}

// CommandList возвращает команду maintainer
func CommandList(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:  "maintainer",
		Usage: app.T_("Generate catalog JSON documents from TOML sources"),
		Commands: []*cli.Command{
			{
				Name:  "generate-index",
				Usage: app.T_("Generate the catalog index"),
				Flags: fileFlags(),
				Action: withGenerator(func(ctx context.Context, cmd *cli.Command, g *Generator) error {
					reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("maintainer.Generate"))
					err := GenerateFile(cmd.String("input"), cmd.String("output"), g.Index)
					return generated(ctx, cmd, app.T_("Index JSON file generated"), err)
				}),
			},
			{
				Name:  "generate-recommend",
				Usage: app.T_("Generate the recommendation index"),
				Flags: fileFlags(),
				Action: withGenerator(func(ctx context.Context, cmd *cli.Command, g *Generator) error {
					reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("maintainer.Generate"))
					err := GenerateFile(cmd.String("input"), cmd.String("output"), g.Recommend)
					return generated(ctx, cmd, app.T_("Recommend index JSON file generated"), err)
				}),
			},
			{
				Name:  "generate-package",
				Usage: app.T_("Generate a package detail document"),
				Flags: fileFlags(),
				Action: withGenerator(func(ctx context.Context, cmd *cli.Command, g *Generator) error {
					reply.CreateEventNotification(ctx, reply.StateBefore, reply.WithEventName("maintainer.Generate"))
					err := GenerateFile(cmd.String("input"), cmd.String("output"), g.Package)
					return generated(ctx, cmd, app.T_("Package detail JSON file generated"), err)
				}),
			},
		},
	}
}
