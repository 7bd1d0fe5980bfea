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

package main

import (
	"aoska/internal/common/app"
	"aoska/internal/common/helper"
	"aoska/internal/common/reply"
	"aoska/internal/maintainer"
	"aoska/internal/oma"
	"aoska/internal/store"
	"aoska/internal/store/client"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/urfave/cli/v3"
)

var (
	ctx, globalCancel = context.WithCancel(context.Background())
	appConfig         *app.Config
)

func main() {
	var errInitial error
	appConfig, errInitial = app.InitializeAppDefault()
	if errInitial != nil {
		log.Fatal(errInitial)
	}

	app.Log.Debug("Starting aoska…")

	setupSignalHandling()
	ctx = context.WithValue(ctx, app.AppConfigKey, appConfig)

	// Основная команда приложения
	rootCommand := &cli.Command{
		Name:    "aoska",
		Usage:   "AOSC OS Software Store",
		Version: appConfig.ConfigManager.GetConfig().Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Usage:   app.T_("Output format: json, yaml, text"),
				Aliases: []string{"f"},
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "transaction",
				Usage:   app.T_("Internal property, adds the transaction to the output"),
				Aliases: []string{"t"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "dbus-session",
				Usage:  app.T_("Start session D-Bus service io.aosc.Aoska"),
				Action: sessionDbus,
			},
			store.CommandList(ctx),
			oma.CommandList(ctx),
			maintainer.CommandList(ctx),
			{
				Name:      "help",
				Aliases:   []string{"h"},
				Usage:     app.T_("Show the list of commands or help for each command"),
				ArgsUsage: app.T_("[command]"),
				HideHelp:  true,
			},
		},
	}

	applyCommandSetting(rootCommand)

	if err := rootCommand.Run(ctx, os.Args); err != nil {
		cleanup()
		os.Exit(1)
	}
	cleanup()
}

// setupSignalHandling настраивает обработку системных сигналов
func setupSignalHandling() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigs

		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			app.Log.Info(fmt.Sprintf(app.T_("Received signal %s. Stopping application…"), sig))
		default:
			app.Log.Error(fmt.Sprintf(app.T_("Unexpected signal %s received. Terminating the application with an error."), sig))
		}

		cleanup()
		code := 1
		if s, ok := sig.(syscall.Signal); ok {
			switch s {
			case syscall.SIGINT:
				code = 130
			case syscall.SIGTERM:
				code = 143
			default:
				code = 128 + int(s)
			}
		}
		os.Exit(code)
	}()
}

func applyCommandSetting(cliCommand *cli.Command) {
	cliCommand.CommandNotFound = func(ctx context.Context, cmd *cli.Command, name string) {
		appConfig.ConfigManager.SetFormat(cmd.String("format"))
		msg := fmt.Sprintf(app.T_("Unknown command: %s. See 'aoska help'"), name)
		cliError(errors.New(msg))
	}
	cliCommand.HideHelpCommand = true
	cliCommand.EnableShellCompletion = true
	cliCommand.Suggest = true

	for _, sub := range cliCommand.Commands {
		applyCommandSetting(sub)
	}
}

func sessionDbus(ctx context.Context, cmd *cli.Command) error {
	appConfig.ConfigManager.SetFormat(cmd.String("format"))
	if syscall.Geteuid() == 0 {
		errPermission := app.T_("Elevated rights are not allowed to perform this action. Please do not use sudo or su")
		cliError(errors.New(errPermission))
		return errors.New(errPermission)
	}

	err := appConfig.DBusManager.ConnectSessionBus()
	if err != nil {
		app.Log.Error("ConnectSessionBus failed: ", err)
		cliError(err)
		return err
	}
	conn := appConfig.DBusManager.GetConnection()
	config := appConfig.ConfigManager.GetConfig()

	storeActions, err := store.NewActions(appConfig)
	if err != nil {
		cliError(err)
		return err
	}
	defer storeActions.Close(context.Background())

	// Экспортируем в D-Bus
	if err = conn.Export(store.NewDBusWrapper(storeActions, ctx), app.DBusObjectPath, client.StoreInterface); err != nil {
		return err
	}

	withOma := oma.Available(config.OmaCtlBinary)
	var systemConn *dbus.Conn
	if withOma {
		// polkit доступен только на системной шине
		systemConn, err = appConfig.DBusManager.SystemConnection()
		if err != nil {
			app.Log.Warning(fmt.Sprintf(app.T_("System bus is unavailable, the oma interface is not exported: %v"), err))
			withOma = false
		}
	} else {
		app.Log.Warning(app.T_("omactl not found, the oma interface is not exported"))
	}
	if withOma {
		omaActions, errOma := oma.NewActions(appConfig, oma.DBusLogSink(conn))
		if errOma != nil {
			cliError(errOma)
			return errOma
		}
		defer omaActions.Close()

		polkit := helper.NewPolkitChecker(conn, systemConn)
		if err = conn.Export(oma.NewDBusWrapper(omaActions, polkit, ctx), app.DBusObjectPath, app.DBusServiceName+".oma"); err != nil {
			return err
		}
	}

	if err = conn.Export(
		introspect.Introspectable(helper.GetIntrospectXML(withOma)),
		app.DBusObjectPath,
		"org.freedesktop.DBus.Introspectable",
	); err != nil {
		return err
	}

	appConfig.ConfigManager.SetFormat(app.FormatDBus)
	app.Log.Info(fmt.Sprintf(app.T_("Service %s is running"), app.DBusServiceName))

	// Блокируем до сигнала
	<-ctx.Done()
	return nil
}

func cliError(err error) {
	if err == nil {
		return
	}

	errCli := reply.CliResponse(ctx, reply.APIResponse{
		Data: map[string]interface{}{
			"message": err.Error(),
		},
		Error: true,
	})
	if errCli != nil && errCli.Error() != "" {
		log.Fatal(errCli)
	}
}

func cleanup() {
	if appConfig != nil {
		app.Log.Debug(app.T_("Terminating the application. Releasing resources…"))
		if err := closeApp(appConfig); err != nil {
			app.Log.Error(err)
		}
	}

	globalCancel()
}

func closeApp(appConfig *app.Config) error {
	if appConfig == nil {
		return nil
	}

	// Закрываем DBus соединение
	if appConfig.DBusManager != nil {
		if err := appConfig.DBusManager.Close(); err != nil {
			return fmt.Errorf(app.T_("failed to close DBus: %w"), err)
		}
	}

	// Закрываем базы данных
	if appConfig.DatabaseManager != nil {
		if err := appConfig.DatabaseManager.Close(); err != nil {
			return fmt.Errorf(app.T_("failed to close databases: %w"), err)
		}
	}

	return nil
}
