package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/config"
	"github.com/matheus3301/hangouts/internal/daemon"
	"github.com/matheus3301/hangouts/internal/engine"
	"github.com/matheus3301/hangouts/internal/logging"
	"github.com/matheus3301/hangouts/internal/session"
	"github.com/matheus3301/hangouts/internal/tui"
	"go.uber.org/fx"
)

func main() {
	userFlag := flag.String("user", "", "username (overrides config default_user)")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	if err := run(*userFlag, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run hosts the engine in-process and puts the TUI on top of it. The log goes
// to the user's log file only, since the terminal belongs to the UI.
func run(userFlag string, debug bool) error {
	user, err := session.Resolve(userFlag)
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return err
	}

	var (
		eng *engine.Engine
		b   *bus.Bus
	)
	app := fx.New(
		daemon.Module(daemon.Params{
			User:    user,
			Config:  cfg,
			LogName: "hangouts",
			Log:     logging.Options{Debug: debug},
		}),
		fx.Populate(&eng, &b),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	uiErr := tui.NewApp(eng, b, user).Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil && uiErr == nil {
		return err
	}
	return uiErr
}
