package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/hangouts/internal/config"
	"github.com/matheus3301/hangouts/internal/daemon"
	"github.com/matheus3301/hangouts/internal/logging"
	"github.com/matheus3301/hangouts/internal/session"
	"go.uber.org/fx"
)

func main() {
	userFlag := flag.String("user", "", "username (overrides config default_user)")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	user, err := session.Resolve(*userFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{
			User:    user,
			Config:  cfg,
			LogName: "hangoutsd",
			Log:     logging.Options{Console: true, Debug: *debug},
		}),
	)

	app.Run()
}
