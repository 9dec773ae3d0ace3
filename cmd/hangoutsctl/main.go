package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/matheus3301/hangouts/internal/config"
	"github.com/matheus3301/hangouts/internal/daemon"
	"github.com/matheus3301/hangouts/internal/lock"
	"github.com/matheus3301/hangouts/internal/session"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

func main() {
	userFlag := flag.String("user", "", "username (overrides config default_user)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "status":
		err = cmdStatus(*userFlag, *jsonFlag)
	case "users":
		if len(args) >= 2 && args[1] == "list" {
			err = cmdUsersList()
		} else {
			fmt.Fprintln(os.Stderr, "usage: hangoutsctl users list")
			os.Exit(1)
		}
	case "config":
		if len(args) >= 2 && args[1] == "init" {
			err = cmdConfigInit(*userFlag)
		} else {
			fmt.Fprintln(os.Stderr, "usage: hangoutsctl [--user <name>] config init")
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: hangoutsctl [--user <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status           Show daemon and connection status")
	fmt.Fprintln(os.Stderr, "  users list       List users with local state")
	fmt.Fprintln(os.Stderr, "  config init      Write a default config.toml")
}

func cmdStatus(userFlag string, jsonOut bool) error {
	user, err := session.Resolve(userFlag)
	if err != nil {
		return err
	}
	pid, err := lock.Holder(session.Dir(user))
	if err != nil {
		return err
	}
	if pid == 0 {
		return fmt.Errorf("no daemon running for user %q", user)
	}

	conn, err := grpc.NewClient(
		"unix://"+session.SocketPath(user),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return fmt.Errorf("connect to daemon for user %q: %w", user, err)
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: daemon.ConnectionService})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	if jsonOut {
		data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	connection := "closed"
	if resp.Status == healthpb.HealthCheckResponse_SERVING {
		connection = "open"
	}
	fmt.Printf("User:       %s\n", user)
	fmt.Printf("PID:        %d\n", pid)
	fmt.Printf("Connection: %s\n", connection)
	return nil
}

func cmdUsersList() error {
	entries, err := os.ReadDir(filepath.Join(session.BaseDir(), "users"))
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Println("No users found.")
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		running := "stopped"
		if pid, err := lock.Holder(session.Dir(e.Name())); err == nil && pid != 0 {
			running = fmt.Sprintf("running, pid %d", pid)
		}
		fmt.Printf("%-20s %s\n", e.Name(), running)
	}
	return nil
}

func cmdConfigInit(userFlag string) error {
	path := session.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if userFlag != "" {
		if err := session.ValidateName(userFlag); err != nil {
			return err
		}
	}
	cfg := config.Config{DefaultUser: userFlag}.WithDefaults()
	if err := config.Save(path, &cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
