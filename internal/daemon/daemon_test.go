package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/config"
	"github.com/matheus3301/hangouts/internal/engine"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/lock"
	"github.com/matheus3301/hangouts/internal/session"
	"github.com/matheus3301/hangouts/internal/status"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// shortTempDir keeps socket paths under the 104-char Unix socket limit on macOS.
func shortTempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", pattern)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func healthClient(t *testing.T, socketPath string) healthpb.HealthClient {
	t.Helper()
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func waitForHealth(t *testing.T, c healthpb.HealthClient, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var last healthpb.HealthCheckResponse_ServingStatus
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: ConnectionService})
		cancel()
		if err == nil {
			last = resp.Status
			if last == want {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("health status = %v, want %v", last, want)
}

func TestHealthReflectsReadiness(t *testing.T) {
	tmpDir := shortTempDir(t, "hangouts-health-*")
	socketPath := filepath.Join(tmpDir, "d.sock")

	b := bus.New()
	machine := status.NewMachine(b)
	srv, err := NewServer(Params{User: "alice", SocketPath: socketPath}, nil, b, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Start() }()
	defer srv.Stop(context.Background())

	c := healthClient(t, socketPath)

	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("overall Check() error = %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("overall status = %v, want SERVING", resp.Status)
	}
	waitForHealth(t, c, healthpb.HealthCheckResponse_NOT_SERVING)

	_ = machine.Transition(status.Connecting)
	_ = machine.Transition(status.Open)
	waitForHealth(t, c, healthpb.HealthCheckResponse_SERVING)

	_ = machine.Transition(status.Closed)
	waitForHealth(t, c, healthpb.HealthCheckResponse_NOT_SERVING)
}

// TestFxModuleWiring verifies the fx dependency graph resolves without errors.
func TestFxModuleWiring(t *testing.T) {
	p := Params{User: "fxtest", Config: config.Config{}.WithDefaults()}
	if err := fx.ValidateApp(Module(p)); err != nil {
		t.Fatalf("fx graph invalid: %v", err)
	}
}

func TestSecondInstanceFailsOnLock(t *testing.T) {
	t.Setenv("HANGOUTS_HOME", shortTempDir(t, "hangouts-lock-*"))

	held, err := lock.Acquire(session.Dir("alice"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = held.Release() }()

	app := fx.New(
		Module(Params{User: "alice", Config: config.Config{}.WithDefaults()}),
		fx.NopLogger,
	)
	if app.Err() == nil {
		t.Fatal("second instance started while the user lock was held")
	}
}

// TestDaemonEndToEnd runs the whole module against a websocket server that
// acknowledges every command it receives.
func TestDaemonEndToEnd(t *testing.T) {
	home := shortTempDir(t, "hangouts-e2e-*")
	t.Setenv("HANGOUTS_HOME", home)

	var dialedUser atomic.Value
	received := make(chan hangout.Command, 8)
	ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dialedUser.Store(r.URL.Query().Get("username"))
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = c.CloseNow() }()
		ctx := r.Context()
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				return
			}
			var cmd hangout.Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				return
			}
			received <- cmd

			ackState, _ := cmd.Command.Acknowledged()
			ack, _ := json.Marshal(hangout.Frame{
				Type:    hangout.Acknowledgement,
				Hangout: &hangout.Hangout{Username: cmd.Username, State: ackState, Timestamp: cmd.Timestamp},
			})
			if err := c.Write(ctx, websocket.MessageText, ack); err != nil {
				return
			}
		}
	}))
	defer ws.Close()

	socketPath := filepath.Join(home, "d.sock")
	p := Params{
		User: "alice",
		Config: config.Config{
			ServerURL:         ws.URL + "/ws?username={username}",
			ReconnectInterval: config.Duration{Duration: 50 * time.Millisecond},
		},
		SocketPath: socketPath,
	}

	var eng *engine.Engine
	app := fxtest.New(t, Module(p), fx.Populate(&eng))
	app.RequireStart()
	defer app.RequireStop()

	waitForHealth(t, healthClient(t, socketPath), healthpb.HealthCheckResponse_SERVING)
	if got, _ := dialedUser.Load().(string); got != "alice" {
		t.Errorf("dialed as %q, want alice", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	deadline := time.Now().Add(5 * time.Second)
	for eng.Snapshot().ReadyState != status.Open {
		if time.Now().After(deadline) {
			t.Fatal("engine never observed the open connection")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := eng.SendHangoutCommand(ctx, engine.Intent{Command: hangout.Inviter, PeerUsername: "bob"}); err != nil {
		t.Fatal(err)
	}

	select {
	case cmd := <-received:
		if cmd.Username != "bob" || cmd.Command != hangout.Inviter {
			t.Errorf("server received %+v", cmd)
		}
	case <-ctx.Done():
		t.Fatal("server never received the invite")
	}

	for {
		snap := eng.Snapshot()
		if i := hangout.Find(snap.Hangouts, "bob"); i >= 0 && snap.Hangouts[i].Delivered {
			if snap.Hangouts[i].State != hangout.Invited {
				t.Errorf("state = %s, want INVITED", snap.Hangouts[i].State)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("acknowledgement never applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type fakeConnector struct {
	state    atomic.Int32
	connects atomic.Int32
}

func (f *fakeConnector) Connect(context.Context) error {
	f.connects.Add(1)
	f.state.Store(int32(status.Open))
	return nil
}

func (f *fakeConnector) ReadyState() status.ReadyState {
	return status.ReadyState(f.state.Load())
}

func TestDialerReconnectsWhenClosed(t *testing.T) {
	fc := &fakeConnector{}
	fc.state.Store(int32(status.Closed))
	d := newDialer(fc, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	waitFor := func(n int32) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for fc.connects.Load() < n {
			if time.Now().After(deadline) {
				t.Fatalf("connects = %d, want %d", fc.connects.Load(), n)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitFor(1)
	// No dials while open.
	time.Sleep(50 * time.Millisecond)
	if n := fc.connects.Load(); n != 1 {
		t.Errorf("connects while open = %d, want 1", n)
	}

	fc.state.Store(int32(status.Closed))
	waitFor(2)
}
