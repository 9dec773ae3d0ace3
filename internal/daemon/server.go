package daemon

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/lock"
	"github.com/matheus3301/hangouts/internal/session"
	"github.com/matheus3301/hangouts/internal/status"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ConnectionService is the health service name that reports SERVING while the
// connection is open.
const ConnectionService = "hangouts.connection"

// Server manages the gRPC server lifecycle for a user's daemon. It serves the
// standard health protocol only.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger

	events <-chan bus.Event
	unsub  func()
	done   chan struct{}
}

// NewServer creates a gRPC server bound to the user's Unix domain socket.
// Readiness changes published on b are mirrored into the health status. It
// takes the user lock so a second instance never removes a live socket.
func NewServer(p Params, _ *lock.Lock, b *bus.Bus, logger *zap.Logger) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = session.SocketPath(p.User)
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}

	// Set socket permissions to 0600.
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ConnectionService, healthpb.HealthCheckResponse_NOT_SERVING)

	events, unsub := b.Subscribe(bus.KindReadyState, 64)

	return &Server{
		grpcServer: srv,
		health:     hs,
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
		events:     events,
		unsub:      unsub,
		done:       make(chan struct{}),
	}, nil
}

// Start begins serving gRPC requests. Blocks until stopped.
func (s *Server) Start() error {
	go s.watchReadiness()
	s.logger.Info("gRPC server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(_ context.Context) {
	s.logger.Info("gRPC server stopping")
	close(s.done)
	s.unsub()
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	_ = s.listener.Close()
	_ = os.Remove(s.socketPath)
}

// SetReady updates the connection health status.
func (s *Server) SetReady(state status.ReadyState) {
	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if state == status.Open {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ConnectionService, serving)
}

func (s *Server) watchReadiness() {
	for {
		select {
		case evt, ok := <-s.events:
			if !ok {
				return
			}
			if change, ok := evt.Payload.(status.Change); ok {
				s.SetReady(change.To)
			}
		case <-s.done:
			return
		}
	}
}
