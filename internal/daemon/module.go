package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/matheus3301/hangouts/internal/backlog"
	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/config"
	"github.com/matheus3301/hangouts/internal/conn"
	"github.com/matheus3301/hangouts/internal/engine"
	"github.com/matheus3301/hangouts/internal/lock"
	"github.com/matheus3301/hangouts/internal/logging"
	"github.com/matheus3301/hangouts/internal/session"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved user configuration passed to the fx module.
type Params struct {
	User   string
	Config config.Config
	// LogName names the log file under the user's logs directory.
	LogName    string
	Log        logging.Options
	SocketPath string // optional override for testing; empty = use default
}

// Module returns the fx module running one user's engine, composing all
// providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideConn,
			provideBacklog,
			provideEngine,
			NewDialer,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	name := p.LogName
	if name == "" {
		name = "hangoutsd"
	}
	return logging.New(session.LogPath(p.User, name), p.User, p.Log)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.User); err != nil {
		return nil, err
	}
	logger.Info("acquiring user lock", zap.String("user", p.User))
	l, err := lock.Acquire(session.Dir(p.User))
	if err != nil {
		return nil, err
	}
	logger.Info("user lock acquired")
	return l, nil
}

// provideStore depends on the lock so the store is only opened by its owner.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.User)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideConn(p Params, m *status.Machine, logger *zap.Logger) (*conn.Manager, error) {
	endpoint, err := conn.Endpoint(p.Config.ServerURL, p.User)
	if err != nil {
		return nil, err
	}
	return conn.NewManager(endpoint, m, logger), nil
}

// provideBacklog returns nil when no backlog URL is configured.
func provideBacklog(p Params) (backlog.Fetcher, error) {
	if p.Config.BacklogURL == "" {
		return nil, nil
	}
	return backlog.NewClient(p.Config.BacklogURL)
}

func provideEngine(db *store.DB, m *conn.Manager, f backlog.Fetcher, b *bus.Bus, logger *zap.Logger) *engine.Engine {
	var opts []engine.Option
	if f != nil {
		opts = append(opts, engine.WithBacklog(f))
	}
	return engine.New(db, m, b, logger, opts...)
}

func registerLifecycle(lc fx.Lifecycle, p Params, srv *Server, lk *lock.Lock, db *store.DB, mgr *conn.Manager, eng *engine.Engine, dialer *Dialer, logger *zap.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())
	engineDone := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(engineDone)
				if err := eng.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("engine stopped", zap.Error(err))
				}
			}()
			if err := eng.Init(ctx, p.User); err != nil {
				cancel()
				return err
			}

			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			go dialer.Run(runCtx)

			if p.Config.BacklogURL != "" {
				go func() {
					ctx, cancel := context.WithTimeout(runCtx, 30*time.Second)
					defer cancel()
					if err := eng.FetchBacklog(ctx); err != nil {
						logger.Warn("initial backlog fetch failed", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			mgr.Stop()
			cancel()
			select {
			case <-engineDone:
			case <-ctx.Done():
			}
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
