// Package engine is the hangouts sync controller. It owns the relationship
// state of one user and serializes every mutation (user intents, inbound frames
// and readiness changes) through a single goroutine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/hangouts/internal/backlog"
	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/conn"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrNoUser is returned while no user is signed in.
	ErrNoUser = errors.New("no current user")
	// ErrInvalidCommand is returned for intents whose command is not self-initiated.
	ErrInvalidCommand = errors.New("invalid hangout command")
	// ErrNoBacklog is returned by FetchBacklog when no backlog source is configured.
	ErrNoBacklog = errors.New("backlog not configured")
	// ErrStopped is returned for intents submitted after Run has returned.
	ErrStopped = errors.New("engine stopped")
)

// Transport is the part of the Connection Manager the engine uses.
type Transport interface {
	Send(ctx context.Context, cmd hangout.Command) error
	Events() <-chan conn.Event
}

var _ Transport = (*conn.Manager)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for command timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithBacklog sets the source used by FetchBacklog.
func WithBacklog(f backlog.Fetcher) Option {
	return func(e *Engine) { e.backlog = f }
}

// Engine is the controller behind the state surface.
type Engine struct {
	db        *store.DB
	transport Transport
	backlog   backlog.Fetcher
	bus       *bus.Bus
	logger    *zap.Logger
	now       func() time.Time

	ops     chan func()
	stopped chan struct{}
	runOnce sync.Once

	// Owned by the Run goroutine.
	owner   string
	focused string
	ready   status.ReadyState
	state   State
	// messages caches the conversations loaded so far, by peer.
	messages map[string][]hangout.Message
	// queue mirrors the durable offline queue in replay order.
	queue []store.OfflineEntry
	dirty dirtySet

	snapMu sync.RWMutex
	snap   State
}

// New creates an inert engine. Call Run, then Init once the user is known.
func New(db *store.DB, t Transport, b *bus.Bus, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		db:        db,
		transport: t,
		bus:       b,
		logger:    logger.Named("engine"),
		now:       time.Now,
		ops:       make(chan func()),
		stopped:   make(chan struct{}),
		ready:     status.Closed,
		messages:  make(map[string][]hangout.Message),
		dirty:     newDirtySet(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = emptyState(e.ready)
	e.snap = e.state.clone()
	return e
}

// Run drains connection events and submitted intents until ctx is done. It
// must be called exactly once.
func (e *Engine) Run(ctx context.Context) error {
	started := false
	e.runOnce.Do(func() { started = true })
	if !started {
		return fmt.Errorf("engine already running")
	}
	defer close(e.stopped)

	events := e.transport.Events()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			e.handleConnEvent(ctx, evt)
		case op := <-e.ops:
			op()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Init signs username in: the stored hangouts and unread list are loaded and
// the engine starts accepting intents and frames. An empty username leaves the
// engine inert.
func (e *Engine) Init(ctx context.Context, username string) error {
	if username == "" {
		return ErrNoUser
	}
	return e.submit(ctx, func() error {
		hangouts, err := e.db.Hangouts(username)
		if err != nil {
			return fmt.Errorf("load hangouts: %w", err)
		}
		unread, err := e.db.UnreadHangouts(username)
		if err != nil {
			return fmt.Errorf("load unread hangouts: %w", err)
		}
		queue, err := e.db.OfflineQueue(username)
		if err != nil {
			return fmt.Errorf("load offline queue: %w", err)
		}

		e.reset()
		e.owner = username
		e.state.Username = username
		e.state.Hangouts = hangouts
		e.state.UnreadHangouts = unread
		e.queue = queue
		e.logger.Info("user signed in",
			zap.String("user", username),
			zap.Int("hangouts", len(hangouts)),
			zap.Int("unread", len(unread)),
			zap.Int("queued", len(queue)),
		)
		e.publish()
		return nil
	})
}

// Teardown signs the current user out. With clear set, every stored value of
// the user is deleted, including the offline queue.
func (e *Engine) Teardown(ctx context.Context, clear bool) error {
	return e.submit(ctx, func() error {
		owner := e.owner
		if clear && owner != "" {
			if err := e.db.Clear(owner); err != nil {
				return fmt.Errorf("clear storage: %w", err)
			}
		}
		e.reset()
		e.logger.Info("user signed out", zap.String("user", owner), zap.Bool("cleared", clear))
		e.publish()
		return nil
	})
}

// Snapshot returns a deep copy of the current state surface.
func (e *Engine) Snapshot() State {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snap.clone()
}

// submit runs fn on the Run goroutine and waits for its result.
func (e *Engine) submit(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	op := func() { done <- fn() }
	select {
	case e.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrStopped
	}
	// Once accepted, op runs to completion on the loop.
	return <-done
}

func (e *Engine) reset() {
	e.owner = ""
	e.focused = ""
	e.messages = make(map[string][]hangout.Message)
	e.queue = nil
	e.dirty = newDirtySet()
	e.state = emptyState(e.ready)
}

func (e *Engine) handleConnEvent(ctx context.Context, evt conn.Event) {
	switch evt.Kind {
	case conn.EventStateChanged:
		prev := e.ready
		e.ready = evt.State
		e.state.ReadyState = evt.State
		e.logger.Debug("readiness changed", zap.Stringer("from", prev), zap.Stringer("to", evt.State))
		if evt.State == status.Open && prev != status.Open {
			e.flush(ctx)
		}
		e.publish()
	case conn.EventFrame:
		e.dispatch(ctx, evt.Frame)
	}
}
