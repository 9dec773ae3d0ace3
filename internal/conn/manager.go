package conn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"go.uber.org/zap"
)

// ErrNotOpen is returned by Send when the connection is not open.
var ErrNotOpen = errors.New("connection not open")

const (
	readLimit    = 1 << 20
	writeTimeout = 5 * time.Second
	eventBuffer  = 256
)

// EventKind tags a connection event.
type EventKind int

const (
	// EventStateChanged reports a readiness transition; State holds the new state.
	EventStateChanged EventKind = iota
	// EventFrame carries one decoded inbound frame.
	EventFrame
)

// Event is emitted on the manager's single ordered channel.
type Event struct {
	Kind  EventKind
	State status.ReadyState
	Frame hangout.Frame
}

// Manager owns the one websocket of a session. Readiness transitions and
// inbound frames are emitted, in order, on Events(); the manager never touches
// engine state itself.
type Manager struct {
	endpoint string
	machine  *status.Machine
	logger   *zap.Logger

	events chan Event
	stop   chan struct{}
	// emitMu keeps transitions and frames in one total order on events.
	emitMu   sync.Mutex
	stopOnce sync.Once

	mu     sync.Mutex
	ws     *websocket.Conn
	cancel context.CancelFunc
}

// NewManager creates a manager for the given resolved endpoint. See Endpoint.
func NewManager(endpoint string, machine *status.Machine, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if machine == nil {
		machine = status.NewMachine(nil)
	}
	return &Manager{
		endpoint: endpoint,
		machine:  machine,
		logger:   logger.Named("conn"),
		events:   make(chan Event, eventBuffer),
		stop:     make(chan struct{}),
	}
}

// Events returns the ordered event channel.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// ReadyState returns the current readiness.
func (m *Manager) ReadyState() status.ReadyState {
	return m.machine.Current()
}

// Connect dials the endpoint. It fails immediately unless the connection is
// closed, so at most one dial is in flight.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.transition(status.Connecting); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	m.logger.Info("connecting", zap.String("endpoint", m.endpoint))
	ws, _, err := websocket.Dial(ctx, m.endpoint, nil)
	if err != nil {
		_ = m.transition(status.Closed)
		return fmt.Errorf("dial: %w", err)
	}
	ws.SetReadLimit(readLimit)

	readCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.ws = ws
	m.cancel = cancel
	m.mu.Unlock()

	if err := m.transition(status.Open); err != nil {
		// Closed while dialing.
		cancel()
		_ = ws.CloseNow()
		return fmt.Errorf("connect: %w", err)
	}
	m.logger.Info("connected")

	go m.readPump(readCtx, ws)
	return nil
}

// Send transmits one command as a single text message. It never emits events,
// so it is safe to call from the goroutine draining Events().
func (m *Manager) Send(ctx context.Context, cmd hangout.Command) error {
	m.mu.Lock()
	ws := m.ws
	m.mu.Unlock()
	if ws == nil || m.machine.Current() != status.Open {
		return ErrNotOpen
	}

	data, err := hangout.EncodeCommand(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		// The read pump observes the dead socket and reports Closed.
		_ = ws.CloseNow()
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Close performs a normal closure. Safe to call when already closed.
func (m *Manager) Close() error {
	m.mu.Lock()
	ws, cancel := m.ws, m.cancel
	m.ws, m.cancel = nil, nil
	m.mu.Unlock()
	if ws == nil {
		return nil
	}

	_ = m.transition(status.Closing)
	err := ws.Close(websocket.StatusNormalClosure, "")
	cancel()
	_ = m.transition(status.Closed)
	m.logger.Info("connection closed")
	return err
}

// Stop releases any goroutine blocked on emitting and closes the connection.
// Events emitted after Stop may be lost.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	_ = m.Close()
}

func (m *Manager) readPump(ctx context.Context, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			m.drop(ws, err)
			return
		}
		frame, err := hangout.DecodeFrame(data)
		if err != nil {
			m.logger.Debug("dropping malformed frame", zap.Error(err))
			continue
		}
		m.emit(Event{Kind: EventFrame, Frame: frame})
	}
}

// drop tears down ws after a transport error. Only the first caller for the
// current socket transitions to Closed.
func (m *Manager) drop(ws *websocket.Conn, cause error) {
	m.mu.Lock()
	current := m.ws == ws
	var cancel context.CancelFunc
	if current {
		cancel = m.cancel
		m.ws, m.cancel = nil, nil
	}
	m.mu.Unlock()
	if !current {
		return
	}

	cancel()
	_ = ws.CloseNow()
	if websocket.CloseStatus(cause) == websocket.StatusNormalClosure {
		m.logger.Info("server closed connection")
	} else {
		m.logger.Warn("connection dropped", zap.Error(cause))
	}
	_ = m.transition(status.Closed)
}

func (m *Manager) transition(to status.ReadyState) error {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	if err := m.machine.Transition(to); err != nil {
		m.logger.Debug("ignored transition", zap.Error(err))
		return err
	}
	m.send(Event{Kind: EventStateChanged, State: to})
	return nil
}

func (m *Manager) emit(evt Event) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	m.send(evt)
}

func (m *Manager) send(evt Event) {
	select {
	case m.events <- evt:
	case <-m.stop:
	}
}
