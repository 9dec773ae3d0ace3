package daemon

import (
	"context"
	"time"

	"github.com/matheus3301/hangouts/internal/conn"
	"github.com/matheus3301/hangouts/internal/status"
	"go.uber.org/zap"
)

const dialTimeout = 10 * time.Second

// connector is the part of the Connection Manager the dialer drives.
type connector interface {
	Connect(ctx context.Context) error
	ReadyState() status.ReadyState
}

// Dialer re-establishes the connection at a fixed interval whenever it is
// closed. The engine never dials itself.
type Dialer struct {
	conn     connector
	interval time.Duration
	logger   *zap.Logger
}

// NewDialer creates a dialer for the configured reconnect interval.
func NewDialer(p Params, m *conn.Manager, logger *zap.Logger) *Dialer {
	return newDialer(m, p.Config.WithDefaults().ReconnectInterval.Duration, logger)
}

func newDialer(c connector, interval time.Duration, logger *zap.Logger) *Dialer {
	return &Dialer{
		conn:     c,
		interval: interval,
		logger:   logger.Named("dialer"),
	}
}

// Run dials immediately, then checks every interval until ctx is done.
func (d *Dialer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	attempts := 0
	for {
		if d.conn.ReadyState() == status.Closed {
			attempts++
			if err := d.dial(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				d.logger.Warn("connect failed", zap.Int("attempt", attempts), zap.Duration("retry_in", d.interval), zap.Error(err))
			} else {
				attempts = 0
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dialer) dial(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return d.conn.Connect(ctx)
}
