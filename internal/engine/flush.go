package engine

import (
	"context"
	"slices"

	"go.uber.org/zap"
)

// flush retransmits every queued command unchanged. Entries stay queued until
// their acknowledgement arrives, so a flush cut short by a crash or a dropped
// connection is repeated on the next open.
func (e *Engine) flush(ctx context.Context) {
	if e.owner == "" {
		return
	}
	if e.dirty.queue {
		e.saveQueue("put offline queue", nil)
	}
	queue := slices.Clone(e.queue)
	if len(queue) == 0 {
		return
	}

	sent := 0
	for _, entry := range queue {
		if err := e.transport.Send(ctx, entry.Command); err != nil {
			e.logger.Warn("flush interrupted",
				zap.String("entry_id", entry.ID),
				zap.Int("sent", sent),
				zap.Int("pending", len(queue)),
				zap.Error(err),
			)
			return
		}
		sent++
	}
	e.logger.Info("offline queue flushed", zap.Int("sent", sent))
}
