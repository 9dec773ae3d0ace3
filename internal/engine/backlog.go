package engine

import (
	"context"

	"go.uber.org/zap"
)

// FetchBacklog downloads the unread hangouts queued on the server and merges
// them as unread arrivals. The request runs off the engine goroutine; progress
// is visible in State.Backlog.
func (e *Engine) FetchBacklog(ctx context.Context) error {
	var owner string
	err := e.submit(ctx, func() error {
		if e.owner == "" {
			return ErrNoUser
		}
		if e.backlog == nil {
			return ErrNoBacklog
		}
		owner = e.owner
		e.state.Backlog = Backlog{Loading: true}
		e.publish()
		return nil
	})
	if err != nil {
		return err
	}

	list, fetchErr := e.backlog.Fetch(ctx, owner)

	return e.submit(context.WithoutCancel(ctx), func() error {
		if e.owner != owner {
			// Signed out while the request was in flight.
			return fetchErr
		}
		e.state.Backlog = Backlog{Err: fetchErr}
		if fetchErr != nil {
			e.logger.Warn("backlog fetch failed", zap.Error(fetchErr))
		} else {
			for _, h := range list {
				e.receive(h, true)
			}
			e.logger.Info("backlog merged", zap.Int("hangouts", len(list)))
		}
		e.publish()
		return fetchErr
	})
}
