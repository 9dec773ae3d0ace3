package engine

import (
	"context"
	"fmt"

	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"go.uber.org/zap"
)

// Intent is a user action addressed to one peer.
type Intent struct {
	Command      hangout.State
	PeerUsername string
	PeerEmail    string
	MessageText  string
}

// SendHangoutCommand applies an intent optimistically and transmits it, or
// queues it for the next open connection. Storage failures do not fail the
// call; they are reported through State.Err.
func (e *Engine) SendHangoutCommand(ctx context.Context, in Intent) error {
	if !in.Command.IsCommand() {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, in.Command)
	}
	if in.PeerUsername == "" {
		return fmt.Errorf("%w: empty peer username", ErrInvalidCommand)
	}
	return e.submit(ctx, func() error {
		if e.owner == "" {
			return ErrNoUser
		}
		e.sendIntent(ctx, in)
		e.publish()
		return nil
	})
}

func (e *Engine) sendIntent(ctx context.Context, in Intent) {
	ts := e.now().UnixMilli()
	peer := in.PeerUsername

	current := hangout.Hangout{Username: peer}
	if i := hangout.Find(e.state.Hangouts, peer); i >= 0 {
		current = e.state.Hangouts[i].Clone()
	}
	blocked := current.State == hangout.Blocker

	cmd := hangout.Command{
		Username:  peer,
		Email:     in.PeerEmail,
		Command:   in.Command,
		Timestamp: ts,
	}
	if in.MessageText != "" {
		cmd.Message = &hangout.CommandMessage{Text: in.MessageText, Timestamp: ts}
	}

	log := e.logger.With(
		zap.String("peer", peer),
		zap.String("command", string(in.Command)),
		zap.Int64("timestamp", ts),
	)

	transmitted := false
	if e.ready == status.Open && !blocked {
		if err := e.transport.Send(ctx, cmd); err != nil {
			log.Warn("transmit failed, queueing", zap.Error(err))
		} else {
			transmitted = true
			log.Debug("command transmitted")
		}
	}

	optimistic := current
	optimistic.State = in.Command
	optimistic.Timestamp = ts
	optimistic.Delivered = false
	optimistic.Read = true
	if in.PeerEmail != "" {
		optimistic.Email = in.PeerEmail
	}

	var msg *hangout.Message
	switch {
	case blocked:
		log.Info("peer has blocked user, command not sent")
		msg = &hangout.Message{
			Text:      hangout.BlockedSendText,
			Timestamp: ts,
			Username:  e.owner,
			Read:      true,
			Type:      hangout.BlockedNotice,
		}
		// The record keeps BLOCKER so later intents stay blocked.
		optimistic.State = hangout.Blocker
		last := *msg
		optimistic.LastMessage = &last
	case in.MessageText != "":
		msg = &hangout.Message{
			Text:      in.MessageText,
			Timestamp: ts,
			Username:  e.owner,
			Read:      true,
		}
		last := *msg
		optimistic.LastMessage = &last
	}

	e.putHangout(optimistic)
	if msg != nil {
		e.appendMessage(peer, *msg)
	}

	if !transmitted && !blocked {
		entry := e.enqueue(cmd)
		log.Info("command queued", zap.String("entry_id", entry.ID))
	}
}
