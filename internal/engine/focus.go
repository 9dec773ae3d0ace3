package engine

import (
	"context"
	"slices"

	"github.com/matheus3301/hangouts/internal/hangout"
)

// SelectHangout focuses the conversation with peer. Messages from a focused
// peer arrive read.
func (e *Engine) SelectHangout(ctx context.Context, peer string) error {
	return e.submit(ctx, func() error {
		if e.owner == "" {
			return ErrNoUser
		}
		e.focus(peer)
		e.publish()
		return nil
	})
}

// SelectUnread clears the unread entries of peer, marks its hangout and
// messages read and focuses it.
func (e *Engine) SelectUnread(ctx context.Context, peer string) error {
	return e.submit(ctx, func() error {
		if e.owner == "" {
			return ErrNoUser
		}
		e.removeUnread(peer)
		if i := hangout.Find(e.state.Hangouts, peer); i >= 0 && !e.state.Hangouts[i].Read {
			h := e.state.Hangouts[i].Clone()
			h.Read = true
			if h.LastMessage != nil {
				h.LastMessage.Read = true
			}
			e.putHangout(h)
		}
		e.markConversationRead(peer)
		e.focus(peer)
		e.publish()
		return nil
	})
}

// Search filters the hangout list. The result is kept current until the
// query changes.
func (e *Engine) Search(ctx context.Context, query string) error {
	return e.submit(ctx, func() error {
		e.state.SearchQuery = query
		e.publish()
		return nil
	})
}

func (e *Engine) focus(peer string) {
	e.focused = peer
	e.state.Hangout = nil
	if i := hangout.Find(e.state.Hangouts, peer); i >= 0 {
		h := e.state.Hangouts[i].Clone()
		e.state.Hangout = &h
	}
	e.state.Messages = []hangout.Message{}
	if peer == "" {
		return
	}
	if msgs, ok := e.conversation(peer); ok {
		e.state.Messages = slices.Clone(msgs)
	}
}
