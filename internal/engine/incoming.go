package engine

import (
	"context"

	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/hangout"
	"go.uber.org/zap"
)

// dispatch merges one inbound frame. Frames of unknown type or carrying an
// unusable hangout are dropped.
func (e *Engine) dispatch(_ context.Context, f hangout.Frame) {
	if e.owner == "" {
		e.logger.Debug("frame before sign-in dropped", zap.String("type", string(f.Type)))
		return
	}

	if !f.Type.Known() {
		e.logger.Debug("ignoring frame", zap.String("type", string(f.Type)))
		return
	}

	changed := false
	switch f.Type {
	case hangout.Acknowledgement:
		changed = e.acknowledge(f.Hangout, false)
	case hangout.OfflineAckn:
		changed = e.acknowledge(f.Hangout, true)
	case hangout.HangoutFrame:
		if f.Hangout != nil {
			changed = e.receive(*f.Hangout, e.focused != f.Hangout.Username)
		}
	case hangout.UnreadHangouts:
		for _, h := range f.Hangouts {
			if e.receive(h, true) {
				changed = true
			}
		}
	}
	if changed {
		e.publish()
	}
}

func (e *Engine) usable(h *hangout.Hangout) bool {
	if h == nil || h.Username == "" || !h.State.Valid() {
		e.logger.Debug("dropping frame with invalid hangout", zap.Any("hangout", h))
		return false
	}
	return true
}

// merged returns the stored record for h's peer with the frame's server
// fields applied, or a copy of h for a first contact.
func (e *Engine) merged(h hangout.Hangout) hangout.Hangout {
	if i := hangout.Find(e.state.Hangouts, h.Username); i >= 0 {
		return e.state.Hangouts[i].Merge(h)
	}
	return h.Clone()
}

// acknowledge applies the server's confirmation of one of our own commands.
func (e *Engine) acknowledge(h *hangout.Hangout, offline bool) bool {
	if !e.usable(h) {
		return false
	}
	peer := h.Username
	log := e.logger.With(
		zap.String("peer", peer),
		zap.String("state", string(h.State)),
		zap.Int64("timestamp", h.Timestamp),
		zap.Bool("offline", offline),
	)

	confirmed := e.merged(*h)
	confirmed.Delivered = true
	confirmed.Read = true

	// The acknowledged message is the frame's, or else our optimistic copy sent
	// with the same command timestamp.
	var acked *hangout.Message
	switch last := confirmed.LastMessage; {
	case h.LastMessage != nil:
		m := *h.LastMessage
		if m.Username == "" {
			m.Username = e.owner
		}
		acked = &m
	case last != nil && last.Username == e.owner && last.Timestamp == h.Timestamp:
		m := *last
		acked = &m
	}
	if acked != nil {
		acked.Delivered = true
		acked.Read = true
		m := *acked
		confirmed.LastMessage = &m
	}

	// A repeated acknowledgement leaves the stored hangout unchanged.
	if i := hangout.Find(e.state.Hangouts, peer); i >= 0 && e.state.Hangouts[i].Equal(confirmed) {
		log.Debug("duplicate acknowledgement ignored")
		return false
	}
	log.Info("acknowledgement received")

	e.putHangout(confirmed)

	if acked != nil {
		e.confirmMessage(peer, *acked)
	}
	if h.State == hangout.Blocked {
		e.appendMessage(peer, hangout.Message{
			Text:      hangout.YouBlockedText,
			Timestamp: e.now().UnixMilli(),
			Username:  e.owner,
			Delivered: true,
			Read:      true,
			Type:      hangout.BlockedNotice,
		})
	}

	if h.Timestamp != 0 {
		if removed := e.dequeue(peer, h.Timestamp); removed > 0 {
			log.Debug("offline entry cleared", zap.Int("removed", removed))
		}
	}
	return true
}

// receive merges a change a peer made. unread is decided by the caller.
func (e *Engine) receive(h hangout.Hangout, unread bool) bool {
	if !e.usable(&h) {
		return false
	}
	peer := h.Username
	read := !unread

	stored := e.merged(h)
	stored.Read = read
	if h.LastMessage != nil {
		stored.LastMessage.Read = read
	}
	e.putHangout(stored)

	if h.LastMessage != nil {
		m := *h.LastMessage
		if m.Username == "" {
			m.Username = peer
		}
		m.Read = read
		e.appendMessage(peer, m)
	}
	if unread {
		e.appendUnread(stored)
	}

	e.logger.Info("hangout received",
		zap.String("peer", peer),
		zap.String("state", string(h.State)),
		zap.Bool("unread", unread),
	)

	if screen, ok := hangout.ScreenFor(h.State); ok {
		e.bus.Publish(bus.NewEvent(bus.KindNavigate, Navigation{Peer: peer, Screen: screen}))
	}
	return true
}
