package engine

import (
	"fmt"
	"slices"

	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/store"
	"go.uber.org/zap"
)

// dirtySet records values whose last write failed. The in-memory copy is
// authoritative for them and the next write rewrites it whole.
type dirtySet struct {
	hangouts bool
	unread   bool
	queue    bool
	messages map[string]bool
}

func newDirtySet() dirtySet {
	return dirtySet{messages: make(map[string]bool)}
}

func (d dirtySet) empty() bool {
	return !d.hangouts && !d.unread && !d.queue && len(d.messages) == 0
}

// storeFailed surfaces a storage error. State keeps running ahead of storage.
func (e *Engine) storeFailed(op string, err error) {
	err = fmt.Errorf("%s: %w", op, err)
	e.logger.Error("storage write failed", zap.String("user", e.owner), zap.Error(err))
	e.state.Err = err
	e.bus.Publish(bus.NewEvent(bus.KindEngineError, err))
}

// storeCaughtUp clears the error slot once nothing is pending.
func (e *Engine) storeCaughtUp() {
	if e.dirty.empty() {
		e.state.Err = nil
	}
}

// putHangout replaces or adds h in memory and in storage.
func (e *Engine) putHangout(h hangout.Hangout) {
	e.state.Hangouts = hangout.Upsert(e.state.Hangouts, h)
	if e.dirty.hangouts {
		if err := e.db.PutHangouts(e.owner, e.state.Hangouts); err != nil {
			e.storeFailed("put hangouts", err)
			return
		}
		e.dirty.hangouts = false
		e.storeCaughtUp()
		return
	}
	list, err := e.db.UpsertHangout(e.owner, h)
	if err != nil {
		e.dirty.hangouts = true
		e.storeFailed("upsert hangout", err)
		return
	}
	e.state.Hangouts = list
	e.storeCaughtUp()
}

// conversation returns the cached messages for peer, loading them on first
// use. ok is false when storage could not be read.
func (e *Engine) conversation(peer string) (msgs []hangout.Message, ok bool) {
	if msgs, ok := e.messages[peer]; ok {
		return msgs, true
	}
	msgs, err := e.db.Messages(e.owner, peer)
	if err != nil {
		e.storeFailed("load messages", err)
		return nil, false
	}
	e.messages[peer] = msgs
	return msgs, true
}

// appendMessage appends m to the conversation with peer.
func (e *Engine) appendMessage(peer string, m hangout.Message) {
	msgs, ok := e.conversation(peer)
	if !ok {
		// Durable contents unknown, so only an append is safe.
		if _, err := e.db.AppendMessage(e.owner, peer, m); err != nil {
			e.storeFailed("append message", err)
		}
		if peer == e.focused {
			e.state.Messages = append(slices.Clone(e.state.Messages), m)
		}
		return
	}

	msgs = append(slices.Clone(msgs), m)
	e.setConversation(peer, msgs)
	e.saveConversation(peer, "append message", func() error {
		_, err := e.db.AppendMessage(e.owner, peer, m)
		return err
	})
}

// confirmMessage flips the optimistic copy of m to delivered, or appends m
// when no optimistic copy exists.
func (e *Engine) confirmMessage(peer string, m hangout.Message) {
	msgs, ok := e.conversation(peer)
	if !ok {
		found, err := e.db.MarkMessageDelivered(e.owner, peer, m.Username, m.Timestamp)
		if err != nil {
			e.storeFailed("mark message delivered", err)
			return
		}
		if !found {
			e.appendMessage(peer, m)
		}
		return
	}

	msgs = slices.Clone(msgs)
	if !hangout.MarkDelivered(msgs, m.Username, m.Timestamp) {
		e.appendMessage(peer, m)
		return
	}
	e.setConversation(peer, msgs)
	e.saveConversation(peer, "mark message delivered", func() error {
		_, err := e.db.MarkMessageDelivered(e.owner, peer, m.Username, m.Timestamp)
		return err
	})
}

// markConversationRead sets Read on every message with peer.
func (e *Engine) markConversationRead(peer string) {
	msgs, ok := e.conversation(peer)
	if !ok {
		return
	}
	changed := false
	msgs = slices.Clone(msgs)
	for i := range msgs {
		if !msgs[i].Read {
			msgs[i].Read = true
			changed = true
		}
	}
	if !changed {
		return
	}
	e.setConversation(peer, msgs)
	e.saveConversation(peer, "mark messages read", func() error {
		return e.db.PutMessages(e.owner, peer, msgs)
	})
}

func (e *Engine) setConversation(peer string, msgs []hangout.Message) {
	e.messages[peer] = msgs
	if peer == e.focused {
		e.state.Messages = slices.Clone(msgs)
	}
}

func (e *Engine) saveConversation(peer, op string, write func() error) {
	var err error
	if e.dirty.messages[peer] {
		op = "put messages"
		err = e.db.PutMessages(e.owner, peer, e.messages[peer])
	} else {
		err = write()
	}
	if err != nil {
		e.dirty.messages[peer] = true
		e.storeFailed(op, err)
		return
	}
	delete(e.dirty.messages, peer)
	e.storeCaughtUp()
}

func (e *Engine) appendUnread(h hangout.Hangout) {
	e.state.UnreadHangouts = append(cloneHangouts(e.state.UnreadHangouts), h)
	e.saveUnread("append unread", func() error {
		_, err := e.db.AppendUnread(e.owner, h)
		return err
	})
}

func (e *Engine) removeUnread(peer string) {
	e.state.UnreadHangouts = hangout.WithoutPeer(e.state.UnreadHangouts, peer)
	e.saveUnread("remove unread", func() error {
		_, err := e.db.RemoveUnread(e.owner, peer)
		return err
	})
}

func (e *Engine) saveUnread(op string, write func() error) {
	var err error
	if e.dirty.unread {
		op = "put unread"
		err = e.db.PutUnread(e.owner, e.state.UnreadHangouts)
	} else {
		err = write()
	}
	if err != nil {
		e.dirty.unread = true
		e.storeFailed(op, err)
		return
	}
	e.dirty.unread = false
	e.storeCaughtUp()
}

// enqueue adds cmd to the offline queue. The in-memory queue is what flush
// replays, so a failed write loses nothing.
func (e *Engine) enqueue(cmd hangout.Command) store.OfflineEntry {
	entry := store.NewOfflineEntry(cmd)
	e.queue = store.OrderQueue(append(slices.Clone(e.queue), entry))
	e.saveQueue("enqueue command", func() error {
		return e.db.AppendOffline(e.owner, entry)
	})
	return entry
}

// dequeue drops the entries acknowledged by peer at timestamp.
func (e *Engine) dequeue(peer string, timestamp int64) int {
	kept, removed := store.WithoutCommand(e.queue, peer, timestamp)
	if removed == 0 && !e.dirty.queue {
		return 0
	}
	e.queue = kept
	e.saveQueue("remove offline entry", func() error {
		_, err := e.db.RemoveOffline(e.owner, peer, timestamp)
		return err
	})
	return removed
}

func (e *Engine) saveQueue(op string, write func() error) {
	var err error
	if e.dirty.queue {
		op = "put offline queue"
		err = e.db.PutOfflineQueue(e.owner, e.queue)
	} else {
		err = write()
	}
	if err != nil {
		e.dirty.queue = true
		e.storeFailed(op, err)
		return
	}
	e.dirty.queue = false
	e.storeCaughtUp()
}
