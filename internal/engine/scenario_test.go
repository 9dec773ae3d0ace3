package engine

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/store"
)

func TestScenarioColdStart(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	snap := h.engine.Snapshot()
	if snap.Hangouts == nil || len(snap.Hangouts) != 0 {
		t.Errorf("Hangouts = %v, want empty", snap.Hangouts)
	}
	if snap.Err != nil {
		t.Errorf("Err = %v, want nil", snap.Err)
	}
	list, err := h.db.Hangouts("alice")
	if err != nil || len(list) != 0 {
		t.Errorf("stored hangouts = %v, %v; want empty, nil", list, err)
	}
}

func TestScenarioInviteThenAck(t *testing.T) {
	h := newHarness(t)
	h.login("alice")
	h.setReady(status.Open)

	h.send(Intent{Command: hangout.Inviter, PeerUsername: "bob"})

	sent := h.tr.Sent()
	if len(sent) != 1 || sent[0].Command != hangout.Inviter || sent[0].Username != "bob" {
		t.Fatalf("sent = %+v, want one INVITER to bob", sent)
	}
	stored, ok := h.stored("alice", "bob")
	if !ok || stored.State != hangout.Inviter || stored.Delivered {
		t.Fatalf("stored = %+v, want INVITER undelivered", stored)
	}

	h.frame(hangout.Frame{Type: hangout.Acknowledgement, Hangout: &hangout.Hangout{Username: "bob", State: hangout.Invited}})

	stored, _ = h.stored("alice", "bob")
	if stored.State != hangout.Invited || !stored.Delivered {
		t.Errorf("stored = %+v, want INVITED delivered", stored)
	}
}

func TestScenarioOfflineThenReconnect(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	h.send(Intent{Command: hangout.Messanger, PeerUsername: "carol", MessageText: "hi"})
	queue := h.queue("alice")
	if len(queue) != 1 {
		t.Fatalf("queue = %+v, want one entry", queue)
	}
	if len(h.tr.Sent()) != 0 {
		t.Fatal("sent while closed")
	}

	h.setReady(status.Connecting)
	h.setReady(status.Open)

	sent := h.tr.Sent()
	if len(sent) != 1 {
		t.Fatalf("retransmitted %d times, want exactly once", len(sent))
	}
	if sent[0].Username != "carol" || sent[0].Message == nil || sent[0].Message.Text != "hi" ||
		sent[0].Timestamp != queue[0].Command.Timestamp {
		t.Errorf("retransmitted %+v, want the queued command unchanged", sent[0])
	}

	// A repeated open notification for the same connection is not a new open.
	h.setReady(status.Open)
	if n := len(h.tr.Sent()); n != 1 {
		t.Errorf("sent %d after repeated OPEN, want 1", n)
	}

	// Unacknowledged entries are replayed on the next connection.
	h.setReady(status.Closed)
	h.setReady(status.Connecting)
	h.setReady(status.Open)
	if n := len(h.tr.Sent()); n != 2 {
		t.Errorf("sent %d after reconnect, want 2", n)
	}

	// Once acknowledged, nothing is replayed.
	h.frame(hangout.Frame{Type: hangout.Acknowledgement, Hangout: &hangout.Hangout{
		Username:  "carol",
		State:     hangout.Messaged,
		Timestamp: queue[0].Command.Timestamp,
	}})
	h.setReady(status.Closed)
	h.setReady(status.Open)
	if n := len(h.tr.Sent()); n != 2 {
		t.Errorf("sent %d after ack and reconnect, want 2", n)
	}
}

func TestScenarioBlockedSend(t *testing.T) {
	h := newHarness(t)
	h.login("alice")
	h.setReady(status.Open)
	// dave blocks alice.
	h.frame(hangout.Frame{Type: hangout.HangoutFrame, Hangout: &hangout.Hangout{Username: "dave", State: hangout.Blocker}})

	h.send(Intent{Command: hangout.Messanger, PeerUsername: "dave", MessageText: "why?"})

	if len(h.tr.Sent()) != 0 {
		t.Errorf("sent = %+v, want no transmit", h.tr.Sent())
	}
	msgs := h.messages("alice", "dave")
	if len(msgs) != 1 {
		t.Fatalf("messages = %+v, want one", msgs)
	}
	if msgs[0].Type != hangout.BlockedNotice || msgs[0].Text != "You can not send this message because you are blocked." {
		t.Errorf("message = %+v", msgs[0])
	}
}

func commandIDs(cmds []hangout.Command) []string {
	var out []string
	for _, c := range cmds {
		out = append(out, fmt.Sprintf("%s/%s/%d", c.Username, c.Command, c.Timestamp))
	}
	return out
}

func queuedIDs(entries []store.OfflineEntry) []string {
	var cmds []hangout.Command
	for _, e := range entries {
		cmds = append(cmds, e.Command)
	}
	return commandIDs(cmds)
}

func TestFlushReplaysEveryQueuedCommandInOrder(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	h.send(Intent{Command: hangout.Messanger, PeerUsername: "carol", MessageText: "one"})
	h.send(Intent{Command: hangout.Inviter, PeerUsername: "bob", PeerEmail: "bob@example.com"})
	h.send(Intent{Command: hangout.Messanger, PeerUsername: "carol", MessageText: "two"})
	h.send(Intent{Command: hangout.Blocker, PeerUsername: "eve"})

	queue := h.queue("alice")
	if len(queue) != 4 {
		t.Fatalf("queue = %+v, want four entries", queue)
	}

	h.setReady(status.Connecting)
	h.setReady(status.Open)

	sent := h.tr.Sent()
	if got, want := commandIDs(sent), queuedIDs(queue); !slices.Equal(got, want) {
		t.Fatalf("sent %v, want %v", got, want)
	}
	// Relationship commands go first, then messages in insertion order.
	if sent[0].Username != "bob" || sent[1].Username != "eve" ||
		sent[2].Message == nil || sent[2].Message.Text != "one" ||
		sent[3].Message == nil || sent[3].Message.Text != "two" {
		t.Errorf("replay order = %v", commandIDs(sent))
	}
	for i := range queue {
		if !reflect.DeepEqual(sent[i], queue[i].Command) {
			t.Errorf("sent[%d] = %+v, want %+v unchanged", i, sent[i], queue[i].Command)
		}
	}
}

func TestFlushInterruptedResumesOnNextOpen(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	h.send(Intent{Command: hangout.Inviter, PeerUsername: "bob"})
	h.send(Intent{Command: hangout.Messanger, PeerUsername: "carol", MessageText: "one"})
	h.send(Intent{Command: hangout.Messanger, PeerUsername: "carol", MessageText: "two"})
	queue := h.queue("alice")

	h.tr.failAfter(1)
	h.setReady(status.Connecting)
	h.setReady(status.Open)

	if got := commandIDs(h.tr.Sent()); !slices.Equal(got, queuedIDs(queue[:1])) {
		t.Fatalf("sent %v before the failure, want only the first entry", got)
	}
	if n := len(h.queue("alice")); n != 3 {
		t.Errorf("queue has %d entries after an interrupted flush, want 3", n)
	}

	h.tr.reset()
	h.setReady(status.Closed)
	h.setReady(status.Connecting)
	h.setReady(status.Open)

	if got, want := commandIDs(h.tr.Sent()), queuedIDs(queue); !slices.Equal(got, want) {
		t.Errorf("sent %v on the next open, want %v", got, want)
	}
}

// TestQueuedIntentSurvivesFailedEnqueue: a command whose enqueue write failed is
// still replayed, and reaches storage once writes succeed again.
func TestQueuedIntentSurvivesFailedEnqueue(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	h.failWrites()
	h.send(Intent{Command: hangout.Messanger, PeerUsername: "carol", MessageText: "hi"})
	if h.engine.Snapshot().Err == nil {
		t.Fatal("Err = nil after failed enqueue")
	}
	h.restoreWrites()

	h.send(Intent{Command: hangout.Inviter, PeerUsername: "dave"})
	queue := h.queue("alice")
	if got := queuedIDs(queue); len(got) != 2 || queue[0].Command.Username != "dave" || queue[1].Command.Username != "carol" {
		t.Errorf("stored queue = %v, want dave then carol", got)
	}

	h.setReady(status.Connecting)
	h.setReady(status.Open)

	sent := h.tr.Sent()
	if len(sent) != 2 || sent[1].Username != "carol" || sent[1].Message == nil || sent[1].Message.Text != "hi" {
		t.Errorf("sent %v, want dave's invite and carol's message", commandIDs(sent))
	}
}

func TestQueuedIntentReplayedWhileStorageDown(t *testing.T) {
	h := newHarness(t)
	h.login("alice")

	h.failWrites()
	h.send(Intent{Command: hangout.Messanger, PeerUsername: "carol", MessageText: "hi"})
	h.setReady(status.Connecting)
	h.setReady(status.Open)

	sent := h.tr.Sent()
	if len(sent) != 1 || sent[0].Username != "carol" {
		t.Fatalf("sent %v, want carol's message", commandIDs(sent))
	}

	h.frame(hangout.Frame{Type: hangout.Acknowledgement, Hangout: &hangout.Hangout{
		Username: "carol", State: hangout.Messaged, Timestamp: sent[0].Timestamp,
	}})
	h.restoreWrites()
	h.setReady(status.Closed)
	h.setReady(status.Connecting)
	h.setReady(status.Open)

	if n := len(h.tr.Sent()); n != 1 {
		t.Errorf("sent %d after ack, want no replay", n)
	}
	if q := h.queue("alice"); len(q) != 0 {
		t.Errorf("stored queue = %+v, want empty after recovery", q)
	}
}
