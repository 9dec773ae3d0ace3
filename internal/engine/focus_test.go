package engine

import (
	"testing"

	"github.com/matheus3301/hangouts/internal/hangout"
)

func messageFrame(peer, text string, ts int64) hangout.Frame {
	return hangout.Frame{Type: hangout.HangoutFrame, Hangout: &hangout.Hangout{
		Username:    peer,
		State:       hangout.Messanger,
		Timestamp:   ts,
		LastMessage: &hangout.Message{Text: text, Timestamp: ts, Username: peer},
	}}
}

func TestSelectHangoutLoadsConversation(t *testing.T) {
	h := newHarness(t)
	if _, err := h.db.AppendMessage("alice", "bob", hangout.Message{Text: "old", Timestamp: 1, Username: "bob"}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.db.UpsertHangout("alice", hangout.Hangout{Username: "bob", State: hangout.Accepted}); err != nil {
		t.Fatal(err)
	}
	h.login("alice")

	if err := h.engine.SelectHangout(h.ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	snap := h.engine.Snapshot()
	if snap.Hangout == nil || snap.Hangout.Username != "bob" {
		t.Fatalf("Hangout = %+v, want bob", snap.Hangout)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Text != "old" {
		t.Errorf("Messages = %+v, want the stored conversation", snap.Messages)
	}

	if err := h.engine.SelectHangout(h.ctx, "nobody"); err != nil {
		t.Fatal(err)
	}
	snap = h.engine.Snapshot()
	if snap.Hangout != nil || len(snap.Messages) != 0 {
		t.Errorf("focus on unknown peer = %+v / %+v, want empty", snap.Hangout, snap.Messages)
	}
}

func TestSelectUnreadClearsBadge(t *testing.T) {
	h := newHarness(t)
	h.login("alice")
	h.frame(messageFrame("carol", "one", 1))
	h.frame(messageFrame("carol", "two", 2))
	h.frame(messageFrame("dave", "yo", 3))

	if n := h.engine.Snapshot().UnreadCount("carol"); n != 2 {
		t.Fatalf("carol unread = %d, want 2", n)
	}

	if err := h.engine.SelectUnread(h.ctx, "carol"); err != nil {
		t.Fatal(err)
	}

	snap := h.engine.Snapshot()
	if snap.UnreadCount("carol") != 0 || snap.UnreadCount("dave") != 1 {
		t.Errorf("unread = %+v, want only dave", snap.UnreadHangouts)
	}
	if snap.Hangout == nil || snap.Hangout.Username != "carol" || !snap.Hangout.Read {
		t.Errorf("focused = %+v, want read carol", snap.Hangout)
	}
	if len(snap.Messages) != 2 {
		t.Fatalf("messages = %+v, want 2 (no re-append)", snap.Messages)
	}
	for _, m := range snap.Messages {
		if !m.Read {
			t.Errorf("message %q still unread", m.Text)
		}
	}

	stored, _ := h.db.UnreadHangouts("alice")
	if len(stored) != 1 || stored[0].Username != "dave" {
		t.Errorf("stored unread = %+v", stored)
	}
	carol, _ := h.stored("alice", "carol")
	if !carol.Read {
		t.Error("stored hangout still unread")
	}
	if msgs := h.messages("alice", "carol"); !msgs[0].Read || !msgs[1].Read {
		t.Errorf("stored messages = %+v, want read", msgs)
	}

	// Subsequent messages from the now focused peer arrive read.
	h.frame(messageFrame("carol", "three", 4))
	if n := h.engine.Snapshot().UnreadCount("carol"); n != 0 {
		t.Errorf("carol unread = %d after focus, want 0", n)
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	h.login("alice")
	h.send(Intent{Command: hangout.Inviter, PeerUsername: "bob", PeerEmail: "robert@example.com"})
	h.send(Intent{Command: hangout.Inviter, PeerUsername: "carol", PeerEmail: "carol@example.org"})

	tests := []struct {
		query string
		want  []string
	}{
		{"BO", []string{"bob"}},
		{"example", []string{"bob", "carol"}},
		{".org", []string{"carol"}},
		{"zzz", nil},
		{"  ", nil},
	}
	for _, tt := range tests {
		if err := h.engine.Search(h.ctx, tt.query); err != nil {
			t.Fatal(err)
		}
		got := h.engine.Snapshot().Search
		if len(got) != len(tt.want) {
			t.Errorf("Search(%q) = %+v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i].Username != tt.want[i] {
				t.Errorf("Search(%q)[%d] = %s, want %s", tt.query, i, got[i].Username, tt.want[i])
			}
		}
	}

	// Results follow later changes to the hangout list.
	if err := h.engine.Search(h.ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	h.frame(hangout.Frame{Type: hangout.HangoutFrame, Hangout: &hangout.Hangout{Username: "bobby", State: hangout.Inviter}})
	if got := h.engine.Snapshot().Search; len(got) != 2 {
		t.Errorf("Search after new hangout = %+v, want bob and bobby", got)
	}
}
