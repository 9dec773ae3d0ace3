package engine

import (
	"slices"
	"strings"

	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
)

// State is the externally observable surface of the engine.
type State struct {
	Username string
	// Hangout is the focused hangout, nil when nothing is focused or the
	// focused peer has no hangout yet.
	Hangout  *hangout.Hangout
	Hangouts []hangout.Hangout
	// Messages is the focused conversation.
	Messages []hangout.Message
	// Search holds the hangouts matching SearchQuery.
	Search         []hangout.Hangout
	SearchQuery    string
	ReadyState     status.ReadyState
	UnreadHangouts []hangout.Hangout
	Backlog        Backlog
	// Err is the last storage error; cleared once storage catches up.
	Err error
}

// Backlog is the status of the last FetchBacklog call.
type Backlog struct {
	Loading bool
	Err     error
}

// Navigation is published on the bus when a peer-initiated change should move
// the view to another screen.
type Navigation struct {
	Peer   string
	Screen hangout.Screen
}

// UnreadCount returns the number of unread entries for peer.
func (s State) UnreadCount(peer string) int {
	n := 0
	for _, h := range s.UnreadHangouts {
		if h.Username == peer {
			n++
		}
	}
	return n
}

func emptyState(ready status.ReadyState) State {
	return State{
		Hangouts:       []hangout.Hangout{},
		Messages:       []hangout.Message{},
		Search:         []hangout.Hangout{},
		UnreadHangouts: []hangout.Hangout{},
		ReadyState:     ready,
	}
}

func (s State) clone() State {
	out := s
	if s.Hangout != nil {
		h := s.Hangout.Clone()
		out.Hangout = &h
	}
	out.Hangouts = cloneHangouts(s.Hangouts)
	out.Messages = slices.Clone(s.Messages)
	out.Search = cloneHangouts(s.Search)
	out.UnreadHangouts = cloneHangouts(s.UnreadHangouts)
	return out
}

func cloneHangouts(list []hangout.Hangout) []hangout.Hangout {
	out := make([]hangout.Hangout, len(list))
	for i, h := range list {
		out[i] = h.Clone()
	}
	return out
}

// matchHangouts filters list by a case-insensitive substring of the peer
// username or email. An empty query matches nothing.
func matchHangouts(list []hangout.Hangout, query string) []hangout.Hangout {
	out := []hangout.Hangout{}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return out
	}
	for _, h := range list {
		if strings.Contains(strings.ToLower(h.Username), q) || strings.Contains(strings.ToLower(h.Email), q) {
			out = append(out, h.Clone())
		}
	}
	return out
}

// publish refreshes derived fields, swaps the snapshot and notifies the bus.
func (e *Engine) publish() {
	e.state.Search = matchHangouts(e.state.Hangouts, e.state.SearchQuery)
	if e.focused != "" {
		if i := hangout.Find(e.state.Hangouts, e.focused); i >= 0 {
			h := e.state.Hangouts[i].Clone()
			e.state.Hangout = &h
		}
	}

	snap := e.state.clone()
	e.snapMu.Lock()
	e.snap = snap
	e.snapMu.Unlock()
	e.bus.Publish(bus.NewEvent(bus.KindStateChanged, snap.clone()))
}
