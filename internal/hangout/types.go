package hangout

// MessageType distinguishes user messages from locally generated notices.
type MessageType string

const (
	Normal        MessageType = ""
	BlockedNotice MessageType = "blocked-notice"
)

// Local-only notice texts.
const (
	BlockedSendText = "You can not send this message because you are blocked."
	YouBlockedText  = "you blocked this user"
)

// Message is one chat line in a hangout.
type Message struct {
	Text      string      `json:"text"`
	Timestamp int64       `json:"timestamp"`
	Username  string      `json:"username,omitempty"`
	Delivered bool        `json:"delivered,omitempty"`
	Read      bool        `json:"read,omitempty"`
	Type      MessageType `json:"type,omitempty"`
	// Float is a layout hint for the view ("left"/"right"); ignored by the engine.
	Float string `json:"float,omitempty"`
}

// Hangout is the relationship record between the local user and one peer.
type Hangout struct {
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	State       State    `json:"state"`
	LastMessage *Message `json:"message,omitempty"`
	Timestamp   int64    `json:"timestamp"`
	Delivered   bool     `json:"delivered"`
	Read        bool     `json:"read"`
}

// Clone returns a deep copy of h.
func (h Hangout) Clone() Hangout {
	if h.LastMessage != nil {
		m := *h.LastMessage
		h.LastMessage = &m
	}
	return h
}

// Find returns the index of the hangout with the given peer username, or -1.
func Find(list []Hangout, peer string) int {
	for i := range list {
		if list[i].Username == peer {
			return i
		}
	}
	return -1
}

// Upsert replaces the hangout with the same peer username in place, or appends
// it. The input slice is not modified.
func Upsert(list []Hangout, h Hangout) []Hangout {
	out := make([]Hangout, len(list), len(list)+1)
	copy(out, list)
	if i := Find(out, h.Username); i >= 0 {
		out[i] = h
		return out
	}
	return append(out, h)
}

// MarkDelivered sets Delivered on the first message from sender at timestamp,
// in place. Reports whether a message matched.
func MarkDelivered(msgs []Message, sender string, timestamp int64) bool {
	for i := range msgs {
		if msgs[i].Username == sender && msgs[i].Timestamp == timestamp {
			msgs[i].Delivered = true
			return true
		}
	}
	return false
}

// WithoutPeer returns a copy of list without entries for peer.
func WithoutPeer(list []Hangout, peer string) []Hangout {
	out := []Hangout{}
	for _, h := range list {
		if h.Username != peer {
			out = append(out, h)
		}
	}
	return out
}

// Equal reports whether h and o hold the same values, comparing LastMessage by
// value.
func (h Hangout) Equal(o Hangout) bool {
	hm, om := h.LastMessage, o.LastMessage
	h.LastMessage, o.LastMessage = nil, nil
	if h != o {
		return false
	}
	if hm == nil || om == nil {
		return hm == om
	}
	return *hm == *om
}

// Merge overlays the server-owned fields of frame on the stored record h.
// Email and, when the frame carries none, the last message are local
// knowledge that frames never include, so they are kept.
func (h Hangout) Merge(frame Hangout) Hangout {
	out := h.Clone()
	out.Username = frame.Username
	out.State = frame.State
	out.Timestamp = frame.Timestamp
	out.Delivered = frame.Delivered
	out.Read = frame.Read
	if frame.Email != "" {
		out.Email = frame.Email
	}
	if frame.LastMessage != nil {
		m := *frame.LastMessage
		out.LastMessage = &m
	}
	return out
}
