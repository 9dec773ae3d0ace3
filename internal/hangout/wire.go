package hangout

import (
	"encoding/json"
	"fmt"
)

// CommandMessage is the text attached to an outgoing command.
type CommandMessage struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Command is the outbound wire object, one per transmission. Username and Email
// identify the peer the command targets.
type Command struct {
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Message   *CommandMessage `json:"message,omitempty"`
	Command   State           `json:"command"`
	Timestamp int64           `json:"timestamp"`
}

// FrameType tags an inbound frame.
type FrameType string

const (
	Acknowledgement FrameType = "ACKNOWLEDGEMENT"
	OfflineAckn     FrameType = "OFFLINE_ACKN"
	HangoutFrame    FrameType = "HANGOUT"
	UnreadHangouts  FrameType = "UNREAD_HANGOUTS"
)

// Known reports whether t is one of the four frame types this client handles.
func (t FrameType) Known() bool {
	switch t {
	case Acknowledgement, OfflineAckn, HangoutFrame, UnreadHangouts:
		return true
	}
	return false
}

// Frame is an inbound server push.
type Frame struct {
	Type     FrameType `json:"type"`
	Hangout  *Hangout  `json:"hangout,omitempty"`
	Hangouts []Hangout `json:"hangouts,omitempty"`
}

// DecodeFrame parses one inbound frame. Unknown types are not an error; callers
// decide whether to ignore them.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return Frame{}, fmt.Errorf("decode frame: missing type")
	}
	return f, nil
}

// EncodeCommand serializes a command for transmission.
func EncodeCommand(c Command) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return data, nil
}
