package tui

import (
	"errors"
	"testing"

	"github.com/matheus3301/hangouts/internal/engine"
	"github.com/matheus3301/hangouts/internal/hangout"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		focused string
		want    engine.Intent
		wantErr error
	}{
		{
			name:    "plain text messages focused peer",
			input:   "  hello there ",
			focused: "bob",
			want:    engine.Intent{Command: hangout.Messanger, PeerUsername: "bob", MessageText: "hello there"},
		},
		{
			name:  "invite with email",
			input: "/invite carol carol@example.com",
			want:  engine.Intent{Command: hangout.Inviter, PeerUsername: "carol", PeerEmail: "carol@example.com"},
		},
		{
			name:    "command defaults to focused peer",
			input:   "/BLOCK",
			focused: "bob",
			want:    engine.Intent{Command: hangout.Blocker, PeerUsername: "bob"},
		},
		{
			name:    "named peer overrides focus",
			input:   "/accept dave",
			focused: "bob",
			want:    engine.Intent{Command: hangout.Accepter, PeerUsername: "dave"},
		},
		{name: "decline", input: "/decline bob", want: engine.Intent{Command: hangout.Decliner, PeerUsername: "bob"}},
		{name: "unblock", input: "/unblock bob", want: engine.Intent{Command: hangout.Unblocker, PeerUsername: "bob"}},
		{name: "text without focus", input: "hi", wantErr: ErrNoPeer},
		{name: "command without peer", input: "/invite", wantErr: ErrNoPeer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(tt.input, tt.focused)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseInputRejects(t *testing.T) {
	for _, input := range []string{"", "   ", "/", "/message bob", "/frobnicate"} {
		if _, err := ParseInput(input, "bob"); err == nil {
			t.Errorf("ParseInput(%q) succeeded, want error", input)
		}
	}
}

func TestParseCommand(t *testing.T) {
	cmd := ParseCommand("Invite  bob   bob@example.com ")
	if cmd.Name != "invite" || len(cmd.Args) != 2 || cmd.Args[1] != "bob@example.com" {
		t.Errorf("ParseCommand() = %+v", cmd)
	}
	if got := ParseCommand(""); got.Name != "" || got.Args != nil {
		t.Errorf("ParseCommand(\"\") = %+v, want zero", got)
	}
}
