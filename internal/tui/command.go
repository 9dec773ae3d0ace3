package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/hangouts/internal/engine"
	"github.com/matheus3301/hangouts/internal/hangout"
)

// ErrNoPeer is returned when input needs a peer and none is focused or named.
var ErrNoPeer = errors.New("no peer: open a hangout or name one")

// Command represents a parsed slash command.
type Command struct {
	Name string
	Args []string
}

var relationshipCommands = map[string]hangout.State{
	"invite":  hangout.Inviter,
	"accept":  hangout.Accepter,
	"decline": hangout.Decliner,
	"block":   hangout.Blocker,
	"unblock": hangout.Unblocker,
}

// ParseCommand parses a command string (without the leading '/').
func ParseCommand(input string) Command {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}
}

// ParseInput turns one composer line into an intent. "/invite bob
// bob@example.com" addresses bob directly; a command without arguments and any
// plain text target the focused peer.
func ParseInput(input, focused string) (engine.Intent, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return engine.Intent{}, errors.New("empty input")
	}

	if !strings.HasPrefix(input, "/") {
		if focused == "" {
			return engine.Intent{}, ErrNoPeer
		}
		return engine.Intent{Command: hangout.Messanger, PeerUsername: focused, MessageText: input}, nil
	}

	cmd := ParseCommand(input[1:])
	state, ok := relationshipCommands[cmd.Name]
	if !ok {
		return engine.Intent{}, fmt.Errorf("unknown command %q", cmd.Name)
	}
	intent := engine.Intent{Command: state, PeerUsername: focused}
	if len(cmd.Args) > 0 {
		intent.PeerUsername = cmd.Args[0]
	}
	if len(cmd.Args) > 1 {
		intent.PeerEmail = cmd.Args[1]
	}
	if intent.PeerUsername == "" {
		return engine.Intent{}, ErrNoPeer
	}
	return intent, nil
}
