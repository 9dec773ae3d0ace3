package hangout

// State is the relationship state of a hangout.
type State string

// Self-initiated states: what the local user just did, pending confirmation.
const (
	Inviter   State = "INVITER"
	Accepter  State = "ACCEPTER"
	Decliner  State = "DECLINER"
	Blocker   State = "BLOCKER"
	Unblocker State = "UNBLOCKER"
	Messanger State = "MESSANGER"
)

// Acknowledged states: the server confirmed an action.
const (
	Invited   State = "INVITED"
	Accepted  State = "ACCEPTED"
	Declined  State = "DECLINED"
	Blocked   State = "BLOCKED"
	Unblocked State = "UNBLOCKED"
	Messaged  State = "MESSAGED"
)

// acknowledged maps each command to the state the server confirms it with.
var acknowledged = map[State]State{
	Inviter:   Invited,
	Accepter:  Accepted,
	Decliner:  Declined,
	Blocker:   Blocked,
	Unblocker: Unblocked,
	Messanger: Messaged,
}

// IsCommand reports whether s is one of the six self-initiated states that can
// be sent over the wire.
func (s State) IsCommand() bool {
	_, ok := acknowledged[s]
	return ok
}

// Acknowledged returns the ack-confirmed variant of a command state.
// Returns ("", false) for states that are not commands.
func (s State) Acknowledged() (State, bool) {
	a, ok := acknowledged[s]
	return a, ok
}

// Valid reports whether s is one of the twelve known states.
func (s State) Valid() bool {
	if s.IsCommand() {
		return true
	}
	for _, a := range acknowledged {
		if a == s {
			return true
		}
	}
	return false
}
