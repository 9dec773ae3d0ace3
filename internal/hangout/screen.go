package hangout

import "strings"

// Screen names a view the navigation collaborator can switch to.
type Screen string

// Screens reached when a peer changes the relationship.
const (
	ScreenPendingInvite Screen = "pending-invite"
	ScreenAccepted      Screen = "accepted"
	ScreenDeclined      Screen = "declined"
	ScreenBlocked       Screen = "blocked"
	ScreenUnblocked     Screen = "unblocked"
)

var peerScreens = map[State]Screen{
	Inviter:   ScreenPendingInvite,
	Accepter:  ScreenAccepted,
	Decliner:  ScreenDeclined,
	Blocker:   ScreenBlocked,
	Unblocker: ScreenUnblocked,
}

// ScreenFor returns the screen to navigate to after a peer moved a hangout into
// state s. Messages never navigate.
func ScreenFor(s State) (Screen, bool) {
	if s == Messanger || s == "" {
		return "", false
	}
	if sc, ok := peerScreens[s]; ok {
		return sc, true
	}
	return Screen(strings.ToLower(string(s))), true
}
