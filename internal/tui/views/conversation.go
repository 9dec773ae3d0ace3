package views

import (
	"fmt"

	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/tui/ui"
	"github.com/rivo/tview"
)

// Conversation displays the messages of the focused hangout.
type Conversation struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversation creates an empty conversation view.
func NewConversation(theme *ui.Theme) *Conversation {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Conversation ")
	tv.SetBorderColor(theme.BorderColor)
	tv.SetTitleColor(theme.TitleColor)
	tv.SetBackgroundColor(theme.BgColor)

	return &Conversation{TextView: tv, theme: theme}
}

// Update redraws the conversation with peer. h is nil when no hangout exists
// yet; owner is the local username.
func (c *Conversation) Update(peer string, h *hangout.Hangout, msgs []hangout.Message, owner string) {
	title := peer
	if h != nil {
		title = fmt.Sprintf("%s [%s]", peer, StateLabel(*h))
	}
	c.SetTitle(fmt.Sprintf(" %s ", tview.Escape(title)))

	c.Clear()
	for _, m := range msgs {
		_, _ = fmt.Fprint(c, c.line(m, owner))
	}
	c.ScrollToEnd()
}

func (c *Conversation) line(m hangout.Message, owner string) string {
	text := tview.Escape(terminalText(m.Text))
	if m.Type == hangout.BlockedNotice {
		return fmt.Sprintf("[%s::i]%s[-:-:-]\n\n", ui.ColorName(c.theme.NoticeColor), text)
	}

	sender := m.Username
	mark := ""
	if m.Username == owner {
		sender = "You"
		mark = " …"
		if m.Delivered {
			mark = " ✓"
		}
	}
	return fmt.Sprintf("[::b]%s[-:-:-] [::d]%s%s[-:-:-]\n%s\n\n",
		tview.Escape(sender), formatTimestamp(m.Timestamp), mark, text)
}
