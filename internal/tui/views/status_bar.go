package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the user, connection readiness and storage health.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	user    string
	ready   status.ReadyState
	loading bool
	err     error
	hints   []string
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme, ready: status.Closed}
}

// SetUser updates the user display.
func (sb *StatusBar) SetUser(name string) {
	sb.user = name
	sb.render()
}

// SetState updates readiness, backlog loading and the storage error at once.
func (sb *StatusBar) SetState(ready status.ReadyState, loading bool, err error) {
	sb.ready = ready
	sb.loading = loading
	sb.err = err
	sb.render()
}

// SetHints sets the key hints shown on the right.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = hints
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	color := sb.theme.ClosedColor
	switch sb.ready {
	case status.Open:
		color = sb.theme.OpenColor
	case status.Connecting:
		color = sb.theme.ConnectingColor
	}

	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-]", tview.Escape(sb.user), ui.ColorName(color), sb.ready)
	if sb.loading {
		line += " | [green]~[-]"
	}
	if sb.err != nil {
		line += fmt.Sprintf(" | [%s]storage: %s[-]", ui.ColorName(sb.theme.FlashErrColor), tview.Escape(sb.err.Error()))
	}
	line += " | " + time.Now().Format("15:04")
	if len(sb.hints) > 0 {
		line += " | " + strings.Join(sb.hints, " ")
	}

	_, _ = fmt.Fprint(sb, line)
}
