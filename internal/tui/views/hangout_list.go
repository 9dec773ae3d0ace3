package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/tui/ui"
	"github.com/rivo/tview"
)

// HangoutList is the main hangout table, one row per peer.
type HangoutList struct {
	*tview.Table
	theme    *ui.Theme
	hangouts []hangout.Hangout
}

// NewHangoutList creates a new hangout table.
func NewHangoutList(theme *ui.Theme) *HangoutList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true).SetTitle(" Hangouts ")
	table.SetBorderColor(theme.BorderColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	return &HangoutList{Table: table, theme: theme}
}

// Update redraws the table. unread returns the badge count for a peer.
func (l *HangoutList) Update(list []hangout.Hangout, unread func(peer string) int) {
	l.hangouts = list
	row, _ := l.GetSelection()
	l.Clear()

	for col, h := range []string{" PEER", " STATE", " LAST MESSAGE", " TIME"} {
		l.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(l.theme.TableHeaderFg).
			SetBackgroundColor(l.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	for i, h := range list {
		r := i + 1
		name := tview.Escape(h.Username)
		color := l.theme.FgColor
		if n := unread(h.Username); n > 0 {
			name = fmt.Sprintf("* %s (%d)", name, n)
			color = l.theme.UnreadColor
		}
		stateColor := color
		if !h.Delivered {
			stateColor = l.theme.PendingColor
		}
		preview := ""
		if h.LastMessage != nil {
			preview = tview.Escape(previewText(h.LastMessage.Text))
		}

		l.SetCell(r, 0, tview.NewTableCell(" "+name).SetMaxWidth(30).SetExpansion(1).SetTextColor(color))
		l.SetCell(r, 1, tview.NewTableCell(" "+StateLabel(h)).SetMaxWidth(18).SetTextColor(stateColor))
		l.SetCell(r, 2, tview.NewTableCell(" "+preview).SetMaxWidth(40).SetExpansion(2).SetTextColor(color))
		l.SetCell(r, 3, tview.NewTableCell(" "+formatTimestamp(h.Timestamp)).SetMaxWidth(12).SetTextColor(color))
	}

	if row < 1 || row > len(list) {
		row = 1
	}
	if len(list) > 0 {
		l.Select(row, 0)
	}
}

// SelectedPeer returns the username on the selected row, or "".
func (l *HangoutList) SelectedPeer() string {
	row, _ := l.GetSelection()
	idx := row - 1 // header
	if idx >= 0 && idx < len(l.hangouts) {
		return l.hangouts[idx].Username
	}
	return ""
}

// StateLabel renders a hangout's relationship state, marking states the server
// has not confirmed yet.
func StateLabel(h hangout.Hangout) string {
	if h.Delivered {
		return string(h.State)
	}
	return string(h.State) + " (pending)"
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
