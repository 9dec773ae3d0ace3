package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/hangouts/internal/tui/ui"
	"github.com/rivo/tview"
)

// Composer is the input line for messages and relationship commands.
type Composer struct {
	*tview.InputField
	onSend   func(text string)
	onCancel func()
}

// NewComposer creates a new composer.
func NewComposer(theme *ui.Theme) *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0).
		SetPlaceholder("message, or /invite /accept /decline /block /unblock")
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	c := &Composer{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := c.GetText()
			if text != "" && c.onSend != nil {
				c.onSend(text)
				c.SetText("")
			}
		case tcell.KeyEscape:
			if c.onCancel != nil {
				c.onCancel()
			}
		}
	})

	return c
}

// SetOnSend sets the callback for a submitted line.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetOnCancel sets the callback for Escape.
func (c *Composer) SetOnCancel(fn func()) {
	c.onCancel = fn
}
