package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/hangouts/internal/hangout"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/rivo/tview"
)

// FlashLevel is the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

const (
	infoTTL = 5 * time.Second
	warnTTL = 8 * time.Second
	errTTL  = 10 * time.Second
)

// FlashMessage is one notification shown in the flash bar.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the latest notification: peer navigations, connection
// changes and storage or transport errors.
type FlashModel struct {
	mu      sync.RWMutex
	current FlashMessage
	ready   status.ReadyState
	seen    bool
	watchCh chan FlashMessage
}

func NewFlashModel() *FlashModel {
	return &FlashModel{
		watchCh: make(chan FlashMessage, 8),
	}
}

func (f *FlashModel) Info(msg string) {
	f.set(msg, FlashInfo, infoTTL)
}

func (f *FlashModel) Warn(msg string) {
	f.set(msg, FlashWarn, warnTTL)
}

func (f *FlashModel) Err(err error) {
	f.set(err.Error(), FlashErr, errTTL)
}

// Navigated announces that peer moved the hangout and the UI should show
// screen.
func (f *FlashModel) Navigated(peer string, screen hangout.Screen) {
	f.set(fmt.Sprintf("%s: %s", peer, screen), FlashInfo, infoTTL)
}

// Connection reports a readiness change. A state equal to the last one
// reported is ignored.
func (f *FlashModel) Connection(s status.ReadyState) {
	f.mu.Lock()
	if f.seen && f.ready == s {
		f.mu.Unlock()
		return
	}
	f.ready, f.seen = s, true
	f.mu.Unlock()

	switch s {
	case status.Open:
		f.Info("connected")
	case status.Connecting:
		f.Warn("connecting...")
	default:
		f.Warn("offline, commands will be queued")
	}
}

func (f *FlashModel) set(msg string, level FlashLevel, d time.Duration) {
	fm := FlashMessage{
		Text:    msg,
		Level:   level,
		Expires: time.Now().Add(d),
	}
	f.mu.Lock()
	f.current = fm
	f.mu.Unlock()
	select {
	case f.watchCh <- fm:
	default:
	}
}

// Get returns the current text, or empty once it expired.
func (f *FlashModel) Get() string {
	if m := f.GetMessage(); m != nil {
		return m.Text
	}
	return ""
}

// GetMessage returns the current message, or nil once it expired.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar displays the current flash message.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders msg, or clears the bar when msg is nil.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	color, mark := ColorName(fb.theme.FlashInfoColor), ""
	switch msg.Level {
	case FlashWarn:
		color, mark = ColorName(fb.theme.FlashWarnColor), "~ "
	case FlashErr:
		color, mark = ColorName(fb.theme.FlashErrColor), "! "
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s%s[-]", color, mark, tview.Escape(msg.Text))
}
