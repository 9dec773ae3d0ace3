package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/hangouts/internal/bus"
	"github.com/matheus3301/hangouts/internal/engine"
	"github.com/matheus3301/hangouts/internal/status"
	"github.com/matheus3301/hangouts/internal/tui/keys"
	"github.com/matheus3301/hangouts/internal/tui/ui"
	"github.com/matheus3301/hangouts/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	pageHangouts = "hangouts"
	pageHangout  = "hangout"
	pageSearch   = "search"
)

// Engine is the subset of the engine the UI drives.
type Engine interface {
	Snapshot() engine.State
	SendHangoutCommand(ctx context.Context, in engine.Intent) error
	SelectHangout(ctx context.Context, peer string) error
	SelectUnread(ctx context.Context, peer string) error
	Search(ctx context.Context, query string) error
	FetchBacklog(ctx context.Context) error
}

var _ Engine = (*engine.Engine)(nil)

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	eng       Engine
	theme     *ui.Theme
	registry  *keys.Registry
	flash     *ui.FlashModel
	flashBar  *ui.FlashBar
	statusBar *views.StatusBar
	list      *views.HangoutList
	conv      *views.Conversation
	composer  *views.Composer
	search    *views.SearchView

	// focused is the open peer; only touched on the tview goroutine.
	focused string

	events <-chan bus.Event
	unsub  func()
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI for user, driving eng and rendering the state it
// publishes on b.
func NewApp(eng Engine, b *bus.Bus, user string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	events, unsub := b.Subscribe("", 256)

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		eng:       eng,
		theme:     theme,
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		flashBar:  ui.NewFlashBar(theme),
		statusBar: views.NewStatusBar(theme),
		list:      views.NewHangoutList(theme),
		conv:      views.NewConversation(theme),
		composer:  views.NewComposer(theme),
		search:    views.NewSearchView(theme),
		events:    events,
		unsub:     unsub,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetUser(user)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.app.Stop() },
	})
	a.registry.AddGlobal(&keys.Action{
		Rune: 'i', Key: tcell.KeyRune,
		Description: "i:compose", Visible: true,
		Handler: func() { a.app.SetFocus(a.composer.InputField) },
	})
	a.registry.AddView(pageHangouts, &keys.Action{
		Rune: '/', Key: tcell.KeyRune,
		Description: "/:search", Visible: true,
		Handler: a.showSearch,
	})
	a.registry.AddView(pageHangouts, &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:backlog", Visible: true,
		Handler: a.fetchBacklog,
	})
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, col int) {
		if peer := a.list.SelectedPeer(); peer != "" {
			a.open(peer)
		}
	})

	a.composer.SetOnSend(func(text string) {
		intent, err := ParseInput(text, a.focused)
		if err != nil {
			a.flash.Warn(err.Error())
			return
		}
		go func() {
			if err := a.eng.SendHangoutCommand(a.ctx, intent); err != nil {
				a.flash.Err(fmt.Errorf("send failed: %w", err))
			}
		}()
	})
	a.composer.SetOnCancel(func() { a.focusPage() })

	a.search.SetOnQuery(func(query string) {
		go func() {
			if err := a.eng.Search(a.ctx, query); err != nil {
				a.flash.Err(fmt.Errorf("search failed: %w", err))
			}
		}()
	})
	a.search.SetOnDone(func() { a.app.SetFocus(a.search.Results()) })
	a.search.Results().SetSelectedFunc(func(row, col int) {
		if peer := a.search.SelectedPeer(); peer != "" {
			a.open(peer)
		}
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(pageHangouts, a.list, true, true)
	a.pages.AddPage(pageHangout, a.conv, true, false)
	a.pages.AddPage(pageSearch, a.search, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.composer, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)
	a.statusBar.SetHints(a.registry.Hints(pageHangouts))

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		// Let text input widgets handle all keys normally.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			if event.Key() == tcell.KeyEscape && currentPage == pageSearch {
				a.showPage(pageHangouts)
				return nil
			}
			return event
		}

		if event.Key() == tcell.KeyEscape && currentPage != pageHangouts {
			a.showPage(pageHangouts)
			return nil
		}

		if a.registry.HandleEvent(currentPage, event) {
			return nil
		}
		return event
	})
}

// open focuses peer in the engine, clearing its unread badge if it has one,
// and shows the conversation.
func (a *App) open(peer string) {
	go func() {
		var err error
		if a.eng.Snapshot().UnreadCount(peer) > 0 {
			err = a.eng.SelectUnread(a.ctx, peer)
		} else {
			err = a.eng.SelectHangout(a.ctx, peer)
		}
		if err != nil {
			a.flash.Err(fmt.Errorf("open %s: %w", peer, err))
			return
		}
		snap := a.eng.Snapshot()
		a.app.QueueUpdateDraw(func() {
			a.focused = peer
			a.showPage(pageHangout)
			a.render(snap)
		})
	}()
}

func (a *App) fetchBacklog() {
	a.flash.Info("fetching backlog")
	go func() {
		err := a.eng.FetchBacklog(a.ctx)
		switch {
		case errors.Is(err, engine.ErrNoBacklog):
			a.flash.Warn("no backlog_url configured")
		case err != nil:
			a.flash.Err(fmt.Errorf("backlog: %w", err))
		default:
			a.flash.Info("backlog merged")
		}
	}()
}

func (a *App) showSearch() {
	a.search.Reset()
	a.showPage(pageSearch)
}

func (a *App) showPage(name string) {
	if name == pageHangouts {
		a.focused = ""
	}
	a.pages.SwitchToPage(name)
	a.statusBar.SetHints(a.registry.Hints(name))
	a.focusPage()
}

func (a *App) focusPage() {
	switch page, _ := a.pages.GetFrontPage(); page {
	case pageHangout:
		a.app.SetFocus(a.conv)
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	default:
		a.app.SetFocus(a.list)
	}
}

// render draws a state snapshot. Must run on the tview goroutine.
func (a *App) render(st engine.State) {
	a.list.Update(st.Hangouts, st.UnreadCount)
	a.search.Update(st.Search)
	if a.focused != "" {
		a.conv.Update(a.focused, st.Hangout, st.Messages, st.Username)
	}
	a.statusBar.SetState(st.ReadyState, st.Backlog.Loading, st.Err)
}

// handle applies one bus event. Must run on the tview goroutine.
func (a *App) handle(evt bus.Event) {
	switch p := evt.Payload.(type) {
	case engine.State:
		a.render(p)
	case engine.Navigation:
		a.flash.Navigated(p.Peer, p.Screen)
	case status.Change:
		a.flash.Connection(p.To)
	case error:
		if evt.Kind == bus.KindEngineError {
			a.flash.Err(p)
		}
	}
}

func (a *App) watch() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case evt, ok := <-a.events:
			if !ok {
				return
			}
			a.app.QueueUpdateDraw(func() { a.handle(evt) })
		case msg := <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(&msg) })
		case <-ticker.C:
			// Bus delivery is lossy; resync and expire the flash.
			snap := a.eng.Snapshot()
			a.app.QueueUpdateDraw(func() {
				a.render(snap)
				a.flashBar.Update(a.flash.GetMessage())
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.render(a.eng.Snapshot())
	go a.watch()
	defer a.Stop()
	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.unsub()
	a.app.Stop()
}
