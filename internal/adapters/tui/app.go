// Package tui is the terminal client: a login page and the messenger page with the
// navigation bar, contact list and conversation.
package tui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/PabloGalante/messenger/internal/app/contacts"
	"github.com/PabloGalante/messenger/internal/app/conversation"
	"github.com/PabloGalante/messenger/internal/app/navbar"
	"github.com/PabloGalante/messenger/internal/app/session"
	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

const (
	pageLogin     = "login"
	pageMessenger = "messenger"
	pageEmoji     = "emoji"
	pagePopover   = "popover"
	pageAttach    = "attach"
)

type Options struct {
	Remote  domain.RemoteStore
	Media   domain.MediaStore
	Session *session.Store

	Refetch      contacts.RefetchPolicy
	Debounce     time.Duration
	DiscardStale bool
	PollInterval time.Duration
}

// App owns the tview application. Widgets are only touched on the UI goroutine;
// state changes from elsewhere reach them through requestRedraw.
type App struct {
	app   *tview.Application
	pages *tview.Pages
	ctx   context.Context
	opts  Options

	session  *session.Store
	contacts *contacts.List
	conv     *conversation.Service
	bar      *navbar.Bar

	route         string
	redrawPending atomic.Bool
	notice        string

	// login page
	loginList   *tview.List
	loginStatus *tview.TextView
	loginUsers  []domain.User

	// messenger page
	navView      *tview.TextView
	allQuery     *tview.InputField
	allList      *tview.List
	historyQuery *tview.InputField
	historyList  *tview.List
	threadView   *tview.TextView
	composer     *tview.InputField
	statusBar    *tview.TextView
	emojiList    *tview.List
	shownAll     []domain.User
	shownHistory []domain.User
	focusRing    []tview.Primitive
	emojiShown   bool
	popoverShown bool
	popover      *tview.Modal
	attachShown  bool
}

func New(opts Options) *App {
	a := &App{
		app:     tview.NewApplication(),
		pages:   tview.NewPages(),
		ctx:     context.Background(),
		opts:    opts,
		session: opts.Session,
	}

	a.conv = conversation.NewService(opts.Remote, opts.Media, opts.Session, a.requestRedraw)
	a.contacts = contacts.NewList(opts.Remote, opts.Session, contacts.Options{
		Refetch:      opts.Refetch,
		Debounce:     opts.Debounce,
		DiscardStale: opts.DiscardStale,
		OnChange:     a.requestRedraw,
		OnSelect: func(u domain.User) {
			a.conv.Select(u)
		},
	})
	a.bar = navbar.New(opts.Session, a, a.requestRedraw)

	a.pages.AddPage(pageLogin, a.buildLogin(), true, false)
	a.pages.AddPage(pageMessenger, a.buildMessenger(), true, false)
	a.app.SetInputCapture(a.handleKey)
	a.app.SetMouseCapture(a.handleMouse)
	return a
}

// Run shows the page matching the stored session and blocks until the user quits
// or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	log := observability.LoggerFromContext(ctx)

	stopReload := a.conv.ReloadOnLogin(ctx, a.session)
	defer stopReload()
	stopLoad := a.session.Subscribe(func(u *domain.User) {
		if u != nil {
			go a.loadContacts()
		}
	})
	defer stopLoad()
	defer a.bar.Close()
	defer a.contacts.Close()

	go a.conv.Poll(ctx, a.opts.PollInterval)
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()

	a.app.SetRoot(a.pages, true).EnableMouse(true)
	if _, err := a.session.Current(); err == nil {
		log.Info("resuming stored session")
		a.Navigate(navbar.RouteMessenger)
		go a.loadContacts()
		go a.conv.Load(ctx)
	} else {
		a.Navigate(navbar.RouteHome)
	}

	return a.app.Run()
}

// Navigate switches pages. "/messenger" needs a session; every other path shows
// the login page. It must run on the UI goroutine.
func (a *App) Navigate(path string) {
	if path == navbar.RouteMessenger {
		if _, err := a.session.Current(); err == nil {
			a.route = navbar.RouteMessenger
			a.pages.SwitchToPage(pageMessenger)
			a.refresh()
			a.app.SetFocus(a.historyList)
			return
		}
	}

	a.route = navbar.RouteHome
	a.closeOverlays()
	a.pages.SwitchToPage(pageLogin)
	a.app.SetFocus(a.loginList)
	go a.loadLoginUsers()
}

// loadContacts reloads the contact list. Failures are logged by the list, which
// keeps what it had; nothing is shown to the user.
func (a *App) loadContacts() {
	if err := a.contacts.Load(a.ctx); err != nil {
		return
	}
	a.conv.Restore(a.contacts.Users())
}

// requestRedraw coalesces redraws. It never blocks, so it is safe from any goroutine.
func (a *App) requestRedraw() {
	if !a.redrawPending.CompareAndSwap(false, true) {
		return
	}
	go a.app.QueueUpdateDraw(func() {
		a.redrawPending.Store(false)
		a.refresh()
	})
}

// flash shows msg in the status bar until the next notice.
func (a *App) flash(msg string) {
	observability.Logger().Warn("ui notice", "notice", msg)
	go a.app.QueueUpdateDraw(func() {
		a.notice = msg
		a.refresh()
	})
}

func (a *App) refresh() {
	if a.route == navbar.RouteMessenger {
		a.refreshMessenger()
	}
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyF10 {
		a.app.Stop()
		return nil
	}
	if a.route != navbar.RouteMessenger {
		if ev.Key() == tcell.KeyF5 {
			go a.loadLoginUsers()
			return nil
		}
		return ev
	}

	switch ev.Key() {
	case tcell.KeyF2:
		a.conv.ToggleEmojiPicker()
		return nil
	case tcell.KeyF3:
		a.showAttachPrompt(domain.MediaAudio)
		return nil
	case tcell.KeyF4:
		a.showAttachPrompt(domain.MediaVideo)
		return nil
	case tcell.KeyF5:
		go a.contacts.RefreshMessages(a.ctx)
		go a.conv.Load(a.ctx)
		return nil
	case tcell.KeyF9:
		a.bar.Toggle()
		return nil
	case tcell.KeyEsc:
		switch {
		case a.popoverShown:
			a.bar.ClickOutside()
		case a.emojiShown:
			a.conv.ToggleEmojiPicker()
		case a.attachShown:
			a.closeAttachPrompt()
		default:
			a.conv.ClearSelection()
			a.app.SetFocus(a.historyList)
		}
		return nil
	case tcell.KeyTab:
		if a.overlayShown() {
			return ev
		}
		a.cycleFocus()
		return nil
	}
	return ev
}

// handleMouse closes the popover on a click outside it.
func (a *App) handleMouse(ev *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
	if !a.popoverShown || a.popover == nil || action != tview.MouseLeftDown {
		return ev, action
	}
	if x, y := ev.Position(); !a.popover.InRect(x, y) {
		a.bar.ClickOutside()
		return nil, action
	}
	return ev, action
}

func (a *App) overlayShown() bool {
	return a.emojiShown || a.popoverShown || a.attachShown
}

func (a *App) cycleFocus() {
	current := a.app.GetFocus()
	next := 0
	for i, p := range a.focusRing {
		if p == current {
			next = (i + 1) % len(a.focusRing)
			break
		}
	}
	a.app.SetFocus(a.focusRing[next])
}

func (a *App) closeOverlays() {
	for _, name := range []string{pageEmoji, pagePopover, pageAttach} {
		if a.pages.HasPage(name) {
			a.pages.RemovePage(name)
		}
	}
	a.emojiShown, a.popoverShown, a.attachShown = false, false, false
	a.popover = nil
}

// centered wraps p in a box of the given size in the middle of the screen.
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(p, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)
}
