// Package navbar holds the navigation bar state: the identity popover and logout.
package navbar

import (
	"sync"

	"github.com/PabloGalante/messenger/internal/app/session"
	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

// Route paths the bar navigates between.
const (
	RouteHome      = "/"
	RouteMessenger = "/messenger"
)

type Popover int

const (
	PopoverClosed Popover = iota
	PopoverOpen
)

func (p Popover) String() string {
	if p == PopoverOpen {
		return "open"
	}
	return "closed"
}

type Navigator interface {
	Navigate(path string)
}

type Session interface {
	Current() (domain.User, error)
	Logout() error
	Subscribe(fn session.Listener) (unsubscribe func())
}

// Identity is what the popover shows. LoggedIn is false when there is no session,
// in which case the bar offers a login affordance instead.
type Identity struct {
	LoggedIn bool
	Email    string
	ID       domain.ID
}

type Bar struct {
	session  Session
	nav      Navigator
	onChange func()

	mu          sync.Mutex
	popover     Popover
	identity    Identity
	unsubscribe func()
}

// New reads the current session and follows later changes until Close.
func New(sess Session, nav Navigator, onChange func()) *Bar {
	b := &Bar{session: sess, nav: nav, onChange: onChange}

	if u, err := sess.Current(); err == nil {
		b.identity = identityOf(&u)
	}
	b.unsubscribe = sess.Subscribe(func(u *domain.User) {
		b.mu.Lock()
		b.identity = identityOf(u)
		if u == nil {
			b.popover = PopoverClosed
		}
		b.mu.Unlock()
		b.changed()
	})
	return b
}

func identityOf(u *domain.User) Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{LoggedIn: true, Email: u.Email, ID: u.ID}
}

func (b *Bar) Popover() Popover {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.popover
}

func (b *Bar) Identity() Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.identity
}

// Toggle flips the popover, as a click on its trigger does.
func (b *Bar) Toggle() Popover {
	b.mu.Lock()
	if b.popover == PopoverOpen {
		b.popover = PopoverClosed
	} else {
		b.popover = PopoverOpen
	}
	p := b.popover
	b.mu.Unlock()
	b.changed()
	return p
}

func (b *Bar) ClickOutside() {
	b.mu.Lock()
	changed := b.popover != PopoverClosed
	b.popover = PopoverClosed
	b.mu.Unlock()
	if changed {
		b.changed()
	}
}

// Logout clears the session, closes the popover and navigates home.
func (b *Bar) Logout() error {
	b.mu.Lock()
	b.popover = PopoverClosed
	b.mu.Unlock()

	if err := b.session.Logout(); err != nil {
		observability.Logger().Error("logout failed", "error", err)
		b.changed()
		return err
	}
	if b.nav != nil {
		b.nav.Navigate(RouteHome)
	}
	return nil
}

func (b *Bar) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
}

func (b *Bar) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}
