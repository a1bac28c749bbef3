package navbar_test

import (
	"errors"
	"testing"

	"github.com/PabloGalante/messenger/internal/adapters/localstate"
	"github.com/PabloGalante/messenger/internal/app/navbar"
	"github.com/PabloGalante/messenger/internal/app/session"
	"github.com/PabloGalante/messenger/internal/domain"
)

type recordingNav struct {
	paths []string
}

func (r *recordingNav) Navigate(path string) { r.paths = append(r.paths, path) }

func TestPopoverTransitions(t *testing.T) {
	sess := session.NewStore(localstate.NewMemory())
	bar := navbar.New(sess, &recordingNav{}, nil)
	defer bar.Close()

	if bar.Popover() != navbar.PopoverClosed {
		t.Fatalf("expected initial state closed")
	}
	if bar.Toggle() != navbar.PopoverOpen {
		t.Fatalf("expected open after toggle")
	}
	if bar.Toggle() != navbar.PopoverClosed {
		t.Fatalf("expected closed after second toggle")
	}

	bar.Toggle()
	bar.ClickOutside()
	if bar.Popover() != navbar.PopoverClosed {
		t.Fatalf("expected closed after outside click")
	}
	bar.ClickOutside()
	if bar.Popover() != navbar.PopoverClosed {
		t.Fatalf("outside click on closed popover must stay closed")
	}
}

func TestIdentityFollowsSession(t *testing.T) {
	sess := session.NewStore(localstate.NewMemory())
	_ = sess.Login(domain.User{ID: "7", Email: "a@x.com", NickName: "a"})

	changes := 0
	bar := navbar.New(sess, nil, func() { changes++ })
	defer bar.Close()

	id := bar.Identity()
	if !id.LoggedIn || id.Email != "a@x.com" || id.ID != "7" {
		t.Fatalf("unexpected identity at mount %+v", id)
	}

	_ = sess.Login(domain.User{ID: "8", Email: "b@x.com", NickName: "b"})
	if got := bar.Identity(); got.Email != "b@x.com" || changes == 0 {
		t.Fatalf("identity not refreshed: %+v", got)
	}
}

func TestLogout(t *testing.T) {
	sess := session.NewStore(localstate.NewMemory())
	_ = sess.Login(domain.User{ID: "7", Email: "a@x.com", NickName: "a"})
	nav := &recordingNav{}
	bar := navbar.New(sess, nav, nil)
	defer bar.Close()

	bar.Toggle()
	if err := bar.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if bar.Popover() != navbar.PopoverClosed {
		t.Fatalf("expected popover closed after logout")
	}
	if _, err := sess.Current(); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected session cleared, got %v", err)
	}
	if len(nav.paths) != 1 || nav.paths[0] != navbar.RouteHome {
		t.Fatalf("expected navigation to %q, got %v", navbar.RouteHome, nav.paths)
	}
	if bar.Identity().LoggedIn {
		t.Fatalf("identity must be cleared")
	}
}
