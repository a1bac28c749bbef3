// Package session owns the logged-in user record and the last selected counterpart.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

const (
	KeyLoggedInUser     = "loggedInUser"
	KeySelectedNickName = "selectedNickName"
)

// Listener receives the new logged-in user, or nil after logout.
type Listener func(user *domain.User)

// Store is the single process-wide session. Reads always go to the backing state
// and never serve a cached record.
type Store struct {
	state domain.LocalState

	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
	order     []int
}

func NewStore(state domain.LocalState) *Store {
	return &Store{
		state:     state,
		listeners: make(map[int]Listener),
	}
}

// Current returns the logged-in user or domain.ErrNoSession.
func (s *Store) Current() (domain.User, error) {
	raw, ok, err := s.state.Get(KeyLoggedInUser)
	if err != nil {
		return domain.User{}, fmt.Errorf("read session: %w", err)
	}
	if !ok || raw == "" || raw == "null" {
		return domain.User{}, domain.ErrNoSession
	}

	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return domain.User{}, fmt.Errorf("decode session: %w", err)
	}
	return u, nil
}

func (s *Store) Login(user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.state.Set(KeyLoggedInUser, string(raw)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	observability.WithFields("email", user.Email).Info("session started")
	s.notify(&user)
	return nil
}

// Logout removes the session record. The selected counterpart is kept, as the
// browser client did.
func (s *Store) Logout() error {
	if err := s.state.Remove(KeyLoggedInUser); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}

	observability.Logger().Info("session ended")
	s.notify(nil)
	return nil
}

// Subscribe registers fn and returns a func that removes it. Listeners are called
// synchronously, in subscription order, on the goroutine that changed the session.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *Store) notify(user *domain.User) {
	s.mu.Lock()
	fns := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

// SelectedNickName returns the persisted nickname of the last selected counterpart.
func (s *Store) SelectedNickName() (string, bool) {
	v, ok, err := s.state.Get(KeySelectedNickName)
	if err != nil {
		observability.Logger().Warn("failed to read selected nickname", "error", err)
		return "", false
	}
	return v, ok && v != ""
}

func (s *Store) SetSelectedNickName(nick string) error {
	if err := s.state.Set(KeySelectedNickName, nick); err != nil {
		return fmt.Errorf("write selected nickname: %w", err)
	}
	return nil
}
