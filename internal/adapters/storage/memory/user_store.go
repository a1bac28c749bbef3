package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/PabloGalante/messenger/internal/domain"
)

type UserStore struct {
	mu    sync.RWMutex
	users []domain.User
	ids   map[domain.ID]struct{}
}

func NewUserStore() *UserStore {
	return &UserStore{
		ids: make(map[domain.ID]struct{}),
	}
}

func (s *UserStore) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[user.ID]; exists {
		return errors.New("user already exists")
	}

	s.ids[user.ID] = struct{}{}
	s.users = append(s.users, user)
	return nil
}

func (s *UserStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}
