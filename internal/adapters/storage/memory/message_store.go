package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/messenger/internal/domain"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) AppendMessage(_ context.Context, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	return nil
}

func (s *MessageStore) ListMessages(_ context.Context) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}
