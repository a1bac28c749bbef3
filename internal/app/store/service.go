// Package store is the application layer of the stand-in remote message store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

var ErrInvalid = errors.New("invalid record")

type Service struct {
	users    domain.UserStore
	messages domain.MessageStore
	newID    func() string
}

func NewService(users domain.UserStore, messages domain.MessageStore) *Service {
	return &Service{
		users:    users,
		messages: messages,
		newID:    uuid.NewString,
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

// CreateUser stores a user, assigning an id when the caller did not send one.
func (s *Service) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if strings.TrimSpace(user.Email) == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if user.ID == "" {
		user.ID = domain.ID(s.newID())
	}

	log := observability.LoggerFromContext(ctx).With("user_id", user.ID)
	if err := s.users.CreateUser(ctx, user); err != nil {
		log.Error("failed to create user", "error", err)
		return domain.User{}, err
	}

	log.Info("user created")
	return user, nil
}

func (s *Service) ListMessages(ctx context.Context) ([]domain.Message, error) {
	msgs, err := s.messages.ListMessages(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list messages", "error", err)
		return nil, err
	}
	return msgs, nil
}

// PostMessage appends a message and returns it with its server-assigned id.
// The status is stored exactly as the client sent it.
func (s *Service) PostMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if msg.Sender == "" || msg.Receiver == "" {
		return domain.Message{}, fmt.Errorf("%w: sender and receiver are required", ErrInvalid)
	}
	if !msg.HasContent() {
		return domain.Message{}, fmt.Errorf("%w: text or media is required", ErrInvalid)
	}
	if msg.ID == "" {
		msg.ID = domain.ID(s.newID())
	}

	log := observability.LoggerFromContext(ctx).With(
		"message_id", msg.ID,
		"sender", msg.Sender,
		"receiver", msg.Receiver,
	)
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		log.Error("failed to append message", "error", err)
		return domain.Message{}, err
	}

	log.Info("message stored")
	return msg, nil
}

// Seed is the json-server style database file: {"users": [...], "messages": [...]}.
type Seed struct {
	Users    []domain.User    `json:"users"`
	Messages []domain.Message `json:"messages"`
}

// LoadSeed fills empty collections from r. Collections that already hold data are left alone,
// so restarting a durable backend with the same seed file does not duplicate records.
func (s *Service) LoadSeed(ctx context.Context, r io.Reader) error {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	log := observability.LoggerFromContext(ctx)

	existingUsers, err := s.users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existingUsers) == 0 {
		for _, u := range seed.Users {
			if _, err := s.CreateUser(ctx, u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
		}
		log.Info("seeded users", "count", len(seed.Users))
	}

	existingMsgs, err := s.messages.ListMessages(ctx)
	if err != nil {
		return err
	}
	if len(existingMsgs) == 0 {
		for _, m := range seed.Messages {
			if m.ID == "" {
				m.ID = domain.ID(s.newID())
			}
			if err := s.messages.AppendMessage(ctx, m); err != nil {
				return fmt.Errorf("seed message: %w", err)
			}
		}
		log.Info("seeded messages", "count", len(seed.Messages))
	}

	return nil
}
