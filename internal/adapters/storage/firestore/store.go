package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/messenger/internal/domain"
)

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Firestore store.
// Uses the project passed (MESSENGER_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) usersCol() *firestore.CollectionRef {
	return s.client.Collection("users")
}

func (s *Store) messagesCol() *firestore.CollectionRef {
	return s.client.Collection("messages")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type userDoc struct {
	Email     string    `firestore:"email"`
	NickName  string    `firestore:"nick_name"`
	CreatedAt time.Time `firestore:"created_at"`
}

type messageDoc struct {
	Sender    string    `firestore:"sender"`
	Receiver  string    `firestore:"receiver"`
	Text      string    `firestore:"text"`
	Time      string    `firestore:"time"`
	Audio     string    `firestore:"audio"`
	Video     string    `firestore:"video"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// UserStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	doc := userDoc{
		Email:     user.Email,
		NickName:  user.NickName,
		CreatedAt: s.now(),
	}

	_, err := s.usersCol().Doc(string(user.ID)).Create(ctx, doc)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user %s already exists", user.ID)
		}
		return fmt.Errorf("firestore CreateUser: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	iter := s.usersCol().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := []domain.User{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListUsers: %w", err)
		}

		var doc userDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode userDoc: %w", err)
		}

		out = append(out, domain.User{
			ID:       domain.ID(snap.Ref.ID),
			Email:    doc.Email,
			NickName: doc.NickName,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg domain.Message) error {
	doc := messageDoc{
		Sender:    msg.Sender,
		Receiver:  msg.Receiver,
		Text:      msg.Text,
		Time:      msg.Time,
		Audio:     string(msg.Audio),
		Video:     string(msg.Video),
		Status:    msg.Status,
		CreatedAt: s.now(),
	}

	_, err := s.messagesCol().Doc(string(msg.ID)).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context) ([]domain.Message, error) {
	iter := s.messagesCol().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := []domain.Message{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		out = append(out, domain.Message{
			ID:       domain.ID(snap.Ref.ID),
			Sender:   doc.Sender,
			Receiver: doc.Receiver,
			Text:     doc.Text,
			Time:     doc.Time,
			Audio:    domain.MediaRef(doc.Audio),
			Video:    domain.MediaRef(doc.Video),
			Status:   doc.Status,
		})
	}
	return out, nil
}
