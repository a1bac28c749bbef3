package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PabloGalante/messenger/internal/adapters/storage/memory"
	"github.com/PabloGalante/messenger/internal/app/store"
	"github.com/PabloGalante/messenger/internal/domain"
)

func newService() *store.Service {
	return store.NewService(memory.NewUserStore(), memory.NewMessageStore())
}

func TestPostMessageAssignsID(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	out, err := svc.PostMessage(ctx, domain.Message{Sender: "a", Receiver: "b", Text: "hi", Status: domain.InitialStatus})
	if err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	if out.ID == "" {
		t.Fatalf("expected server-assigned id")
	}
	if out.Status != domain.InitialStatus {
		t.Fatalf("status changed to %q", out.Status)
	}

	msgs, _ := svc.ListMessages(ctx)
	if len(msgs) != 1 || msgs[0].ID != out.ID {
		t.Fatalf("unexpected stored messages: %+v", msgs)
	}
}

func TestPostMessageRejectsEmpty(t *testing.T) {
	svc := newService()

	_, err := svc.PostMessage(context.Background(), domain.Message{Sender: "a", Receiver: "b", Text: "  "})
	if !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestCreateUserRequiresEmail(t *testing.T) {
	svc := newService()

	if _, err := svc.CreateUser(context.Background(), domain.User{NickName: "ghost"}); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadSeedOnlyFillsEmptyCollections(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	seed := `{
		"users": [{"id": 1, "email": "a@x.com", "nickName": "a"}, {"id": 2, "email": "b@x.com", "nickName": "b"}],
		"messages": [{"sender": "a", "receiver": "b", "text": "hi", "audio": null, "video": null, "status": "neprichitano"}]
	}`

	if err := svc.LoadSeed(ctx, strings.NewReader(seed)); err != nil {
		t.Fatalf("LoadSeed failed: %v", err)
	}
	if err := svc.LoadSeed(ctx, strings.NewReader(seed)); err != nil {
		t.Fatalf("second LoadSeed failed: %v", err)
	}

	users, _ := svc.ListUsers(ctx)
	if len(users) != 2 || users[0].ID != "1" {
		t.Fatalf("unexpected users: %+v", users)
	}
	msgs, _ := svc.ListMessages(ctx)
	if len(msgs) != 1 || msgs[0].ID == "" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}
