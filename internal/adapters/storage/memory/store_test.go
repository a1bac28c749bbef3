package memory_test

import (
	"context"
	"testing"

	"github.com/PabloGalante/messenger/internal/adapters/storage/memory"
	"github.com/PabloGalante/messenger/internal/domain"
)

func TestMessageStoreKeepsAppendOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessageStore()

	for _, text := range []string{"one", "two", "three"} {
		if err := store.AppendMessage(ctx, domain.Message{Sender: "a", Receiver: "b", Text: text}); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := store.ListMessages(ctx)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Text != "one" || msgs[2].Text != "three" {
		t.Fatalf("unexpected order: %+v", msgs)
	}

	// callers get a copy
	msgs[0].Text = "changed"
	again, _ := store.ListMessages(ctx)
	if again[0].Text != "one" {
		t.Fatalf("store was mutated through returned slice")
	}
}

func TestUserStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewUserStore()

	if err := store.CreateUser(ctx, domain.User{ID: "1", Email: "a@x.com"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.CreateUser(ctx, domain.User{ID: "1", Email: "other@x.com"}); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	users, _ := store.ListUsers(ctx)
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}
