package memory

import (
	"context"
	"testing"
)

func TestInMemoryStoreRecentOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(10)
	for _, content := range []string{"hola", "¿qué planes hay?", "gracias"} {
		if err := s.Append(ctx, NewTurn("u1", RoleUser, content)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].Content != "¿qué planes hay?" || got[1].Content != "gracias" {
		t.Fatalf("Recent() = %+v, want last two oldest first", got)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("Append did not stamp id/created_at: %+v", got[0])
	}

	if other, _ := s.Recent(ctx, "u2", 5); len(other) != 0 {
		t.Fatalf("Recent(u2) = %+v, want empty", other)
	}
}

func TestInMemoryStoreDropsOldestPastCap(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(2)
	_ = s.Append(ctx, NewTurn("u1", RoleUser, "uno"))
	_ = s.Append(ctx, NewTurn("u1", RoleAssistant, "dos"))
	_ = s.Append(ctx, NewTurn("u1", RoleUser, "tres"))

	got, _ := s.Recent(ctx, "u1", 0)
	if len(got) != 2 || got[0].Content != "dos" || got[1].Content != "tres" {
		t.Fatalf("Recent() = %+v, want [dos tres]", got)
	}
}

func TestInMemoryStoreForget(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(0)
	_ = s.Append(ctx, NewTurn("u1", RoleUser, "hola"))
	if err := s.Forget(ctx, " u1 "); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if got, _ := s.Recent(ctx, "u1", 5); len(got) != 0 {
		t.Fatalf("Recent() after Forget = %+v", got)
	}
}

func TestNewTurnRedactsPII(t *testing.T) {
	turn := NewTurn(" u1 ", RoleUser, "mi correo es ana@example.com")
	if !turn.PIIRedacted {
		t.Fatalf("PIIRedacted = false, want true")
	}
	if turn.Content != "mi correo es [REDACTED_EMAIL]" {
		t.Fatalf("Content = %q", turn.Content)
	}
	if turn.OwnerKey != "u1" {
		t.Fatalf("OwnerKey = %q, want trimmed", turn.OwnerKey)
	}
}

func TestNewStoreWithoutDatabaseIsInMemory(t *testing.T) {
	s, err := NewStore(context.Background(), " ")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, ok := s.(*InMemoryStore); !ok {
		t.Fatalf("NewStore() = %T, want *InMemoryStore", s)
	}
}
