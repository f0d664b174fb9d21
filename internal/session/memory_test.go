package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	key := Key{ChatID: 10, AuthorID: "42"}

	if _, ok := s.Get(ctx, key); ok {
		t.Fatal("expected no session before save")
	}

	s.Save(ctx, key, Session{State: StateSelectingRow, Message: MessageRef{ChatID: 10, MessageID: 5}})
	got, ok := s.Get(ctx, key)
	if !ok {
		t.Fatal("expected session after save")
	}
	if got.State != StateSelectingRow || got.Message.MessageID != 5 {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.StartedAt.IsZero() {
		t.Error("StartedAt should be set on first save")
	}

	started := got.StartedAt
	got.State = StateChoosingAction
	got.Row = 7
	s.Save(ctx, key, got)
	got, _ = s.Get(ctx, key)
	if got.Row != 7 || !got.StartedAt.Equal(started) {
		t.Errorf("update lost fields: %+v", got)
	}

	other := Key{ChatID: 10, AuthorID: "43"}
	if _, ok := s.Get(ctx, other); ok {
		t.Error("sessions must be scoped per author")
	}

	s.Clear(ctx, key)
	if _, ok := s.Get(ctx, key); ok {
		t.Error("expected no session after clear")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }
	key := Key{ChatID: 1, AuthorID: "1"}

	s.Save(ctx, key, Session{State: StateWaitingAmount, Row: 3})
	now = now.Add(59 * time.Minute)
	if _, ok := s.Get(ctx, key); !ok {
		t.Fatal("session expired too early")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := s.Get(ctx, key); ok {
		t.Fatal("session should have expired")
	}
}

func TestMemoryStoreRemovesExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	returning := Key{ChatID: 1, AuthorID: "1"}
	gone := Key{ChatID: 2, AuthorID: "2"}
	s.Save(ctx, returning, Session{State: StateSelectingRow})
	s.Save(ctx, gone, Session{State: StateWaitingDate})

	now = now.Add(2 * time.Hour)
	if _, ok := s.Get(ctx, returning); ok {
		t.Fatal("session should have expired")
	}
	if got := s.Len(); got != 1 {
		t.Fatalf("Len() after expired Get = %d, want 1", got)
	}

	fresh := Key{ChatID: 3, AuthorID: "3"}
	s.Save(ctx, fresh, Session{State: StateSelectingRow})
	if got := s.Len(); got != 1 {
		t.Fatalf("Len() after Save = %d, want 1", got)
	}
	if _, ok := s.Get(ctx, fresh); !ok {
		t.Error("fresh session must survive the sweep")
	}
}

func TestMemoryStoreWithoutTTLKeepsSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0)
	s.now = func() time.Time { return now }
	key := Key{ChatID: 1, AuthorID: "1"}

	s.Save(ctx, key, Session{State: StateSelectingRow})
	now = now.Add(30 * 24 * time.Hour)
	s.Save(ctx, Key{ChatID: 2, AuthorID: "2"}, Session{})
	if _, ok := s.Get(ctx, key); !ok {
		t.Error("session without ttl must not expire")
	}
	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestKeyAndState(t *testing.T) {
	if got := (Key{ChatID: -100, AuthorID: "7"}).String(); got != "-100:7" {
		t.Errorf("Key.String() = %q", got)
	}
	if !StateWaitingDate.WaitsForText() || StateChoosingCategory.WaitsForText() {
		t.Error("WaitsForText mismatch")
	}
	if !(MessageRef{}).IsZero() {
		t.Error("zero MessageRef should be zero")
	}
}
