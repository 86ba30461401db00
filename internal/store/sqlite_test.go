package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if err := s1.Put(context.Background(), "sessions/a", []byte("kept")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) == 0 || len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}

	got, err := s2.Get(context.Background(), "sessions/a")
	if err != nil || string(got) != "kept" {
		t.Fatalf("expected value to survive reopening, got %q, %v", got, err)
	}
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, "sessions/1", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "sessions/1", []byte(`{"id":"1","v":2}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err := s.Get(ctx, "sessions/1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"id":"1","v":2}` {
		t.Fatalf("unexpected value %q", got)
	}

	if err := s.Put(ctx, " ", []byte("x")); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}

func TestKeysAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for _, key := range []string{"sessions/a", "preparation/x", "sessions/b"} {
		if err := s.Put(ctx, key, []byte(key)); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	keys, err := s.Keys(ctx, "sessions/")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "sessions/b" || keys[1] != "sessions/a" {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := s.Delete(ctx, "sessions/b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "sessions/b"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if _, err := s.Get(ctx, "sessions/b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
