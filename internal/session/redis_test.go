package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return NewRedisStore(rdb), mr
}

func TestRedisStore_SetGetDelete(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "abc", []byte(`{"userId":"u1"}`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	if !mr.Exists(keyPrefix + "abc") {
		t.Fatalf("expected key to be stored under the session prefix")
	}

	got, err := s.Get(ctx, "abc")
	if err != nil || string(got) != `{"userId":"u1"}` {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := s.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	if _, err := s.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStore_ExpiryAndTouch(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "abc", []byte("v"), time.Hour)

	mr.FastForward(50 * time.Minute)

	if err := s.Touch(ctx, "abc", time.Hour); err != nil {
		t.Fatalf("Touch error: %v", err)
	}

	mr.FastForward(50 * time.Minute)

	if _, err := s.Get(ctx, "abc"); err != nil {
		t.Fatalf("expected session alive after touch, got %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := s.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after idle window, got %v", err)
	}

	if err := s.Touch(ctx, "abc", time.Hour); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound touching expired key, got %v", err)
	}
}
