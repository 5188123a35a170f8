package session

import (
	"context"
	"testing"
	"time"

	"reflecto/api/internal/store"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	s := miniredis.RunT(t)
	rs, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs
}

func TestNewRedisStore(t *testing.T) {
	rs := setupTestRedis(t)
	if err := rs.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	rs := setupTestRedis(t)
	ctx := context.Background()

	user := store.User{ID: "usr_1", Email: "dana@example.com", DisplayName: "Dana"}
	if err := rs.SaveRefreshSession(ctx, "hash-1", user, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	found, err := rs.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if found.ID != user.ID || found.Email != user.Email {
		t.Errorf("expected %+v, got %+v", user, found)
	}
}

func TestLookupExpiredSession(t *testing.T) {
	s := miniredis.RunT(t)
	rs, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	defer rs.Close()
	ctx := context.Background()

	user := store.User{ID: "usr_2"}
	if err := rs.SaveRefreshSession(ctx, "expiring", user, time.Now().Add(time.Millisecond)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	s.FastForward(2 * time.Millisecond)

	if _, err := rs.LookupRefreshSession(ctx, "expiring"); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestLookupNonExistentSession(t *testing.T) {
	rs := setupTestRedis(t)
	if _, err := rs.LookupRefreshSession(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing token, got nil")
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	rs := setupTestRedis(t)
	ctx := context.Background()

	user := store.User{ID: "usr_3"}
	if err := rs.SaveRefreshSession(ctx, "revoke-me", user, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	if err := rs.RevokeRefreshSession(ctx, "revoke-me"); err != nil {
		t.Fatalf("RevokeRefreshSession failed: %v", err)
	}
	if _, err := rs.LookupRefreshSession(ctx, "revoke-me"); err == nil {
		t.Error("expected error after revocation, got nil")
	}
}
