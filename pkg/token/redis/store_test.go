//go:build integration

package redis_test

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hubvault/hubvault/pkg/token"
	"github.com/hubvault/hubvault/pkg/token/redis"
)

// newStore connects to the Redis named by REDIS_ADDR, defaulting to the
// conventional local port, and skips when none is reachable.
func newStore(t *testing.T) *redis.TokenStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Skipf("no redis at %s: %v", addr, err)
	}
	conn.Close()

	s, err := redis.New(context.Background(), redis.Config{Addr: addr})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testKey namespaces keys per run so concurrent test invocations against a
// shared Redis cannot collide.
func testKey(t *testing.T) string {
	t.Helper()
	return "hubvault-test:" + uuid.NewString()
}

func TestPutGetDel(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	key := testKey(t)

	if err := s.Put(ctx, key, []byte(`{"userId":"u1"}`), time.Minute); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	value, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(value) != `{"userId":"u1"}` {
		t.Errorf("Get() = %q, want stored payload", value)
	}

	deleted, err := s.Del(ctx, key)
	if err != nil {
		t.Fatalf("Del() failed: %v", err)
	}
	if !deleted {
		t.Error("Del() = false for an existing key")
	}

	if _, err := s.Get(ctx, key); !errors.Is(err, token.ErrTokenNotFound) {
		t.Errorf("Get() after delete = %v, want ErrTokenNotFound", err)
	}

	deleted, err = s.Del(ctx, key)
	if err != nil {
		t.Fatalf("second Del() failed: %v", err)
	}
	if deleted {
		t.Error("Del() = true for an absent key")
	}
}

func TestTTLExpiry(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	key := testKey(t)

	if err := s.Put(ctx, key, []byte("v"), 100*time.Millisecond); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	time.Sleep(250 * time.Millisecond)

	if _, err := s.Get(ctx, key); !errors.Is(err, token.ErrTokenNotFound) {
		t.Errorf("Get() after expiry = %v, want ErrTokenNotFound", err)
	}
}

func TestConnectFailure(t *testing.T) {
	// A port in the dynamic range that nothing should be listening on.
	_, err := redis.New(context.Background(), redis.Config{Addr: "127.0.0.1:59999"})
	if err == nil {
		t.Error("New() against a dead address should fail the ping")
	}
}
