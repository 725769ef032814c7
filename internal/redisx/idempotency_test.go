package redisx

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// Runs against a real server; set REDIS_ADDR to enable.
func TestIdempotencyClaimLifecycle(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := New(addr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	s := NewIdempotency(rdb)
	user, k := "u-test", uuid.NewString()
	defer rdb.Del(ctx, key(user, k))

	if c, _, err := s.Claim(ctx, user, k); err != nil || c != ClaimAcquired {
		t.Fatalf("first claim = %v, %v", c, err)
	}
	if c, _, err := s.Claim(ctx, user, k); err != nil || c != ClaimPending {
		t.Fatalf("second claim = %v, %v", c, err)
	}
	if err := s.Abort(ctx, user, k); err != nil {
		t.Fatal(err)
	}
	if c, _, _ := s.Claim(ctx, user, k); c != ClaimAcquired {
		t.Fatalf("claim after abort = %v", c)
	}
	if err := s.Complete(ctx, user, k, "ord-1"); err != nil {
		t.Fatal(err)
	}
	c, id, err := s.Claim(ctx, user, k)
	if err != nil || c != ClaimDone || id != "ord-1" {
		t.Fatalf("claim after complete = %v %q %v", c, id, err)
	}
}

func TestKeyIsScopedPerUser(t *testing.T) {
	if key("a", "k") == key("b", "k") {
		t.Fatal("keys must differ per user")
	}
	if got := key("u1", "abc"); got != "idem:checkout:u1:abc" {
		t.Fatalf("key = %q", got)
	}
}
