package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// idem:checkout:{user_id}:{key} -> "pending" | order_id
	KeyIdemCheckout = "idem:checkout:%s:%s"

	pending = "pending"
)

var TTLIdempotency = 24 * time.Hour

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Claim results.
type Claim int

const (
	ClaimAcquired Claim = iota // caller owns the key and must Complete or Abort
	ClaimPending               // another request holds the key
	ClaimDone                  // a previous request finished; see the returned order id
)

// Idempotency guards checkout against client retries with the same Idempotency-Key.
type Idempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotency(rdb *redis.Client) *Idempotency {
	return &Idempotency{rdb: rdb, ttl: TTLIdempotency}
}

func key(userID, idemKey string) string { return fmt.Sprintf(KeyIdemCheckout, userID, idemKey) }

// Claim tries to take the key. For ClaimDone the stored order id is returned.
func (s *Idempotency) Claim(ctx context.Context, userID, idemKey string) (Claim, string, error) {
	k := key(userID, idemKey)
	ok, err := s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return 0, "", err
	}
	if ok {
		return ClaimAcquired, "", nil
	}
	v, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; retry once
		ok, err = s.rdb.SetNX(ctx, k, pending, s.ttl).Result()
		if err != nil {
			return 0, "", err
		}
		if ok {
			return ClaimAcquired, "", nil
		}
		return ClaimPending, "", nil
	}
	if err != nil {
		return 0, "", err
	}
	if v == pending {
		return ClaimPending, "", nil
	}
	return ClaimDone, v, nil
}

// Complete records the order created under the key.
func (s *Idempotency) Complete(ctx context.Context, userID, idemKey, orderID string) error {
	return s.rdb.Set(ctx, key(userID, idemKey), orderID, s.ttl).Err()
}

// Abort releases the key so the client may retry after a failed checkout.
func (s *Idempotency) Abort(ctx context.Context, userID, idemKey string) error {
	return s.rdb.Del(ctx, key(userID, idemKey)).Err()
}
