// Package cache keeps idempotency keys, cached stock levels and consumer
// dedup markers in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const inFlight = "pending"

// ErrInFlight is returned by Claim while another request holds the same key.
var ErrInFlight = errors.New("request with this idempotency key is still in progress")

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

type Store struct {
	rdb redis.UniversalClient
}

func NewStore(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// Claim reserves an idempotency key. It returns the order ID already recorded
// under the key (replay), or 0 with the key now held by the caller.
func (s *Store) Claim(ctx context.Context, key string) (int, error) {
	k := fmt.Sprintf(KeyIdemProcessOrder, key)
	ok, err := s.rdb.SetNX(ctx, k, inFlight, TTLInFlight).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if ok {
		return 0, nil
	}

	v, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		return s.Claim(ctx, key)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if v == inFlight {
		return 0, ErrInFlight
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("corrupt idempotency value %q: %w", v, err)
	}
	return id, nil
}

// Complete records the order produced under a claimed key.
func (s *Store) Complete(ctx context.Context, key string, orderID int) error {
	k := fmt.Sprintf(KeyIdemProcessOrder, key)
	if err := s.rdb.Set(ctx, k, strconv.Itoa(orderID), TTLIdempotency).Err(); err != nil {
		return fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return nil
}

// Release drops a claim after a failed attempt so the caller may retry.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeyIdemProcessOrder, key)).Err()
}

// GetStock decodes cached stock levels for day into dst. It reports false on a miss.
func (s *Store) GetStock(ctx context.Context, day string, dst any) (bool, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(KeyStockLevels, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read stock cache: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode stock cache: %w", err)
	}
	return true, nil
}

func (s *Store) PutStock(ctx context.Context, day string, levels any) error {
	raw, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("failed to encode stock cache: %w", err)
	}
	return s.rdb.Set(ctx, fmt.Sprintf(KeyStockLevels, day), raw, TTLStockCache).Err()
}

// InvalidateStock removes every cached stock snapshot.
func (s *Store) InvalidateStock(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, stockPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan stock cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// SeenEvent marks eventID as processed by service and reports whether it was already marked.
func (s *Store) SeenEvent(ctx context.Context, service, eventID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, fmt.Sprintf(KeyDedup, service, eventID), "1", TTLDedup).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event: %w", err)
	}
	return !ok, nil
}

// ForgetEvent clears a dedup marker so a failed event is handled again on redelivery.
func (s *Store) ForgetEvent(ctx context.Context, service, eventID string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(KeyDedup, service, eventID)).Err()
}
