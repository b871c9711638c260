package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/antiekhuis/antiekhuis-api/internal/model"
)

// cartTTL keeps abandoned carts around long enough for a shopper to come
// back; the whole hash expires together.
const cartTTL = 30 * 24 * time.Hour

// CartStore holds the shopper's in-progress selection keyed by an opaque
// cart token. Adding a product already present is a no-op; entries are
// distinct line items keyed by product id.
type CartStore interface {
	Add(ctx context.Context, token string, item model.CartItem) error
	Remove(ctx context.Context, token string, productID uuid.UUID) error
	Items(ctx context.Context, token string) ([]model.CartItem, error)
	Count(ctx context.Context, token string) (int, error)
	Contains(ctx context.Context, token string, productID uuid.UUID) (bool, error)
	Clear(ctx context.Context, token string) error
}

type redisCartStore struct{ client *redis.Client }

func NewCartStore(client *redis.Client) CartStore {
	return &redisCartStore{client: client}
}

func cartKey(token string) string { return "cart:" + token }

func (s *redisCartStore) Add(ctx context.Context, token string, item model.CartItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal cart item: %w", err)
	}
	key := cartKey(token)
	// HSetNX keeps the first snapshot when the same product is added twice.
	if err := s.client.HSetNX(ctx, key, item.ProductID.String(), data).Err(); err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	if err := s.client.Expire(ctx, key, cartTTL).Err(); err != nil {
		return fmt.Errorf("touch cart ttl: %w", err)
	}
	return nil
}

func (s *redisCartStore) Remove(ctx context.Context, token string, productID uuid.UUID) error {
	if err := s.client.HDel(ctx, cartKey(token), productID.String()).Err(); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (s *redisCartStore) Items(ctx context.Context, token string) ([]model.CartItem, error) {
	values, err := s.client.HGetAll(ctx, cartKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	items := make([]model.CartItem, 0, len(values))
	for _, raw := range values {
		var item model.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("unmarshal cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *redisCartStore) Count(ctx context.Context, token string) (int, error) {
	n, err := s.client.HLen(ctx, cartKey(token)).Result()
	if err != nil {
		return 0, fmt.Errorf("count cart items: %w", err)
	}
	return int(n), nil
}

func (s *redisCartStore) Contains(ctx context.Context, token string, productID uuid.UUID) (bool, error) {
	ok, err := s.client.HExists(ctx, cartKey(token), productID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check cart item: %w", err)
	}
	return ok, nil
}

func (s *redisCartStore) Clear(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, cartKey(token)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
