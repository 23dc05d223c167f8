package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gartanggali/resort-backend/config"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

// MarkVisited records a visitor fingerprint for the dedup window. Returns
// true when this is the first sighting within ttl.
func (c *RedisCache) MarkVisited(ctx context.Context, key, visitorHash string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, visitKey(key, visitorHash), "1", ttl).Result()
}

// UnmarkVisited drops the fingerprint so the visitor can be counted again.
func (c *RedisCache) UnmarkVisited(ctx context.Context, key, visitorHash string) error {
	return c.client.Del(ctx, visitKey(key, visitorHash)).Err()
}

// SaveOAuthState stores a one-shot OAuth state nonce.
func (c *RedisCache) SaveOAuthState(ctx context.Context, state string, ttl time.Duration) error {
	return c.client.Set(ctx, oauthStateKey(state), "1", ttl).Err()
}

// ConsumeOAuthState deletes the nonce and reports whether it existed.
func (c *RedisCache) ConsumeOAuthState(ctx context.Context, state string) (bool, error) {
	_, err := c.client.GetDel(ctx, oauthStateKey(state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func visitKey(key, visitorHash string) string {
	return fmt.Sprintf("visit:%s:%s", key, visitorHash)
}

func oauthStateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}
