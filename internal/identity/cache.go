package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"groupchat-backend/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LRUCache is the self-contained cache: capacity bounded, entries expire
// after CacheTTL. Expired entries are dropped on access.
type LRUCache struct {
	lru *expirable.LRU[int64, models.Identity]
}

// NewLRUCache builds a cache holding at most size entries for at most ttl.
// Zero values fall back to DefaultCacheSize and CacheTTL.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = CacheTTL
	}
	return &LRUCache{
		lru: expirable.NewLRU[int64, models.Identity](size, nil, ttl),
	}
}

func (c *LRUCache) Get(userID int64) (models.Identity, bool) {
	return c.lru.Get(userID)
}

func (c *LRUCache) Set(userID int64, identity models.Identity) {
	c.lru.Add(userID, identity)
}

// RedisCache shares resolved identities across processes. Redis owns the TTL
// and the memory bound.
type RedisCache struct {
	client *redis.Client
	sugar  *zap.SugaredLogger
}

var redisCtx = context.Background()

func NewRedisCache(client *redis.Client, sugar *zap.SugaredLogger) *RedisCache {
	return &RedisCache{client: client, sugar: sugar}
}

func redisKey(userID int64) string {
	return fmt.Sprintf("identity:%d", userID)
}

func (c *RedisCache) Get(userID int64) (models.Identity, bool) {
	value, err := c.client.Get(redisCtx, redisKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.Identity{}, false
	} else if err != nil {
		c.sugar.Error(err)
		return models.Identity{}, false
	}

	var identity models.Identity
	err = json.Unmarshal([]byte(value), &identity)
	if err != nil {
		c.sugar.Error(err)
		return models.Identity{}, false
	}

	return identity, true
}

func (c *RedisCache) Set(userID int64, identity models.Identity) {
	bytes, err := json.Marshal(identity)
	if err != nil {
		c.sugar.Error(err)
		return
	}

	err = c.client.Set(redisCtx, redisKey(userID), string(bytes), CacheTTL).Err()
	if err != nil {
		c.sugar.Error(err)
	}
}
