package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a redis backed response cache. Entries are stored as JSON so any
// response shape can share one client.
type Cache struct {
	Addr     string
	Password string
	DB       int
	client   *redis.Client
	ctx      context.Context
}

func NewCache(addr, password string, db int) *Cache {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{Addr: addr, Password: password, DB: db, client: rdb, ctx: ctx}
}

func (c *Cache) Get(key string, out any) error {
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), out)
}

func (c *Cache) Set(key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, expiration).Err()
}

func (c *Cache) Invalidate(pattern string) error {
	keys, err := c.client.Keys(c.ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(c.ctx, keys...).Err()
}

func (c *Cache) Close() {
	c.client.Close()
}
