// Package dedupe makes sure a firing is claimed by exactly one scheduler,
// even when several instances tick at once.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Claimer atomically claims a key for ttl. It reports false when the key
// was already claimed.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Memory is a single-process Claimer.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	expires map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, expires: map[string]time.Time{}}
}

func (m *Memory) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.expires {
		if !now.Before(exp) {
			delete(m.expires, k)
		}
	}
	if _, taken := m.expires[key]; taken {
		return false, nil
	}
	m.expires[key] = now.Add(ttl)
	return true, nil
}

// Redis claims keys with SETNX so every instance sharing the server agrees.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "wordreminder:fired:"}
}

// DialRedis parses a redis:// URL and checks the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (r *Redis) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+key, "1", ttl).Result()
}
