package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultExpiration = time.Hour
	cleanupInterval   = 10 * time.Minute
)

// Memory is an in-process catalog cache used when no Redis address is
// configured. Entries expire on the same horizon as the Redis cache.
type Memory struct {
	store *gocache.Cache
}

func NewMemory() *Memory {
	return &Memory{store: gocache.New(defaultExpiration, cleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, false
	}
	payload, ok := v.([]byte)
	return payload, ok
}

func (m *Memory) Set(_ context.Context, key string, payload []byte) {
	m.store.Set(key, payload, gocache.DefaultExpiration)
}

func (m *Memory) Invalidate(_ context.Context, keys ...string) {
	for _, key := range keys {
		m.store.Delete(key)
	}
}
