package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zatekoja/clinicportal/internal/domain/providers"
)

type localEntry struct {
	value     []byte
	count     int64
	expiresAt time.Time // zero means never
}

// LocalAdapter is an in-process, size-bounded CacheProvider used when Redis
// is not configured. Expired entries are dropped lazily on read.
type LocalAdapter struct {
	entries *lru.Cache[string, localEntry]
	now     func() time.Time

	counterMu sync.Mutex
}

// NewLocalAdapter creates a cache holding at most size entries.
func NewLocalAdapter(size int) (*LocalAdapter, error) {
	entries, err := lru.New[string, localEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}
	return &LocalAdapter{entries: entries, now: time.Now}, nil
}

var (
	_ providers.CacheProvider = (*LocalAdapter)(nil)
	_ providers.WindowCounter = (*LocalAdapter)(nil)
)

// Get retrieves a value from cache
func (a *LocalAdapter) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := a.entries.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !a.now().Before(entry.expiresAt) {
		a.entries.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a copy of value
func (a *LocalAdapter) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := localEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = a.now().Add(ttl)
	}
	a.entries.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *LocalAdapter) Delete(_ context.Context, key string) error {
	a.entries.Remove(key)
	return nil
}

// Increment implements providers.WindowCounter.
func (a *LocalAdapter) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	a.counterMu.Lock()
	defer a.counterMu.Unlock()

	now := a.now()
	entry, ok := a.entries.Get(key)
	if !ok || (!entry.expiresAt.IsZero() && !now.Before(entry.expiresAt)) {
		entry = localEntry{expiresAt: now.Add(window)}
	}
	entry.count++
	a.entries.Add(key, entry)
	return entry.count, entry.expiresAt.Sub(now), nil
}

// Len reports the number of stored entries, expired ones included.
func (a *LocalAdapter) Len() int {
	return a.entries.Len()
}
