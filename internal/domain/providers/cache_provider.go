package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by CacheProvider.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider stores short-lived serialized values such as parse results.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key; a zero ttl means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
}

// WindowCounter is implemented by caches that can count hits atomically in a
// fixed window.
type WindowCounter interface {
	// Increment bumps key, opening a window of the given length on first use,
	// and returns the new count and the time left in the window.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
