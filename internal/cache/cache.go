// Package cache provides caching for retrieval results and extracted
// signals, backed by Redis or an in-process memory store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss is returned when a key is not present in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Client is the interface implemented by all cache backends.
type Client interface {
	// Get retrieves the value for key, returning ErrCacheMiss when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL. A zero TTL means no
	// expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key from the cache. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes all keys with the given prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Close releases backend resources.
	Close() error
}

// Key builds a namespaced cache key from parts.
func Key(parts ...string) string {
	return "advisor:" + strings.Join(parts, ":")
}

// HashKey builds a namespaced cache key where the final part is a SHA-256
// digest of payload, for keys derived from arbitrary user text or plans.
func HashKey(namespace string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return Key(namespace, hex.EncodeToString(sum[:]))
}
