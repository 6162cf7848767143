package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("store: key not found")

// Store is the persistence boundary for trust scores, violation records and
// watch configurations. Values are opaque serialized bytes; key layout lives
// in keys.go. TTL of zero means no expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// ListPrefix returns every live entry whose key starts with prefix.
	// Used by the decay sweep and by watch reload at startup.
	ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error)

	Close() error
}

const (
	TrustKeyPrefix     = "trust:"
	ViolationKeyPrefix = "viol:"
	WatchKeyPrefix     = "watch:"
)

func TrustKey(userID string) string {
	return TrustKeyPrefix + userID
}

func ViolationKey(watchID, userID string) string {
	return ViolationKeyPrefix + watchID + ":" + userID
}

func WatchKey(watchID string) string {
	return WatchKeyPrefix + watchID
}
