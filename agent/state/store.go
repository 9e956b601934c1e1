package state

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrEmptyKey       = errors.New("store key is empty")
)

const (
	DefaultTTL           = time.Hour
	maxResponseSizeBytes = 2 << 20
)

// ListStore is an expiring append log keyed by string. Append pushes one
// entry and resets the key's expiry to ttl from now as a single atomic step.
// Reading an expired or unknown key yields an empty sequence.
type ListStore interface {
	Append(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Range(ctx context.Context, key string) ([][]byte, error)
	Delete(ctx context.Context, key string) error
	Len(ctx context.Context, key string) (int64, error)
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
