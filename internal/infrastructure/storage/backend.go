package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by a Backend when a write would exceed its capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Backend is a string key-value store holding one serialized JSON document per key.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// entrySize is the accounting unit shared by every backend quota.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
