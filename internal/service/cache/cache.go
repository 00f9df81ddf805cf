package cache

import (
	"context"
	"time"
)

// ResponseCache stores serialized endpoint responses keyed by the query
// fingerprint. A miss is (nil, false, nil); errors are reserved for backend
// failures so callers can fall through to a fresh resolve.
type ResponseCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
