package db

import (
	"context"
	"time"
)

// Store is the key-value facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	CounterStore
	SetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	// HSetIfExists writes fields only when the key exists and reports whether it did.
	HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error)
}

// CounterStore provides atomic read-modify-write on hash counters.
type CounterStore interface {
	// HIncrAndSet increments every field in incr and sets every field in set
	// as one atomic step. Missing keys start from zero.
	HIncrAndSet(ctx context.Context, key string, incr map[string]int64, set map[string]string) error
}

// SetStore provides unordered set membership operations.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SRem(ctx context.Context, key string, members ...string) (int64, error)
	SCard(ctx context.Context, key string) (int64, error)
}
