package repository

import (
	"context"
)

// UpdateFunc receives the current value of a key and returns the next one.
// Returning a nil slice with a nil error leaves the key untouched. Returning
// an error aborts the update without writing anything.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// KV is a key value namespace. Update is a read-modify-write that is
// serialized per key across goroutines and, depending on the backend,
// across processes.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
	Close() error
}
