package core

import "context"

// Store is the domain-level storage interface, implemented by the store
// package (memory, redis). It backs the popularity-aggregate cache, the item
// feature-aggregate cache, and per-user candidate persistence.
//
// Two concurrent requests may compute and write the same cache key; that race
// is acceptable (last writer wins, contents are identical) and needs no
// locking.
type Store interface {
	// Name returns the backend name, for logs.
	Name() string

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl ...int) error
	Delete(ctx context.Context, key string) error

	// BatchGet reduces round trips when fetching many keys at once.
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	Close() error
}

// Store errors.
var (
	// ErrStoreNotFound means the key does not exist.
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")
)

// IsStoreNotFound reports whether err is a missing-key error from a Store.
func IsStoreNotFound(err error) bool {
	de := GetDomainError(err)
	return de != nil && de.Module == ModuleStore && de.Code == ErrorCodeNotFound
}
