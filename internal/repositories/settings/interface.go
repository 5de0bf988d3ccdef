// Package settings is a small key/value store for application preferences
// such as the PIN verifier.
package settings

import (
	"context"
)

// Repository stores opaque values by key. Get returns nil and no error for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
}
