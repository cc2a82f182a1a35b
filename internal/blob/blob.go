// Package blob stores image bytes under flat keys.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotExist is returned when a key has no stored object.
var ErrNotExist = errors.New("blob does not exist")

// Store reads and writes image objects.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ValidKey rejects keys that could escape the store's namespace.
func ValidKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q: must not be empty or a dot directory", key)
	}
	if path.Base(key) != key || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid key %q: must not be a path", key)
	}
	return nil
}
