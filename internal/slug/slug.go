// Package slug resolves machine names that must be unique within a scope.
//
// Resolution is optimistic: candidates are probed one at a time against the
// store, and the store's unique constraint has the final word. When a write
// loses a race for the resolved name, CreateUnique probes again, up to a
// bounded number of attempts.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// DefaultMaxAttempts bounds the number of persist attempts in CreateUnique.
const DefaultMaxAttempts = 5

// ErrTaken is returned by a persist function when the store rejected the
// name because another record already holds it.
var ErrTaken = errors.New("machine name taken")

// ExistsFunc reports whether candidate is already used within the scope.
// Implementations exclude the record being updated, if any.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Resolve returns base if it is free, otherwise the first free value of
// base-1, base-2, ... There is no upper bound on the suffix.
func Resolve(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}

// PersistFunc writes a record using the resolved name. It returns an error
// matching ErrTaken when the store's unique constraint rejected the name.
type PersistFunc func(ctx context.Context, name string) error

// CreateUnique resolves base and persists it, retrying resolution when the
// write collides with a concurrent writer. maxAttempts <= 0 uses the default.
// The name that was persisted is returned.
func CreateUnique(ctx context.Context, base string, exists ExistsFunc, persist PersistFunc, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		name, err := Resolve(ctx, base, exists)
		if err != nil {
			return "", err
		}
		err = persist(ctx, name)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrTaken) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("resolve %q after %d attempts: %w", base, maxAttempts, lastErr)
}
