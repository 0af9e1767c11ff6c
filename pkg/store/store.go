// Package store defines the narrow remote-store contract the upload core
// depends on. Concrete backends (MongoDB, HTTP client, in-memory) live in
// subpackages.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/onto-forge/entities-service/pkg/entity"
)

var (
	// ErrNotFound is returned by Lookup when no entity exists under the
	// given identifier.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned by Create when an entity already exists under
	// the identifier. The store must report this rather than silently
	// duplicating, even though the orchestrator looks up first.
	ErrConflict = errors.New("entity already exists")

	// ErrUnauthorized is returned when the bearer credential is missing,
	// expired, or lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")
)

// ServerError wraps a backend failure that is neither a conflict nor an
// auth problem. It is surfaced as a failed outcome and never retried by the
// upload core; any retry policy belongs to the store implementation.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server error: %s", e.Detail)
}

// Store is the read/write surface of the remote entity store.
type Store interface {
	// Lookup returns the entity stored under the identifier, or ErrNotFound.
	Lookup(ctx context.Context, id entity.Identifier) (*entity.Entity, error)

	// Create stores a new entity. ErrConflict if the identifier is taken.
	Create(ctx context.Context, e *entity.Entity) error

	// Update replaces the entity stored under the same identifier. Backs the
	// interactive "overwrite" conflict resolution.
	Update(ctx context.Context, e *entity.Entity) error
}

// Lister is implemented by backends that can enumerate the entities of a
// namespace, used by the list endpoint and CLI.
type Lister interface {
	List(ctx context.Context, namespace string) ([]*entity.Entity, error)
}
