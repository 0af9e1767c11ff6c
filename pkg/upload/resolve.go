package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

// DecisionKind classifies the outcome of comparing a local entity against
// the remote store's current state for its identifier.
type DecisionKind int

const (
	// DecisionCreate means no remote entity exists under the identifier.
	DecisionCreate DecisionKind = iota

	// DecisionSkipIdentical means the remote entity matches field for field;
	// re-uploading is a no-op.
	DecisionSkipIdentical

	// DecisionConflict means a remote entity exists but differs. The
	// decision carries the differing field paths; resolution is left to the
	// injected policy.
	DecisionConflict
)

// Decision is the pure result of conflict detection. A Conflict decision
// does not itself choose a resolution.
type Decision struct {
	Kind   DecisionKind
	Diff   []string
	Remote *entity.Entity
}

// Resolve looks up the entity's identifier in the remote store and decides
// create / identical-skip / conflict. Detection is deterministic; the only
// side effect is the single lookup call.
func Resolve(ctx context.Context, e *entity.Entity, s store.Store) (Decision, error) {
	id, err := entity.ParseURI(e.URI)
	if err != nil {
		return Decision{}, err
	}

	remote, err := s.Lookup(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return Decision{Kind: DecisionCreate}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("looking up %s: %w", id, err)
	}

	diff := entity.Diff(remote, e)
	if len(diff) == 0 {
		return Decision{Kind: DecisionSkipIdentical, Remote: remote}, nil
	}
	return Decision{Kind: DecisionConflict, Diff: diff, Remote: remote}, nil
}
