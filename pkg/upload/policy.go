package upload

import (
	"fmt"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/onto-forge/entities-service/pkg/entity"
)

// Action is a conflict resolution chosen by a Policy.
type Action int

const (
	// ActionSkip keeps the remote entity and skips the local one.
	ActionSkip Action = iota

	// ActionOverwrite replaces the remote entity with the local one.
	ActionOverwrite
)

// Policy decides how a detected content conflict is resolved. Keeping this
// separate from detection lets the decision logic stay pure and testable
// without simulating user input.
type Policy interface {
	ResolveConflict(e *entity.Entity, diff []string) (Action, error)
}

type autoPolicy Action

func (p autoPolicy) ResolveConflict(*entity.Entity, []string) (Action, error) {
	return Action(p), nil
}

// AutoSkip resolves every conflict by keeping the remote entity. This is
// the default in quiet mode.
var AutoSkip Policy = autoPolicy(ActionSkip)

// AutoOverwrite resolves every conflict by replacing the remote entity.
var AutoOverwrite Policy = autoPolicy(ActionOverwrite)

type interactivePolicy struct {
	ui cli.Ui
}

// AskInteractively prompts the operator to pick keep-remote, overwrite, or
// skip for each conflict. An unrecognized or empty answer keeps the remote
// entity.
func AskInteractively(ui cli.Ui) Policy {
	return &interactivePolicy{ui: ui}
}

func (p *interactivePolicy) ResolveConflict(e *entity.Entity, diff []string) (Action, error) {
	p.ui.Warn(fmt.Sprintf(
		"Entity %s already exists remotely with different content.\nDiffering fields:\n  %s",
		e.URI, strings.Join(diff, "\n  ")))
	if next, err := entity.NextVersion(e.Version); err == nil {
		p.ui.Info(fmt.Sprintf(
			"To keep both, re-upload the local entity as version %s instead.", next))
	}

	answer, err := p.ui.Ask("Keep the remote entity, overwrite it, or skip? [keep/overwrite/skip]")
	if err != nil {
		return ActionSkip, fmt.Errorf("reading conflict resolution: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "overwrite", "o":
		return ActionOverwrite, nil
	default:
		return ActionSkip, nil
	}
}
