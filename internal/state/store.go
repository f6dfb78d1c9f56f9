package state

import (
	"context"

	"github.com/vietdv277/stratus/internal/engine"
	"github.com/vietdv277/stratus/pkg/types"
)

// Store persists stack and group records between updates. Each group
// record carries its current update policy mapping and its member list:
// the baseline the next update diffs and plans against.
type Store interface {
	SaveStack(ctx context.Context, st *types.Stack) error
	LoadStack(ctx context.Context, name string) (*types.Stack, error)

	SaveGroup(ctx context.Context, stack string, g *engine.Group) error
	LoadGroup(ctx context.Context, stack, name string) (*engine.Group, error)
	ListGroups(ctx context.Context, stack string) ([]*engine.Group, error)

	// The template a stack was last successfully brought to: the
	// baseline the next update diffs against
	SaveTemplate(ctx context.Context, stack string, data []byte) error
	LoadTemplate(ctx context.Context, stack string) ([]byte, error)
}

// restorePolicy re-derives the validated policy from the persisted
// mapping form after a load
func restorePolicy(g *engine.Group) error {
	if g.PolicyRaw == nil {
		return nil
	}
	p, err := engine.ParsePolicy(g.PolicyRaw)
	if err != nil {
		return err
	}
	g.Policy = p
	return nil
}
