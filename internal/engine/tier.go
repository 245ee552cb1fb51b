package engine

import (
	"context"
	"fmt"
)

// Tier is the subscription policy bundle the engine consumes: how far
// forward instances are materialized and how many due items the queue
// returns. The engine never resolves tiers itself - callers pass the
// owner's current tier on every call, so an upgrade takes effect on the
// next materialization.
type Tier struct {
	Name       string
	WindowDays int
	QueueCap   int
}

var (
	// TierBase is the default tier: 30-day window, 10-item queue.
	TierBase = Tier{Name: "base", WindowDays: 30, QueueCap: 10}

	// TierPlus is the upgraded tier: 90-day window, 25-item queue.
	TierPlus = Tier{Name: "plus", WindowDays: 90, QueueCap: 25}
)

// TierByName maps a tier name to its policy values.
func TierByName(name string) (Tier, error) {
	switch name {
	case TierBase.Name:
		return TierBase, nil
	case TierPlus.Name:
		return TierPlus, nil
	default:
		return Tier{}, fmt.Errorf("unknown tier %q", name)
	}
}

// TierResolver returns the current subscription tier for an owner.
// Implemented by the application layer; StaticTierResolver serves the CLI
// and tests.
type TierResolver interface {
	TierFor(ctx context.Context, ownerID string) (Tier, error)
}

// StaticTierResolver resolves every owner to the same tier.
type StaticTierResolver struct {
	Tier Tier
}

// TierFor returns the fixed tier.
func (r StaticTierResolver) TierFor(ctx context.Context, ownerID string) (Tier, error) {
	return r.Tier, nil
}
