package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/cli"
	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/rule"
	"github.com/roach88/cadence/internal/store"
	"github.com/roach88/cadence/internal/testutil"
)

// Run executes a scenario file against a fresh in-memory store and returns
// the final queue in its wire shape, the form the golden files snapshot.
//
// Steps run in order; any step failure fails the test immediately with the
// step index, so a broken scenario points at the exact line.
func Run(t *testing.T, path string) cli.QueueResultData {
	t.Helper()

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewFrozenClock(sc.Now)
	eng := engine.New(s, engine.WithClock(clock))

	tier, err := engine.TierByName(sc.Tier)
	require.NoError(t, err)

	ctx := context.Background()
	for _, td := range sc.Targets {
		require.NoError(t, s.UpsertTarget(ctx, &rule.Target{
			ID:             td.ID,
			OwnerID:        td.Owner,
			Name:           td.Name,
			LastActivityAt: td.LastActivity,
		}), "target %s", td.ID)
	}
	for _, rd := range sc.Rules {
		r, err := rd.buildRule(clock.Now())
		require.NoError(t, err)
		require.NoError(t, s.CreateRule(ctx, r), "rule %s", r.ID)
	}

	for i, step := range sc.Steps {
		require.NoError(t, runStep(ctx, eng, clock, tier, step), "step %d (%s)", i, step.Op)
	}

	res, err := eng.GetQueue(ctx, sc.Queue.Owner, tier, engine.QueueOptions{
		IncludeOverdue: !sc.Queue.TodayOnly,
	})
	require.NoError(t, err)
	return cli.QueueData(res)
}

func runStep(ctx context.Context, eng *engine.Engine, clock *testutil.FrozenClock, tier engine.Tier, step Step) error {
	switch step.Op {
	case "materialize":
		res, err := eng.MaterializeForOwner(ctx, step.Owner, tier)
		if err != nil {
			return err
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("materialize reported rule errors: %+v", res.Errors)
		}
		return nil

	case "rematerialize_target":
		res, err := eng.RematerializeForTarget(ctx, step.Target, tier)
		if err != nil {
			return err
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("rematerialize reported rule errors: %+v", res.Errors)
		}
		return nil

	case "advance_days":
		clock.AdvanceDays(step.Days)
		return nil

	case "complete":
		_, err := eng.Complete(ctx, step.Key, step.Owner)
		return err

	case "snooze":
		_, err := eng.Snooze(ctx, step.Key, step.Owner, step.Until)
		return err

	case "unsnooze":
		_, err := eng.Unsnooze(ctx, step.Key, step.Owner)
		return err

	case "skip":
		_, err := eng.Skip(ctx, step.Key, step.Owner)
		return err

	case "touch_target":
		ok, err := eng.Store().TouchTarget(ctx, step.Target, clock.Now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("target %s not found", step.Target)
		}
		return nil

	case "prune":
		_, err := eng.PruneStale(ctx, step.Owner)
		return err

	default:
		return fmt.Errorf("unknown step op %q", step.Op)
	}
}
