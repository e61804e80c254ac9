package replay

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"bertrand-replay/internal/model"
	"bertrand-replay/internal/policy"
)

// Market is one trained market: the agents and the int state they converged to.
type Market struct {
	ID                 string
	StateOfConvergence model.IntState
	Policies           []policy.Policy
}

// Batch holds dev/no-dev replays for a list of markets, index-aligned with the input.
// Both slices have shape (n_markets, total_periods, n_agents).
type Batch struct {
	MarketIDs   []string
	NoDeviation []model.Trajectory
	Deviation   []model.Trajectory
	// AtFloor[i] is set when market i's deviator was already at the floor price.
	AtFloor []bool
}

// SimulateMarkets replays every market with and without deviation.
// Markets are independent; up to workers of them run at once (<= 0 means GOMAXPROCS).
// The first failing market cancels the rest.
func (e *Engine) SimulateMarkets(ctx context.Context, markets []Market, spec model.DeviationSpec, workers int) (*Batch, error) {
	if err := spec.Validate(e.codec.Params()); err != nil {
		return nil, err
	}

	out := &Batch{
		MarketIDs:   make([]string, len(markets)),
		NoDeviation: make([]model.Trajectory, len(markets)),
		Deviation:   make([]model.Trajectory, len(markets)),
		AtFloor:     make([]bool, len(markets)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i, m := range markets {
		out.MarketIDs[i] = m.ID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start, err := e.codec.Decode(m.StateOfConvergence)
			if err != nil {
				return fmt.Errorf("market %s: state of convergence: %w", m.ID, err)
			}
			dev, err := e.PlayWithDeviationDetail(spec, m.Policies, start)
			if err != nil {
				return fmt.Errorf("market %s: %w", m.ID, err)
			}
			noDev, err := e.PlayWithoutDeviation(spec, m.Policies, start)
			if err != nil {
				return fmt.Errorf("market %s: %w", m.ID, err)
			}
			out.Deviation[i] = dev.Trajectory
			out.AtFloor[i] = dev.AtFloor
			out.NoDeviation[i] = noDev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PlayFromAllStates replays every market from every int state without deviation,
// to see how sensitive the learned strategies are to the initial state.
// The result is indexed [market][int state] and each trajectory has
// spec.TotalPeriods rows.
func (e *Engine) PlayFromAllStates(ctx context.Context, markets []Market, spec model.DeviationSpec, workers int) ([][]model.Trajectory, error) {
	if err := spec.Validate(e.codec.Params()); err != nil {
		return nil, err
	}
	nStates := e.codec.TotalStates()
	out := make([][]model.Trajectory, len(markets))
	for i := range out {
		out[i] = make([]model.Trajectory, nStates)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit(workers))
	for i, m := range markets {
		g.Go(func() error {
			for s := 0; s < nStates; s++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				start, err := e.codec.Decode(model.IntState(s))
				if err != nil {
					return err
				}
				traj, err := e.PlayWithoutDeviation(spec, m.Policies, start)
				if err != nil {
					return fmt.Errorf("market %s from state %d: %w", m.ID, s, err)
				}
				out[i][s] = traj
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func workerLimit(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}
