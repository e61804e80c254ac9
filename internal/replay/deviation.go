package replay

import (
	"fmt"

	"bertrand-replay/internal/model"
	"bertrand-replay/internal/policy"
)

// DeviationOutcome is a deviation replay plus what the deviation period would
// have looked like without the forced price cut.
type DeviationOutcome struct {
	Trajectory   model.Trajectory
	Hypothetical model.PriceVector
	Deviated     model.PriceVector
	// AtFloor is set when the deviating agent was already at the lowest price,
	// so the deviation period equals the hypothetical one.
	AtFloor bool
}

// PlayWithDeviation replays spec.TotalPeriods rows starting with start:
//
//	[start] + PeriodsBeforeDeviation normal periods + [deviation period] + resumed periods
//
// In the deviation period spec.DeviatingAgent plays spec.Steps() grid steps
// below what its policy would have chosen, clamped at the grid floor; every
// other agent plays its undeviated choice.
func (e *Engine) PlayWithDeviation(spec model.DeviationSpec, policies []policy.Policy, start model.PriceState) (model.Trajectory, error) {
	out, err := e.PlayWithDeviationDetail(spec, policies, start)
	if err != nil {
		return nil, err
	}
	return out.Trajectory, nil
}

func (e *Engine) PlayWithDeviationDetail(spec model.DeviationSpec, policies []policy.Policy, start model.PriceState) (*DeviationOutcome, error) {
	if err := e.checkReplay(spec, policies, start); err != nil {
		return nil, err
	}

	before, state, err := e.run(policies, spec.PeriodsBeforeDeviation, start)
	if err != nil {
		return nil, fmt.Errorf("before deviation: %w", err)
	}

	s, err := e.codec.Encode(state)
	if err != nil {
		return nil, err
	}
	hypothetical, err := e.playPeriod(policies, s)
	if err != nil {
		return nil, fmt.Errorf("deviation period: %w", err)
	}
	deviated, atFloor, err := e.deviate(hypothetical, spec)
	if err != nil {
		return nil, err
	}

	state, err = e.codec.Shift(state, deviated)
	if err != nil {
		return nil, err
	}
	after, _, err := e.run(policies, spec.PeriodsAfterDeviation(), state)
	if err != nil {
		return nil, fmt.Errorf("after deviation: %w", err)
	}

	traj := make(model.Trajectory, 0, spec.TotalPeriods)
	traj = append(traj, e.codec.Latest(start))
	traj = append(traj, before...)
	traj = append(traj, deviated)
	traj = append(traj, after...)
	if len(traj) != spec.TotalPeriods {
		return nil, fmt.Errorf("deviation replay produced %d periods, want %d", len(traj), spec.TotalPeriods)
	}

	return &DeviationOutcome{
		Trajectory:   traj,
		Hypothetical: hypothetical,
		Deviated:     deviated,
		AtFloor:      atFloor,
	}, nil
}

// PlayWithoutDeviation replays spec.TotalPeriods rows: start plus
// TotalPeriods-1 normal periods.
func (e *Engine) PlayWithoutDeviation(spec model.DeviationSpec, policies []policy.Policy, start model.PriceState) (model.Trajectory, error) {
	if err := e.checkReplay(spec, policies, start); err != nil {
		return nil, err
	}
	rest, _, err := e.run(policies, spec.TotalPeriods-1, start)
	if err != nil {
		return nil, err
	}

	traj := make(model.Trajectory, 0, spec.TotalPeriods)
	traj = append(traj, e.codec.Latest(start))
	traj = append(traj, rest...)
	if len(traj) != spec.TotalPeriods {
		return nil, fmt.Errorf("replay produced %d periods, want %d", len(traj), spec.TotalPeriods)
	}
	return traj, nil
}

// deviate lowers the deviating agent's price. At the floor it is a no-op.
func (e *Engine) deviate(hypothetical model.PriceVector, spec model.DeviationSpec) (model.PriceVector, bool, error) {
	out := hypothetical.Clone()
	agent := spec.DeviatingAgent
	idx, err := e.codec.IndexOf(out[agent])
	if err != nil {
		return nil, false, err
	}
	if idx == 0 {
		return out, true, nil
	}
	idx -= spec.Steps()
	if idx < 0 {
		idx = 0
	}
	out[agent], err = e.codec.PriceAt(idx)
	if err != nil {
		return nil, false, err
	}
	return out, false, nil
}

func (e *Engine) checkReplay(spec model.DeviationSpec, policies []policy.Policy, start model.PriceState) error {
	if err := spec.Validate(e.codec.Params()); err != nil {
		return err
	}
	if err := e.checkPolicies(policies); err != nil {
		return err
	}
	if _, err := e.codec.Encode(start); err != nil {
		return fmt.Errorf("start state: %w", err)
	}
	return nil
}
