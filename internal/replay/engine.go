// Package replay plays trained pricing agents forward from a state of
// convergence, with and without an exogenous one-period price deviation.
package replay

import (
	"fmt"

	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/model"
	"bertrand-replay/internal/policy"
)

// Engine is stateless apart from the shared codec; every call is pure and
// deterministic given deterministic policies.
type Engine struct {
	codec *codec.Codec
}

func New(c *codec.Codec) *Engine { return &Engine{codec: c} }

func (e *Engine) Codec() *codec.Codec { return e.codec }

func (e *Engine) Params() model.MarketParameters { return e.codec.Params() }

// PlayPeriod queries every agent, in index order, with the same int state and
// maps the chosen action indices to prices. No agent sees another's
// current-period choice.
func (e *Engine) PlayPeriod(policies []policy.Policy, s model.IntState) (model.PriceVector, error) {
	if err := e.checkPolicies(policies); err != nil {
		return nil, err
	}
	return e.playPeriod(policies, s)
}

func (e *Engine) playPeriod(policies []policy.Policy, s model.IntState) (model.PriceVector, error) {
	out := make(model.PriceVector, len(policies))
	for i, p := range policies {
		a := p.BestAction(s)
		price, err := e.codec.PriceAt(a)
		if err != nil {
			return nil, &model.InvalidActionError{Agent: i, State: s, Action: a}
		}
		out[i] = price
	}
	return out, nil
}

// Simulate plays nPeriods periods from start and returns one row per period.
// The start state itself is not included.
func (e *Engine) Simulate(policies []policy.Policy, nPeriods int, start model.PriceState) (model.Trajectory, error) {
	if err := e.checkPolicies(policies); err != nil {
		return nil, err
	}
	if nPeriods < 0 {
		return nil, &model.ConfigurationError{Field: "n_periods", Reason: fmt.Sprintf("must be >= 0, got %d", nPeriods)}
	}
	traj, _, err := e.run(policies, nPeriods, start)
	return traj, err
}

// run is Simulate without argument checks; it also returns the final window.
func (e *Engine) run(policies []policy.Policy, nPeriods int, start model.PriceState) (model.Trajectory, model.PriceState, error) {
	state := start.Clone()
	s, err := e.codec.Encode(state)
	if err != nil {
		return nil, nil, err
	}

	out := make(model.Trajectory, 0, nPeriods)
	for period := 0; period < nPeriods; period++ {
		prices, err := e.playPeriod(policies, s)
		if err != nil {
			return nil, nil, fmt.Errorf("period %d: %w", period, err)
		}
		state, err = e.codec.Shift(state, prices)
		if err != nil {
			return nil, nil, err
		}
		s, err = e.codec.Encode(state)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, prices)
	}
	return out, state, nil
}

func (e *Engine) checkPolicies(policies []policy.Policy) error {
	if len(policies) != e.codec.NAgent() {
		return &model.ConfigurationError{
			Field:  "policies",
			Reason: fmt.Sprintf("got %d policies for %d agents", len(policies), e.codec.NAgent()),
		}
	}
	for i, p := range policies {
		if p == nil {
			return &model.ConfigurationError{Field: "policies", Reason: fmt.Sprintf("policy %d is nil", i)}
		}
	}
	return nil
}
