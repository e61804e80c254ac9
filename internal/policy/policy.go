// Package policy holds the read-only decision functions of trained pricing agents.
package policy

import (
	"fmt"

	"bertrand-replay/internal/model"
)

// Policy is an agent's learned limit strategy: the index into the price grid
// it plays in a given state. Implementations must be deterministic; the
// replay engine never retrains or mutates them.
type Policy interface {
	BestAction(s model.IntState) int
}

// Func adapts a plain function to Policy.
type Func func(s model.IntState) int

func (f Func) BestAction(s model.IntState) int { return f(s) }

// Stationary plays the same price index in every state.
type Stationary struct {
	Action int
}

func (p Stationary) BestAction(model.IntState) int { return p.Action }

// Table is a dense state -> action lookup.
type Table struct {
	Actions []int
}

func (p *Table) BestAction(s model.IntState) int {
	if s < 0 || int(s) >= len(p.Actions) {
		return -1
	}
	return p.Actions[s]
}

// Validate checks that p can answer every state with an in-grid action.
// Policies without a fixed shape are accepted as-is.
func Validate(p Policy, nStates, nActions int) error {
	switch x := p.(type) {
	case nil:
		return fmt.Errorf("policy is nil")
	case Stationary:
		if x.Action < 0 || x.Action >= nActions {
			return fmt.Errorf("stationary action %d outside [0, %d)", x.Action, nActions)
		}
	case *Table:
		if len(x.Actions) != nStates {
			return fmt.Errorf("action table has %d states, want %d", len(x.Actions), nStates)
		}
		for s, a := range x.Actions {
			if a < 0 || a >= nActions {
				return fmt.Errorf("action table: state %d maps to %d, outside [0, %d)", s, a, nActions)
			}
		}
	case *QTable:
		if len(x.Q) != nStates {
			return fmt.Errorf("q table has %d states, want %d", len(x.Q), nStates)
		}
		for s, row := range x.Q {
			if len(row) != nActions {
				return fmt.Errorf("q table: state %d has %d actions, want %d", s, len(row), nActions)
			}
		}
	}
	return nil
}
