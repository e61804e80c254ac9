package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState matches every *InvalidStateError via errors.Is.
	ErrInvalidState = errors.New("invalid state")
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidAction matches every *InvalidActionError via errors.Is.
	ErrInvalidAction = errors.New("invalid action")
)

// InvalidStateError reports a price state or int state outside the codec domain.
// It indicates an upstream bug and is never retried.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// ConfigurationError reports a MarketParameters or DeviationSpec field that
// violates its invariant. Raised before any simulation starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InvalidActionError reports a policy answer that does not index the price grid.
type InvalidActionError struct {
	Agent  int
	State  IntState
	Action int
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("agent %d returned action %d for state %d: outside price grid", e.Agent, e.Action, e.State)
}

func (e *InvalidActionError) Is(target error) bool { return target == ErrInvalidAction }

func invalidConfig(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
