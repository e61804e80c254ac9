package model

// DeviationSpec controls where in a replayed trajectory the forced deviation happens.
//
// The trajectory has TotalPeriods rows: the start state, PeriodsBeforeDeviation
// normal periods, the deviation period, then resumed play. DeviatingAgent lowers
// its price by DeviationSteps grid steps in the deviation period. The zero values
// of both (agent 0, treated as one step) reproduce the documented experiment.
type DeviationSpec struct {
	TotalPeriods           int
	PeriodsBeforeDeviation int
	DeviatingAgent         int
	DeviationSteps         int
}

// Steps returns the effective deviation size; zero means one step.
func (d DeviationSpec) Steps() int {
	if d.DeviationSteps == 0 {
		return 1
	}
	return d.DeviationSteps
}

// PeriodsAfterDeviation is the number of resumed periods after the deviation period.
func (d DeviationSpec) PeriodsAfterDeviation() int {
	return d.TotalPeriods - d.PeriodsBeforeDeviation - 2
}

// DeviationPeriod is the row index of the deviation period within the trajectory.
func (d DeviationSpec) DeviationPeriod() int {
	return d.PeriodsBeforeDeviation + 1
}

func (d DeviationSpec) Validate(params MarketParameters) error {
	if d.PeriodsBeforeDeviation < 0 {
		return invalidConfig("periods_before_deviation", "must be >= 0, got %d", d.PeriodsBeforeDeviation)
	}
	if d.TotalPeriods < d.PeriodsBeforeDeviation+2 {
		return invalidConfig("total_periods", "must be >= periods_before_deviation + 2 (%d), got %d",
			d.PeriodsBeforeDeviation+2, d.TotalPeriods)
	}
	if d.DeviatingAgent < 0 || d.DeviatingAgent >= params.NAgent {
		return invalidConfig("deviating_agent", "must be in [0, %d), got %d", params.NAgent, d.DeviatingAgent)
	}
	if d.DeviationSteps < 0 {
		return invalidConfig("deviation_steps", "must be >= 0 (0 means one step), got %d", d.DeviationSteps)
	}
	return nil
}
