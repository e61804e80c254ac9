package analysis

import "bertrand-replay/internal/model"

// Reconvergence describes whether a deviation trajectory returns to the
// price vector it started from.
type Reconvergence struct {
	Reconverged bool
	// Periods is the number of periods after the deviation period until the
	// start vector is played again; -1 if it never is.
	Periods int
}

// Reconverges checks rows after deviationPeriod for a return to traj[0].
func Reconverges(traj model.Trajectory, deviationPeriod int) Reconvergence {
	if len(traj) == 0 || deviationPeriod < 0 {
		return Reconvergence{Periods: -1}
	}
	for t := deviationPeriod + 1; t < len(traj); t++ {
		if traj[t].Equal(traj[0]) {
			return Reconvergence{Reconverged: true, Periods: t - deviationPeriod}
		}
	}
	return Reconvergence{Periods: -1}
}
