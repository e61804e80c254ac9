package replay

import "bertrand-replay/internal/model"

// Stack flattens equally shaped trajectories into a row-major int64 buffer
// of shape (len(trajs), periods, agents).
func Stack(trajs []model.Trajectory) ([]int, []int64) {
	if len(trajs) == 0 {
		return []int{0, 0, 0}, nil
	}
	periods := len(trajs[0])
	agents := trajs[0].NAgent()
	data := make([]int64, 0, len(trajs)*periods*agents)
	for _, t := range trajs {
		for _, row := range t {
			for _, p := range row {
				data = append(data, int64(p))
			}
		}
	}
	return []int{len(trajs), periods, agents}, data
}

// StackAllStates is Stack for PlayFromAllStates output: shape
// (markets, states, periods, agents).
func StackAllStates(all [][]model.Trajectory) ([]int, []int64) {
	if len(all) == 0 {
		return []int{0, 0, 0, 0}, nil
	}
	var data []int64
	inner := []int{0, 0, 0}
	for _, perState := range all {
		var flat []int64
		inner, flat = Stack(perState)
		data = append(data, flat...)
	}
	return append([]int{len(all)}, inner...), data
}

// Unstack is the inverse of Stack.
func Unstack(shape []int, data []int64) []model.Trajectory {
	if len(shape) != 3 {
		return nil
	}
	n, periods, agents := shape[0], shape[1], shape[2]
	if n < 0 || periods < 0 || agents < 0 || len(data) != n*periods*agents {
		return nil
	}
	out := make([]model.Trajectory, n)
	k := 0
	for m := 0; m < n; m++ {
		t := make(model.Trajectory, periods)
		for p := 0; p < periods; p++ {
			row := make(model.PriceVector, agents)
			for a := 0; a < agents; a++ {
				row[a] = model.PricePoint(data[k])
				k++
			}
			t[p] = row
		}
		out[m] = t
	}
	return out
}
