package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/model"
	"bertrand-replay/internal/policy"
)

func testParams(kMemory int) model.MarketParameters {
	return model.MarketParameters{
		NAgent:           2,
		MinPrice:         1,
		MaxPrice:         5,
		Step:             1,
		KMemory:          kMemory,
		DiscountRate:     0.95,
		ReservationPrice: 4,
		MConsumer:        60,
	}
}

func testEngine(t *testing.T, kMemory int) *Engine {
	t.Helper()
	c, err := codec.New(testParams(kMemory))
	require.NoError(t, err)
	return New(c)
}

func stationary(actions ...int) []policy.Policy {
	out := make([]policy.Policy, len(actions))
	for i, a := range actions {
		out[i] = policy.Stationary{Action: a}
	}
	return out
}

// echo plays whatever price agent `other` played last period (tit-for-tat style).
func echo(t *testing.T, e *Engine, other int) policy.Policy {
	c := e.Codec()
	return policy.Func(func(s model.IntState) int {
		st, err := c.Decode(s)
		require.NoError(t, err)
		idx, err := c.IndexOf(c.Latest(st)[other])
		require.NoError(t, err)
		return idx
	})
}

func TestPlayPeriod(t *testing.T) {
	e := testEngine(t, 1)
	prices, err := e.PlayPeriod(stationary(2, 4), 0)
	require.NoError(t, err)
	assert.Equal(t, model.PriceVector{3, 5}, prices)
}

func TestPlayPeriod_AllAgentsSeeSameState(t *testing.T) {
	e := testEngine(t, 1)
	var seen []model.IntState
	record := policy.Func(func(s model.IntState) int {
		seen = append(seen, s)
		return 0
	})
	_, err := e.PlayPeriod([]policy.Policy{record, record}, 7)
	require.NoError(t, err)
	assert.Equal(t, []model.IntState{7, 7}, seen)
}

func TestPlayPeriod_Errors(t *testing.T) {
	e := testEngine(t, 1)

	_, err := e.PlayPeriod(stationary(1), 0)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = e.PlayPeriod([]policy.Policy{policy.Stationary{Action: 0}, nil}, 0)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = e.PlayPeriod(stationary(0, 5), 0)
	var actErr *model.InvalidActionError
	require.ErrorAs(t, err, &actErr)
	assert.Equal(t, 1, actErr.Agent)
	assert.Equal(t, 5, actErr.Action)
}

func TestSimulate_Length(t *testing.T) {
	e := testEngine(t, 1)
	for _, n := range []int{0, 1, 7} {
		traj, err := e.Simulate(stationary(2, 2), n, model.PriceState{5, 5})
		require.NoError(t, err)
		assert.Len(t, traj, n)
	}
	_, err := e.Simulate(stationary(2, 2), -1, model.PriceState{5, 5})
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestSimulate_InvalidStart(t *testing.T) {
	e := testEngine(t, 1)
	_, err := e.Simulate(stationary(2, 2), 3, model.PriceState{9, 1})
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestSimulate_StateFeedsBack(t *testing.T) {
	e := testEngine(t, 1)
	// Agent 0 copies agent 1, agent 1 copies agent 0: prices swap every period.
	pols := []policy.Policy{echo(t, e, 1), echo(t, e, 0)}
	traj, err := e.Simulate(pols, 3, model.PriceState{2, 4})
	require.NoError(t, err)
	assert.Equal(t, model.Trajectory{{4, 2}, {2, 4}, {4, 2}}, traj)
}

func TestSimulate_SlidingWindow(t *testing.T) {
	e := testEngine(t, 2)
	c := e.Codec()
	// Both agents replay agent 0's price from two periods ago.
	twoBack := policy.Func(func(s model.IntState) int {
		st, err := c.Decode(s)
		require.NoError(t, err)
		idx, err := c.IndexOf(st[0])
		require.NoError(t, err)
		return idx
	})
	traj, err := e.Simulate([]policy.Policy{twoBack, twoBack}, 4, model.PriceState{1, 5, 3, 5})
	require.NoError(t, err)
	assert.Equal(t, model.Trajectory{{1, 1}, {3, 3}, {1, 1}, {3, 3}}, traj)
}
