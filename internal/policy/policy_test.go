package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bertrand-replay/internal/codec"
	"bertrand-replay/internal/model"
)

func testCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.New(model.MarketParameters{
		NAgent:           2,
		MinPrice:         1,
		MaxPrice:         5,
		Step:             1,
		KMemory:          1,
		DiscountRate:     0.95,
		ReservationPrice: 4,
		MConsumer:        60,
	})
	require.NoError(t, err)
	return c
}

func TestStationaryAndFunc(t *testing.T) {
	var p Policy = Stationary{Action: 2}
	assert.Equal(t, 2, p.BestAction(0))
	assert.Equal(t, 2, p.BestAction(17))

	p = Func(func(s model.IntState) int { return int(s) % 5 })
	assert.Equal(t, 3, p.BestAction(8))
}

func TestTable(t *testing.T) {
	p := &Table{Actions: []int{0, 4, 2}}
	assert.Equal(t, 4, p.BestAction(1))
	assert.Equal(t, -1, p.BestAction(3))
	assert.Equal(t, -1, p.BestAction(-1))
}

func TestQTable_ArgmaxLowestIndexWinsTies(t *testing.T) {
	p := &QTable{Q: [][]float64{
		{1, 3, 3, 0},
		{5, 5, 5, 5},
		{-1, -2, -0.5, -3},
	}}
	assert.Equal(t, 1, p.BestAction(0))
	assert.Equal(t, 0, p.BestAction(1))
	assert.Equal(t, 2, p.BestAction(2))
	assert.Equal(t, -1, p.BestAction(3))
	assert.Equal(t, []int{1, 0, 2}, p.Greedy().Actions)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Stationary{Action: 4}, 25, 5))
	assert.Error(t, Validate(Stationary{Action: 5}, 25, 5))
	assert.Error(t, Validate(nil, 25, 5))
	assert.Error(t, Validate(&Table{Actions: []int{0}}, 25, 5))
	assert.Error(t, Validate(&Table{Actions: []int{0, 7}}, 2, 5))
	assert.Error(t, Validate(&QTable{Q: [][]float64{{1, 2}}}, 1, 5))
	assert.NoError(t, Validate(Func(func(model.IntState) int { return 0 }), 25, 5))
}

func TestUndercut(t *testing.T) {
	c := testCodec(t)
	p, err := NewUndercut(c, 0)
	require.NoError(t, err)

	at := func(a, b model.PricePoint) int {
		s, err := c.Encode(model.PriceState{a, b})
		require.NoError(t, err)
		return p.BestAction(s)
	}
	// Rival at 4 -> play 3 (index 2).
	assert.Equal(t, 2, at(1, 4))
	// Rival at the floor -> stay at the floor.
	assert.Equal(t, 0, at(5, 1))
	// Rival at 5 -> 4 is the reservation price, index 3.
	assert.Equal(t, 3, at(2, 5))

	assert.Equal(t, -1, p.BestAction(-1))
	assert.Equal(t, -1, p.BestAction(25))

	_, err = NewUndercut(c, 2)
	assert.Error(t, err)
}

func TestUndercut_LargeStateSpace(t *testing.T) {
	c, err := codec.New(model.MarketParameters{
		NAgent:           6,
		MinPrice:         1,
		MaxPrice:         15,
		Step:             1,
		KMemory:          2,
		DiscountRate:     0.95,
		ReservationPrice: 8,
		MConsumer:        60,
	})
	require.NoError(t, err)
	require.Greater(t, c.TotalStates(), 1<<40)

	lead, err := NewUndercut(c, 0)
	require.NoError(t, err)
	fourth, err := NewUndercut(c, 3)
	require.NoError(t, err)

	s, err := c.Encode(model.PriceState{
		1, 1, 1, 1, 1, 1,
		9, 7, 12, 5, 15, 10,
	})
	require.NoError(t, err)
	// Lowest rival is 5 -> play 4 (index 3).
	assert.Equal(t, 3, lead.BestAction(s))
	// Lowest rival is 7 -> play 6 (index 5).
	assert.Equal(t, 5, fourth.BestAction(s))
	assert.Equal(t, -1, lead.BestAction(model.IntState(c.TotalStates())))
}
