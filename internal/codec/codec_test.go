package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"bertrand-replay/internal/model"
)

func params(nAgent, kMemory int) model.MarketParameters {
	return model.MarketParameters{
		NAgent:           nAgent,
		MinPrice:         1,
		MaxPrice:         5,
		Step:             1,
		KMemory:          kMemory,
		DiscountRate:     0.95,
		ReservationPrice: 4,
		MConsumer:        60,
	}
}

func TestNew_RejectsInvalidParams(t *testing.T) {
	p := params(1, 1)
	_, err := New(p)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestEncode_LexicographicOrder(t *testing.T) {
	c, err := New(params(2, 1))
	require.NoError(t, err)
	assert.Equal(t, 25, c.TotalStates())

	for _, tc := range []struct {
		state model.PriceState
		want  model.IntState
	}{
		{model.PriceState{1, 1}, 0},
		{model.PriceState{1, 2}, 1},
		{model.PriceState{2, 1}, 5},
		{model.PriceState{3, 3}, 12},
		{model.PriceState{5, 5}, 24},
	} {
		got, err := c.Encode(tc.state)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%v", tc.state)
	}
}

func TestEncode_InvalidState(t *testing.T) {
	c, err := New(params(2, 1))
	require.NoError(t, err)

	for _, s := range []model.PriceState{
		{1},
		{1, 2, 3},
		{0, 1},
		{1, 6},
	} {
		_, err := c.Encode(s)
		assert.ErrorIs(t, err, model.ErrInvalidState, "%v", s)
	}
}

func TestEncode_OffStepPrice(t *testing.T) {
	p := params(2, 1)
	p.MinPrice, p.MaxPrice, p.Step = 0, 10, 5
	c, err := New(p)
	require.NoError(t, err)

	_, err = c.Encode(model.PriceState{5, 3})
	assert.ErrorIs(t, err, model.ErrInvalidState)

	i, err := c.Encode(model.PriceState{10, 5})
	require.NoError(t, err)
	assert.Equal(t, model.IntState(7), i)
}

func TestDecode_OutOfRange(t *testing.T) {
	c, err := New(params(2, 1))
	require.NoError(t, err)

	for _, i := range []model.IntState{-1, 25, 1000} {
		_, err := c.Decode(i)
		var stateErr *model.InvalidStateError
		assert.ErrorAs(t, err, &stateErr, "%d", i)
	}
}

func TestRoundTrip_AllIntStates(t *testing.T) {
	for _, cfg := range [][2]int{{2, 1}, {3, 1}, {2, 2}} {
		c, err := New(params(cfg[0], cfg[1]))
		require.NoError(t, err)
		for i := 0; i < c.TotalStates(); i++ {
			s, err := c.Decode(model.IntState(i))
			require.NoError(t, err)
			require.Len(t, s, c.StateWidth())
			back, err := c.Encode(s)
			require.NoError(t, err)
			require.Equal(t, model.IntState(i), back)
		}
	}
}

func TestProperty_PriceStateRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nAgent := rapid.IntRange(2, 4).Draw(t, "nAgent")
		kMemory := rapid.IntRange(1, 2).Draw(t, "kMemory")
		c, err := New(params(nAgent, kMemory))
		if err != nil {
			t.Fatalf("new codec: %v", err)
		}
		raw := rapid.SliceOfN(rapid.IntRange(1, 5), c.StateWidth(), c.StateWidth()).Draw(t, "state")
		s := make(model.PriceState, len(raw))
		for i, p := range raw {
			s[i] = model.PricePoint(p)
		}

		i, err := c.Encode(s)
		if err != nil {
			t.Fatalf("encode %v: %v", s, err)
		}
		back, err := c.Decode(i)
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		for k := range s {
			if s[k] != back[k] {
				t.Fatalf("round trip %v -> %d -> %v", s, i, back)
			}
		}
	})
}

func TestShift(t *testing.T) {
	c1, err := New(params(2, 1))
	require.NoError(t, err)
	s, err := c1.Shift(model.PriceState{3, 4}, model.PriceVector{2, 5})
	require.NoError(t, err)
	assert.Equal(t, model.PriceState{2, 5}, s)

	c2, err := New(params(2, 2))
	require.NoError(t, err)
	s, err = c2.Shift(model.PriceState{1, 2, 3, 4}, model.PriceVector{5, 5})
	require.NoError(t, err)
	assert.Equal(t, model.PriceState{3, 4, 5, 5}, s)
	assert.Equal(t, model.PriceVector{5, 5}, c2.Latest(s))

	_, err = c2.Shift(model.PriceState{1, 2}, model.PriceVector{5, 5})
	assert.ErrorIs(t, err, model.ErrInvalidState)
	_, err = c2.Shift(model.PriceState{1, 2, 3, 4}, model.PriceVector{5})
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestFromVector(t *testing.T) {
	c, err := New(params(2, 3))
	require.NoError(t, err)
	assert.Equal(t, model.PriceState{3, 4, 3, 4, 3, 4}, c.FromVector(model.PriceVector{3, 4}))
}

func TestPriceAtIndexOf(t *testing.T) {
	c, err := New(params(2, 1))
	require.NoError(t, err)
	p, err := c.PriceAt(2)
	require.NoError(t, err)
	assert.Equal(t, model.PricePoint(3), p)
	i, err := c.IndexOf(3)
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	_, err = c.PriceAt(5)
	assert.ErrorIs(t, err, model.ErrInvalidState)
	assert.Equal(t, model.PricePoint(1), c.MinPrice())
}
