package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrajectoryInts(t *testing.T) {
	tr, err := TrajectoryFromInts([][]int{{3, 3}, {2, 3}, {3, 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, tr.NAgent())
	assert.Equal(t, []PricePoint{3, 2, 3}, tr.Column(0))
	assert.Equal(t, [][]int{{3, 3}, {2, 3}, {3, 3}}, tr.Ints())
	assert.NoError(t, tr.CheckShape(3, 2))
	assert.Error(t, tr.CheckShape(4, 2))
	assert.Error(t, tr.CheckShape(3, 3))

	_, err = TrajectoryFromInts([][]int{{1, 2}, {1}})
	assert.Error(t, err)
}
