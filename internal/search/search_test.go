package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/search"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

func TestTrajectoryGoalAlreadyReachedIsEmpty(t *testing.T) {
	unions := symbol.NewUnions("BW")
	r, err := rule.Parse(unions, "B", "W", 1.0)
	require.NoError(t, err)

	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 3}, 'W')
	future := grid.Fill[symbol.Set](grid.Size{1, 1, 3}, symbol.NewSet('W'))

	traj := search.Trajectory(future, g, []rule.RewriteRule{r}, false, 0, 0.5)
	assert.Empty(t, traj)
}

func TestTrajectoryReachesGoalOverThreeSteps(t *testing.T) {
	unions := symbol.NewUnions("BW")
	r, err := rule.Parse(unions, "B", "W", 1.0)
	require.NoError(t, err)

	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 3}, 'B')
	future := grid.Fill[symbol.Set](grid.Size{1, 1, 3}, symbol.NewSet('W'))

	traj := search.Trajectory(future, g, []rule.RewriteRule{r}, false, 0, 0.5)
	require.NotEmpty(t, traj)

	last := traj[len(traj)-1]
	allW := true
	last.Iter(func(_ grid.Offset, c symbol.Symbol) {
		if c != 'W' {
			allW = false
		}
	})
	assert.True(t, allW)
}

func TestForwardPotentialsZeroAtOwnSymbol(t *testing.T) {
	unions := symbol.NewUnions("BW")
	r, err := rule.Parse(unions, "B", "W", 1.0)
	require.NoError(t, err)

	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')
	pot := search.ForwardPotentials(g, []rule.RewriteRule{r})
	assert.Equal(t, 0.0, pot['B'].At(grid.Offset{0, 0, 0}))
}

func TestBackwardDeltaSumsPerCellPotential(t *testing.T) {
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 2}, 'B')
	potentials := map[symbol.Symbol]grid.Grid[float64]{
		'B': grid.Fill[float64](grid.Size{1, 1, 2}, 1.0),
	}
	assert.Equal(t, 2.0, search.BackwardDelta(potentials, g))
}
