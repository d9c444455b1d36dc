package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrimolet/markovjunior/internal/grid"
)

func TestAreaMeet(t *testing.T) {
	a := grid.Area3{Shift: grid.Offset{0, 0, 0}, Size: grid.Size{1, 3, 3}}
	b := grid.Area3{Shift: grid.Offset{0, 1, 1}, Size: grid.Size{1, 3, 3}}

	got := a.Meet(b)
	assert.Equal(t, grid.Offset{0, 1, 1}, got.Shift)
	assert.Equal(t, grid.Size{1, 2, 2}, got.Size)
}

func TestAreaMeetDisjoint(t *testing.T) {
	a := grid.Area3{Size: grid.Size{1, 1, 1}}
	b := grid.Area3{Shift: grid.Offset{0, 5, 5}, Size: grid.Size{1, 1, 1}}

	got := a.Meet(b)
	assert.Equal(t, 0, got.Size.Volume())
}

func TestAreaShiftBy(t *testing.T) {
	a := grid.Area3{Shift: grid.Offset{0, 0, 0}, Size: grid.Size{1, 2, 2}}
	got := a.ShiftBy(grid.Offset{0, 3, 4})
	assert.Equal(t, grid.Offset{0, 3, 4}, got.Shift)
	assert.Equal(t, a.Size, got.Size)
}

func TestGridSetAt(t *testing.T) {
	g := grid.New[byte](grid.Size{1, 3, 3})
	g.Set(grid.Offset{0, 1, 2}, 'W')
	assert.Equal(t, byte('W'), g.At(grid.Offset{0, 1, 2}))
	assert.Equal(t, byte(0), g.At(grid.Offset{0, 0, 0}))
}

func TestGridIterCanonicalOrder(t *testing.T) {
	g := grid.New[int](grid.Size{1, 2, 2})
	n := 0
	var seen []grid.Offset
	g.Iter(func(u grid.Offset, _ int) {
		n++
		seen = append(seen, u)
	})
	require.Equal(t, 4, n)
	assert.Equal(t, []grid.Offset{
		{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1},
	}, seen)
}

func TestGridCloneIndependent(t *testing.T) {
	g := grid.Fill[byte](grid.Size{1, 1, 1}, 'B')
	c := g.Clone()
	c.Set(grid.Offset{0, 0, 0}, 'W')
	assert.Equal(t, byte('B'), g.At(grid.Offset{0, 0, 0}))
	assert.Equal(t, byte('W'), c.At(grid.Offset{0, 0, 0}))
}

func TestTransformedXReflect(t *testing.T) {
	g := grid.New[byte](grid.Size{1, 1, 3})
	g.Set(grid.Offset{0, 0, 0}, 'A')
	g.Set(grid.Offset{0, 0, 1}, 'B')
	g.Set(grid.Offset{0, 0, 2}, 'C')

	r := grid.Transformed(g, grid.XReflect)
	assert.Equal(t, byte('C'), r.At(grid.Offset{0, 0, 0}))
	assert.Equal(t, byte('B'), r.At(grid.Offset{0, 0, 1}))
	assert.Equal(t, byte('A'), r.At(grid.Offset{0, 0, 2}))
}

func TestTransformedXYRotateExtents(t *testing.T) {
	g := grid.New[byte](grid.Size{1, 2, 3})
	r := grid.Transformed(g, grid.XYRotate)
	assert.Equal(t, grid.Size{1, 3, 2}, r.Extents)
}

func TestTransformedIdentityRoundTrips(t *testing.T) {
	g := grid.New[byte](grid.Size{1, 2, 2})
	g.Set(grid.Offset{0, 0, 1}, 'Z')
	r := grid.Transformed(g, grid.Identity)
	assert.Equal(t, g.Values, r.Values)
}

func TestTracedHistoryReplaysToCurrentState(t *testing.T) {
	tg := grid.NewTraced[byte](grid.Size{1, 1, 3}, 'B')
	tg.Apply(grid.Change[byte]{Position: grid.Offset{0, 0, 0}, Value: 'W'})
	tg.Apply(grid.Change[byte]{Position: grid.Offset{0, 0, 2}, Value: 'R'})

	replayed := grid.Replay(tg.Extents, byte('B'), tg.History)
	assert.Equal(t, tg.Values, replayed.Values)
}

func TestTracedApplyAllOrder(t *testing.T) {
	tg := grid.NewTraced[byte](grid.Size{1, 1, 1}, 'B')
	tg.ApplyAll([]grid.Change[byte]{
		{Position: grid.Offset{0, 0, 0}, Value: 'W'},
		{Position: grid.Offset{0, 0, 0}, Value: 'R'},
	})
	assert.Equal(t, byte('R'), tg.At(grid.Offset{0, 0, 0}))
	require.Len(t, tg.History, 2)
}
