package field_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrimolet/markovjunior/internal/field"
	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

func TestPotentialMaxDistanceAcrossLayer(t *testing.T) {
	g := grid.New[symbol.Symbol](grid.Size{1, 5, 5})
	g.Iter(func(u grid.Offset, _ symbol.Symbol) { g.Set(u, 'B') })
	g.Set(grid.Offset{0, 0, 0}, 'R')

	f := field.Field{
		Substrate: symbol.NewSet('B', 'W'),
		Zero:      symbol.NewSet('R'),
	}
	pot := f.Potential(g)

	max := 0.0
	g.Iter(func(u grid.Offset, _ symbol.Symbol) {
		v := pot.At(u)
		if field.IsNormal(v) && v > max {
			max = v
		}
	})
	assert.Equal(t, 4.0, max)
}

func TestPotentialNonSubstrateIsNaN(t *testing.T) {
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 2}, 'B')
	g.Set(grid.Offset{0, 0, 1}, 'R')

	f := field.Field{
		Substrate: symbol.NewSet('W'),
		Zero:      symbol.NewSet('R'),
	}
	pot := f.Potential(g)
	assert.True(t, math.IsNaN(pot.At(grid.Offset{0, 0, 0})))
}

func TestPotentialInversedNegatesDistance(t *testing.T) {
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 2}, 'B')
	g.Set(grid.Offset{0, 0, 0}, 'R')

	f := field.Field{
		Substrate: symbol.NewSet('B'),
		Zero:      symbol.NewSet('R'),
		Inversed:  true,
	}
	pot := f.Potential(g)
	assert.Equal(t, -1.0, pot.At(grid.Offset{0, 0, 1}))
}

func TestComputeSkipsCachedNonRecompute(t *testing.T) {
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'R')
	fields := field.Fields{'R': {Substrate: symbol.NewSet('R'), Zero: symbol.NewSet('R')}}
	potentials := field.Potentials{'R': grid.Fill[float64](grid.Size{1, 1, 1}, 99)}

	field.Compute(fields, g, potentials)
	assert.Equal(t, 99.0, potentials['R'].At(grid.Offset{0, 0, 0}))
}

func TestComputeRemovesAllNaNField(t *testing.T) {
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')
	fields := field.Fields{'G': {Substrate: symbol.NewSet('B'), Zero: symbol.NewSet('R')}}
	potentials := field.Potentials{}

	field.Compute(fields, g, potentials)
	_, ok := potentials['G']
	assert.False(t, ok)
}

func TestEssentialMissing(t *testing.T) {
	fields := field.Fields{'G': {Essential: true}}
	require.True(t, field.EssentialMissing(fields, field.Potentials{}))

	potentials := field.Potentials{'G': grid.New[float64](grid.Size{1, 1, 1})}
	assert.False(t, field.EssentialMissing(fields, potentials))
}
