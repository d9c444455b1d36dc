package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrimolet/markovjunior/internal/field"
	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/match"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

func bwRule(t *testing.T) rule.RewriteRule {
	r, err := rule.Parse(symbol.NewUnions("BW"), "B", "W", 1.0)
	require.NoError(t, err)
	return r
}

func TestMatchTrueWhenInputAgrees(t *testing.T) {
	r := bwRule(t)
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')
	m := match.Match{Rules: []rule.RewriteRule{r}, U: grid.Offset{0, 0, 0}, R: 0}
	assert.True(t, m.Match(g))

	g.Set(grid.Offset{0, 0, 0}, 'W')
	assert.False(t, m.Match(g))
}

func TestChangesOnlyInsideArea(t *testing.T) {
	r := bwRule(t)
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 3}, 'B')
	m := match.Match{Rules: []rule.RewriteRule{r}, U: grid.Offset{0, 0, 1}, R: 0}

	changes := m.Changes(g)
	require.Len(t, changes, 1)
	assert.Equal(t, grid.Offset{0, 0, 1}, changes[0].Position)
	assert.Equal(t, symbol.Symbol('W'), changes[0].Value)
}

func TestConflictDetectsOverlappingOutputs(t *testing.T) {
	r := bwRule(t)
	a := match.Match{Rules: []rule.RewriteRule{r}, U: grid.Offset{0, 0, 0}, R: 0}
	b := match.Match{Rules: []rule.RewriteRule{r}, U: grid.Offset{0, 0, 0}, R: 0}
	assert.True(t, a.Conflict(b))
}

func TestDeltaMissingSymbolTreatedAsZero(t *testing.T) {
	r := bwRule(t)
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')
	m := match.Match{Rules: []rule.RewriteRule{r}, U: grid.Offset{0, 0, 0}, R: 0}

	d := m.Delta(g, field.Potentials{})
	assert.Equal(t, 0.0, d)
}

func TestDeltaUsesPotentialDifference(t *testing.T) {
	r := bwRule(t)
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')
	m := match.Match{Rules: []rule.RewriteRule{r}, U: grid.Offset{0, 0, 0}, R: 0}

	potentials := field.Potentials{
		'W': grid.Fill[float64](grid.Size{1, 1, 1}, 5.0),
		'B': grid.Fill[float64](grid.Size{1, 1, 1}, 2.0),
	}
	assert.Equal(t, 3.0, m.Delta(g, potentials))
}

func TestScanFullFindsEveryPlacement(t *testing.T) {
	r := bwRule(t)
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 3}, 'B')

	matches := match.Scan(g, []rule.RewriteRule{r}, nil)
	assert.Len(t, matches, 3)
}

func TestScanIncrementalRestrictsToChangedOrigins(t *testing.T) {
	r := bwRule(t)
	g := grid.Fill[symbol.Symbol](grid.Size{1, 1, 3}, 'B')

	history := []grid.Change[symbol.Symbol]{{Position: grid.Offset{0, 0, 1}, Value: 'B'}}
	matches := match.Scan(g, []rule.RewriteRule{r}, history)
	require.Len(t, matches, 1)
	assert.Equal(t, grid.Offset{0, 0, 1}, matches[0].U)
}
