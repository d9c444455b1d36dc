package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

func unions() symbol.Unions {
	return symbol.NewUnions("BWR")
}

func TestParseWildcardInputDontCare(t *testing.T) {
	r, err := rule.Parse(unions(), "*B", "*W", 1.0)
	require.NoError(t, err)

	assert.Nil(t, r.Input.At(grid.Offset{0, 0, 0}))
	assert.True(t, r.Input.At(grid.Offset{0, 0, 1}).Contains('B'))
}

func TestParseShapeMismatch(t *testing.T) {
	_, err := rule.Parse(unions(), "BB", "W", 1.0)
	assert.Error(t, err)
}

func TestGetIshiftsCombinesWildcardAndSymbolBuckets(t *testing.T) {
	r, err := rule.Parse(unions(), "*B", "*W", 1.0)
	require.NoError(t, err)

	shifts := r.GetIshifts('B')
	assert.ElementsMatch(t, []grid.Offset{{0, 0, 0}, {0, 0, 1}}, shifts)
}

func TestGetOshiftsExcludesUnrelatedSymbol(t *testing.T) {
	r, err := rule.Parse(unions(), "BB", "WR", 1.0)
	require.NoError(t, err)

	assert.ElementsMatch(t, []grid.Offset{{0, 0, 0}}, r.GetOshifts('W'))
}

func TestEqualIgnoresIsCopy(t *testing.T) {
	a, err := rule.Parse(unions(), "B", "W", 1.0)
	require.NoError(t, err)
	b, err := rule.Parse(unions(), "B", "W", 1.0)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}

func TestSymmetriesEmptyTagYieldsOnlySeed(t *testing.T) {
	seed, err := rule.Parse(unions(), "BW", "WB", 1.0)
	require.NoError(t, err)

	variants := rule.Symmetries(seed, "")
	require.Len(t, variants, 1)
	assert.False(t, variants[0].IsCopy)
	assert.True(t, variants[0].Equal(seed))
}

func TestSymmetriesFullDihedralHasAtMostEightVariants(t *testing.T) {
	seed, err := rule.Parse(unions(), "BW", "WB", 1.0)
	require.NoError(t, err)

	variants := rule.Symmetries(seed, "xy")
	assert.LessOrEqual(t, len(variants), 8)
	for _, v := range variants[1:] {
		assert.True(t, v.IsCopy)
	}
}

func TestBackwardNeighborhoodMaxCornerAtOrigin(t *testing.T) {
	r, err := rule.Parse(unions(), "BWR", "WRB", 1.0)
	require.NoError(t, err)

	n := r.BackwardNeighborhood()
	assert.Equal(t, grid.Offset{0, 0, 0}, n.Max())
}
