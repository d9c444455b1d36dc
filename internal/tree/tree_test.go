package tree_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/rulenode"
	"github.com/mtrimolet/markovjunior/internal/symbol"
	"github.com/mtrimolet/markovjunior/internal/tree"
)

func TestMarkovOfTwoStepBoundedChildrenReachesFinalSymbol(t *testing.T) {
	unions := symbol.NewUnions("BWR")

	bToW, err := rule.Parse(unions, "B", "W", 1.0)
	require.NoError(t, err)
	wToR, err := rule.Parse(unions, "W", "R", 1.0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	a := &tree.RuleRunner{
		Node:  rulenode.NewRandom(rulenode.One, []rule.RewriteRule{bToW}, unions, rng),
		Steps: 1,
	}
	b := &tree.RuleRunner{
		Node:  rulenode.NewRandom(rulenode.One, []rule.RewriteRule{wToR}, unions, rng),
		Steps: 1,
	}
	root := &tree.TreeRunner{Nodes: []tree.NodeRunner{a, b}, Mode: tree.Markov}

	tg := grid.Traced[symbol.Symbol]{Grid: grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')}
	for root.Step(&tg) {
	}

	assert.Equal(t, symbol.Symbol('R'), tg.At(grid.Offset{0, 0, 0}))
}

func TestSequenceAdvancesOnlyAfterChildExhausted(t *testing.T) {
	unions := symbol.NewUnions("BW")
	bToW, err := rule.Parse(unions, "B", "W", 1.0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	a := &tree.RuleRunner{Node: rulenode.NewRandom(rulenode.One, []rule.RewriteRule{bToW}, unions, rng)}
	never := &tree.RuleRunner{Node: rulenode.NewRandom(rulenode.One, nil, unions, rng)}
	root := &tree.TreeRunner{Nodes: []tree.NodeRunner{a, never}, Mode: tree.Sequence}

	tg := grid.Traced[symbol.Symbol]{Grid: grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')}

	assert.True(t, root.Step(&tg))
	assert.Equal(t, symbol.Symbol('W'), tg.At(grid.Offset{0, 0, 0}))

	assert.False(t, root.Step(&tg))
}

func TestTreeResetClearsChildStepCounters(t *testing.T) {
	unions := symbol.NewUnions("BW")
	bToW, err := rule.Parse(unions, "B", "W", 1.0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	a := &tree.RuleRunner{Node: rulenode.NewRandom(rulenode.One, []rule.RewriteRule{bToW}, unions, rng), Steps: 1}
	root := &tree.TreeRunner{Nodes: []tree.NodeRunner{a}, Mode: tree.Sequence}

	tg := grid.Traced[symbol.Symbol]{Grid: grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')}
	assert.True(t, root.Step(&tg))
	assert.False(t, root.Step(&tg))

	root.Reset()
	tg2 := grid.Traced[symbol.Symbol]{Grid: grid.Fill[symbol.Symbol](grid.Size{1, 1, 1}, 'B')}
	assert.True(t, root.Step(&tg2))
}
