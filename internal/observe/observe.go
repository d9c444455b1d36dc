// Package observe implements goal descriptions: per-symbol statements
// of "this cell used to hold s, it should end up satisfying to", the
// Future grid they compile down to, and the backward potential field a
// search or OBSERVE-strategy RuleNode propagates from that goal.
package observe

import (
	"math"

	"github.com/mtrimolet/markovjunior/internal/field"
	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/match"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

// Observe states that cells currently holding Value should, after an
// optional rewrite to From, end up satisfying one of the symbols in To.
type Observe struct {
	From *symbol.Symbol
	To   symbol.Set
}

// Observes maps a symbol to the goal statement for cells holding it.
type Observes = map[symbol.Symbol]Observe

// Future gives, for each cell, the set of symbols that would satisfy
// the goal there. An empty Future means no goal.
type Future = grid.Grid[symbol.Set]

// Build constructs the Future for observes against g. Observed cells
// contribute changes (collected into rewrites) when their Observe names
// a From symbol, and carry their To set; unobserved cells carry the
// singleton set of their current value. If some observed symbol never
// appears in g, the Future is cleared (zero value) and the node must
// refuse to fire.
func Build(g grid.Grid[symbol.Symbol], observes Observes) (future Future, rewrites []grid.Change[symbol.Symbol]) {
	seen := symbol.Set{}
	future = grid.New[symbol.Set](g.Extents)

	g.Iter(func(u grid.Offset, c symbol.Symbol) {
		obs, ok := observes[c]
		if !ok {
			future.Set(u, symbol.NewSet(c))
			return
		}
		seen[c] = struct{}{}
		if obs.From != nil {
			rewrites = append(rewrites, grid.Change[symbol.Symbol]{Position: u, Value: *obs.From})
		}
		future.Set(u, obs.To)
	})

	for c := range observes {
		if !seen.Contains(c) {
			return Future{}, nil
		}
	}
	return future, rewrites
}

// GoalReached reports whether every cell of g already satisfies future.
func GoalReached(g grid.Grid[symbol.Symbol], future Future) bool {
	if len(future.Values) == 0 {
		return false
	}
	reached := true
	future.Iter(func(u grid.Offset, want symbol.Set) {
		if len(want) > 0 && !want.Contains(g.At(u)) {
			reached = false
		}
	})
	return reached
}

// BackwardPotentials seeds potential 0 at every (cell, symbol) pair the
// future admits, resetting any existing potentials first, then
// propagates outward: a rule placement whose output is admissible at
// level p induces its input symbols at level p+1.
func BackwardPotentials(future Future, rules []rule.RewriteRule) field.Potentials {
	potentials := field.Potentials{}

	type frontierEntry struct {
		u grid.Offset
		c symbol.Symbol
	}
	var queue []frontierEntry

	future.Iter(func(u grid.Offset, set symbol.Set) {
		for c := range set {
			pot, ok := potentials[c]
			if !ok {
				pot = grid.Fill[float64](future.Extents, math.NaN())
				potentials[c] = pot
			}
			pot.Set(u, 0)
			queue = append(queue, frontierEntry{u, c})
		}
	})

	for i := 0; i < len(queue); i++ {
		fe := queue[i]
		p := potentials[fe.c].At(fe.u)
		for r := range rules {
			m := match.Match{Rules: rules, U: fe.u, R: r}
			if !m.BackwardMatch(potentials, p) {
				continue
			}
			for _, ch := range m.BackwardChanges(potentials, p+1) {
				pot, ok := potentials[ch.Value.Symbol]
				if !ok {
					pot = grid.Fill[float64](future.Extents, math.NaN())
					potentials[ch.Value.Symbol] = pot
				}
				if field.IsNormal(pot.At(ch.Position)) {
					continue
				}
				pot.Set(ch.Position, ch.Value.P)
				queue = append(queue, frontierEntry{ch.Position, ch.Value.Symbol})
			}
		}
	}

	return potentials
}
