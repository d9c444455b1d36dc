package rulenode

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/mtrimolet/markovjunior/internal/match"
)

const satisfiable = 1

// ExactSelect computes the maximum-cardinality conflict-free subset of
// matches[lo:hi]: each match is a boolean literal, each conflicting
// pair teaches a pairwise exclusion clause, and a cardinality sorting
// network over the negated literals finds the fewest exclusions needed
// for the clauses to hold, the same minimize-the-complement shape a
// solver uses to prefer the smallest extra set satisfying its
// constraints. Returns the absolute indices (within matches) of the
// selected subset.
func ExactSelect(matches []match.Match, lo, hi int) []int {
	n := hi - lo
	if n == 0 {
		return nil
	}

	c := logic.NewCCap(n)
	lits := make([]z.Lit, n)
	for i := range lits {
		lits[i] = c.Lit()
	}

	var conflicts []z.Lit
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if matches[lo+i].Conflict(matches[lo+j]) {
				conflicts = append(conflicts, c.Or(lits[i].Not(), lits[j].Not()))
			}
		}
	}

	excluded := make([]z.Lit, n)
	for i, l := range lits {
		excluded[i] = l.Not()
	}
	cs := c.CardSort(excluded)

	g := gini.New()
	c.ToCnf(g)

	for w := 0; w <= cs.N(); w++ {
		g.Assume(conflicts...)
		g.Assume(cs.Leq(w))
		if g.Solve() == satisfiable {
			var picked []int
			for i, l := range lits {
				if g.Value(l) {
					picked = append(picked, lo+i)
				}
			}
			return picked
		}
	}

	return nil
}
