// Package match implements candidate rule placements: scanning a grid
// for places a rule's input agrees with the grid, conflict detection
// between overlapping placements, and the potential-weighted delta used
// to bias selection among candidates.
package match

import (
	"sort"

	"github.com/mtrimolet/markovjunior/internal/field"
	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

// Match identifies rule Rules[R] placed with its input/output origin at
// U. W is a mutable weight the selection stage assigns and reads.
type Match struct {
	Rules []rule.RewriteRule
	U     grid.Offset
	R     int
	W     float64
}

// Area returns the region of the grid this match's input/output covers.
func (m Match) Area() grid.Area3 {
	return m.Rules[m.R].Input.Area().ShiftBy(m.U)
}

// Match reports whether g agrees with the rule's input pattern at U:
// every non-wildcard input cell's set contains the grid's value there.
func (m Match) Match(g grid.Grid[symbol.Symbol]) bool {
	ok := true
	m.Rules[m.R].Input.Iter(func(o grid.Offset, set rule.Input) {
		if set == nil {
			return
		}
		if !set.Contains(g.At(m.U.Add(o))) {
			ok = false
		}
	})
	return ok
}

// Conflict reports whether m and other both write a non-wildcard output
// to some cell in their overlapping area.
func (m Match) Conflict(other Match) bool {
	conflict := false
	m.Area().Meet(other.Area()).Iter(func(u grid.Offset) {
		a := m.Rules[m.R].Output.At(u.Sub(m.U))
		b := other.Rules[other.R].Output.At(u.Sub(other.U))
		if a != nil && b != nil {
			conflict = true
		}
	})
	return conflict
}

// Changes returns the cell writes this match would make against g,
// skipping output cells that are wildcards or already hold that value.
func (m Match) Changes(g grid.Grid[symbol.Symbol]) []grid.Change[symbol.Symbol] {
	var out []grid.Change[symbol.Symbol]
	m.Rules[m.R].Output.Iter(func(o grid.Offset, v rule.Output) {
		if v == nil {
			return
		}
		u := m.U.Add(o)
		if g.At(u) == *v {
			return
		}
		out = append(out, grid.Change[symbol.Symbol]{Position: u, Value: *v})
	})
	return out
}

// Delta sums, over every output-changing cell, potentials[new][u] minus
// potentials[old][u]. Missing symbols contribute 0; a non-finite old
// potential contributes -1 instead.
func (m Match) Delta(g grid.Grid[symbol.Symbol], potentials field.Potentials) float64 {
	total := 0.0
	for _, c := range m.Changes(g) {
		newP := 0.0
		if p, ok := potentials[c.Value]; ok {
			newP = p.At(c.Position)
		}
		old := g.At(c.Position)
		oldP := 0.0
		if p, ok := potentials[old]; ok {
			oldP = p.At(c.Position)
		}
		if !field.IsNormal(oldP) {
			oldP = -1.0
		}
		total += newP - oldP
	}
	return total
}

// BackwardMatch reports whether every non-wildcard output cell's
// potential is finite and at most p.
func (m Match) BackwardMatch(potentials field.Potentials, p float64) bool {
	ok := true
	m.Rules[m.R].Output.Iter(func(o grid.Offset, v rule.Output) {
		if v == nil {
			return
		}
		pot, has := potentials[*v]
		if !has {
			ok = false
			return
		}
		cur := pot.At(m.U.Add(o))
		if !field.IsNormal(cur) || cur > p {
			ok = false
		}
	})
	return ok
}

// ForwardMatch reports whether every non-wildcard input cell admits a
// symbol whose potential is finite and at most p, using the best
// (maximum finite) potential among the cell's acceptable symbols.
func (m Match) ForwardMatch(potentials field.Potentials, p float64) bool {
	ok := true
	m.Rules[m.R].Input.Iter(func(o grid.Offset, set rule.Input) {
		if set == nil {
			return
		}
		u := m.U.Add(o)
		best, found := 0.0, false
		for c := range set {
			pot, has := potentials[c]
			if !has {
				continue
			}
			v := pot.At(u)
			if field.IsNormal(v) && (!found || v > best) {
				best, found = v, true
			}
		}
		if !found || best > p {
			ok = false
		}
	})
	return ok
}

// BackwardChanges produces, for every input cell whose acceptable set
// contains a symbol with no finite potential yet, a new potential
// assignment of that symbol to level p at this cell.
func (m Match) BackwardChanges(potentials field.Potentials, p float64) []grid.Change[PotentialWrite] {
	var out []grid.Change[PotentialWrite]
	m.Rules[m.R].Input.Iter(func(o grid.Offset, set rule.Input) {
		if set == nil {
			return
		}
		u := m.U.Add(o)
		for c := range set {
			pot, has := potentials[c]
			if !has || !field.IsNormal(pot.At(u)) {
				out = append(out, grid.Change[PotentialWrite]{Position: u, Value: PotentialWrite{Symbol: c, P: p}})
				return
			}
		}
	})
	return out
}

// ForwardChanges produces, for every output cell whose symbol has no
// finite potential yet at that cell, a new potential assignment of that
// symbol to level p at this cell.
func (m Match) ForwardChanges(potentials field.Potentials, p float64) []grid.Change[PotentialWrite] {
	var out []grid.Change[PotentialWrite]
	m.Rules[m.R].Output.Iter(func(o grid.Offset, v rule.Output) {
		if v == nil {
			return
		}
		u := m.U.Add(o)
		pot, has := potentials[*v]
		if has && field.IsNormal(pot.At(u)) {
			return
		}
		out = append(out, grid.Change[PotentialWrite]{Position: u, Value: PotentialWrite{Symbol: *v, P: p}})
	})
	return out
}

// PotentialWrite names the symbol and level a backward/forward
// propagation step wants written into the potentials map at a cell.
type PotentialWrite struct {
	Symbol symbol.Symbol
	P      float64
}

// Scan enumerates every placement of every rule that matches g. When
// history is non-empty it restricts candidate origins to positions
// derived from the changed cells (the incremental hot path); otherwise
// it performs a full scan with a stride-aligned coarse pass.
func Scan(g grid.Grid[symbol.Symbol], rules []rule.RewriteRule, history []grid.Change[symbol.Symbol]) []Match {
	var out []Match
	if len(history) > 0 {
		for r, rl := range rules {
			seen := map[grid.Offset]struct{}{}
			for _, ch := range history {
				for _, shift := range rl.GetIshifts(g.At(ch.Position)) {
					origin := ch.Position.Sub(shift)
					if !fits(g.Area(), rl.Input.Area().ShiftBy(origin)) {
						continue
					}
					seen[origin] = struct{}{}
				}
			}
			for _, origin := range sortedOrigins(seen) {
				m := Match{Rules: rules, U: origin, R: r}
				if m.Match(g) {
					out = append(out, m)
				}
			}
		}
		return out
	}

	garea := g.Area()
	for r, rl := range rules {
		rarea := rl.Output.Area()
		seen := map[grid.Offset]struct{}{}
		garea.Iter(func(u grid.Offset) {
			if !coarseAligned(u, garea, rarea) {
				return
			}
			for _, shift := range rl.GetIshifts(g.At(u)) {
				origin := u.Sub(shift)
				if !fits(garea, rl.Input.Area().ShiftBy(origin)) {
					continue
				}
				seen[origin] = struct{}{}
			}
		})
		for _, origin := range sortedOrigins(seen) {
			m := Match{Rules: rules, U: origin, R: r}
			if m.Match(g) {
				out = append(out, m)
			}
		}
	}
	return out
}

// sortedOrigins returns the keys of seen in canonical (z, y, x) order,
// so that scan results do not depend on Go's randomized map iteration.
func sortedOrigins(seen map[grid.Offset]struct{}) []grid.Offset {
	origins := make([]grid.Offset, 0, len(seen))
	for origin := range seen {
		origins = append(origins, origin)
	}
	sort.Slice(origins, func(i, j int) bool {
		a, b := origins[i], origins[j]
		for k := 0; k < 3; k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return origins
}

func fits(g, placed grid.Area3) bool {
	return g.Meet(placed) == placed
}

func coarseAligned(u grid.Offset, garea, rarea grid.Area3) bool {
	gmax := garea.Max()
	rmax := rarea.Max()
	for i := 0; i < 3; i++ {
		if u[i] != gmax[i] && u[i]%rarea.Size[i] != rmax[i] {
			return false
		}
	}
	return true
}
