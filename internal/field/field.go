// Package field implements distance-field potentials: breadth-first
// propagation of integer distances from a zero-set through a substrate,
// and the aggregate bookkeeping a RuleNode uses to keep several fields
// fresh across ticks.
package field

import (
	"math"

	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

// Potential holds one symbol's distance field: Zero cells hold 0,
// substrate cells the BFS reaches hold a finite distance (negative when
// the field is inversed), and every other cell is NaN.
type Potential = grid.Grid[float64]

// Potentials maps a symbol to its current potential field.
type Potentials = map[symbol.Symbol]Potential

// Field describes a BFS distance field for one symbol: Zero cells seed
// distance 0, the field grows through Substrate cells. Inversed negates
// the written distances. Recompute forces recomputation even when a
// potential is already cached; Essential marks the field as required
// for its RuleNode to fire.
type Field struct {
	Substrate symbol.Set
	Zero      symbol.Set
	Recompute bool
	Essential bool
	Inversed  bool
}

// Fields maps a symbol to the field describing its potential.
type Fields = map[symbol.Symbol]Field

var neighborhood26 = func() []grid.Offset {
	var out []grid.Offset
	for z := -1; z <= 1; z++ {
		for y := -1; y <= 1; y++ {
			for x := -1; x <= 1; x++ {
				if z == 0 && y == 0 && x == 0 {
					continue
				}
				out = append(out, grid.Offset{z, y, x})
			}
		}
	}
	return out
}()

// Potential computes the field's distance grid over g: BFS from every
// cell whose symbol is in Zero, through cells whose symbol is in
// Substrate, using the 26-cell Chebyshev neighborhood.
func (f Field) Potential(g grid.Grid[symbol.Symbol]) Potential {
	pot := grid.Fill[float64](g.Extents, math.NaN())
	dist := grid.Fill[int](g.Extents, -1)

	var queue []grid.Offset
	g.Iter(func(u grid.Offset, c symbol.Symbol) {
		if f.Zero.Contains(c) {
			dist.Set(u, 0)
			pot.Set(u, 0)
			queue = append(queue, u)
		}
	})

	area := g.Area()
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		d := dist.At(u)
		for _, du := range neighborhood26 {
			v := u.Add(du)
			if !area.Contains(v) || dist.At(v) >= 0 || !f.Substrate.Contains(g.At(v)) {
				continue
			}
			nd := d + 1
			dist.Set(v, nd)
			if f.Inversed {
				pot.Set(v, -float64(nd))
			} else {
				pot.Set(v, float64(nd))
			}
			queue = append(queue, v)
		}
	}

	return pot
}

// IsNormal reports whether v is a finite, non-NaN potential value.
func IsNormal(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Compute refreshes potentials against g for every field in fields:
// non-recompute fields with a cached potential are left untouched,
// others are recomputed and, if entirely NaN (no reachable substrate),
// removed from potentials.
func Compute(fields Fields, g grid.Grid[symbol.Symbol], potentials Potentials) {
	for c, f := range fields {
		if _, ok := potentials[c]; ok && !f.Recompute {
			continue
		}

		pot := f.Potential(g)
		normal := false
		for _, v := range pot.Values {
			if IsNormal(v) {
				normal = true
				break
			}
		}
		if !normal {
			delete(potentials, c)
			continue
		}
		potentials[c] = pot
	}
}

// EssentialMissing reports whether any essential field in fields has no
// recorded potential.
func EssentialMissing(fields Fields, potentials Potentials) bool {
	for c, f := range fields {
		if f.Essential {
			if _, ok := potentials[c]; !ok {
				return true
			}
		}
	}
	return false
}
