// Package rule implements RewriteRule: a pattern-rewrite rule over a
// grid of symbols, its symmetry variants, and the shift indexes that let
// a match scanner propose candidate placements from a changed cell.
package rule

import (
	"fmt"

	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

// Input is the acceptable-symbol set at one input cell. A nil Set means
// "don't care" — matches any grid value.
type Input = symbol.Set

// Output is the symbol written at one output cell, or nil to mean
// "leave the grid cell unchanged."
type Output = *symbol.Symbol

// RewriteRule pairs an input pattern with an output pattern of the same
// shape and a draw probability. Ishifts and Oshifts index every symbol
// (including the wildcard) to the offsets at which it appears in the
// input and output grids, for locality-aware rematching.
type RewriteRule struct {
	Input  grid.Grid[Input]
	Output grid.Grid[Output]
	P      float64
	IsCopy bool

	Ishifts map[symbol.Symbol][]grid.Offset
	Oshifts map[symbol.Symbol][]grid.Offset
}

// ShapeMismatch is returned when a rule's input and output patterns
// don't share the same extents.
type ShapeMismatch struct {
	Input, Output grid.Size
}

func (e ShapeMismatch) Error() string {
	return fmt.Sprintf("rule: input shape %v and output shape %v differ", e.Input, e.Output)
}

// Parse builds a rule from equal-shaped input/output grid literals. In
// input, '*' marks "don't care" (a nil set); any other character maps to
// the set unions resolves it to (its union, or itself). In
// output, '*' means "leave unchanged"; any other character is the symbol
// written.
func Parse(unions symbol.Unions, input, output string, p float64) (RewriteRule, error) {
	in, err := grid.ParseString(input, func(c byte) Input {
		if c == symbol.Ignored {
			return nil
		}
		return unions.Resolve(c)
	})
	if err != nil {
		return RewriteRule{}, err
	}

	out, err := grid.ParseString(output, func(c byte) Output {
		if c == symbol.Ignored {
			return nil
		}
		v := c
		return &v
	})
	if err != nil {
		return RewriteRule{}, err
	}

	if in.Extents != out.Extents {
		return RewriteRule{}, ShapeMismatch{Input: in.Extents, Output: out.Extents}
	}

	return newRule(in, out, p, false), nil
}

func newRule(in grid.Grid[Input], out grid.Grid[Output], p float64, isCopy bool) RewriteRule {
	r := RewriteRule{
		Input:   in,
		Output:  out,
		P:       p,
		IsCopy:  isCopy,
		Ishifts: map[symbol.Symbol][]grid.Offset{},
		Oshifts: map[symbol.Symbol][]grid.Offset{},
	}

	in.Iter(func(u grid.Offset, set Input) {
		if set == nil {
			r.Ishifts[symbol.Ignored] = append(r.Ishifts[symbol.Ignored], u)
			return
		}
		for c := range set {
			r.Ishifts[c] = append(r.Ishifts[c], u)
		}
	})

	out.Iter(func(u grid.Offset, v Output) {
		if v == nil {
			r.Oshifts[symbol.Ignored] = append(r.Oshifts[symbol.Ignored], u)
			return
		}
		r.Oshifts[*v] = append(r.Oshifts[*v], u)
	})

	return r
}

// GetIshifts returns the offsets at which the rule's input admits c,
// combining the wildcard bucket with c's own bucket.
func (r RewriteRule) GetIshifts(c symbol.Symbol) []grid.Offset {
	return append(append([]grid.Offset{}, r.Ishifts[symbol.Ignored]...), r.Ishifts[c]...)
}

// GetOshifts returns the offsets at which the rule's output writes c,
// combining the wildcard bucket with c's own bucket.
func (r RewriteRule) GetOshifts(c symbol.Symbol) []grid.Offset {
	return append(append([]grid.Offset{}, r.Oshifts[symbol.Ignored]...), r.Oshifts[c]...)
}

// Equal compares input, output and draw probability, ignoring IsCopy.
func (r RewriteRule) Equal(other RewriteRule) bool {
	if r.P != other.P || r.Input.Extents != other.Input.Extents {
		return false
	}
	equal := true
	r.Input.Iter(func(u grid.Offset, set Input) {
		if !setEqual(set, other.Input.At(u)) {
			equal = false
		}
	})
	if !equal {
		return false
	}
	r.Output.Iter(func(u grid.Offset, v Output) {
		if !outputEqual(v, other.Output.At(u)) {
			equal = false
		}
	})
	return equal
}

func setEqual(a, b symbol.Set) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for c := range a {
		if !b.Contains(c) {
			return false
		}
	}
	return true
}

func outputEqual(a, b Output) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// BackwardNeighborhood returns the area of origins from which this
// rule's output area could have been written into a fixed cell: the
// output's own area shifted so its maximum corner sits at the origin.
func (r RewriteRule) BackwardNeighborhood() grid.Area3 {
	a := r.Output.Area()
	shift := grid.Offset{1, 1, 1}.Sub(grid.Offset(a.Size))
	return a.ShiftBy(shift)
}

func (r RewriteRule) identity() RewriteRule {
	return newRule(r.Input.Clone(), r.Output.Clone(), r.P, false)
}

func (r RewriteRule) xreflected() RewriteRule {
	return newRule(
		grid.Transformed(r.Input, grid.XReflect),
		grid.Transformed(r.Output, grid.XReflect),
		r.P, true,
	)
}

func (r RewriteRule) xyrotated() RewriteRule {
	return newRule(
		grid.Transformed(r.Input, grid.XYRotate),
		grid.Transformed(r.Output, grid.XYRotate),
		r.P, true,
	)
}

func (r RewriteRule) zyrotated() RewriteRule {
	return newRule(
		grid.Transformed(r.Input, grid.ZYRotate),
		grid.Transformed(r.Output, grid.ZYRotate),
		r.P, true,
	)
}

// Symmetries enumerates the bag of rule variants reachable from seed by
// composing the generators named in tag: 'x' enables reflection across
// the x axis, 'y' a 90-degree rotation in the x/y plane, 'z' a
// 90-degree rotation in the y/z plane. An empty tag yields only the
// seed itself; "xy" yields the full 8-element 2-D dihedral group.
// Variants share P and get IsCopy=true; duplicates (by Equal) collapse.
func Symmetries(seed RewriteRule, tag string) []RewriteRule {
	var generators []func(RewriteRule) RewriteRule
	for _, c := range tag {
		switch c {
		case 'x':
			generators = append(generators, RewriteRule.xreflected)
		case 'y':
			generators = append(generators, RewriteRule.xyrotated)
		case 'z':
			generators = append(generators, RewriteRule.zyrotated)
		}
	}

	bag := []RewriteRule{seed.identity()}
	for i := 0; i < len(bag); i++ {
		for _, g := range generators {
			next := g(bag[i])
			found := false
			for _, v := range bag {
				if v.Equal(next) {
					found = true
					break
				}
			}
			if !found {
				bag = append(bag, next)
			}
		}
	}
	return bag
}
