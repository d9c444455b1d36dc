// Package grid implements the dense 3-D cell storage, half-open regions,
// and geometric transforms the rewrite engine scans and mutates.
package grid

import "fmt"

// Offset is a 3-D coordinate or displacement, axes ordered (z, y, x) to
// match the grid's canonical iteration order.
type Offset [3]int

// Add returns the component-wise sum of o and other.
func (o Offset) Add(other Offset) Offset {
	return Offset{o[0] + other[0], o[1] + other[1], o[2] + other[2]}
}

// Sub returns the component-wise difference o - other.
func (o Offset) Sub(other Offset) Offset {
	return Offset{o[0] - other[0], o[1] - other[1], o[2] - other[2]}
}

// Mod returns the component-wise modulo of o by size, size treated as an
// Offset of its extents.
func (o Offset) Mod(size Size) Offset {
	return Offset{
		mod(o[0], size[0]),
		mod(o[1], size[1]),
		mod(o[2], size[2]),
	}
}

func mod(a, b int) int {
	if b == 0 {
		return 0
	}
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Size is a 3-D extent (d, h, w).
type Size [3]int

// Volume returns the number of cells a Size covers.
func (s Size) Volume() int {
	return s[0] * s[1] * s[2]
}

// Area3 is a half-open cuboid region: cells at Shift+[0,Size) on every
// axis.
type Area3 struct {
	Shift Offset
	Size  Size
}

// NewArea returns the area of shape size rooted at the origin.
func NewArea(size Size) Area3 {
	return Area3{Size: size}
}

// Max returns the region's maximum inclusive corner, Shift+Size-(1,1,1).
func (a Area3) Max() Offset {
	return Offset{
		a.Shift[0] + a.Size[0] - 1,
		a.Shift[1] + a.Size[1] - 1,
		a.Shift[2] + a.Size[2] - 1,
	}
}

// Contains reports whether position u lies within the region.
func (a Area3) Contains(u Offset) bool {
	for i := 0; i < 3; i++ {
		if u[i] < a.Shift[i] || u[i] >= a.Shift[i]+a.Size[i] {
			return false
		}
	}
	return true
}

// Meet returns the intersection of a and other. A zero-volume result
// means the regions don't overlap.
func (a Area3) Meet(other Area3) Area3 {
	var shift Offset
	var size Size
	for i := 0; i < 3; i++ {
		lo := max(a.Shift[i], other.Shift[i])
		hi := min(a.Shift[i]+a.Size[i], other.Shift[i]+other.Size[i])
		shift[i] = lo
		if hi > lo {
			size[i] = hi - lo
		}
	}
	return Area3{Shift: shift, Size: size}
}

// ShiftBy returns a translated to shift+delta.
func (a Area3) ShiftBy(delta Offset) Area3 {
	return Area3{Shift: a.Shift.Add(delta), Size: a.Size}
}

// Center returns the region's center cell, Shift+Size/2 on every axis;
// on even axes this is the higher of the two middle cells.
func (a Area3) Center() Offset {
	return Offset{
		a.Shift[0] + a.Size[0]/2,
		a.Shift[1] + a.Size[1]/2,
		a.Shift[2] + a.Size[2]/2,
	}
}

// Iter calls fn for every position in the region in canonical (z, y, x)
// order.
func (a Area3) Iter(fn func(Offset)) {
	for z := a.Shift[0]; z < a.Shift[0]+a.Size[0]; z++ {
		for y := a.Shift[1]; y < a.Shift[1]+a.Size[1]; y++ {
			for x := a.Shift[2]; x < a.Shift[2]+a.Size[2]; x++ {
				fn(Offset{z, y, x})
			}
		}
	}
}

// Positions returns every position in the region in canonical order.
func (a Area3) Positions() []Offset {
	out := make([]Offset, 0, a.Size.Volume())
	a.Iter(func(u Offset) { out = append(out, u) })
	return out
}

// Transform permutes a grid's extents and the offsets within it. The
// rewrite engine's symmetry enumeration applies these to rule grids.
type Transform int

const (
	Identity Transform = iota
	XReflect
	XYRotate
	ZYRotate
)

// Grid is a dense row-major 3-D array of T, iterated in canonical
// (z, y, x) order.
type Grid[T any] struct {
	Extents Size
	Values  []T
}

// New allocates a grid of the given extents, every cell set to zero.
func New[T any](extents Size) Grid[T] {
	return Grid[T]{Extents: extents, Values: make([]T, extents.Volume())}
}

// Fill allocates a grid of the given extents, every cell set to v.
func Fill[T any](extents Size, v T) Grid[T] {
	g := New[T](extents)
	for i := range g.Values {
		g.Values[i] = v
	}
	return g
}

// Area returns the region spanning the whole grid.
func (g Grid[T]) Area() Area3 {
	return NewArea(g.Extents)
}

func (g Grid[T]) index(u Offset) int {
	return (u[0]*g.Extents[1]+u[1])*g.Extents[2] + u[2]
}

// At returns the value stored at u.
func (g Grid[T]) At(u Offset) T {
	return g.Values[g.index(u)]
}

// Set stores v at u.
func (g Grid[T]) Set(u Offset, v T) {
	g.Values[g.index(u)] = v
}

// Clone returns an independent copy of the grid.
func (g Grid[T]) Clone() Grid[T] {
	values := make([]T, len(g.Values))
	copy(values, g.Values)
	return Grid[T]{Extents: g.Extents, Values: values}
}

// Iter calls fn with every position and its value, in canonical order.
func (g Grid[T]) Iter(fn func(Offset, T)) {
	g.Area().Iter(func(u Offset) { fn(u, g.At(u)) })
}

// Transformed returns a new grid permuted according to t. Cell values
// are moved unchanged; only their positions and the extents change.
func Transformed[T any](g Grid[T], t Transform) Grid[T] {
	switch t {
	case Identity:
		return g.Clone()
	case XReflect:
		return transform(g, func(e Size) Size { return e }, func(u Offset, e Size) Offset {
			return Offset{u[0], u[1], e[2] - 1 - u[2]}
		})
	case XYRotate:
		return transform(g, func(e Size) Size { return Size{e[0], e[2], e[1]} }, func(u Offset, e Size) Offset {
			return Offset{u[0], e[2] - 1 - u[2], u[1]}
		})
	case ZYRotate:
		return transform(g, func(e Size) Size { return Size{e[1], e[0], e[2]} }, func(u Offset, e Size) Offset {
			return Offset{e[1] - 1 - u[1], u[0], u[2]}
		})
	default:
		panic(fmt.Sprintf("grid: unknown transform %d", t))
	}
}

// transform builds the transformed extents via extentsFn, then places
// every source cell at the position mapFn computes from its original
// offset and the *source* extents.
func transform[T any](g Grid[T], extentsFn func(Size) Size, mapFn func(Offset, Size) Offset) Grid[T] {
	out := New[T](extentsFn(g.Extents))
	g.Iter(func(u Offset, v T) {
		out.Set(mapFn(u, g.Extents), v)
	})
	return out
}
