// Package search implements best-first discovery of a trajectory of
// grids from the current state to any grid satisfying an Observe
// Future, by propagating forward/backward potential fields and
// expanding the most promising candidate first.
package search

import (
	"container/heap"
	"math"

	"github.com/mtrimolet/markovjunior/internal/field"
	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/match"
	"github.com/mtrimolet/markovjunior/internal/observe"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

// Candidate is one grid state discovered during search, with a parent
// pointer (-1 for the root) for trajectory reconstruction.
type Candidate struct {
	State     grid.Grid[symbol.Symbol]
	ParentIdx int
	Depth     int
	Backward  float64
	Forward   float64
}

// Weight scores a candidate for the priority queue: lower is better.
// A negative depthCoefficient switches to a pure depth-first tiebreak.
func (c Candidate) Weight(depthCoefficient float64) float64 {
	if depthCoefficient < 0 {
		return 1000.0 - float64(c.Depth)
	}
	return c.Forward + c.Backward + 2.0*depthCoefficient*float64(c.Depth)
}

// Children enumerates the grids reachable in one step from c.State: one
// per match under ONE-style expansion, or a single grid folding every
// match's changes together under ALL-style expansion (the simplified
// union-of-changes form; conflicting matches are not combinatorially
// enumerated).
func (c Candidate) Children(rules []rule.RewriteRule, all bool) []grid.Grid[symbol.Symbol] {
	matches := match.Scan(c.State, rules, nil)
	if len(matches) == 0 {
		return nil
	}

	if all {
		next := c.State.Clone()
		for _, m := range matches {
			for _, ch := range m.Changes(next) {
				next.Set(ch.Position, ch.Value)
			}
		}
		return []grid.Grid[symbol.Symbol]{next}
	}

	out := make([]grid.Grid[symbol.Symbol], 0, len(matches))
	for _, m := range matches {
		next := c.State.Clone()
		for _, ch := range m.Changes(next) {
			next.Set(ch.Position, ch.Value)
		}
		out = append(out, next)
	}
	return out
}

// ForwardPotentials seeds potential 0 at every grid cell's own symbol,
// then propagates outward: a rule placement whose input is admissible
// at level p induces its output symbols at level p+1.
func ForwardPotentials(g grid.Grid[symbol.Symbol], rules []rule.RewriteRule) field.Potentials {
	potentials := field.Potentials{}

	type frontierEntry struct {
		u grid.Offset
		c symbol.Symbol
	}
	var queue []frontierEntry

	g.Iter(func(u grid.Offset, c symbol.Symbol) {
		pot, ok := potentials[c]
		if !ok {
			pot = grid.Fill[float64](g.Extents, math.NaN())
			potentials[c] = pot
		}
		pot.Set(u, 0)
		queue = append(queue, frontierEntry{u, c})
	})

	for i := 0; i < len(queue); i++ {
		fe := queue[i]
		p := potentials[fe.c].At(fe.u)
		for r := range rules {
			m := match.Match{Rules: rules, U: fe.u, R: r}
			if !m.ForwardMatch(potentials, p) {
				continue
			}
			for _, ch := range m.ForwardChanges(potentials, p+1) {
				pot, ok := potentials[ch.Value.Symbol]
				if !ok {
					pot = grid.Fill[float64](g.Extents, math.NaN())
					potentials[ch.Value.Symbol] = pot
				}
				pot.Set(ch.Position, ch.Value.P)
				queue = append(queue, frontierEntry{ch.Position, ch.Value.Symbol})
			}
		}
	}

	return potentials
}

// BackwardDelta sums potentials[grid[u]][u] over every cell, treating a
// missing symbol as 0: how far the grid still is from the goal.
func BackwardDelta(potentials field.Potentials, g grid.Grid[symbol.Symbol]) float64 {
	total := 0.0
	g.Iter(func(u grid.Offset, c symbol.Symbol) {
		if pot, ok := potentials[c]; ok {
			total += pot.At(u)
		}
	})
	return total
}

// ForwardDelta sums, over every cell with a non-empty future set, the
// minimum finite potential across the cell's goal symbols only: how
// hard the goal is to reach from here. A cell with no finite candidate
// among its goal symbols contributes NaN, poisoning the sum (signalling
// unreachability).
func ForwardDelta(potentials field.Potentials, future observe.Future) float64 {
	total := 0.0
	future.Iter(func(u grid.Offset, want symbol.Set) {
		if len(want) == 0 {
			return
		}
		best, found := math.Inf(1), false
		for c := range want {
			pot, ok := potentials[c]
			if !ok {
				continue
			}
			v := pot.At(u)
			if field.IsNormal(v) && v < best {
				best, found = v, true
			}
		}
		if !found {
			total += math.NaN()
			return
		}
		total += best
	})
	return total
}

type queueItem struct {
	score float64
	index int
}

type priorityQueue []queueItem

func (q priorityQueue) Len() int            { return len(q) }
func (q priorityQueue) Less(i, j int) bool  { return q[i].score < q[j].score }
func (q priorityQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x interface{}) { *q = append(*q, x.(queueItem)) }
func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

type gridKey string

func keyOf(g grid.Grid[symbol.Symbol]) gridKey {
	b := make([]byte, 0, 3*8+len(g.Values)+1)
	for _, d := range g.Extents {
		for i := 0; i < 8; i++ {
			b = append(b, byte(d>>(8*i)))
		}
	}
	b = append(b, 0)
	b = append(b, g.Values...)
	return gridKey(b)
}

// Trajectory runs best-first search from g toward future, returning the
// sequence of intermediate grids (excluding g itself) that reaches a
// state satisfying future, or nil if no such state was found within
// limit candidates (0 = no limit).
func Trajectory(future observe.Future, g grid.Grid[symbol.Symbol], rules []rule.RewriteRule, all bool, limit uint32, depthCoefficient float64) []grid.Grid[symbol.Symbol] {
	backward := observe.BackwardPotentials(future, rules)
	forward := ForwardPotentials(g, rules)

	candidates := []Candidate{{
		State:     g,
		ParentIdx: -1,
		Backward:  BackwardDelta(backward, g),
		Forward:   ForwardDelta(forward, future),
	}}

	if candidates[0].Backward < 0 || candidates[0].Forward < 0 || candidates[0].Backward == 0 {
		return nil
	}

	visited := map[gridKey]int{keyOf(g): 0}

	q := &priorityQueue{{score: candidates[0].Weight(depthCoefficient), index: 0}}
	heap.Init(q)

	for q.Len() > 0 && (limit == 0 || uint32(len(candidates)) < limit) {
		top := heap.Pop(q).(queueItem)
		parentIdx := top.index
		parent := candidates[parentIdx]

		stop := false
		for _, childState := range parent.Children(rules, all) {
			key := keyOf(childState)
			if idx, ok := visited[key]; ok {
				child := candidates[idx]
				if child.Depth <= parent.Depth+1 {
					continue
				}
				child.Depth = parent.Depth + 1
				child.ParentIdx = parentIdx
				candidates[idx] = child
				if child.Backward < 0 || child.Forward < 0 {
					continue
				}
				heap.Push(q, queueItem{score: child.Weight(depthCoefficient), index: idx})
				continue
			}

			backwardEstimate := BackwardDelta(backward, childState)
			forward2 := ForwardPotentials(childState, rules)
			forwardEstimate := ForwardDelta(forward2, future)
			if backwardEstimate < 0 || forwardEstimate < 0 {
				continue
			}

			idx := len(candidates)
			visited[key] = idx
			candidates = append(candidates, Candidate{
				State:     childState,
				ParentIdx: parentIdx,
				Depth:     parent.Depth + 1,
				Backward:  backwardEstimate,
				Forward:   forwardEstimate,
			})

			if forwardEstimate == 0 {
				stop = true
				break
			}

			heap.Push(q, queueItem{score: candidates[idx].Weight(depthCoefficient), index: idx})
		}
		if stop {
			break
		}
	}

	last := candidates[len(candidates)-1]
	if last.Forward != 0 {
		return nil
	}

	var traj []grid.Grid[symbol.Symbol]
	for i := len(candidates) - 1; candidates[i].ParentIdx >= 0; i = candidates[i].ParentIdx {
		traj = append([]grid.Grid[symbol.Symbol]{candidates[i].State}, traj...)
	}
	return traj
}
