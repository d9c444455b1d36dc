// Package rulenode implements one tick of rewrite-rule application: a
// pool of candidate matches against the current grid, weighted by a
// selection strategy, and narrowed down by a selection mode into the
// changes a single tick actually writes.
package rulenode

import (
	"math"
	"math/rand"

	"github.com/mtrimolet/markovjunior/internal/field"
	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/match"
	"github.com/mtrimolet/markovjunior/internal/observe"
	"github.com/mtrimolet/markovjunior/internal/rule"
	"github.com/mtrimolet/markovjunior/internal/search"
	"github.com/mtrimolet/markovjunior/internal/symbol"
	"github.com/mtrimolet/markovjunior/internal/tracer"
)

// Mode selects how many of a tick's weighted matches get applied.
type Mode int

const (
	// One applies a single match, drawn in proportion to its weight.
	One Mode = iota
	// All applies as many non-conflicting matches as a weighted random
	// walk accepts, or the exact maximum conflict-free set when
	// RuleNode.UseExactSelector is set.
	All
	// PRL applies every match whose own rule independently draws true.
	PRL
)

// Strategy selects how matches get weighted (or, for Search, bypasses
// weighting entirely in favour of a precomputed trajectory).
type Strategy int

const (
	// Random assigns every match equal weight.
	Random Strategy = iota
	// Distance weighs matches by the potential drop a distance field
	// assigns to their changes.
	Distance
	// Observe weighs matches by the potential drop a goal's backward
	// field assigns to their changes.
	Observe
	// Search reads changes off a precomputed best-first trajectory
	// toward a goal instead of scanning and weighting matches.
	Search
)

// RuleNode holds one rule set's rules and selection policy, plus the
// mutable scan/weighting state carried from tick to tick.
type RuleNode struct {
	Mode     Mode
	Strategy Strategy

	Rules  []rule.RewriteRule
	Unions symbol.Unions

	Fields      field.Fields
	Temperature float64

	Observes         observe.Observes
	Limit            uint32
	DepthCoefficient float64

	// UseExactSelector switches All-mode selection to the gini-backed
	// maximum conflict-free set (ExactSelect) instead of the default
	// weighted random walk.
	UseExactSelector bool

	Rng    *rand.Rand
	Tracer tracer.Tracer

	matches    []match.Match
	active     int
	hasPrev    bool
	prev       int
	potentials field.Potentials
	future     observe.Future
	trajectory []grid.Grid[symbol.Symbol]
}

// NewRandom builds a node whose matches are weighted equally.
func NewRandom(mode Mode, rules []rule.RewriteRule, unions symbol.Unions, rng *rand.Rand) *RuleNode {
	return &RuleNode{Mode: mode, Strategy: Random, Rules: rules, Unions: unions, Rng: rng}
}

// NewDistance builds a node whose matches are weighted by fields, firing
// only once every Essential field has a computed potential.
func NewDistance(mode Mode, rules []rule.RewriteRule, unions symbol.Unions, fields field.Fields, temperature float64, rng *rand.Rand) *RuleNode {
	return &RuleNode{
		Mode: mode, Strategy: Distance, Rules: rules, Unions: unions,
		Fields: fields, Temperature: temperature, Rng: rng,
		potentials: field.Potentials{},
	}
}

// NewObserve builds a node that derives its own goal field from
// observes against the current grid, firing only once that goal is
// buildable.
func NewObserve(mode Mode, rules []rule.RewriteRule, unions symbol.Unions, observes observe.Observes, temperature float64, rng *rand.Rand) *RuleNode {
	return &RuleNode{
		Mode: mode, Strategy: Observe, Rules: rules, Unions: unions,
		Observes: observes, Temperature: temperature, Rng: rng,
		potentials: field.Potentials{},
	}
}

// NewSearch builds a node that plans a full trajectory toward its goal
// up front and applies it step by step.
func NewSearch(mode Mode, rules []rule.RewriteRule, unions symbol.Unions, observes observe.Observes, limit uint32, depthCoefficient float64, rng *rand.Rand) *RuleNode {
	return &RuleNode{
		Mode: mode, Strategy: Search, Rules: rules, Unions: unions,
		Observes: observes, Limit: limit, DepthCoefficient: depthCoefficient, Rng: rng,
	}
}

func (n *RuleNode) trace(e tracer.Event) {
	if n.Tracer != nil {
		n.Tracer.Trace(e)
	}
}

// Reset clears every piece of state a tick accumulates (the match
// pool, cached potentials, a goal future, a search trajectory), so the
// next Tick starts as if the node were freshly constructed.
func (n *RuleNode) Reset() {
	n.matches = nil
	n.active = 0
	n.hasPrev = false
	n.prev = 0
	if n.potentials != nil {
		n.potentials = field.Potentials{}
	}
	n.future = observe.Future{}
	n.trajectory = nil
}

// Tick runs predict, scan, infer, select and apply against tg in
// sequence, returning the cell writes this node wants made. Under the
// Search strategy it runs predict only and then emits the difference
// between the current grid and the next trajectory grid. A nil return
// means there is nothing to write: either the predict step decided the
// node cannot fire this tick (its fields or goal aren't ready yet), or
// no match was selected.
func (n *RuleNode) Tick(tg grid.Traced[symbol.Symbol]) []grid.Change[symbol.Symbol] {
	ok, immediate := n.predict(tg.Grid)
	if !ok {
		return nil
	}

	if n.Strategy == Search {
		if len(n.trajectory) == 0 {
			return immediate
		}
		next := n.trajectory[0]
		n.trajectory = n.trajectory[1:]
		var changes []grid.Change[symbol.Symbol]
		tg.Grid.Iter(func(u grid.Offset, c symbol.Symbol) {
			if v := next.At(u); v != c {
				changes = append(changes, grid.Change[symbol.Symbol]{Position: u, Value: v})
			}
		})
		return append(immediate, changes...)
	}

	n.scan(tg)
	n.infer(tg.Grid)
	n.doSelect()
	return append(immediate, n.apply(tg)...)
}

// predict decides whether the node can fire this tick, refreshing
// whatever strategy-specific state (potential fields, a goal future, a
// search trajectory) that decision depends on. It may also return
// changes that must be applied regardless of whether matching proceeds
// (an Observe/Search goal's own "from" rewrites).
func (n *RuleNode) predict(g grid.Grid[symbol.Symbol]) (bool, []grid.Change[symbol.Symbol]) {
	switch n.Strategy {
	case Random:
		return true, nil

	case Distance:
		field.Compute(n.Fields, g, n.potentials)
		for c, f := range n.Fields {
			if _, ok := n.potentials[c]; f.Essential && !ok {
				n.trace(tracer.EssentialFieldMissing{Symbol: c})
			}
		}
		return !field.EssentialMissing(n.Fields, n.potentials), nil

	case Observe:
		if len(n.future.Values) > 0 {
			return true, nil
		}
		future, rewrites := observe.Build(g, n.Observes)
		n.future = future
		if len(n.future.Values) == 0 {
			return false, nil
		}
		n.potentials = observe.BackwardPotentials(n.future, n.Rules)
		return true, rewrites

	case Search:
		if len(n.future.Values) > 0 {
			return true, nil
		}
		future, rewrites := observe.Build(g, n.Observes)
		n.future = future
		if len(n.future.Values) == 0 {
			return false, nil
		}
		const tries = 20
		for k := 0; k < tries && len(n.trajectory) == 0; k++ {
			n.trajectory = search.Trajectory(n.future, g, n.Rules, n.Mode == All, n.Limit, n.DepthCoefficient)
		}
		if len(n.trajectory) == 0 {
			n.trace(tracer.SearchFailed{})
		}
		return true, rewrites
	}

	return true, nil
}

// scan drops matches that no longer agree with tg, then extends the
// pool with newly-admitted matches found since the last tick that
// actually applied something (or a full scan, the first time).
func (n *RuleNode) scan(tg grid.Traced[symbol.Symbol]) {
	kept := n.matches[:0]
	for _, m := range n.matches {
		if m.Match(tg.Grid) {
			kept = append(kept, m)
		}
	}
	n.matches = kept

	since := len(tg.History)
	if n.hasPrev {
		since = n.prev
	}

	n.matches = append(n.matches, match.Scan(tg.Grid, n.Rules, tg.History[since:])...)
	n.active = 0
}

// infer weights every pending match by its potential delta, drops any
// whose delta is non-finite (the change would leave reachable ground),
// then turns the survivors' deltas into a Boltzmann/softmax weight.
func (n *RuleNode) infer(g grid.Grid[symbol.Symbol]) {
	for i := n.active; i < len(n.matches); i++ {
		n.matches[i].W = n.matches[i].Delta(g, n.potentials)
	}

	n.active = partition(n.matches, n.active, len(n.matches), func(m match.Match) bool {
		return !field.IsNormal(m.W)
	})

	temperature := n.Temperature
	if temperature <= 0.0 {
		temperature = 1.0
	}
	for i := n.active; i < len(n.matches); i++ {
		n.matches[i].W = math.Exp(-n.matches[i].W / temperature)
	}
}

// doSelect narrows the active range down to the matches this tick will
// actually apply, per Mode.
func (n *RuleNode) doSelect() {
	switch n.Mode {
	case One:
		n.selectOne()
	case All:
		if n.UseExactSelector {
			n.selectAllExact()
		} else {
			n.selectAllWalk()
		}
	case PRL:
		n.selectPRL()
	}
}

// pick draws an index in [lo, hi) from the discrete distribution of
// matches[lo:hi]'s weights, or returns hi if every weight is zero.
func (n *RuleNode) pick(lo, hi int) int {
	sum := 0.0
	for i := lo; i < hi; i++ {
		sum += n.matches[i].W
	}
	if sum == 0.0 {
		n.trace(tracer.ZeroWeightDraw{})
		return hi
	}
	r := n.Rng.Float64() * sum
	for i := lo; i < hi; i++ {
		r -= n.matches[i].W
		if r < 0.0 {
			return i
		}
	}
	return hi - 1
}

// selectOne picks one match and moves it to the tail of the pool, so
// the active range becomes that single element.
func (n *RuleNode) selectOne() {
	picked := n.pick(n.active, len(n.matches))
	if picked == len(n.matches) {
		n.active = len(n.matches)
		return
	}
	last := len(n.matches) - 1
	n.matches[picked], n.matches[last] = n.matches[last], n.matches[picked]
	n.active = last
}

// selectAllWalk repeatedly draws from the undecided pool, rejecting a
// draw that conflicts with something already accepted (pushing it below
// the shrinking pool, to be retried next tick) and otherwise accepting
// it (pushing it to the growing selected tail), until the pool is empty
// or every remaining weight is zero.
func (n *RuleNode) selectAllWalk() {
	selection := len(n.matches)
	for selection != n.active {
		picked := n.pick(n.active, selection)
		if picked == selection {
			n.active = selection
			continue
		}

		conflict := false
		for i := selection; i < len(n.matches); i++ {
			if n.matches[picked].Conflict(n.matches[i]) {
				conflict = true
				break
			}
		}

		if conflict {
			n.matches[picked], n.matches[n.active] = n.matches[n.active], n.matches[picked]
			n.active++
		} else {
			selection--
			n.matches[picked], n.matches[selection] = n.matches[selection], n.matches[picked]
		}
	}
}

// selectAllExact computes the maximum conflict-free subset of the
// active pool via ExactSelect and moves exactly those matches to the
// tail of the pool.
func (n *RuleNode) selectAllExact() {
	picked := ExactSelect(n.matches, n.active, len(n.matches))
	selected := make(map[int]struct{}, len(picked))
	for _, i := range picked {
		selected[i] = struct{}{}
	}

	var rest, chosen []match.Match
	for i := n.active; i < len(n.matches); i++ {
		if _, ok := selected[i]; ok {
			chosen = append(chosen, n.matches[i])
		} else {
			rest = append(rest, n.matches[i])
		}
	}
	copy(n.matches[n.active:], rest)
	copy(n.matches[n.active+len(rest):], chosen)
	n.active += len(rest)
}

// selectPRL moves every match whose own rule independently draws true
// to the tail of the pool.
func (n *RuleNode) selectPRL() {
	n.active = partition(n.matches, n.active, len(n.matches), func(m match.Match) bool {
		return n.Rng.Float64() >= n.Rules[m.R].P
	})
}

// apply emits the changes the selected matches make against tg, then
// drops them from the pool. When something was selected, it also
// records the grid's current history length, so the next scan can
// restrict itself to matches admitted by what this tick is about to
// write.
func (n *RuleNode) apply(tg grid.Traced[symbol.Symbol]) []grid.Change[symbol.Symbol] {
	if n.active != len(n.matches) {
		n.hasPrev = true
		n.prev = len(tg.History)
	}

	var changes []grid.Change[symbol.Symbol]
	for i := n.active; i < len(n.matches); i++ {
		changes = append(changes, n.matches[i].Changes(tg.Grid)...)
	}

	n.matches = n.matches[:n.active]
	return changes
}

// partition moves every element of s[lo:hi] satisfying pred to the
// front of that range, preserving neither side's order, and returns the
// boundary index between the satisfying and non-satisfying elements.
func partition(s []match.Match, lo, hi int, pred func(match.Match) bool) int {
	i := lo
	for j := lo; j < hi; j++ {
		if pred(s[j]) {
			s[i], s[j] = s[j], s[i]
			i++
		}
	}
	return i
}
