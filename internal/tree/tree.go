// Package tree implements the program's execution structure: leaves
// that tick a single RuleNode against the grid, and composites that
// drive a list of children either in sequence or Markov-style.
package tree

import (
	"github.com/mtrimolet/markovjunior/internal/grid"
	"github.com/mtrimolet/markovjunior/internal/rulenode"
	"github.com/mtrimolet/markovjunior/internal/symbol"
)

// NodeRunner is either a RuleRunner (leaf) or a TreeRunner (composite).
// The set is closed; Current and Reset are structural walks over it,
// not an open interface hierarchy.
type NodeRunner interface {
	// Step runs one tick against tg, returning whether it produced any
	// change. A false return means this node has nothing left to do
	// until Reset.
	Step(tg *grid.Traced[symbol.Symbol]) bool
	// Reset clears this node's (and any descendants') accumulated
	// tick state.
	Reset()
	// Current returns the RuleNode actively being ticked, or nil if
	// nothing is active (a composite whose children are exhausted).
	Current() *rulenode.RuleNode
}

// RuleRunner drives a single RuleNode for up to Steps ticks (0 = no
// bound), stopping early the first tick that produces no changes.
type RuleRunner struct {
	Node  *rulenode.RuleNode
	Steps uint32

	step uint32
}

// Step ticks Node against tg, applies whatever changes it produces, and
// reports whether it produced any.
func (r *RuleRunner) Step(tg *grid.Traced[symbol.Symbol]) bool {
	if r.Steps > 0 && r.step >= r.Steps {
		return false
	}

	changes := r.Node.Tick(*tg)
	if len(changes) == 0 {
		return false
	}

	tg.ApplyAll(changes)
	r.step++
	return true
}

// Reset zeroes the step counter and clears Node's accumulated state.
func (r *RuleRunner) Reset() {
	r.step = 0
	r.Node.Reset()
}

// Current returns Node.
func (r *RuleRunner) Current() *rulenode.RuleNode {
	return r.Node
}

// Mode selects how a TreeRunner advances between its children.
type Mode int

const (
	// Sequence advances to the next child once the current one is
	// exhausted (its Step returns false).
	Sequence Mode = iota
	// Markov restarts from the first child every time any child's
	// Step succeeds.
	Markov
)

// TreeRunner drives a list of children, advancing or restarting per
// Mode, and reports the tree exhausted (resetting every descendant)
// once every child in turn fails to produce a change.
type TreeRunner struct {
	Nodes []NodeRunner
	Mode  Mode

	current int
}

// Step drives children starting from the current one: a child that
// produces no change is skipped in favour of the next, all within this
// same call, until one succeeds (at which point Step returns true,
// restarting from the first child first under Markov) or every
// remaining child has been tried and failed (at which point the whole
// tree resets and Step returns false).
func (t *TreeRunner) Step(tg *grid.Traced[symbol.Symbol]) bool {
	for t.current < len(t.Nodes) {
		if t.Nodes[t.current].Step(tg) {
			if t.Mode == Markov {
				t.current = 0
			}
			return true
		}
		t.current++
	}

	t.Reset()
	return false
}

// Reset rewinds to the first child and resets every descendant.
func (t *TreeRunner) Reset() {
	t.current = 0
	for _, n := range t.Nodes {
		n.Reset()
	}
}

// Current descends into whichever child is active, or returns nil if
// every child has been exhausted.
func (t *TreeRunner) Current() *rulenode.RuleNode {
	if t.current >= len(t.Nodes) {
		return nil
	}
	return t.Nodes[t.current].Current()
}
