// Package tracer implements structured reporting of tick-level events
// that are not errors (nothing is wrong with the program) but that a
// caller may still want to observe or silence uniformly: a node that
// could not fire, a search that came back empty, a selection step with
// nothing left to draw from.
package tracer

import (
	"fmt"
	"io"

	"github.com/mtrimolet/markovjunior/internal/symbol"
)

// Event is anything a Tracer can report. String renders it for a
// LoggingTracer; callers that want structured access should type-switch
// on the concrete event types below instead.
type Event interface {
	String() string
}

// Tracer receives Events as a program executes.
type Tracer interface {
	Trace(e Event)
}

// DefaultTracer discards every event.
type DefaultTracer struct{}

func (DefaultTracer) Trace(Event) {}

// LoggingTracer writes every event's String form to Writer, one line
// per event.
type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(e Event) {
	fmt.Fprintf(t.Writer, "%s\n", e)
}

// SearchFailed reports that a SEARCH-strategy node ran out of attempts
// without finding a trajectory to its goal.
type SearchFailed struct{}

func (SearchFailed) String() string {
	return "search: no trajectory found toward goal after maximum attempts"
}

// EssentialFieldMissing reports that a DISTANCE-strategy node's
// Essential field has no potential this tick (its Zero symbols are
// absent, or unreachable through its Substrate), so the node refuses to
// fire.
type EssentialFieldMissing struct {
	Symbol symbol.Symbol
}

func (e EssentialFieldMissing) String() string {
	return fmt.Sprintf("distance: essential field %q has no potential this tick", rune(e.Symbol))
}

// ZeroWeightDraw reports that a selection step had nothing to draw
// from: every candidate's weight was zero.
type ZeroWeightDraw struct{}

func (ZeroWeightDraw) String() string {
	return "select: every candidate match has zero weight"
}
