package grid

// Traced extends Grid with an append-only history of every mutation,
// in application order. Apply is the mutator that records history;
// writes through the embedded Grid's Set are not recorded. History is
// cleared only by replacing the Traced value wholesale (reset), never
// in place.
type Traced[T any] struct {
	Grid[T]
	History []Change[T]
}

// NewTraced allocates a traced grid of the given extents, every cell
// set to v, with empty history.
func NewTraced[T any](extents Size, v T) Traced[T] {
	return Traced[T]{Grid: Fill[T](extents, v)}
}

// Apply writes change.Value at change.Position and appends it to the
// history.
func (t *Traced[T]) Apply(change Change[T]) {
	t.Set(change.Position, change.Value)
	t.History = append(t.History, change)
}

// ApplyAll applies every change in order.
func (t *Traced[T]) ApplyAll(changes []Change[T]) {
	for _, c := range changes {
		t.Apply(c)
	}
}

// Replay rebuilds a grid of the given extents starting from initial and
// applying history in order, for verifying the invariant that history
// reproduces the current state.
func Replay[T any](extents Size, initial T, history []Change[T]) Grid[T] {
	g := Fill[T](extents, initial)
	for _, c := range history {
		g.Set(c.Position, c.Value)
	}
	return g
}
