package rowan

// Volatile is a node in the reactive dataflow graph. The concrete variants
// are [Root], [Derived], and [Merged]; the unexported methods close the set.
//
// A cell is either not-ready (no usable value) or ready. Readiness changes
// and invalidation are pushed to subscribers; recomputation is pulled lazily
// by the next read. Cells may also carry auxiliary dependencies: cells that
// must be resolved before this one each tick but are not value sources.
type Volatile interface {
	// Ready reports whether the cell currently holds a usable value. O(1);
	// maintained incrementally, never recomputed by traversal.
	Ready() bool

	// Invalidate marks the cached value stale and notifies dependents.
	// Invalidations received while already stale are coalesced: dependents
	// see at most one notification per burst.
	Invalidate()

	// OnReadyChange subscribes to readiness transitions. fn fires only when
	// readiness actually flips, never on a stay. The returned cancel
	// function removes the subscription.
	OnReadyChange(fn func(ready bool)) (cancel func())

	// OnInvalidate subscribes to invalidation notifications.
	OnInvalidate(fn func()) (cancel func())

	// AddAux declares auxiliary dependencies: cells the scheduler must
	// resolve strictly before this one.
	AddAux(deps ...Volatile)

	// auxiliaries accumulates this cell's auxiliary set, unioned
	// transitively through value-source chains, into out (keyed by cell id).
	auxiliaries(out map[uint64]Volatile)

	// currentAny returns the current value untyped. Caller must check Ready.
	currentAny() any

	// resolve recomputes the cached value if ready and stale. Used by the
	// scheduler's per-tick pull.
	resolve()

	// cellID returns the cell's unique identity.
	cellID() uint64
}

// Value is a Volatile with a typed current value. Root and Derived cells
// implement Value of their element type; Merged implements Value[[]any].
type Value[T any] interface {
	Volatile

	// Current returns the cell's value. Calling Current on a not-ready cell
	// is a caller error and panics; use CurrentOr when a fallback exists.
	Current() T

	// CurrentOr returns the cell's value, or def while the cell is not ready.
	CurrentOr(def T) T
}

// nextCellID allocates cell identities. Cells are created on the frame
// thread only, so a plain counter suffices.
var nextCellID uint64

// cell is the shared base of all variants: identity, signaling, auxiliary
// set, and readiness state. Kind-specific value logic lives in the variants.
type cell struct {
	id           uint64
	readyChanged notifier
	invalidated  notifier
	aux          []Volatile

	ready     bool
	everReady bool
	// regress enables the ready-regression advisory. Set for derived and
	// merged cells, where losing readiness usually means a caller unset a
	// root something downstream still depends on.
	regress  bool
	disposed bool
}

func newCell() cell {
	nextCellID++
	return cell{id: nextCellID}
}

func (c *cell) cellID() uint64 { return c.id }

func (c *cell) Ready() bool { return c.ready }

func (c *cell) OnReadyChange(fn func(ready bool)) (cancel func()) {
	return c.readyChanged.subscribe(func() { fn(c.ready) })
}

func (c *cell) OnInvalidate(fn func()) (cancel func()) {
	return c.invalidated.subscribe(fn)
}

func (c *cell) AddAux(deps ...Volatile) {
	c.aux = append(c.aux, deps...)
}

// setReady records a new readiness value, emitting the change signal only on
// an actual flip.
func (c *cell) setReady(ready bool) {
	if c.ready == ready {
		return
	}
	if !ready && c.everReady && c.regress {
		debugWarn("cell %d regressed from ready to not-ready", c.id)
	}
	c.ready = ready
	if ready {
		c.everReady = true
	}
	c.readyChanged.emit()
}

// collectAux unions own auxiliary cells and, transitively, those of the
// given value sources into out.
func collectAux(out map[uint64]Volatile, own []Volatile, sources ...Volatile) {
	for _, a := range own {
		out[a.cellID()] = a
	}
	for _, s := range sources {
		s.auxiliaries(out)
	}
}

// Root is a cell holding a settable value. Setting always signals
// invalidation; readiness follows whether a value is currently held.
type Root[T any] struct {
	cell
	value T
}

// NewRoot creates a not-ready root cell.
func NewRoot[T any]() *Root[T] {
	return &Root[T]{cell: newCell()}
}

// NewRootOf creates a root cell already holding v.
func NewRootOf[T any](v T) *Root[T] {
	r := NewRoot[T]()
	r.Set(v)
	return r
}

// Set replaces the current value and signals invalidation, even when the new
// value equals the old one. A handle value is attached before the previous
// value is detached, so setting the same handle twice never drops its count
// to zero in between.
func (r *Root[T]) Set(v T) {
	attachValue(v)
	old := r.value
	wasReady := r.ready
	r.value = v
	if wasReady {
		detachValue(old)
	}
	r.setReady(true)
	r.invalidated.emit()
}

// Unset clears the value, making the cell not-ready and releasing a held
// handle. Unset on an already not-ready cell is a no-op.
func (r *Root[T]) Unset() {
	if !r.ready {
		return
	}
	old := r.value
	var zero T
	r.value = zero
	r.setReady(false)
	detachValue(old)
	r.invalidated.emit()
}

// Current returns the held value. Panics while the cell is not ready.
func (r *Root[T]) Current() T {
	if !r.ready {
		panic("rowan: Current on not-ready cell")
	}
	return r.value
}

// CurrentOr returns the held value, or def while the cell is not ready.
func (r *Root[T]) CurrentOr(def T) T {
	if !r.ready {
		return def
	}
	return r.value
}

// Invalidate signals that the held value may have been mutated in place.
func (r *Root[T]) Invalidate() {
	r.invalidated.emit()
}

func (r *Root[T]) currentAny() any { return r.Current() }

// resolve is a no-op: roots hold their value, nothing is recomputed.
func (r *Root[T]) resolve() {}

func (r *Root[T]) auxiliaries(out map[uint64]Volatile) {
	collectAux(out, r.aux)
}
