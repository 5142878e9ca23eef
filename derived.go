package rowan

// Derived is a cell computed from a single source. It is ready exactly when
// its source is ready, and recomputes lazily: only on a read that follows an
// invalidation. The compute function can be swapped with [Derived.Rebind]
// without losing the cell's identity or source subscriptions.
//
// A Derived must be initialized with Init before use and disposed with
// Dispose when no longer needed.
type Derived[S, T any] struct {
	cell
	source Value[S]
	run    func(S) (T, *Handle[T])

	value  T
	handle *Handle[T]

	stale       bool
	initialized bool
	cancels     []func()
}

// Derive creates a cell computing its value from source. If the computed
// value is itself a [Handle], its reference count is managed across
// recomputes like any other handle-typed cell value.
func Derive[S, T any](source Value[S], compute func(S) T) *Derived[S, T] {
	d := &Derived[S, T]{cell: newCell(), source: source}
	d.run = plainCompute(compute)
	return d
}

// DeriveHandle creates a cell whose compute function allocates a resource
// wrapped in a [Handle]. The cell attaches the new handle and detaches the
// previous one on every recompute, and Current returns the unwrapped
// resource. The compute function must not return nil.
func DeriveHandle[S, T any](source Value[S], compute func(S) *Handle[T]) *Derived[S, T] {
	d := &Derived[S, T]{cell: newCell(), source: source}
	d.run = handleCompute(compute)
	return d
}

func plainCompute[S, T any](compute func(S) T) func(S) (T, *Handle[T]) {
	return func(s S) (T, *Handle[T]) {
		return compute(s), nil
	}
}

func handleCompute[S, T any](compute func(S) *Handle[T]) func(S) (T, *Handle[T]) {
	return func(s S) (T, *Handle[T]) {
		h := compute(s)
		if h == nil {
			panic("rowan: DeriveHandle compute returned nil handle")
		}
		return h.Resource, h
	}
}

// Init computes initial readiness from the source and subscribes to its
// readiness and invalidation signals. This is the single eager step in a
// derived cell's life; everything afterwards is event-driven. Init on an
// already initialized cell is a no-op. Returns the cell for chaining.
func (d *Derived[S, T]) Init() *Derived[S, T] {
	if d.initialized {
		return d
	}
	if d.disposed {
		panic("rowan: Init on disposed cell")
	}
	d.initialized = true
	d.regress = true
	d.stale = true
	d.ready = d.source.Ready()
	d.everReady = d.ready
	d.cancels = append(d.cancels,
		d.source.OnReadyChange(func(ready bool) { d.setReady(ready) }),
		d.source.OnInvalidate(d.Invalidate),
	)
	return d
}

// Invalidate marks the cached value stale. The first invalidation of a burst
// is forwarded downstream; further ones arriving before the next recompute
// are absorbed here.
func (d *Derived[S, T]) Invalidate() {
	if d.stale {
		return
	}
	d.stale = true
	d.invalidated.emit()
}

// Rebind swaps the compute function. The cached value is invalidated, but
// identity, readiness, and source subscriptions are untouched.
func (d *Derived[S, T]) Rebind(compute func(S) T) {
	if d.disposed {
		panic("rowan: Rebind on disposed cell")
	}
	d.run = plainCompute(compute)
	d.Invalidate()
}

// RebindHandle swaps the compute function for a handle-allocating one.
func (d *Derived[S, T]) RebindHandle(compute func(S) *Handle[T]) {
	if d.disposed {
		panic("rowan: Rebind on disposed cell")
	}
	d.run = handleCompute(compute)
	d.Invalidate()
}

// Current returns the cell's value, recomputing it first if an invalidation
// has arrived since the last compute. On recompute the new handle (if any)
// is attached before the old one is detached. Panics while not ready.
func (d *Derived[S, T]) Current() T {
	if d.disposed {
		panic("rowan: Current on disposed cell")
	}
	if !d.ready {
		panic("rowan: Current on not-ready cell")
	}
	if d.stale {
		v, h := d.run(d.source.Current())
		if h != nil {
			h.Attach()
		} else {
			attachValue(v)
		}
		d.release()
		d.value, d.handle = v, h
		d.stale = false
	}
	return d.value
}

// CurrentOr returns the cell's value, or def while the cell is not ready.
func (d *Derived[S, T]) CurrentOr(def T) T {
	if !d.ready {
		return def
	}
	return d.Current()
}

// Dispose unsubscribes from the source and releases a held handle. Further
// reads or rebinds panic. Dispose is idempotent.
func (d *Derived[S, T]) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	for _, cancel := range d.cancels {
		cancel()
	}
	d.cancels = nil
	d.release()
	var zero T
	d.value = zero
	d.handle = nil
}

// release detaches whatever handle the cell currently holds: either the
// DeriveHandle handle or a handle-typed plain value.
func (d *Derived[S, T]) release() {
	if d.handle != nil {
		d.handle.Detach()
	} else {
		detachValue(d.value)
	}
}

func (d *Derived[S, T]) currentAny() any { return d.Current() }

func (d *Derived[S, T]) resolve() {
	if d.ready && d.stale {
		d.Current()
	}
}

func (d *Derived[S, T]) auxiliaries(out map[uint64]Volatile) {
	collectAux(out, d.aux, d.source)
}
