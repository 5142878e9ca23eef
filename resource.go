package rowan

// Handle wraps a disposable value with a reference count. Cells that hold a
// handle as their current value share ownership of it: each holder attaches,
// and the dispose callback runs exactly once when the count returns to zero
// after having been attached at least once.
//
// Handles are not safe for concurrent use; like the rest of the core they
// belong to the frame thread.
type Handle[T any] struct {
	// Resource is the wrapped value. Valid until disposal.
	Resource T

	dispose  func(T)
	refcount int
	disposed bool
}

// NewHandle creates a handle with a reference count of zero. The dispose
// callback may be nil for values that need no teardown.
func NewHandle[T any](resource T, dispose func(T)) *Handle[T] {
	return &Handle[T]{Resource: resource, dispose: dispose}
}

// Attach increments the reference count. Attaching a disposed handle panics.
// Attach on a nil handle is a no-op so that cells holding a zero handle value
// need no special casing.
func (h *Handle[T]) Attach() {
	if h == nil {
		return
	}
	if h.disposed {
		panic("rowan: Attach on disposed handle")
	}
	h.refcount++
}

// Detach decrements the reference count. When the count reaches zero the
// dispose callback is invoked exactly once. Detaching more times than
// attached, or detaching a disposed handle, panics. Detach on a nil handle
// is a no-op.
func (h *Handle[T]) Detach() {
	if h == nil {
		return
	}
	if h.disposed {
		panic("rowan: Detach on disposed handle")
	}
	if h.refcount == 0 {
		panic("rowan: Detach without matching Attach")
	}
	h.refcount--
	if h.refcount == 0 {
		h.disposed = true
		if h.dispose != nil {
			h.dispose(h.Resource)
		}
	}
}

// Refcount returns the current reference count.
func (h *Handle[T]) Refcount() int {
	return h.refcount
}

// IsDisposed reports whether the dispose callback has already run.
func (h *Handle[T]) IsDisposed() bool {
	return h.disposed
}

// refcounted is the untyped view of a Handle. Cells detect handle-typed
// values through it to manage attachment during Set, recompute, and Dispose.
type refcounted interface {
	Attach()
	Detach()
}

// attachValue attaches v if it is a handle; otherwise a no-op.
func attachValue(v any) {
	if h, ok := v.(refcounted); ok {
		h.Attach()
	}
}

// detachValue detaches v if it is a handle; otherwise a no-op.
func detachValue(v any) {
	if h, ok := v.(refcounted); ok {
		h.Detach()
	}
}
