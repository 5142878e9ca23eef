package rowan

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// IsZero reports whether the rectangle is the zero value, which [Layer]
// interprets as "cover the whole screen".
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// notifier is a minimal subscriber list for cell signals. Single-threaded:
// all graph mutation happens on the frame thread, so there is no locking.
type notifier struct {
	subs    []*func()
	scratch []*func()
}

// subscribe adds fn and returns a cancel function. Cancel is idempotent.
func (n *notifier) subscribe(fn func()) (cancel func()) {
	entry := &fn
	n.subs = append(n.subs, entry)
	return func() {
		for i, s := range n.subs {
			if s == entry {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// emit invokes every current subscriber. Subscribers are snapshotted first so
// a callback may subscribe or cancel without disturbing this emission.
func (n *notifier) emit() {
	if len(n.subs) == 0 {
		return
	}
	n.scratch = append(n.scratch[:0], n.subs...)
	for _, s := range n.scratch {
		(*s)()
	}
}
