package rowan

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Animation is a float cell derived from the scheduler's frame pulse. It
// advances its tween by the tick delta once per tick (the pulse invalidates
// it every frame) and exposes the eased value through Current.
type Animation struct {
	*Derived[float64, float64]
	sched *Scheduler
	done  bool
}

// Animate registers a cell that advances tw once per tick. The cell stays
// registered until Stop is called; the scheduler owns the set of live
// animations, not package state.
func (s *Scheduler) Animate(tw *gween.Tween) *Animation {
	a := &Animation{sched: s}
	a.Derived = Derive(s.pulse, func(dt float64) float64 {
		v, finished := tw.Update(float32(dt))
		if finished {
			a.done = true
		}
		return float64(v)
	}).Init()
	s.RegisterCell(a.Derived)
	return a
}

// AnimateFloat is shorthand for Animate over a fresh tween from from to to
// across duration seconds with the given easing function.
func (s *Scheduler) AnimateFloat(from, to, duration float64, fn ease.TweenFunc) *Animation {
	return s.Animate(gween.New(float32(from), float32(to), float32(duration), fn))
}

// Done reports whether the underlying tween has reached its end.
func (a *Animation) Done() bool {
	return a.done
}

// Stop unregisters and disposes the animation cell. Reading it afterwards
// panics.
func (a *Animation) Stop() {
	a.sched.UnregisterCell(a.Derived)
	a.Derived.Dispose()
}
