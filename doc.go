// Package rowan is the reactive core and frame scheduler for building
// structured overlay UI on top of an [Ebitengine] scene.
//
// Rowan provides the dataflow primitives (cells), dependency-ordered frame
// scheduling, stage-anchored render steps, reference-counted resource
// handles, and gween-backed animation cells that a widget layer composes
// into boxes, text, and frames.
//
// # Quick start
//
// Create a [Scheduler], register cells and steps, and drive it once per
// frame from your [ebiten.Game]:
//
//	sched := rowan.NewScheduler()
//	sched.AddLayer(&rowan.Layer{Name: "hud", Draw: drawHUD})
//
//	func (g *Game) Draw(screen *ebiten.Image) {
//		g.sched.Tick(screen, 1.0/float64(ebiten.TPS()))
//	}
//
// # Cells
//
// Every dynamic value is a cell. [Root] cells hold settable values,
// [Derive] builds lazily recomputed cells from a source, and [Merge]
// combines several sources into one cell that is ready only when all of
// them are. Cells signal readiness flips and invalidation to dependents;
// recomputation happens on the next read, never eagerly.
//
//	width := rowan.NewRootOf(320.0)
//	half := rowan.Derive(width, func(w float64) float64 { return w / 2 }).Init()
//
// Values that own GPU resources go through [Handle], which guarantees the
// dispose callback runs exactly once when the last holder releases it.
// [NewImageHandle] wraps an *ebiten.Image this way.
//
// # Frame scheduling
//
// [Scheduler.Tick] signals the frame pulse, resolves every registered cell
// in auxiliary-dependency order, then executes registered steps in the
// order declared against the stage boundaries [StageScene], [StageOverlay],
// and [StageDebug]. Ordering constraints that would create a cycle are
// rejected and reported, never applied partially.
//
// Animation uses the frame pulse: [Scheduler.Animate] turns a [gween]
// tween into a cell that advances once per tick.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package rowan
