package rowan

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Stage boundary keys. These are pre-seeded into every Scheduler's step
// ordering with a fixed total order among themselves, giving registrants
// stable anchor points ("after StageScene", "before StageDebug") without
// knowing about each other.
const (
	StageScene   = "stage:scene"   // the host scene has been drawn
	StageOverlay = "stage:overlay" // overlay UI draws here
	StageDebug   = "stage:debug"   // diagnostics draw last
)

// Step is a unit of per-tick work, usually a render routine. Steps receive
// the tick's shared Pass and run in the order declared against stage
// boundaries and each other.
type Step func(p *Pass)

// Pass is the mutable record shared by every step of one tick.
type Pass struct {
	// Screen is the frame's destination image. Nil on headless ticks.
	Screen *ebiten.Image
	// Delta is the tick duration in seconds.
	Delta float64
	// Clear controls whether steps should clear their buffers before
	// drawing. Steps may flip it to suppress clears for the rest of a tick.
	Clear bool
	// Executed records steps already run this tick. Nested step execution
	// (a step rendering a sub-context through RunSteps) checks it to cap
	// recursive self-nesting.
	Executed map[string]bool
}

// Scheduler drives the reactive graph and render steps once per external
// tick. It owns the frame pulse cell, the registered-cell ordering, the
// step ordering, and a merge cache: all state the core needs, so nothing
// lives at package level (see globalDebug for the one exception).
type Scheduler struct {
	pulse *Root[float64]

	cellList   []Volatile
	cellSet    map[uint64]struct{}
	cellOrder  []Volatile
	cellsDirty bool
	resolving  bool

	steps      *Ordering[string, Step]
	stepNames  []string
	stepsDirty bool

	merges MergeCache
	pool   texturePool

	debug bool
}

// NewScheduler creates a scheduler with the stage boundaries pre-seeded in
// their fixed order.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		pulse:   NewRoot[float64](),
		cellSet: make(map[uint64]struct{}),
		steps:   NewOrdering[string, Step](),
	}
	s.steps.Add(StageScene)
	s.steps.Add(StageOverlay)
	s.steps.Add(StageDebug)
	s.steps.Order(StageScene, StageOverlay)
	s.steps.Order(StageOverlay, StageDebug)
	return s
}

// Pulse returns the before-render pulse cell. It is set to the tick's delta
// at the start of every Tick and always signals invalidation, so deriving
// from it yields "recompute once per tick" semantics (time-based animation,
// per-frame measurements).
func (s *Scheduler) Pulse() Value[float64] {
	return s.pulse
}

// Merge returns a merged cell over the given sources, memoized by source
// identity so repeated calls each tick reuse one cell.
func (s *Scheduler) Merge(sources ...Volatile) *Merged {
	return s.merges.Of(sources...)
}

// SetDebugMode enables or disables debug mode: per-tick timing stats and
// cell advisory warnings on stderr.
func (s *Scheduler) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// RegisterCell adds a cell to the per-tick resolution pass. Auxiliary
// dependencies between registered cells (see [Volatile.AddAux]) are turned
// into ordering constraints when the pass order is next rebuilt. No-op if
// already registered.
func (s *Scheduler) RegisterCell(c Volatile) {
	if _, ok := s.cellSet[c.cellID()]; ok {
		return
	}
	s.cellSet[c.cellID()] = struct{}{}
	s.cellList = append(s.cellList, c)
	s.cellsDirty = true
}

// UnregisterCell removes a cell from the per-tick resolution pass.
func (s *Scheduler) UnregisterCell(c Volatile) {
	if _, ok := s.cellSet[c.cellID()]; !ok {
		return
	}
	delete(s.cellSet, c.cellID())
	for i, cell := range s.cellList {
		if cell.cellID() == c.cellID() {
			s.cellList = append(s.cellList[:i], s.cellList[i+1:]...)
			break
		}
	}
	s.cellsDirty = true
}

// RegisterStep binds a named step. Order it relative to stages or other
// steps with StepAfter and StepBefore; an unordered step still runs, after
// all constraints are satisfied among the others.
func (s *Scheduler) RegisterStep(name string, fn Step) {
	s.steps.Bind(name, fn)
	s.stepsDirty = true
}

// UnregisterStep removes a step and severs its ordering edges. Constraints
// that held transitively through it must be re-declared if needed.
func (s *Scheduler) UnregisterStep(name string) {
	s.steps.Remove(name)
	s.stepsDirty = true
}

// StepAfter declares that step name runs after other (a step or stage key).
// Returns false, leaving prior ordering intact, if the constraint would
// create a cycle; the conflict is reported as a warning.
func (s *Scheduler) StepAfter(name, other string) bool {
	ok := s.steps.Order(other, name)
	if !ok {
		debugWarn("step ordering %q after %q rejected: would create a cycle", name, other)
	}
	s.stepsDirty = true
	return ok
}

// StepBefore declares that step name runs before other.
func (s *Scheduler) StepBefore(name, other string) bool {
	ok := s.steps.Order(name, other)
	if !ok {
		debugWarn("step ordering %q before %q rejected: would create a cycle", name, other)
	}
	s.stepsDirty = true
	return ok
}

// Tick runs one frame: signals the pulse, resolves registered cells in
// dependency order, then executes registered steps in stage order. screen
// may be nil for headless ticks (steps that draw check Pass.Screen).
func (s *Scheduler) Tick(screen *ebiten.Image, dt float64) {
	var stats tickStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.pulse.Set(dt)
	s.Resolve()

	if s.debug {
		stats.resolveTime = time.Since(t0)
		stats.cellCount = len(s.cellOrder)
		t0 = time.Now()
	}

	if s.stepsDirty {
		s.rebuildStepOrder()
	}
	pass := &Pass{
		Screen:   screen,
		Delta:    dt,
		Clear:    true,
		Executed: make(map[string]bool, len(s.stepNames)),
	}
	s.RunSteps(pass)

	if s.debug {
		stats.stepTime = time.Since(t0)
		stats.stepCount = len(s.stepNames)
		s.debugLog(stats)
	}
}

// Resolve pulls every registered cell once, auxiliaries strictly before the
// cells that declare them. Re-entrant calls (a cell's recompute feeding back
// into the scheduler) return immediately; the outer pass keeps its pending
// work.
func (s *Scheduler) Resolve() {
	if s.resolving {
		return
	}
	s.resolving = true
	defer func() { s.resolving = false }()

	if s.cellsDirty {
		s.rebuildCellOrder()
	}
	for _, c := range s.cellOrder {
		c.resolve()
	}
}

// RunSteps executes every registered step not yet marked in p.Executed.
// Tick calls it with a fresh pass; a step rendering a nested context may
// call it again with the same pass, which skips the steps already run.
func (s *Scheduler) RunSteps(p *Pass) {
	for _, name := range s.stepNames {
		if p.Executed[name] {
			continue
		}
		p.Executed[name] = true
		if step, ok := s.steps.Value(name); ok {
			step(p)
		}
	}
}

// rebuildCellOrder recomputes the memoized resolution order from the
// registered cells' auxiliary sets. The ordering is rebuilt from scratch:
// removal severs edges without transitive reconnection, so stale edges
// never leak across registration changes.
func (s *Scheduler) rebuildCellOrder() {
	order := NewOrdering[uint64, Volatile]()
	for _, c := range s.cellList {
		order.Bind(c.cellID(), c)
	}
	aux := make(map[uint64]Volatile)
	for _, c := range s.cellList {
		clear(aux)
		c.auxiliaries(aux)
		for id, a := range aux {
			if _, registered := s.cellSet[id]; !registered {
				continue
			}
			if !order.Order(a.cellID(), c.cellID()) {
				debugWarn("auxiliary ordering between cells %d and %d rejected: would create a cycle", a.cellID(), c.cellID())
			}
		}
	}
	s.cellOrder = s.cellOrder[:0]
	for c := range order.SortedValues() {
		s.cellOrder = append(s.cellOrder, c)
	}
	s.cellsDirty = false
}

// rebuildStepOrder recomputes the memoized step execution order. Stage keys
// carry no payload and are skipped by SortedValues; they only anchor edges.
func (s *Scheduler) rebuildStepOrder() {
	s.stepNames = s.stepNames[:0]
	for name := range s.steps.Sorted() {
		if _, bound := s.steps.Value(name); bound {
			s.stepNames = append(s.stepNames, name)
		}
	}
	s.stepsDirty = false
}
