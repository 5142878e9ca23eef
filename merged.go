package rowan

import (
	"strconv"
	"strings"
)

// Merged is a cell exposing the current values of several sources as one
// slice. It is ready exactly when every source is ready. Readiness is
// re-evaluated on each source's readiness-change event, and the merged
// cell's own change signal fires only when the overall AND actually flips,
// so one oscillating source among many does not churn dependents.
//
// Like Derived, a Merged must be initialized with Init before use and
// disposed with Dispose when no longer needed.
type Merged struct {
	cell
	sources []Volatile
	values  []any

	stale       bool
	initialized bool
	cancels     []func()
}

// Merge creates a merged cell over the given sources. At least one source is
// required. Callers that rebuild merges every tick should go through a
// [MergeCache] (or [Scheduler.Merge]) to keep cell identity stable.
func Merge(sources ...Volatile) *Merged {
	if len(sources) == 0 {
		panic("rowan: Merge requires at least one source")
	}
	return &Merged{cell: newCell(), sources: sources}
}

// Init computes initial readiness from the sources and subscribes to their
// readiness and invalidation signals. No-op if already initialized. Returns
// the cell for chaining.
func (m *Merged) Init() *Merged {
	if m.initialized {
		return m
	}
	if m.disposed {
		panic("rowan: Init on disposed cell")
	}
	m.initialized = true
	m.regress = true
	m.stale = true
	m.ready = m.allReady()
	m.everReady = m.ready
	for _, src := range m.sources {
		m.cancels = append(m.cancels,
			src.OnReadyChange(func(bool) { m.setReady(m.allReady()) }),
			src.OnInvalidate(m.Invalidate),
		)
	}
	return m
}

func (m *Merged) allReady() bool {
	for _, src := range m.sources {
		if !src.Ready() {
			return false
		}
	}
	return true
}

// Invalidate marks the snapshot stale, forwarding at most one notification
// downstream per burst. Simultaneous upstream updates therefore collapse
// into a single dependent recompute.
func (m *Merged) Invalidate() {
	if m.stale {
		return
	}
	m.stale = true
	m.invalidated.emit()
}

// Current returns the sources' current values, in source order. The returned
// slice is reused across recomputes and must not be retained or mutated.
// Panics while any source is not ready.
func (m *Merged) Current() []any {
	if m.disposed {
		panic("rowan: Current on disposed cell")
	}
	if !m.ready {
		panic("rowan: Current on not-ready cell")
	}
	if m.stale {
		m.values = m.values[:0]
		for _, src := range m.sources {
			m.values = append(m.values, src.currentAny())
		}
		m.stale = false
	}
	return m.values
}

// CurrentOr returns the merged values, or def while not ready.
func (m *Merged) CurrentOr(def []any) []any {
	if !m.ready {
		return def
	}
	return m.Current()
}

// Dispose unsubscribes from all sources. Dispose is idempotent.
func (m *Merged) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
	m.values = nil
}

func (m *Merged) currentAny() any { return m.Current() }

func (m *Merged) resolve() {
	if m.ready && m.stale {
		m.Current()
	}
}

func (m *Merged) auxiliaries(out map[uint64]Volatile) {
	collectAux(out, m.aux, m.sources...)
}

// MergedAt returns the i-th merged value as T. Panics if the value is not a
// T, like any type assertion.
func MergedAt[T any](m *Merged, i int) T {
	return m.Current()[i].(T)
}

// MergeCache memoizes merged cells by source identity so that call sites
// asking for the same combination every tick reuse one initialized cell
// instead of rebuilding it.
type MergeCache struct {
	cells map[string]*Merged
}

// Of returns the merged cell for the given sources, creating and
// initializing it on first use.
func (c *MergeCache) Of(sources ...Volatile) *Merged {
	var key strings.Builder
	for _, src := range sources {
		key.WriteString(strconv.FormatUint(src.cellID(), 36))
		key.WriteByte(':')
	}
	if m, ok := c.cells[key.String()]; ok {
		return m
	}
	m := Merge(sources...).Init()
	if c.cells == nil {
		c.cells = make(map[string]*Merged)
	}
	c.cells[key.String()] = m
	return m
}

// Dispose disposes every cached merged cell and empties the cache.
func (c *MergeCache) Dispose() {
	for _, m := range c.cells {
		m.Dispose()
	}
	c.cells = nil
}
