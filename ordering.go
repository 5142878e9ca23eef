package rowan

import "iter"

// Ordering is a partially ordered set of keys backed by a directed acyclic
// graph, with optional value payloads per key. Nodes are kept in a map from
// key to edge sets rather than linked by pointers, so removal and cycle
// checks stay bounded, key-indexed operations.
//
// The induced graph is always acyclic: an Order call that would introduce a
// cycle is rejected and leaves the structure untouched.
type Ordering[K comparable, V any] struct {
	nodes  map[K]*orderNode[K]
	keys   []K // insertion order; tie-break for Sorted
	values map[K]V
}

// orderNode holds a key's edge sets. precedes and succeeds mirror each
// other: b in a.precedes iff a in b.succeeds.
type orderNode[K comparable] struct {
	precedes map[K]struct{}
	succeeds map[K]struct{}
}

// NewOrdering creates an empty ordering.
func NewOrdering[K comparable, V any]() *Ordering[K, V] {
	return &Ordering[K, V]{
		nodes:  make(map[K]*orderNode[K]),
		values: make(map[K]V),
	}
}

// Add inserts k as an isolated key. No-op if already present.
func (o *Ordering[K, V]) Add(k K) {
	if _, ok := o.nodes[k]; ok {
		return
	}
	o.nodes[k] = &orderNode[K]{
		precedes: make(map[K]struct{}),
		succeeds: make(map[K]struct{}),
	}
	o.keys = append(o.keys, k)
}

// Has reports whether k is present.
func (o *Ordering[K, V]) Has(k K) bool {
	_, ok := o.nodes[k]
	return ok
}

// Len returns the number of keys.
func (o *Ordering[K, V]) Len() int {
	return len(o.keys)
}

// Remove deletes k, severing all edges through it. Constraints that held
// transitively through k are NOT reconnected; consumers that need them must
// re-declare the edges. Any bound value is dropped. No-op if absent.
func (o *Ordering[K, V]) Remove(k K) {
	n, ok := o.nodes[k]
	if !ok {
		return
	}
	for p := range n.precedes {
		delete(o.nodes[p].succeeds, k)
	}
	for s := range n.succeeds {
		delete(o.nodes[s].precedes, k)
	}
	delete(o.nodes, k)
	delete(o.values, k)
	for i, key := range o.keys {
		if key == k {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Order declares that before must be sequenced ahead of after, inserting
// either key if absent. Returns false without mutating anything when the
// edge would create a cycle (including before == after); prior constraints
// stay intact.
func (o *Ordering[K, V]) Order(before, after K) bool {
	if before == after {
		return false
	}
	// A cycle needs an existing after→…→before path, which requires both
	// keys to already be present; checking before inserting keeps a
	// rejected call free of side effects.
	if o.reaches(after, before) {
		return false
	}
	o.Add(before)
	o.Add(after)
	o.nodes[before].precedes[after] = struct{}{}
	o.nodes[after].succeeds[before] = struct{}{}
	return true
}

// reaches reports whether to is reachable from from over precedes edges.
// Iterative DFS with an explicit stack.
func (o *Ordering[K, V]) reaches(from, to K) bool {
	start, ok := o.nodes[from]
	if !ok {
		return false
	}
	if _, ok := o.nodes[to]; !ok {
		return false
	}
	stack := make([]K, 0, len(start.precedes))
	for next := range start.precedes {
		stack = append(stack, next)
	}
	visited := make(map[K]struct{}, len(o.nodes))
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if k == to {
			return true
		}
		if _, seen := visited[k]; seen {
			continue
		}
		visited[k] = struct{}{}
		for next := range o.nodes[k].precedes {
			stack = append(stack, next)
		}
	}
	return false
}

// Bind associates a payload with k, inserting k if absent.
func (o *Ordering[K, V]) Bind(k K, v V) {
	o.Add(k)
	o.values[k] = v
}

// Unbind drops k's payload, keeping the key and its edges.
func (o *Ordering[K, V]) Unbind(k K) {
	delete(o.values, k)
}

// Value returns the payload bound to k, if any.
func (o *Ordering[K, V]) Value(k K) (V, bool) {
	v, ok := o.values[k]
	return v, ok
}

// Sorted returns a lazy, one-shot sequence of all keys in an order
// satisfying every declared constraint. Ties among simultaneously ready
// keys break by key insertion order; callers must not rely on a particular
// tie-break, only on constraint satisfaction.
func (o *Ordering[K, V]) Sorted() iter.Seq[K] {
	return func(yield func(K) bool) {
		// Kahn's algorithm over an insertion-ordered scan. The linear
		// rescan per emission keeps ties deterministic; key counts here are
		// frame steps and registered cells, small enough not to matter.
		pending := make(map[K]int, len(o.nodes))
		for k, n := range o.nodes {
			pending[k] = len(n.succeeds)
		}
		emitted := make(map[K]struct{}, len(o.keys))
		for len(emitted) < len(o.keys) {
			progressed := false
			for _, k := range o.keys {
				if _, done := emitted[k]; done {
					continue
				}
				if pending[k] != 0 {
					continue
				}
				emitted[k] = struct{}{}
				progressed = true
				if !yield(k) {
					return
				}
				for next := range o.nodes[k].precedes {
					pending[next]--
				}
			}
			// Unreachable while the acyclicity invariant holds; guards
			// against livelock if it is ever broken externally.
			if !progressed {
				return
			}
		}
	}
}

// SortedValues returns the payloads of bound keys in constraint-satisfying
// order, skipping unbound keys.
func (o *Ordering[K, V]) SortedValues() iter.Seq[V] {
	return func(yield func(V) bool) {
		for k := range o.Sorted() {
			if v, ok := o.values[k]; ok {
				if !yield(v) {
					return
				}
			}
		}
	}
}
