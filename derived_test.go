package rowan

import "testing"

func TestDerivedReadinessFollowsSource(t *testing.T) {
	src := NewRoot[int]()
	d := Derive(src, func(v int) int { return v * 2 }).Init()

	if d.Ready() {
		t.Error("Ready() = true with not-ready source, want false")
	}
	src.Set(4)
	if !d.Ready() {
		t.Error("Ready() = false after source Set, want true")
	}
	if got := d.Current(); got != 8 {
		t.Errorf("Current() = %d, want 8", got)
	}
	src.Unset()
	if d.Ready() {
		t.Error("Ready() = true after source Unset, want false")
	}
}

func TestDerivedInitFromReadySource(t *testing.T) {
	src := NewRootOf(10)
	d := Derive(src, func(v int) int { return v + 1 }).Init()
	if !d.Ready() {
		t.Fatal("Ready() = false for derived over ready source, want true")
	}
	if got := d.Current(); got != 11 {
		t.Errorf("Current() = %d, want 11", got)
	}
}

func TestDerivedRecomputesLazily(t *testing.T) {
	src := NewRootOf(1)
	computes := 0
	d := Derive(src, func(v int) int { computes++; return v }).Init()

	if computes != 0 {
		t.Fatalf("computes = %d before first read, want 0", computes)
	}
	d.Current()
	d.Current()
	d.Current()
	if computes != 1 {
		t.Errorf("computes = %d after repeated reads, want 1", computes)
	}
}

func TestDerivedInvalidationCoalescing(t *testing.T) {
	src := NewRootOf(1)
	computes := 0
	d := Derive(src, func(v int) int { computes++; return v }).Init()
	d.Current()

	downstream := 0
	d.OnInvalidate(func() { downstream++ })

	// A burst of source updates between two reads.
	src.Set(2)
	src.Set(3)
	src.Set(4)

	if downstream != 1 {
		t.Errorf("downstream invalidations = %d, want 1 (coalesced)", downstream)
	}
	if got := d.Current(); got != 4 {
		t.Errorf("Current() = %d, want 4", got)
	}
	if computes != 2 {
		t.Errorf("computes = %d, want 2 (one per burst)", computes)
	}
}

func TestDerivedReadyChangeFiresOnlyOnFlips(t *testing.T) {
	src := NewRoot[int]()
	d := Derive(src, func(v int) int { return v }).Init()
	flips := 0
	d.OnReadyChange(func(bool) { flips++ })

	src.Set(1)
	src.Set(2)
	src.Set(3)
	if flips != 1 {
		t.Errorf("flips = %d, want 1", flips)
	}
}

func TestDerivedRebindKeepsSubscriptions(t *testing.T) {
	src := NewRootOf(5)
	d := Derive(src, func(v int) int { return v }).Init()
	if got := d.Current(); got != 5 {
		t.Fatalf("Current() = %d, want 5", got)
	}

	d.Rebind(func(v int) int { return v * 10 })
	if got := d.Current(); got != 50 {
		t.Errorf("Current() = %d after Rebind, want 50", got)
	}

	// Source events still reach the cell through the original subscriptions.
	src.Set(6)
	if got := d.Current(); got != 60 {
		t.Errorf("Current() = %d after source Set, want 60", got)
	}
	src.Unset()
	if d.Ready() {
		t.Error("Ready() = true after source Unset, want false")
	}
}

func TestDerivedCurrentNotReadyPanics(t *testing.T) {
	src := NewRoot[int]()
	d := Derive(src, func(v int) int { return v }).Init()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for Current on not-ready cell, got none")
		}
	}()
	d.Current()
}

func TestDerivedCurrentOrFallback(t *testing.T) {
	src := NewRoot[int]()
	d := Derive(src, func(v int) int { return v }).Init()
	if got := d.CurrentOr(-1); got != -1 {
		t.Errorf("CurrentOr(-1) = %d, want -1", got)
	}
}

func TestDerivedChain(t *testing.T) {
	src := NewRootOf(2)
	double := Derive(src, func(v int) int { return v * 2 }).Init()
	square := Derive(double, func(v int) int { return v * v }).Init()

	if got := square.Current(); got != 16 {
		t.Fatalf("Current() = %d, want 16", got)
	}
	src.Set(3)
	if got := square.Current(); got != 36 {
		t.Errorf("Current() = %d after source Set, want 36", got)
	}
}

func TestDerivedDisposeUnsubscribes(t *testing.T) {
	src := NewRootOf(1)
	computes := 0
	d := Derive(src, func(v int) int { computes++; return v }).Init()
	d.Current()
	d.Dispose()

	src.Set(2) // must not reach the disposed cell
	if computes != 1 {
		t.Errorf("computes = %d after dispose, want 1", computes)
	}
}

func TestDerivedCurrentAfterDisposePanics(t *testing.T) {
	src := NewRootOf(1)
	d := Derive(src, func(v int) int { return v }).Init()
	d.Dispose()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for Current on disposed cell, got none")
		}
	}()
	d.Current()
}

func TestDerivedRebindAfterDisposePanics(t *testing.T) {
	src := NewRootOf(1)
	d := Derive(src, func(v int) int { return v }).Init()
	d.Dispose()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for Rebind on disposed cell, got none")
		}
	}()
	d.Rebind(func(v int) int { return v })
}

// --- Resource handle values ---

func TestDeriveHandleUnwrapsResource(t *testing.T) {
	src := NewRootOf(3)
	d := DeriveHandle(src, func(v int) *Handle[string] {
		return NewHandle("res", nil)
	}).Init()
	if got := d.Current(); got != "res" {
		t.Errorf("Current() = %q, want %q", got, "res")
	}
}

func TestDeriveHandleSwapsOnRecompute(t *testing.T) {
	disposed := map[int]int{}
	src := NewRootOf(1)
	d := DeriveHandle(src, func(v int) *Handle[int] {
		return NewHandle(v, func(int) { disposed[v]++ })
	}).Init()

	if got := d.Current(); got != 1 {
		t.Fatalf("Current() = %d, want 1", got)
	}
	src.Set(2)
	if got := d.Current(); got != 2 {
		t.Fatalf("Current() = %d after source Set, want 2", got)
	}
	if disposed[1] != 1 {
		t.Errorf("first handle disposed %d times, want 1", disposed[1])
	}
	if disposed[2] != 0 {
		t.Errorf("second handle disposed %d times, want 0", disposed[2])
	}
}

func TestDeriveHandleDisposeReleases(t *testing.T) {
	disposed := 0
	src := NewRootOf(1)
	d := DeriveHandle(src, func(v int) *Handle[int] {
		return NewHandle(v, func(int) { disposed++ })
	}).Init()
	d.Current()
	d.Dispose()
	if disposed != 1 {
		t.Errorf("disposed = %d after Dispose, want 1", disposed)
	}
}

func TestDerivedOverRootHandleSwap(t *testing.T) {
	// Root holds Handle1 (refcount 1 via the root); replacing it with
	// Handle2 disposes Handle1 exactly once, and the derived cell's next
	// read attaches Handle2.
	d1, d2 := 0, 0
	h1 := NewHandle("h1", func(string) { d1++ })
	h2 := NewHandle("h2", func(string) { d2++ })

	root := NewRoot[*Handle[string]]()
	derived := Derive(root, func(h *Handle[string]) *Handle[string] { return h }).Init()

	root.Set(h1)
	derived.Current() // derived now also holds h1
	if h1.Refcount() != 2 {
		t.Fatalf("h1 Refcount() = %d, want 2", h1.Refcount())
	}

	root.Set(h2)
	derived.Current()
	if d1 != 1 {
		t.Errorf("h1 disposed %d times, want 1", d1)
	}
	if d2 != 0 {
		t.Errorf("h2 disposed %d times, want 0", d2)
	}
	if h2.Refcount() != 2 {
		t.Errorf("h2 Refcount() = %d, want 2", h2.Refcount())
	}
}
