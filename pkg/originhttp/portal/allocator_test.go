package portal

import "testing"

func TestAllocatorCheckoutRelease(t *testing.T) {
	a := NewAllocator(0, true, nil)
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	b := a.Checkout()
	b.WriteString("hello")
	a.Release(b)

	if leaked := a.Deinit(); leaked {
		t.Fatal("Deinit reported a leak after a matched Checkout/Release")
	}
}

func TestAllocatorDetectsLeak(t *testing.T) {
	a := NewAllocator(0, true, nil)
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	_ = a.Checkout() // never released

	if leaked := a.Deinit(); !leaked {
		t.Fatal("Deinit did not report the outstanding checkout as a leak")
	}
}

func TestAllocatorDoubleInitFails(t *testing.T) {
	a := NewAllocator(0, false, nil)
	if err := a.Init(); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := a.Init(); err == nil {
		t.Fatal("second Init: expected double-init error, got nil")
	} else if !IsFatal(err) {
		t.Fatalf("second Init: error %v is not categorized Fatal", err)
	}
}

func TestAllocatorDebugModeTracksHitRate(t *testing.T) {
	a := NewAllocator(1, false, nil)
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for i := 0; i < 3; i++ {
		b := a.Checkout()
		b.WriteString("x")
		a.Release(b)
	}

	m := a.DebugMetrics()
	if m.Gets != 3 {
		t.Fatalf("Gets = %d, want 3", m.Gets)
	}
	if m.Misses != 1 {
		t.Fatalf("Misses = %d, want 1 (only the first checkout allocates)", m.Misses)
	}

	if leaked := a.Deinit(); leaked {
		t.Fatal("Deinit reported a leak after matched Checkout/Release pairs")
	}
}
