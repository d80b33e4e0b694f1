package handle

import "testing"

func TestAllocFreeGenerationSafety(t *testing.T) {
	tbl := NewTable[int](4)

	h1, err := tbl.Alloc(10)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if h1.Index() != 0 {
		t.Fatalf("expected index 0, got %d", h1.Index())
	}

	if !tbl.Free(h1) {
		t.Fatalf("expected free to succeed")
	}
	if tbl.IsValid(h1) {
		t.Fatalf("stale handle reported valid")
	}

	h2, err := tbl.Alloc(20)
	if err != nil {
		t.Fatalf("realloc: %v", err)
	}
	if h2.Index() != h1.Index() {
		t.Fatalf("expected slot reuse, got index %d want %d", h2.Index(), h1.Index())
	}
	if h2.Generation() == h1.Generation() {
		t.Fatalf("expected strictly different generation on reuse")
	}
	if tbl.IsValid(h1) {
		t.Fatalf("old handle must remain invalid after reuse")
	}
	if !tbl.IsValid(h2) {
		t.Fatalf("new handle must be valid")
	}
}

func TestCapacityBounds(t *testing.T) {
	tbl := NewTable[int](2)

	h1, err := tbl.Alloc(1)
	if err != nil {
		t.Fatalf("alloc 1: %v", err)
	}
	if _, err := tbl.Alloc(2); err != nil {
		t.Fatalf("alloc 2: %v", err)
	}
	if _, err := tbl.Alloc(3); err != ErrAtCapacity {
		t.Fatalf("expected ErrAtCapacity, got %v", err)
	}

	if !tbl.Free(h1) {
		t.Fatalf("expected free to succeed")
	}
	if _, err := tbl.Alloc(4); err != nil {
		t.Fatalf("alloc after free: %v", err)
	}
}

func TestGetReturnsNilForStaleOrOutOfRangeHandle(t *testing.T) {
	tbl := NewTable[int](1)

	if tbl.Get(Handle(999)) != nil {
		t.Fatalf("expected nil for out-of-range handle")
	}

	h, _ := tbl.Alloc(42)
	tbl.Free(h)
	if tbl.Get(h) != nil {
		t.Fatalf("expected nil for freed handle")
	}
}

func TestNoHandleIsEverZero(t *testing.T) {
	tbl := NewTable[int](8)
	for i := 0; i < 8; i++ {
		h, err := tbl.Alloc(i)
		if err != nil {
			t.Fatalf("alloc %d: %v", i, err)
		}
		if h.IsZero() {
			t.Fatalf("alloc returned the Invalid sentinel")
		}
	}
}

func TestRangeVisitsOnlyActiveSlots(t *testing.T) {
	tbl := NewTable[int](3)
	h0, _ := tbl.Alloc(0)
	_, _ = tbl.Alloc(1)
	tbl.Free(h0)

	seen := map[Handle]int{}
	tbl.Range(func(h Handle, entity *int) {
		seen[h] = *entity
	})
	if len(seen) != 1 {
		t.Fatalf("expected 1 active slot, got %d", len(seen))
	}
}
