package staging

import "testing"

func TestAllocFitsBlocksAndRoundsUp(t *testing.T) {
	p := NewPool(4096, 4)

	r, err := p.Alloc(1)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if r.BlockCount() != 1 {
		t.Fatalf("expected 1 block for a 1-byte request, got %d", r.BlockCount())
	}
	if r.Size() != 1 {
		t.Fatalf("expected visible size 1, got %d", r.Size())
	}

	r2, err := p.Alloc(4097)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if r2.BlockCount() != 2 {
		t.Fatalf("expected 2 blocks for a 4097-byte request, got %d", r2.BlockCount())
	}
}

func TestOutOfMemory(t *testing.T) {
	p := NewPool(4096, 2)
	if _, err := p.Alloc(4096 * 3); err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
}

func TestFreeThenReallocReusesBlocks(t *testing.T) {
	p := NewPool(1024, 4)

	r1, _ := p.Alloc(4096)
	if _, err := p.Alloc(1); err != ErrOutOfMemory {
		t.Fatalf("expected pool to be full, got %v", err)
	}

	p.Free(r1)
	if _, err := p.Alloc(4096); err != nil {
		t.Fatalf("expected reuse after free: %v", err)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	p := NewPool(1024, 4)
	r, err := p.Alloc(10)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	buf := p.Slice(r)
	copy(buf, []byte("0123456789"))

	buf2 := p.Slice(r)
	if string(buf2) != "0123456789" {
		t.Fatalf("unexpected slice contents: %q", buf2)
	}
}
