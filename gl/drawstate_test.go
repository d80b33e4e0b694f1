package gl

import "testing"

func TestCommandQueueEnforcesCapacity(t *testing.T) {
	q := NewCommandQueue(2)
	if err := q.Push(DrawCommand{}); err != nil {
		t.Fatalf("Push 1: %v", err)
	}
	if err := q.Push(DrawCommand{}); err != nil {
		t.Fatalf("Push 2: %v", err)
	}
	if err := q.Push(DrawCommand{}); err == nil {
		t.Fatal("expected ErrQueueFull once capacity is reached")
	}
	drained := q.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain returned %d commands, want 2", len(drained))
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty after Drain, got Len()=%d", q.Len())
	}
	if err := q.Push(DrawCommand{}); err != nil {
		t.Fatalf("Push after drain should succeed: %v", err)
	}
}

func TestDrawArraysRequiresBoundProgram(t *testing.T) {
	c := newTestContext()
	if err := c.DrawArrays(3); err == nil {
		t.Fatal("expected ErrNoProgramBound when no program is bound")
	}
}

func TestVertexAttribPointerValidatesComponents(t *testing.T) {
	c := newTestContext()
	if err := c.VertexAttribPointer(0, 3, 0, 12, false); err != nil {
		t.Fatalf("VertexAttribPointer(3 components): %v", err)
	}
	if err := c.VertexAttribPointer(0, 5, 0, 12, false); err == nil {
		t.Fatal("expected error for a component count outside 1-4")
	}
}
