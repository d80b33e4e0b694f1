package gl

import (
	"testing"

	"github.com/webglnative/runtime/backend/recording"
)

func newTestContext() *Context {
	return NewContext(recording.New())
}

func TestBufferDataLocksUsage(t *testing.T) {
	c := newTestContext()
	h, err := c.CreateBuffer()
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := c.BindBuffer(TargetArrayBuffer, h); err != nil {
		t.Fatalf("BindBuffer: %v", err)
	}
	if err := c.BufferData(TargetArrayBuffer, []byte{1, 2, 3, 4}, UsageStaticDraw); err != nil {
		t.Fatalf("BufferData: %v", err)
	}
	if err := c.BufferData(TargetArrayBuffer, []byte{5, 6, 7, 8}, UsageDynamicDraw); err == nil {
		t.Fatal("expected ErrUsageLocked on usage change after first upload")
	}
	if err := c.BufferData(TargetArrayBuffer, []byte{5, 6, 7, 8}, UsageStaticDraw); err != nil {
		t.Fatalf("re-upload with same usage should succeed: %v", err)
	}
}

func TestBindBufferRejectsTargetChangeAfterBufferData(t *testing.T) {
	c := newTestContext()
	h, _ := c.CreateBuffer()
	if err := c.BindBuffer(TargetArrayBuffer, h); err != nil {
		t.Fatalf("BindBuffer: %v", err)
	}
	if err := c.BufferData(TargetArrayBuffer, []byte{1, 2, 3, 4}, UsageStaticDraw); err != nil {
		t.Fatalf("BufferData: %v", err)
	}
	if err := c.BindBuffer(TargetElementArrayBuffer, h); err == nil {
		t.Fatal("expected ErrWrongTarget rebinding a buffer with backend/usage state to a new target")
	}
}

func TestDeleteBufferClearsBindPoint(t *testing.T) {
	c := newTestContext()
	h, _ := c.CreateBuffer()
	if err := c.BindBuffer(TargetArrayBuffer, h); err != nil {
		t.Fatalf("BindBuffer: %v", err)
	}
	if err := c.DeleteBuffer(h); err != nil {
		t.Fatalf("DeleteBuffer: %v", err)
	}
	if !c.boundArrayBuffer.IsZero() {
		t.Fatal("expected bound array buffer to clear after delete")
	}
	if err := c.BufferData(TargetArrayBuffer, []byte{1}, UsageStaticDraw); err == nil {
		t.Fatal("expected ErrNoBufferBound after deleting the bound buffer")
	}
}

func TestBufferSubDataOutOfBounds(t *testing.T) {
	c := newTestContext()
	h, _ := c.CreateBuffer()
	c.BindBuffer(TargetArrayBuffer, h)
	if err := c.BufferData(TargetArrayBuffer, make([]byte, 8), UsageStaticDraw); err != nil {
		t.Fatalf("BufferData: %v", err)
	}
	if err := c.BufferSubData(TargetArrayBuffer, 4, make([]byte, 8)); err == nil {
		t.Fatal("expected out-of-bounds sub-data write to fail")
	}
	if err := c.BufferSubData(TargetArrayBuffer, 4, make([]byte, 4)); err != nil {
		t.Fatalf("in-bounds sub-data write should succeed: %v", err)
	}
}
