package bridge

import (
	"testing"

	"github.com/webglnative/runtime/backend/recording"
	"github.com/webglnative/runtime/events"
	"github.com/webglnative/runtime/gl"
)

func newTestBridge() *Bridge {
	ctx := gl.NewContext(recording.New())
	return New(ctx, events.NewDispatcher(), events.NewClock(), events.NewAnimationFrameScheduler())
}

func TestCreateBufferReturnsNumericHandle(t *testing.T) {
	b := newTestBridge()
	v, err := b.CreateBuffer(Args{})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if _, ok := v.(uint32); !ok {
		t.Fatalf("expected CreateBuffer to return a uint32 handle, got %T", v)
	}
}

func TestBindBufferRejectsWrongArity(t *testing.T) {
	b := newTestBridge()
	_, err := b.BindBuffer(Args{float64(0)})
	if err == nil {
		t.Fatal("expected an argument error for the wrong arity")
	}
	berr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected a *bridge.Error, got %T", err)
	}
	if berr.Kind != KindArgument {
		t.Fatalf("expected KindArgument, got %v", berr.Kind)
	}
}

func TestBindBufferRejectsWrongArgumentType(t *testing.T) {
	b := newTestBridge()
	_, err := b.BindBuffer(Args{"not a number", float64(1)})
	if err == nil {
		t.Fatal("expected an argument error for the wrong argument type")
	}
}

func TestBindBufferTranslatesUnknownHandleToHandleError(t *testing.T) {
	b := newTestBridge()
	_, err := b.BindBuffer(Args{float64(0), float64(0xFFFF)})
	if err == nil {
		t.Fatal("expected an error binding a never-allocated handle")
	}
	berr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected a *bridge.Error, got %T", err)
	}
	if berr.Kind != KindHandle {
		t.Fatalf("expected KindHandle, got %v", berr.Kind)
	}
}

func TestFullBufferRoundTripThroughBridge(t *testing.T) {
	b := newTestBridge()
	v, err := b.CreateBuffer(Args{})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	bh := float64(v.(uint32))

	if _, err := b.BindBuffer(Args{float64(0), bh}); err != nil {
		t.Fatalf("BindBuffer: %v", err)
	}
	if _, err := b.BufferData(Args{float64(0), make([]byte, 12), float64(0)}); err != nil {
		t.Fatalf("BufferData: %v", err)
	}
	if _, err := b.DeleteBuffer(Args{bh}); err != nil {
		t.Fatalf("DeleteBuffer: %v", err)
	}
}

func TestPerformanceNowIncreasesMonotonically(t *testing.T) {
	b := newTestBridge()
	v1, err := b.PerformanceNow(Args{})
	if err != nil {
		t.Fatalf("PerformanceNow: %v", err)
	}
	v2, err := b.PerformanceNow(Args{})
	if err != nil {
		t.Fatalf("PerformanceNow: %v", err)
	}
	if v2.(float64) < v1.(float64) {
		t.Fatal("expected performance.now() to be non-decreasing")
	}
}
