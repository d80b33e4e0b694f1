package runtime

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/webglnative/runtime/backend/recording"
	"github.com/webglnative/runtime/bridge"
	"github.com/webglnative/runtime/events"
	"github.com/webglnative/runtime/window"
)

// fakeWindow satisfies window.Window without touching any real platform
// surface, so runtime tests can drive Runtime.Tick directly.
type fakeWindow struct {
	sink   window.EventSink
	width  int
	height int
}

func (w *fakeWindow) SetUpdateCallback(func())                  {}
func (w *fakeWindow) SetEventSink(sink window.EventSink)        { w.sink = sink }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool                           { return true }
func (w *fakeWindow) Close() error                              { return nil }
func (w *fakeWindow) ProcessMessages()                          {}
func (w *fakeWindow) Width() int                                { return w.width }
func (w *fakeWindow) Height() int                                { return w.height }

func newTestRuntime() (*Runtime, *fakeWindow) {
	fw := &fakeWindow{width: 800, height: 600}
	r := New(Config{Debug: true}, recording.New(), WithWindow(fw))
	return r, fw
}

func TestTickFiresTickCallbackEachFrame(t *testing.T) {
	r, _ := newTestRuntime()
	calls := 0
	r.SetTickCallback(func(dt float32) { calls++ })
	r.Tick()
	r.Tick()
	if calls != 2 {
		t.Fatalf("expected 2 tick callback invocations, got %d", calls)
	}
}

func TestTickFiresAnimationFrameExactlyOnceAndReleases(t *testing.T) {
	r, _ := newTestRuntime()
	fired := 0
	if _, err := r.AnimationFrameScheduler().Request(func(ts float64) { fired++ }); err != nil {
		t.Fatalf("Request: %v", err)
	}
	r.Tick()
	r.Tick()
	if fired != 1 {
		t.Fatalf("expected the animation frame callback to fire exactly once, got %d", fired)
	}
}

// TestTickFlushesQueuedDrawCommandsThroughBridge drives a reduced form of
// scenario 1 (one non-indexed three-vertex draw instead of the indexed
// cube) through the Bridge and Runtime.Tick rather than the gl package
// directly, confirming the runtime's frame loop actually calls Flush and
// that the flush resolves a pipeline.
func TestTickFlushesQueuedDrawCommandsThroughBridge(t *testing.T) {
	r, _ := newTestRuntime()
	br := r.Bridge()

	vsV, err := br.CreateShader(bridge.Args{float64(0)})
	if err != nil {
		t.Fatalf("CreateShader(vertex): %v", err)
	}
	fsV, err := br.CreateShader(bridge.Args{float64(1)})
	if err != nil {
		t.Fatalf("CreateShader(fragment): %v", err)
	}
	vsH := float64(vsV.(uint32))
	fsH := float64(fsV.(uint32))

	vsSrc := "attribute vec3 position; void main(){ gl_Position = vec4(position, 1.0); }"
	fsSrc := "void main(){ gl_FragColor = vec4(1.0); }"
	if _, err := br.ShaderSource(bridge.Args{vsH, vsSrc}); err != nil {
		t.Fatalf("ShaderSource(vertex): %v", err)
	}
	if _, err := br.ShaderSource(bridge.Args{fsH, fsSrc}); err != nil {
		t.Fatalf("ShaderSource(fragment): %v", err)
	}
	if _, err := br.CompileShader(bridge.Args{vsH}); err != nil {
		t.Fatalf("CompileShader(vertex): %v", err)
	}
	if _, err := br.CompileShader(bridge.Args{fsH}); err != nil {
		t.Fatalf("CompileShader(fragment): %v", err)
	}

	progV, err := br.CreateProgram(bridge.Args{})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	progH := float64(progV.(uint32))
	if _, err := br.AttachShader(bridge.Args{progH, vsH}); err != nil {
		t.Fatalf("AttachShader(vertex): %v", err)
	}
	if _, err := br.AttachShader(bridge.Args{progH, fsH}); err != nil {
		t.Fatalf("AttachShader(fragment): %v", err)
	}
	if _, err := br.LinkProgram(bridge.Args{progH}); err != nil {
		t.Fatalf("LinkProgram: %v", err)
	}
	if _, err := br.UseProgram(bridge.Args{progH}); err != nil {
		t.Fatalf("UseProgram: %v", err)
	}

	vbV, err := br.CreateBuffer(bridge.Args{})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	vbH := float64(vbV.(uint32))
	if _, err := br.BindBuffer(bridge.Args{float64(0), vbH}); err != nil {
		t.Fatalf("BindBuffer: %v", err)
	}
	if _, err := br.BufferData(bridge.Args{float64(0), make([]byte, 36), float64(0)}); err != nil {
		t.Fatalf("BufferData: %v", err)
	}

	if _, err := br.DrawArrays(bridge.Args{float64(3)}); err != nil {
		t.Fatalf("DrawArrays: %v", err)
	}

	r.Tick()

	hits, misses, _ := r.Context().PipelineCacheStats()
	if hits+misses == 0 {
		t.Fatal("expected the flush to resolve at least one pipeline lookup")
	}
}

// TestEventDrainFiresListenersOnInjection drives scenario 6 (event drain):
// injecting a mousedown and a keydown through the window's event sink fires
// both registered listeners exactly once.
func TestEventDrainFiresListenersOnInjection(t *testing.T) {
	r, fw := newTestRuntime()
	mouseFired, keyFired := 0, 0
	r.Dispatcher().AddEventListener(events.MouseDown, func(any) { mouseFired++ })
	r.Dispatcher().AddEventListener(events.KeyDown, func(any) { keyFired++ })

	fw.sink.DispatchMouseDown(events.MouseEvent{ClientX: 10, ClientY: 20})
	fw.sink.DispatchKeyDown(events.KeyEvent{Key: "a", Code: "KeyA", KeyCode: 65})

	if mouseFired != 1 {
		t.Fatalf("expected mousedown listener to fire once, got %d", mouseFired)
	}
	if keyFired != 1 {
		t.Fatalf("expected keydown listener to fire once, got %d", keyFired)
	}
}
