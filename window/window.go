// Package window provides platform windowing and input-event delivery,
// adapted from the teacher's engine/window package but emitting the richer
// mouse/keyboard/resize event payloads (button identity, modifier flags,
// click/contextmenu synthesis inputs) the event surface (C11) needs,
// instead of the teacher's narrower middle-mouse-only callback set.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/webglnative/runtime/events"
)

// EventSink receives normalized input events from a Window. *events.Dispatcher
// satisfies this interface directly.
type EventSink interface {
	DispatchMouseDown(events.MouseEvent)
	DispatchMouseUp(events.MouseEvent)
	DispatchMouseMove(events.MouseEvent)
	DispatchWheel(events.MouseEvent)
	DispatchKeyDown(events.KeyEvent)
	DispatchKeyUp(events.KeyEvent)
	DispatchResize(events.ResizeEvent)
}

// Window provides platform windowing and input event handling. Wraps
// platform-specific window implementations with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	SetUpdateCallback(callback func())

	// SetEventSink registers the sink all normalized input events are
	// delivered to. Replaces any previously registered sink.
	SetEventSink(sink EventSink)

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for
	// creating a WebGPU surface, built by the wgpuglfw bridge.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	Close() error

	// ProcessMessages runs the window message loop. Blocks until the window
	// is closed. Calls the update callback once per iteration.
	ProcessMessages()

	// Width returns the current window client area width in pixels.
	Width() int

	// Height returns the current window client area height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	maxWidth, maxHeight int
	minWidth, minHeight int
	width, height        int

	internalWindow any

	onUpdate func()
	sink     EventSink

	// pressedButtons tracks the standard browser `buttons` bitmask of
	// currently-held mouse buttons, used to populate MouseEvent.Buttons.
	pressedButtons uint8
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options. Applies
// default values first, then each option in order.
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "Default Window Title",
		maxWidth:  1600,
		maxHeight: 1200,
		minWidth:  600,
		minHeight: 200,
		width:     800,
		height:    600,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetEventSink(sink EventSink) {
	w.sink = sink
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int  { return w.width }
func (w *engineWindow) Height() int { return w.height }
