// Package events implements the normalized mouse/keyboard/resize event
// surface (C11): a single dispatch into a per-event-type listener registry,
// click/contextmenu synthesis within a pixel threshold, and browser-style
// modifier and button-bit packing. Grounded in the teacher's
// engine/window.Window callback-registration shape, generalized from
// single-callback fields to a listener registry per event type.
package events

import "sync"

// EventType names one of the normalized event families delivered through
// Dispatcher.Dispatch.
type EventType string

const (
	MouseDown   EventType = "mousedown"
	MouseUp     EventType = "mouseup"
	MouseMove   EventType = "mousemove"
	Wheel       EventType = "wheel"
	Click       EventType = "click"
	ContextMenu EventType = "contextmenu"
	KeyDown     EventType = "keydown"
	KeyUp       EventType = "keyup"
	Resize      EventType = "resize"
)

// Button identifies a mouse button using standard browser numbering.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Modifiers packs the active modifier keys into browser-style bit flags.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModMeta
)

// ButtonBit returns the `buttons` bitmask bit for a given Button per
// standard browser semantics (left=1, right=2, middle=4), used by callers
// assembling a MouseEvent.Buttons snapshot from a pressed-button set.
func ButtonBit(b Button) uint8 {
	switch b {
	case ButtonLeft:
		return 1
	case ButtonRight:
		return 2
	case ButtonMiddle:
		return 4
	default:
		return 0
	}
}

// MouseEvent is the payload for mousedown/mouseup/mousemove/wheel/click/contextmenu.
type MouseEvent struct {
	Type      EventType
	ClientX   int32
	ClientY   int32
	Button    Button
	Buttons   uint8 // bitmask of currently-pressed buttons, browser semantics
	Modifiers Modifiers
	DeltaY    float32 // populated for Wheel only
}

// KeyEvent is the payload for keydown/keyup.
type KeyEvent struct {
	Type      EventType
	Key       string
	Code      string
	KeyCode   uint32
	Modifiers Modifiers
}

// ResizeEvent is the payload for the resize event.
type ResizeEvent struct {
	Width, Height int
}

// clickThresholdPixels is the maximum drift between a down-event and its
// matching up-event for a click/contextmenu to be synthesized (spec §4.11).
const clickThresholdPixels = 5

type pendingDown struct {
	x, y int32
}

// Dispatcher is the guest's listener registry: AddEventListener registers a
// callback per event type, Dispatch invokes every listener registered for
// that type in registration order. Mouse down/up events additionally feed
// click/contextmenu synthesis: DispatchMouseUp delivers the mouseup itself
// first and then any synthesized click or contextmenu, each through the same
// single dispatch operation (spec §4.11).
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[EventType][]func(any)
	downs     map[Button]pendingDown
}

// NewDispatcher returns an empty Dispatcher ready to accept listeners.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[EventType][]func(any)),
		downs:     make(map[Button]pendingDown),
	}
}

// AddEventListener registers fn to be called whenever an event of the given
// type is dispatched. Multiple listeners for the same type all fire, in
// registration order.
func (d *Dispatcher) AddEventListener(t EventType, fn func(payload any)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[t] = append(d.listeners[t], fn)
}

// Dispatch invokes every listener registered for t with payload.
func (d *Dispatcher) Dispatch(t EventType, payload any) {
	d.mu.Lock()
	fns := append([]func(any){}, d.listeners[t]...)
	d.mu.Unlock()
	for _, fn := range fns {
		fn(payload)
	}
}

// DispatchMouseDown delivers a mousedown event and records the down position
// for later click/contextmenu synthesis.
func (d *Dispatcher) DispatchMouseDown(e MouseEvent) {
	e.Type = MouseDown
	d.mu.Lock()
	d.downs[e.Button] = pendingDown{x: e.ClientX, y: e.ClientY}
	d.mu.Unlock()
	d.Dispatch(MouseDown, e)
}

// DispatchMouseUp delivers a mouseup event, then synthesizes a click (or,
// for the right button, a contextmenu) if the up position is within
// clickThresholdPixels of the recorded matching down position.
func (d *Dispatcher) DispatchMouseUp(e MouseEvent) {
	e.Type = MouseUp
	d.mu.Lock()
	down, ok := d.downs[e.Button]
	delete(d.downs, e.Button)
	d.mu.Unlock()

	d.Dispatch(MouseUp, e)

	if !ok {
		return
	}
	dx := e.ClientX - down.x
	dy := e.ClientY - down.y
	if abs32(dx) > clickThresholdPixels || abs32(dy) > clickThresholdPixels {
		return
	}
	if e.Button == ButtonRight {
		synth := e
		synth.Type = ContextMenu
		d.Dispatch(ContextMenu, synth)
		return
	}
	synth := e
	synth.Type = Click
	d.Dispatch(Click, synth)
}

// DispatchMouseMove delivers a mousemove event.
func (d *Dispatcher) DispatchMouseMove(e MouseEvent) {
	e.Type = MouseMove
	d.Dispatch(MouseMove, e)
}

// DispatchWheel delivers a wheel event.
func (d *Dispatcher) DispatchWheel(e MouseEvent) {
	e.Type = Wheel
	d.Dispatch(Wheel, e)
}

// DispatchKeyDown delivers a keydown event.
func (d *Dispatcher) DispatchKeyDown(e KeyEvent) {
	e.Type = KeyDown
	d.Dispatch(KeyDown, e)
}

// DispatchKeyUp delivers a keyup event.
func (d *Dispatcher) DispatchKeyUp(e KeyEvent) {
	e.Type = KeyUp
	d.Dispatch(KeyUp, e)
}

// DispatchResize delivers a resize event.
func (d *Dispatcher) DispatchResize(e ResizeEvent) {
	d.Dispatch(Resize, e)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
