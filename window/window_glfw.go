package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/webglnative/runtime/events"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	running bool
}

func translateModifiers(mods glfw.ModifierKey) events.Modifiers {
	var m events.Modifiers
	if mods&glfw.ModShift != 0 {
		m |= events.ModShift
	}
	if mods&glfw.ModControl != 0 {
		m |= events.ModControl
	}
	if mods&glfw.ModAlt != 0 {
		m |= events.ModAlt
	}
	if mods&glfw.ModSuper != 0 {
		m |= events.ModMeta
	}
	return m
}

func translateButton(b glfw.MouseButton) events.Button {
	switch b {
	case glfw.MouseButtonRight:
		return events.ButtonRight
	case glfw.MouseButtonMiddle:
		return events.ButtonMiddle
	default:
		return events.ButtonLeft
	}
}

// newPlatformWindow creates the GLFW window with input callbacks and stores
// it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}

	gw := &glfwWindow{parent: w, window: win, running: true}
	w.internalWindow = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.running = false
			win.SetShouldClose(true)
			return
		}
		if w.sink == nil {
			return
		}
		keyName := glfw.GetKeyName(key, scancode)
		if keyName == "" {
			keyName = key.String()
		}
		evt := events.KeyEvent{
			Key:       keyName,
			Code:      key.String(),
			KeyCode:   uint32(key),
			Modifiers: translateModifiers(mods),
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			w.sink.DispatchKeyDown(evt)
		case glfw.Release:
			w.sink.DispatchKeyUp(evt)
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		if w.sink == nil {
			return
		}
		xpos, ypos := win.GetCursorPos()
		w.sink.DispatchWheel(events.MouseEvent{
			ClientX: int32(xpos),
			ClientY: int32(ypos),
			Buttons: w.pressedButtons,
			DeltaY:  float32(yoff),
		})
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		btn := translateButton(button)
		bit := events.ButtonBit(btn)
		switch action {
		case glfw.Press:
			w.pressedButtons |= bit
		case glfw.Release:
			w.pressedButtons &^= bit
		}
		if w.sink == nil {
			return
		}
		xpos, ypos := win.GetCursorPos()
		evt := events.MouseEvent{
			ClientX:   int32(xpos),
			ClientY:   int32(ypos),
			Button:    btn,
			Buttons:   w.pressedButtons,
			Modifiers: translateModifiers(mods),
		}
		switch action {
		case glfw.Press:
			w.sink.DispatchMouseDown(evt)
		case glfw.Release:
			w.sink.DispatchMouseUp(evt)
		}
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if w.sink == nil {
			return
		}
		w.sink.DispatchMouseMove(events.MouseEvent{
			ClientX: int32(xpos),
			ClientY: int32(ypos),
			Buttons: w.pressedButtons,
		})
	})

	// Use framebuffer size callback for pixel-accurate resize events. On
	// high-DPI displays the framebuffer size differs from the window size;
	// the renderer requires pixel dimensions for correct surface configuration.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.sink != nil {
			w.sink.DispatchResize(events.ResizeEvent{Width: width, Height: height})
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// platformGetSurfaceDescriptor creates a platform-appropriate
// wgpu.SurfaceDescriptor from the GLFW window via the wgpuglfw bridge.
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	gw := w.internalWindow.(*glfwWindow)
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

func platformIsRunningCheck(w *engineWindow) bool {
	if w.internalWindow == nil {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	return gw.running && !gw.window.ShouldClose()
}

func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	return nil
}

func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
