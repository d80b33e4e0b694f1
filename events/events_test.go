package events

import "testing"

func TestClickSynthesizedWithinThreshold(t *testing.T) {
	d := NewDispatcher()
	var sawClick, sawUp bool
	d.AddEventListener(Click, func(any) { sawClick = true })
	d.AddEventListener(MouseUp, func(any) { sawUp = true })

	d.DispatchMouseDown(MouseEvent{ClientX: 100, ClientY: 100, Button: ButtonLeft})
	d.DispatchMouseUp(MouseEvent{ClientX: 103, ClientY: 98, Button: ButtonLeft})

	if !sawUp {
		t.Fatal("expected mouseup listener to fire")
	}
	if !sawClick {
		t.Fatal("expected a click to be synthesized within the 5px threshold")
	}
}

func TestClickSuppressedBeyondThreshold(t *testing.T) {
	d := NewDispatcher()
	var sawClick bool
	d.AddEventListener(Click, func(any) { sawClick = true })

	d.DispatchMouseDown(MouseEvent{ClientX: 0, ClientY: 0, Button: ButtonLeft})
	d.DispatchMouseUp(MouseEvent{ClientX: 10, ClientY: 0, Button: ButtonLeft})

	if sawClick {
		t.Fatal("expected no click beyond the 5px threshold")
	}
}

func TestContextMenuSynthesizedForRightButton(t *testing.T) {
	d := NewDispatcher()
	var sawContextMenu, sawClick bool
	d.AddEventListener(ContextMenu, func(any) { sawContextMenu = true })
	d.AddEventListener(Click, func(any) { sawClick = true })

	d.DispatchMouseDown(MouseEvent{ClientX: 50, ClientY: 50, Button: ButtonRight})
	d.DispatchMouseUp(MouseEvent{ClientX: 51, ClientY: 50, Button: ButtonRight})

	if !sawContextMenu {
		t.Fatal("expected contextmenu to be synthesized for the right button")
	}
	if sawClick {
		t.Fatal("expected no click to be synthesized for the right button")
	}
}

func TestKeyAndResizeDispatch(t *testing.T) {
	d := NewDispatcher()
	var key KeyEvent
	var resize ResizeEvent
	d.AddEventListener(KeyDown, func(p any) { key = p.(KeyEvent) })
	d.AddEventListener(Resize, func(p any) { resize = p.(ResizeEvent) })

	d.DispatchKeyDown(KeyEvent{Key: "w", Code: "KeyW", KeyCode: 87})
	d.DispatchResize(ResizeEvent{Width: 1024, Height: 768})

	if key.Key != "w" || key.KeyCode != 87 {
		t.Fatalf("unexpected key event: %+v", key)
	}
	if resize.Width != 1024 || resize.Height != 768 {
		t.Fatalf("unexpected resize event: %+v", resize)
	}
}

func TestAnimationFrameFiresOnceAndIsReleased(t *testing.T) {
	s := NewAnimationFrameScheduler()
	calls := 0
	var seenTS float64
	if _, err := s.Request(func(ts float64) {
		calls++
		seenTS = ts
	}); err != nil {
		t.Fatalf("Request: %v", err)
	}

	s.Tick(16.6)
	if calls != 1 {
		t.Fatalf("expected the callback to fire exactly once, fired %d times", calls)
	}
	if seenTS != 16.6 {
		t.Fatalf("expected the frame timestamp to be passed through, got %v", seenTS)
	}

	s.Tick(33.2)
	if calls != 1 {
		t.Fatalf("expected the callback not to be retained after firing, fired %d times total", calls)
	}
}

func TestCancelAnimationFramePreventsFiring(t *testing.T) {
	s := NewAnimationFrameScheduler()
	calls := 0
	id, err := s.Request(func(float64) { calls++ })
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	s.Cancel(id)
	s.Tick(16.6)
	if calls != 0 {
		t.Fatal("expected cancelled callback not to fire")
	}
}

func TestAnimationFrameSchedulerEnforcesCapacity(t *testing.T) {
	s := NewAnimationFrameScheduler()
	for i := 0; i < animationFrameSlots; i++ {
		if _, err := s.Request(func(float64) {}); err != nil {
			t.Fatalf("Request %d: %v", i, err)
		}
	}
	if _, err := s.Request(func(float64) {}); err != ErrSchedulerFull {
		t.Fatalf("expected ErrSchedulerFull once capacity is reached, got %v", err)
	}
}
