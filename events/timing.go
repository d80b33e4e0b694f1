package events

import (
	"fmt"
	"time"
)

// Clock implements performance.now(): milliseconds elapsed since the clock
// was started (runtime start, per spec §4.11).
type Clock struct {
	start time.Time
}

// NewClock returns a Clock whose zero point is the current instant.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns milliseconds elapsed since the clock started.
func (c *Clock) Now() float64 {
	return float64(time.Since(c.start)) / float64(time.Millisecond)
}

// animationFrameSlots is the fixed number of pending requestAnimationFrame
// callbacks the scheduler holds at once (spec §5 "bounded (<=16 each)").
const animationFrameSlots = 16

// ErrSchedulerFull is returned by RequestAnimationFrame when all pending
// slots are occupied.
var ErrSchedulerFull = fmt.Errorf("events: animation frame scheduler at capacity (%d)", animationFrameSlots)

type frameSlot struct {
	occupied bool
	gen      uint32
	fn       func(timestampMillis float64)
}

// FrameID identifies a pending requestAnimationFrame registration so it can
// later be cancelled via CancelAnimationFrame.
type FrameID uint64

// AnimationFrameScheduler holds pending requestAnimationFrame callbacks in a
// fixed-size slot table. A slot occupied at Tick time fires exactly once and
// is released; a slot cancelled before the next Tick never fires.
type AnimationFrameScheduler struct {
	slots [animationFrameSlots]frameSlot
}

// NewAnimationFrameScheduler returns an empty scheduler.
func NewAnimationFrameScheduler() *AnimationFrameScheduler {
	return &AnimationFrameScheduler{}
}

func encodeFrameID(index int, gen uint32) FrameID {
	return FrameID(uint64(gen)<<32 | uint64(uint32(index)))
}

func decodeFrameID(id FrameID) (index int, gen uint32) {
	return int(uint32(id)), uint32(id >> 32)
}

// Request enqueues fn to fire on the next Tick call, returning a FrameID
// that can be passed to Cancel. Returns ErrSchedulerFull if every slot is
// currently occupied.
func (s *AnimationFrameScheduler) Request(fn func(timestampMillis float64)) (FrameID, error) {
	for i := range s.slots {
		if !s.slots[i].occupied {
			s.slots[i].occupied = true
			s.slots[i].gen++
			s.slots[i].fn = fn
			return encodeFrameID(i, s.slots[i].gen), nil
		}
	}
	return 0, ErrSchedulerFull
}

// Cancel releases the slot named by id, provided it is still occupied by
// the same registration (a stale id from an already-fired or already
// cancelled slot is a harmless no-op).
func (s *AnimationFrameScheduler) Cancel(id FrameID) {
	index, gen := decodeFrameID(id)
	if index < 0 || index >= animationFrameSlots {
		return
	}
	slot := &s.slots[index]
	if slot.occupied && slot.gen == gen {
		slot.occupied = false
		slot.fn = nil
	}
}

// Tick fires every occupied slot's callback exactly once with ts, then
// releases it. Callbacks registered during Tick (e.g. a callback that
// itself calls Request) are not fired until the following Tick.
func (s *AnimationFrameScheduler) Tick(timestampMillis float64) {
	var fired [animationFrameSlots]func(float64)
	n := 0
	for i := range s.slots {
		if s.slots[i].occupied {
			fired[n] = s.slots[i].fn
			n++
			s.slots[i].occupied = false
			s.slots[i].fn = nil
		}
	}
	for i := 0; i < n; i++ {
		fired[i](timestampMillis)
	}
}
