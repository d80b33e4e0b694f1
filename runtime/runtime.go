// Package runtime is the executable entry point's owner of the whole
// graphics surface: it composes a window, a GPU backend, a gl.Context, the
// script bridge, the event/timing surface, and the debug profiler into a
// single value, and drives the single-threaded cooperative frame loop named
// in spec §5. Adapted from the teacher's engine package, but replacing its
// three-goroutine tick/render/quit model with one update callback run on the
// window's own message-loop thread, per DESIGN.md's resolution of that Open
// Question: the core has no suspension points, so there is nothing for a
// second goroutine to usefully own.
package runtime

import (
	"log"
	"sync"
	"time"

	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/bridge"
	"github.com/webglnative/runtime/events"
	"github.com/webglnative/runtime/gl"
	"github.com/webglnative/runtime/profiler"
	"github.com/webglnative/runtime/window"
)

// Config is the startup configuration surface named in spec §6 ("Persisted
// state: none ... Configuration at startup: window size (default 800x600),
// title string, high-DPI flag, target frame rate (0 = vsync)").
type Config struct {
	Width, Height   int
	Title           string
	HighDPI         bool
	TargetFrameRate float64 // frames per second; 0 = uncapped/vsync
	Debug           bool    // enables the profiler's per-second log line
}

// Runtime owns every instance field the source's process-wide singletons
// (handle tables, pipeline cache, script bridge) were flattened into, per
// DESIGN.md's "Global mutable state" decision: one Runtime value, passed
// explicitly to the executable entry point, with no package-level state.
type Runtime struct {
	window     window.Window
	backend    backend.Backend
	ctx        *gl.Context
	dispatcher *events.Dispatcher
	clock      *events.Clock
	rafs       *events.AnimationFrameScheduler
	bridge     *bridge.Bridge
	profiler   *profiler.Profiler

	debug      bool
	frameLimit time.Duration
	lastFrame  time.Time

	quitOnce sync.Once

	tickCallback func(deltaTime float32)
}

// New constructs a Runtime from cfg and a concrete GPU backend. The backend
// is supplied by the caller (cmd/demo wires backend/wgpu.Backend) rather
// than constructed here, since surface creation depends on the platform
// window's own handle — mirroring the source's "dynamic dispatch over
// backend" design note: the runtime only ever sees the backend.Backend
// interface. Pass WithWindow to substitute a pre-built window (tests); by
// default New opens a real platform window sized per cfg.
func New(cfg Config, b backend.Backend, opts ...Option) *Runtime {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 600
	}
	if cfg.Title == "" {
		cfg.Title = "Default Window Title"
	}

	dispatcher := events.NewDispatcher()
	clock := events.NewClock()
	rafs := events.NewAnimationFrameScheduler()
	ctx := gl.NewContext(b)
	br := bridge.New(ctx, dispatcher, clock, rafs)

	r := &Runtime{
		backend:    b,
		ctx:        ctx,
		dispatcher: dispatcher,
		clock:      clock,
		rafs:       rafs,
		bridge:     br,
		debug:      cfg.Debug,
		lastFrame:  time.Now(),
	}
	if cfg.Debug {
		r.profiler = profiler.NewProfiler()
	}
	r.SetFrameRateLimit(cfg.TargetFrameRate)

	for _, opt := range opts {
		opt(r)
	}

	if r.window == nil {
		r.window = window.NewWindow(
			window.WithTitle(cfg.Title),
			window.WithWidth(cfg.Width),
			window.WithHeight(cfg.Height),
		)
	}
	r.window.SetEventSink(dispatcher)

	return r
}

// Window returns the runtime's window.
func (r *Runtime) Window() window.Window { return r.window }

// Context returns the runtime's gl.Context, the component every C1-C9
// operation in spec §4 flows through.
func (r *Runtime) Context() *gl.Context { return r.ctx }

// Bridge returns the script-facing bridge (C10) an embedding script engine
// registers as its native call surface.
func (r *Runtime) Bridge() *bridge.Bridge { return r.bridge }

// Dispatcher returns the event listener registry (C11) that addEventListener
// on the guest's global registers against.
func (r *Runtime) Dispatcher() *events.Dispatcher { return r.dispatcher }

// Clock returns the performance.now() clock (C11).
func (r *Runtime) Clock() *events.Clock { return r.clock }

// AnimationFrameScheduler returns the requestAnimationFrame/cancelAnimationFrame
// bookkeeping (C11).
func (r *Runtime) AnimationFrameScheduler() *events.AnimationFrameScheduler { return r.rafs }

// SetTickCallback registers the function called once per frame, after
// animation-frame callbacks have fired and before the frame's queued
// commands are flushed. This is where an embedding script engine drives the
// guest's per-frame execution (spec §5's "frame tick").
func (r *Runtime) SetTickCallback(callback func(deltaTime float32)) {
	r.tickCallback = callback
}

// SetFrameRateLimit sets an optional frame rate cap. Pass 0 to uncap
// (vsync/uncapped), matching the source's render-frame-limit option.
func (r *Runtime) SetFrameRateLimit(fps float64) {
	if fps <= 0 {
		r.frameLimit = 0
		return
	}
	r.frameLimit = time.Second / time.Duration(fps)
}

// Run starts the window's message loop, blocking until the window closes.
// Each iteration drives exactly one frame via Tick.
func (r *Runtime) Run() {
	r.window.SetUpdateCallback(r.frame)
	r.window.ProcessMessages()
}

// Quit closes the window, ending Run's message loop on its next iteration.
// Safe to call multiple times; subsequent calls are no-ops.
func (r *Runtime) Quit() error {
	var err error
	r.quitOnce.Do(func() {
		err = r.window.Close()
	})
	return err
}

// frame runs one full cooperative tick: animation frames fire, the guest's
// tick callback runs, the frame's queued draw commands flush to the
// backend, and the debug profiler (if enabled) records the frame's
// pipeline-cache bookkeeping. Called once per window message-loop
// iteration; never reentrant, never suspended (spec §5).
func (r *Runtime) frame() {
	now := time.Now()
	dt := float32(now.Sub(r.lastFrame).Seconds())
	r.lastFrame = now

	r.rafs.Tick(r.clock.Now())

	if r.tickCallback != nil {
		r.tickCallback(dt)
	}

	if err := r.ctx.Flush(); err != nil {
		log.Printf("runtime: flush error: %v", err)
	}

	if r.profiler != nil {
		hits, misses, evictions := r.ctx.PipelineCacheStats()
		r.profiler.RecordPipelineCacheStats(uint64(hits), uint64(misses), uint64(evictions))
		r.profiler.Tick()
	}

	if r.frameLimit > 0 {
		if elapsed := time.Since(now); elapsed < r.frameLimit {
			time.Sleep(r.frameLimit - elapsed)
		}
	}
}

// Tick runs exactly one frame outside of Run's message loop, for tests and
// headless hosts driving the runtime without a live window.
func (r *Runtime) Tick() {
	r.frame()
}
