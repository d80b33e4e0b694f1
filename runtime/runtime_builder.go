package runtime

import (
	"github.com/webglnative/runtime/profiler"
	"github.com/webglnative/runtime/window"
)

// Option is a functional option for configuring a Runtime at construction
// time, mirroring the source's EngineBuilderOption pattern.
type Option func(*Runtime)

// WithWindow supplies a pre-constructed window rather than letting New
// create and own one internally. Used by tests to substitute a window that
// never opens a real platform surface.
func WithWindow(w window.Window) Option {
	return func(r *Runtime) {
		r.window = w
	}
}

// WithDebugProfiler enables or disables the per-second profiler log line
// independently of Config.Debug.
func WithDebugProfiler(enabled bool) Option {
	return func(r *Runtime) {
		if enabled && r.profiler == nil {
			r.profiler = profiler.NewProfiler()
		} else if !enabled {
			r.profiler = nil
		}
	}
}
