// Package bridge implements the script bridge (C10): a fixed export table
// wiring untyped script calls into the gl package's typed API, plus the
// globals (performance.now, requestAnimationFrame, cancelAnimationFrame,
// addEventListener) spec §6 names. Every exported method validates its
// argument list, translates numeric handles to typed handles, and turns a
// core failure into the structured *Error the guest sees instead of a raw
// Go error.
package bridge

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/events"
	"github.com/webglnative/runtime/gl"
	"github.com/webglnative/runtime/glsl"
)

// ScriptEngine is the inbound collaborator boundary spec §6 describes:
// context creation with a per-context opaque slot, property registration on
// global objects, exception raising, GC-rooted callable references for
// animation-frame/timeout callbacks, and eval for the guest bundle. Hosting
// a real script engine is an explicit Non-goal (spec §1); this interface
// exists only to name the shape a concrete embedding (e.g. a QuickJS or V8
// binding) would have to satisfy to drive a Bridge.
type ScriptEngine interface {
	// RegisterGlobal installs name on the global object, bound to fn.
	RegisterGlobal(name string, fn func(args Args) (any, error))
	// Throw raises msg as a guest-visible exception of the given kind.
	Throw(kind Kind, msg string)
	// Eval executes a guest bundle's bytes under a given name, used both for
	// the Three.js build and for installing the thin DOM/GL facade.
	Eval(source []byte, name string) error
}

// Bridge wires C1–C9 (via a *gl.Context) and C11 (via the events package)
// into the fixed exported surface a guest script sees. It holds only the
// context, dispatcher, clock and scheduler pointers passed to New and owns
// none of them.
type Bridge struct {
	ctx        *gl.Context
	dispatcher *events.Dispatcher
	clock      *events.Clock
	rafs       *events.AnimationFrameScheduler
}

// New constructs a Bridge over an already-configured context, event
// dispatcher, clock, and animation-frame scheduler.
func New(ctx *gl.Context, dispatcher *events.Dispatcher, clock *events.Clock, rafs *events.AnimationFrameScheduler) *Bridge {
	return &Bridge{ctx: ctx, dispatcher: dispatcher, clock: clock, rafs: rafs}
}

// --- Buffers (C3) -----------------------------------------------------

func (b *Bridge) CreateBuffer(args Args) (any, error) {
	if err := args.Expect(0); err != nil {
		return nil, err
	}
	h, err := b.ctx.CreateBuffer()
	if err != nil {
		return nil, translateCoreError(err)
	}
	return uint32(h), nil
}

func (b *Bridge) BindBuffer(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	target, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	h, err := args.Handle(1)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.BindBuffer(gl.Target(target), h); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) BufferData(args Args) (any, error) {
	if err := args.Expect(3); err != nil {
		return nil, err
	}
	target, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	data, err := args.Bytes(1)
	if err != nil {
		return nil, err
	}
	usage, err := args.Int(2)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.BufferData(gl.Target(target), data, gl.Usage(usage)); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) BufferSubData(args Args) (any, error) {
	if err := args.Expect(3); err != nil {
		return nil, err
	}
	target, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	byteOffset, err := args.Int(1)
	if err != nil {
		return nil, err
	}
	data, err := args.Bytes(2)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.BufferSubData(gl.Target(target), byteOffset, data); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) DeleteBuffer(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	h, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.DeleteBuffer(h); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// --- Shaders (C4) -------------------------------------------------------

func (b *Bridge) CreateShader(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	stage, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	h, err := b.ctx.CreateShader(glsl.Stage(stage))
	if err != nil {
		return nil, translateCoreError(err)
	}
	return uint32(h), nil
}

func (b *Bridge) ShaderSource(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	h, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	src, err := args.String(1)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.ShaderSource(h, src); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// CompileShader never throws on a compile failure (spec §7 "Link/compile
// errors ... never thrown; guest queries them explicitly"): a non-nil error
// here means the shader handle itself was invalid, not that compilation
// failed. Compile failures are recorded in the shader's info-log and
// surfaced via GetShaderCompileStatus/GetShaderInfoLog.
func (b *Bridge) CompileShader(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	h, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.CompileShader(h); errors.Is(err, gl.ErrInvalidHandle) {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) GetShaderInfoLog(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	h, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	log, err := b.ctx.GetShaderInfoLog(h)
	if err != nil {
		return nil, translateCoreError(err)
	}
	return log, nil
}

func (b *Bridge) DeleteShader(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	h, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.DeleteShader(h); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// --- Programs (C6) -------------------------------------------------------

func (b *Bridge) CreateProgram(args Args) (any, error) {
	if err := args.Expect(0); err != nil {
		return nil, err
	}
	h, err := b.ctx.CreateProgram()
	if err != nil {
		return nil, translateCoreError(err)
	}
	return uint32(h), nil
}

func (b *Bridge) AttachShader(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	p, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	sh, err := args.Handle(1)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.AttachShader(p, sh); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// LinkProgram never throws on a link failure, matching CompileShader.
func (b *Bridge) LinkProgram(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	p, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	_ = b.ctx.LinkProgram(p)
	return nil, nil
}

func (b *Bridge) UseProgram(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	p, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.UseProgram(p); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) GetUniformLocation(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	p, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	name, err := args.String(1)
	if err != nil {
		return nil, err
	}
	loc, err := b.ctx.GetUniformLocation(p, name)
	if err != nil {
		return nil, translateCoreError(err)
	}
	return uint32(loc), nil
}

func (b *Bridge) GetAttribLocation(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	p, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	name, err := args.String(1)
	if err != nil {
		return nil, err
	}
	loc, err := b.ctx.GetAttribLocation(p, name)
	if err != nil {
		return nil, translateCoreError(err)
	}
	return loc, nil
}

func (b *Bridge) DeleteProgram(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	p, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.DeleteProgram(p); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// --- Uniforms (C6) -------------------------------------------------------

func (b *Bridge) Uniform1f(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	loc, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	v, err := args.Float64(1)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.Uniform1f(gl.EncodedLocation(loc), float32(v)); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) Uniform3f(args Args) (any, error) {
	if err := args.Expect(4); err != nil {
		return nil, err
	}
	loc, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	x, err := args.Float64(1)
	if err != nil {
		return nil, err
	}
	y, err := args.Float64(2)
	if err != nil {
		return nil, err
	}
	z, err := args.Float64(3)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.Uniform3f(gl.EncodedLocation(loc), float32(x), float32(y), float32(z)); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) UniformMatrix4fv(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	loc, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	raw, err := args.Bytes(1)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.UniformMatrix4fv(gl.EncodedLocation(loc), bytesToFloat32(raw)); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// --- Draw state & command queue (C8) ------------------------------------

func (b *Bridge) EnableVertexAttribArray(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	loc, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.EnableVertexAttribArray(loc); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) VertexAttribPointer(args Args) (any, error) {
	if err := args.Expect(5); err != nil {
		return nil, err
	}
	loc, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	components, err := args.Int(1)
	if err != nil {
		return nil, err
	}
	byteOffset, err := args.Int(2)
	if err != nil {
		return nil, err
	}
	byteStride, err := args.Int(3)
	if err != nil {
		return nil, err
	}
	normalized, err := args.Bool(4)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.VertexAttribPointer(loc, components, byteOffset, byteStride, normalized); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) DrawArrays(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	count, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.DrawArrays(count); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) DrawElements(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	count, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	byteOffset, err := args.Int(1)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.DrawElements(count, byteOffset, backend.IndexTypeUint16); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// Flush drains and executes the recorded command queue (spec §5 "flushed
// in insertion order at the end of that frame") when a guest asks for it.
// Runtime's own per-tick flush calls gl.Context.Flush directly, not this
// method.
func (b *Bridge) Flush(args Args) (any, error) {
	if err := args.Expect(0); err != nil {
		return nil, err
	}
	if err := b.ctx.Flush(); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// --- Textures (C7) -------------------------------------------------------

func (b *Bridge) CreateTexture(args Args) (any, error) {
	if err := args.Expect(0); err != nil {
		return nil, err
	}
	h, err := b.ctx.CreateTexture()
	if err != nil {
		return nil, translateCoreError(err)
	}
	return uint32(h), nil
}

func (b *Bridge) BindTexture(args Args) (any, error) {
	if err := args.Expect(2); err != nil {
		return nil, err
	}
	h, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	cube, err := args.Bool(1)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.BindTexture(h, cube); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) ActiveTexture(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	unit, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.ActiveTexture(unit); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) TexImage2D(args Args) (any, error) {
	if err := args.Expect(4); err != nil {
		return nil, err
	}
	width, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	height, err := args.Int(1)
	if err != nil {
		return nil, err
	}
	format, err := args.Int(2)
	if err != nil {
		return nil, err
	}
	pixels, err := args.Bytes(3)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.TexImage2D(width, height, gl.SourceFormat(format), pixels); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// TexParameteri sets the sampling parameters for the currently bound
// texture (spec §4.7's tex_parameteri surface), coerced to concrete values
// at flush time by the texture manager.
func (b *Bridge) TexParameteri(args Args) (any, error) {
	if err := args.Expect(4); err != nil {
		return nil, err
	}
	min, err := args.Int(0)
	if err != nil {
		return nil, err
	}
	mag, err := args.Int(1)
	if err != nil {
		return nil, err
	}
	wrapS, err := args.Int(2)
	if err != nil {
		return nil, err
	}
	wrapT, err := args.Int(3)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.TexParameteri(backend.FilterMode(min), backend.FilterMode(mag), backend.WrapMode(wrapS), backend.WrapMode(wrapT)); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

func (b *Bridge) DeleteTexture(args Args) (any, error) {
	if err := args.Expect(1); err != nil {
		return nil, err
	}
	h, err := args.Handle(0)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.DeleteTexture(h); err != nil {
		return nil, translateCoreError(err)
	}
	return nil, nil
}

// --- Globals (performance/requestAnimationFrame, C11) --------------------

// PerformanceNow implements performance.now(): milliseconds since runtime start.
func (b *Bridge) PerformanceNow(args Args) (any, error) {
	if err := args.Expect(0); err != nil {
		return nil, err
	}
	return b.clock.Now(), nil
}

// RequestAnimationFrame enqueues fn to fire on the next frame tick.
func (b *Bridge) RequestAnimationFrame(fn func(timestampMillis float64)) (events.FrameID, error) {
	return b.rafs.Request(fn)
}

// CancelAnimationFrame cancels a pending RequestAnimationFrame registration.
func (b *Bridge) CancelAnimationFrame(id events.FrameID) {
	b.rafs.Cancel(id)
}

// AddEventListener registers fn against the dispatcher for the given event
// type, wiring addEventListener (spec §6) into C11's listener registry.
func (b *Bridge) AddEventListener(eventType events.EventType, fn func(payload any)) {
	b.dispatcher.AddEventListener(eventType, fn)
}

// bytesToFloat32 reinterprets a little-endian Float32Array's backing bytes
// (as a script engine would hand them across the bridge) into a []float32.
func bytesToFloat32(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
