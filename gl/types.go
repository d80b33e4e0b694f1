// Package gl implements the WebGL-subset graphics surface: the buffer,
// shader, program, and texture stores (C3/C4/C6/C7), the draw-state
// machine and command queue (C8), and the pipeline cache (C9). It is the
// core the script bridge (package bridge) drives and the one component
// that is allowed to talk to both the handle tables and the backend.
package gl

import (
	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/glsl"
	"github.com/webglnative/runtime/handle"
	"github.com/webglnative/runtime/staging"
)

// Fixed per-context table capacities (spec §3).
const (
	MaxBuffers  = 256
	MaxShaders  = 128
	MaxPrograms = 64
	MaxTextures = 256

	// MaxQueuedCommands bounds the recorded draw-command queue (spec §4.8);
	// a flush drains it completely, so this only bounds how much work can
	// be recorded between two flushes.
	MaxQueuedCommands = 64

	// PipelineCacheSlots is the direct-mapped pipeline cache's fixed table
	// size (spec §4.9).
	PipelineCacheSlots = 64
)

// Target distinguishes the GL bind targets a Buffer can be bound to.
type Target int

const (
	TargetArrayBuffer Target = iota
	TargetElementArrayBuffer
)

// Usage distinguishes the GL usage hints bufferData locks a buffer to on
// first upload (spec §4.3's "usage-lock invariant": once a buffer has
// received data, its usage hint cannot change).
type Usage int

const (
	UsageStaticDraw Usage = iota
	UsageDynamicDraw
	UsageStreamDraw
)

// Buffer is the C3 entity: a CPU staging region mirrored (lazily) into a
// backend buffer object.
type Buffer struct {
	target      Target
	usage       Usage
	usageLocked bool
	region      staging.Region
	size        int
	dirty       bool
	backendBuf  backend.BufferHandle
	hasBackend  bool
}

// CompileStatus is the outcome of Context.CompileShader.
type CompileStatus int

const (
	CompileUnknown CompileStatus = iota
	CompileSuccess
	CompileFailure
)

// ShaderEntity is the C4 entity: ES source plus its translated desktop-GLSL
// counterpart once CompileShader has run.
type ShaderEntity struct {
	stage      glsl.Stage
	source     string
	translated *glsl.ParseResult
	status     CompileStatus
	infoLog    string
}

// Texture is the C7 entity. texImage2D only records the guest's raw pixel
// buffer and source format (pendingWidth/Height/Format/Pixels); the format
// conversion policy runs per-texture at flush time, in parallel across
// dirty textures, and its output lands in the staging pool referenced by
// width/height/format/region.
type Texture struct {
	pendingWidth, pendingHeight int
	pendingFormat               SourceFormat
	pendingPixels               []byte

	width, height int
	format        backend.PixelFormat
	cube          bool
	targetLocked  bool
	region        staging.Region
	hasPixels     bool
	dirtyPixels   bool
	dirtyParams   bool
	sampler       backend.SamplerDescriptor
	backendImage  backend.ImageHandle
	backendView   backend.ViewHandle
	backendSamp   backend.SamplerHandle
	hasBackend    bool
}

// UniformKind distinguishes how a uniform setter call is staged until
// flush: scalar, vector and mat4 uniforms are memcpy'd straight into the
// stage's persisted uniform-block bytes, mat2/mat3 uniforms go out-of-band
// through the backend's native uniform-location path (spec §4.6, §4.9).
type UniformKind int

const (
	UniformKindBlockMember UniformKind = iota
	UniformKindMatrix
	UniformKindSampler
)

// EncodedLocation packs a uniform's kind (high 8 bits) and its index in the
// program's uniform table (low 24 bits) into the opaque location value
// getUniformLocation returns to the guest (spec §4.6 "encoded uniform
// locations"). The owning stage(s) are not encoded in the value; setters
// read them from the table entry the index names.
type EncodedLocation uint32

func encodeLocation(kind UniformKind, index int) EncodedLocation {
	return EncodedLocation(uint32(kind)<<24 | uint32(index&0xFFFFFF))
}

func (l EncodedLocation) kind() UniformKind  { return UniformKind(l >> 24) }
func (l EncodedLocation) index() int         { return int(l & 0xFFFFFF) }

// programUniform is one member of a linked Program's uniform union: the
// merged, per-stage-filtered view produced by the link algorithm.
type programUniform struct {
	name        string
	typ         glsl.UniformType
	arrayCount  int
	inVertex    bool
	inFragment  bool
	vertexDesc  glsl.UniformDescriptor // offsets valid only if inVertex
	fragDesc    glsl.UniformDescriptor // offsets valid only if inFragment
	matrixLoc   backend.UniformLocation
	hasMatrix   bool

	pendingMatrix    []float32
	hasPendingMatrix bool
}

// programSampler is one sampler union member of a linked Program.
type programSampler struct {
	name  string
	kind  glsl.SamplerKind
	stage glsl.Stage
	unit  int
}

// Program is the C6 entity produced by linking a vertex and fragment
// ShaderEntity together.
type Program struct {
	vertex, fragment handle.Handle
	linked           bool
	infoLog          string

	uniforms   []programUniform
	samplers   []programSampler
	attributes []string

	vertexBlockSize   int
	fragmentBlockSize int
	vertexBlockBytes  []byte
	fragmentBlockBytes []byte

	backendVertex   backend.ShaderHandle
	backendFragment backend.ShaderHandle
	pipeline        backend.PipelineHandle
	hasPipeline     bool
}
