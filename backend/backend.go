// Package backend defines the abstract GPU backend contract the WebGL shim
// drives at flush time. A Backend owns no knowledge of the shim's handle
// tables, translation, or command queue; it only turns already-resolved
// descriptors into GPU resources and draw calls. See spec §6 "Outbound
// interface (runtime -> backend)".
package backend

import "errors"

// ErrUnsupported is returned by a Backend method that has no meaningful
// implementation for the requested combination of parameters (for example,
// a pipeline descriptor naming a blend mode the backend cannot express).
var ErrUnsupported = errors.New("backend: unsupported operation")

// BufferHandle, ImageHandle, ViewHandle, SamplerHandle, ShaderHandle, and
// PipelineHandle are opaque backend-owned resource identifiers. The shim
// never inspects their value; it only threads them back into later calls.
type (
	BufferHandle   uint64
	ImageHandle    uint64
	ViewHandle     uint64
	SamplerHandle  uint64
	ShaderHandle   uint64
	PipelineHandle uint64
)

// UniformLocation identifies where a uniform's bytes live within a linked
// pipeline's uniform storage. Its encoding is backend-specific; the shim
// only compares it for equality and threads it back into UniformMatrix*fv.
type UniformLocation uint64

// BufferUsage mirrors the WebGL buffer-target/usage distinctions the shim's
// buffer store (C3) cares about.
type BufferUsage int

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageUniform
)

// PixelFormat is the backend-facing, already-normalized pixel format: the
// shim's texture manager (C7) has already applied the RGB->RGBA and
// LUMINANCE->R8 widening policy before a PixelFormat ever reaches a
// Backend.
type PixelFormat int

const (
	PixelFormatRGBA8 PixelFormat = iota
	PixelFormatR8
	PixelFormatRG8
)

// ImageDescriptor describes a 2D or cube texture's immutable shape.
type ImageDescriptor struct {
	Width, Height int
	Format        PixelFormat
	Cube          bool
	Mipmapped     bool
}

// SamplerDescriptor describes texture sampling parameters (spec §4.7's
// tex_parameteri surface, coerced to concrete values at flush time).
type SamplerDescriptor struct {
	MinFilter, MagFilter FilterMode
	WrapS, WrapT         WrapMode
}

type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
	FilterLinearMipmapLinear
)

type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// ShaderStage distinguishes the vertex and fragment halves of a program.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

// UniformBlockLayout is the std140 layout the shim's translator (C5)
// computed for one stage's uniform block, handed to MakePipeline so the
// backend can size its persisted uniform buffer.
type UniformBlockLayout struct {
	Stage     ShaderStage
	ByteSize  int
	Uniforms  []UniformBlockMember
}

// UniformBlockMember names one member of a UniformBlockLayout.
type UniformBlockMember struct {
	Name       string
	ByteOffset int
	ByteSize   int
}

// PipelineDescriptor is everything MakePipeline needs to build a renderable
// pipeline: the two compiled shader stages, their uniform block layouts,
// the vertex attribute layout, and the draw state's blend/depth/cull
// configuration at the moment the pipeline was requested (spec §4.9).
type PipelineDescriptor struct {
	VertexShader   ShaderHandle
	FragmentShader ShaderHandle
	VertexLayout   []VertexAttribute
	UniformBlocks  []UniformBlockLayout
	SamplerCount   int
	Blend          BlendState
	DepthTest      bool
	DepthWrite     bool
	CullMode       CullMode
}

// VertexAttribute describes one attribute slot's binding within the vertex
// buffer bound at draw time.
type VertexAttribute struct {
	Location   int
	Components int // 1-4
	ByteOffset int
	ByteStride int
	Normalized bool
}

type BlendState int

const (
	BlendNone BlendState = iota
	BlendAlpha
	BlendAdditive
)

type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// BindingsDescriptor names the concrete buffers/images/samplers a draw call
// binds, resolved from the shim's handle tables just before ApplyBindings.
type BindingsDescriptor struct {
	VertexBuffer BufferHandle
	IndexBuffer  BufferHandle // zero if the draw is non-indexed
	Images       []ImageHandle
	Views        []ViewHandle
	Samplers     []SamplerHandle
}

// DrawDescriptor is a fully-resolved draw call: a triangle-list range over
// either an index buffer or raw vertex count (spec §4.8).
type DrawDescriptor struct {
	Indexed    bool
	Count      int
	IndexByte0 int // starting byte offset into the bound index buffer
	IndexType  IndexType
}

type IndexType int

const (
	IndexTypeUint16 IndexType = iota
	IndexTypeUint32
)

// Backend is the GPU-facing half of the contract: the shim calls these
// methods only at buffer-upload time, texture-upload time, and flush time,
// never while recording draw state (spec §5's "no suspension points"
// extends to the backend boundary — every method here must return without
// blocking on anything but the GPU driver itself).
type Backend interface {
	MakeBuffer(size int, usage BufferUsage) (BufferHandle, error)
	UpdateBuffer(h BufferHandle, byteOffset int, data []byte) error
	DestroyBuffer(h BufferHandle)

	MakeImage(desc ImageDescriptor) (ImageHandle, error)
	UpdateImage(h ImageHandle, level int, pixels []byte) error
	MakeView(h ImageHandle) (ViewHandle, error)
	MakeSampler(desc SamplerDescriptor) (SamplerHandle, error)
	DestroyImage(h ImageHandle)
	DestroyView(h ViewHandle)
	DestroySampler(h SamplerHandle)

	MakeShader(stage ShaderStage, source string) (ShaderHandle, error)
	DestroyShader(h ShaderHandle)
	QueryShaderValid(h ShaderHandle) (valid bool, infoLog string)

	MakePipeline(desc PipelineDescriptor) (PipelineHandle, error)
	DestroyPipeline(h PipelineHandle)

	// GetUniformLocation resolves name within the pipeline's uniform blocks
	// to a backend-specific UniformLocation, or ok=false if no member by
	// that name survived link-time filtering.
	GetUniformLocation(p PipelineHandle, name string) (loc UniformLocation, ok bool)
	UniformMatrix2fv(p PipelineHandle, loc UniformLocation, data []float32) error
	UniformMatrix3fv(p PipelineHandle, loc UniformLocation, data []float32) error
	UniformMatrix4fv(p PipelineHandle, loc UniformLocation, data []float32) error

	ApplyPipeline(p PipelineHandle) error
	ApplyBindings(p PipelineHandle, b BindingsDescriptor) error
	ApplyUniformBlock(p PipelineHandle, stage ShaderStage, data []byte) error
	Draw(d DrawDescriptor) error
}
