// Package glsl translates WebGL-style GLSL ES shader source into desktop
// GLSL (#version 330), computing the std140 uniform-block layout and
// harvesting the uniform/sampler/attribute metadata the program store (C6)
// needs to wire a backend pipeline. See spec §4.5.
package glsl

import "errors"

// Stage identifies which half of a program a source string belongs to.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

// UniformType enumerates the scalar/vector/matrix uniform types this
// translator understands. Sampler types are tracked separately as
// SamplerDescriptor, not as a UniformType.
type UniformType int

const (
	Float UniformType = iota
	Int
	Vec2
	IVec2
	Vec3
	IVec3
	Vec4
	IVec4
	Mat2
	Mat3
	Mat4
)

// GLSLName returns the desktop-GLSL spelling of t.
func (t UniformType) GLSLName() string {
	switch t {
	case Float:
		return "float"
	case Int:
		return "int"
	case Vec2:
		return "vec2"
	case IVec2:
		return "ivec2"
	case Vec3:
		return "vec3"
	case IVec3:
		return "ivec3"
	case Vec4:
		return "vec4"
	case IVec4:
		return "ivec4"
	case Mat2:
		return "mat2"
	case Mat3:
		return "mat3"
	case Mat4:
		return "mat4"
	default:
		return "?"
	}
}

// SamplerKind distinguishes 2D and cube samplers.
type SamplerKind int

const (
	Sampler2D SamplerKind = iota
	SamplerCube
)

// UniformDescriptor describes one scalar/vector/matrix uniform after std140
// layout has been resolved. ByteOffset/ByteStride/ByteSize are zero until
// ComputeLayout has run over the owning block.
type UniformDescriptor struct {
	Name       string
	Type       UniformType
	ArrayCount int // 0 or 1 means "not an array"
	ByteOffset int
	ByteStride int
	ByteSize   int
}

// SamplerDescriptor describes one sampler uniform. Parse fills in Name, Kind
// and Stage; Unit and Dirty are left zero, since the program store keeps
// each sampler's unit in its own table.
type SamplerDescriptor struct {
	Name  string
	Kind  SamplerKind
	Stage Stage
	Unit  int
	Dirty bool
}

// Result is the translator's output for a single shader stage.
type Result struct {
	Source     string // the full desktop-GLSL source, header + body
	Body       string // the rewritten body alone (no header), used for cross-stage usage scans
	Uniforms   []UniformDescriptor
	Samplers   []SamplerDescriptor
	Attributes []string
}

// Bounds from spec §4.5.
const (
	MaxSourceBytes        = 64 * 1024
	MaxTranslatedBytes    = 70 * 1024
	MaxLineLength         = 4096
	MaxUniformsPerStage   = 128
	MaxSamplersTotal      = 12
	MaxAttributes         = 16
	MaxUniformNameLen     = 256
	MaxPreprocessorDepth  = 16
	MaxUniformArrayCount  = 1024
)

var (
	ErrTooLarge             = errors.New("glsl: source exceeds maximum size")
	ErrLineTooLong          = errors.New("glsl: line exceeds maximum length")
	ErrTooManyUniforms      = errors.New("glsl: too many uniforms")
	ErrTooManySamplers      = errors.New("glsl: too many samplers")
	ErrUniformArrayTooLarge = errors.New("glsl: uniform array too large")
	ErrUnsupportedArrayType = errors.New("glsl: unsupported array element type")
	ErrUniformNameTooLong   = errors.New("glsl: uniform name too long")
	ErrPreprocessorNesting  = errors.New("glsl: preprocessor conditional nesting too deep")
	ErrMalformedDeclaration = errors.New("glsl: malformed declaration")
)
