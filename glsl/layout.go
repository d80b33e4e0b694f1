package glsl

// baseAlignSize returns the std140 alignment and size, in bytes, of a single
// (non-array) instance of t.
func baseAlignSize(t UniformType) (align, size int) {
	switch t {
	case Float, Int:
		return 4, 4
	case Vec2, IVec2:
		return 8, 8
	case Vec3, IVec3:
		return 16, 12
	case Vec4, IVec4:
		return 16, 16
	case Mat2:
		return 16, 32
	case Mat3:
		return 16, 48
	case Mat4:
		return 16, 64
	default:
		return 0, 0
	}
}

// arrayEligible reports whether t may appear as a uniform array element.
// std140 pads every array element to a 16-byte stride, which this
// translator only supports for already vec4-or-larger-aligned types; a
// float/vec2/vec3 array would silently waste 4-12 bytes per element with no
// way for the caller to detect it, so it is rejected instead (spec §4.5
// bounds: UNSUPPORTED_ARRAY_TYPE).
func arrayEligible(t UniformType) bool {
	switch t {
	case Vec4, IVec4, Mat2, Mat3, Mat4:
		return true
	default:
		return false
	}
}

func alignUp(v, a int) int {
	return (v + a - 1) / a * a
}

// ComputeLayout assigns std140 byte offsets to descs in order, mutating each
// descriptor in place, and returns the resulting block's total size rounded
// up to a 16-byte boundary. See spec §4.5 step 5.
func ComputeLayout(descs []*UniformDescriptor) (blockSize int, err error) {
	offset := 0
	for _, d := range descs {
		align, size := baseAlignSize(d.Type)
		if align == 0 {
			return 0, ErrMalformedDeclaration
		}

		if d.ArrayCount > 1 {
			if !arrayEligible(d.Type) {
				return 0, ErrUnsupportedArrayType
			}
			stride := alignUp(size, 16)
			offset = alignUp(offset, 16)
			d.ByteOffset = offset
			d.ByteStride = stride
			d.ByteSize = stride * d.ArrayCount
			offset += d.ByteSize
			continue
		}

		offset = alignUp(offset, align)
		d.ByteOffset = offset
		d.ByteStride = size
		d.ByteSize = size
		offset += size
	}
	return alignUp(offset, 16), nil
}
