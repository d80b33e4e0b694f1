package gl

import (
	"github.com/webglnative/runtime/common"
	"github.com/webglnative/runtime/glsl"
)

// writeBlockMember copies data into the stage-appropriate block bytes at
// the offset the link-time layout assigned pu in that stage, if pu is
// actually present there. A uniform linked into both stages is written into
// both blocks (spec §4.6's "cross-stage mirroring only where both stages use
// it").
func (c *Context) writeBlockMember(prog *Program, pu *programUniform, data []byte) {
	if pu.inVertex {
		copy(prog.vertexBlockBytes[pu.vertexDesc.ByteOffset:], data)
	}
	if pu.inFragment {
		copy(prog.fragmentBlockBytes[pu.fragDesc.ByteOffset:], data)
	}
}

func (c *Context) currentProgramUniform(loc EncodedLocation) (*Program, *programUniform, error) {
	if c.boundProgram.IsZero() {
		return nil, nil, ErrNoProgramBound
	}
	prog := c.programs.Get(c.boundProgram)
	if prog == nil {
		return nil, nil, ErrInvalidHandle
	}
	idx := loc.index()
	if idx < 0 || idx >= len(prog.uniforms) {
		return nil, nil, ErrUnknownUniform
	}
	return prog, &prog.uniforms[idx], nil
}

// Uniform1f sets a scalar float uniform.
func (c *Context) Uniform1f(loc EncodedLocation, v float32) error {
	prog, pu, err := c.currentProgramUniform(loc)
	if err != nil {
		return err
	}
	if pu.typ != glsl.Float {
		return ErrWrongUniformType
	}
	c.writeBlockMember(prog, pu, common.SliceToBytes([]float32{v}))
	return nil
}

// Uniform1i sets an integer uniform. Sampler uniforms have no location
// (GetUniformLocation reports ErrUnknownUniform for them), so a sampler's
// texture unit is not set through this call; units are assigned in
// declaration order at link time.
func (c *Context) Uniform1i(loc EncodedLocation, v int32) error {
	prog, pu, err := c.currentProgramUniform(loc)
	if err != nil {
		return err
	}
	if pu.typ != glsl.Int {
		return ErrWrongUniformType
	}
	c.writeBlockMember(prog, pu, common.SliceToBytes([]int32{v}))
	return nil
}

// Uniform2f sets a vec2 uniform.
func (c *Context) Uniform2f(loc EncodedLocation, x, y float32) error {
	prog, pu, err := c.currentProgramUniform(loc)
	if err != nil {
		return err
	}
	if pu.typ != glsl.Vec2 {
		return ErrWrongUniformType
	}
	c.writeBlockMember(prog, pu, common.SliceToBytes([]float32{x, y}))
	return nil
}

// Uniform3f sets a vec3 uniform.
func (c *Context) Uniform3f(loc EncodedLocation, x, y, z float32) error {
	prog, pu, err := c.currentProgramUniform(loc)
	if err != nil {
		return err
	}
	if pu.typ != glsl.Vec3 {
		return ErrWrongUniformType
	}
	c.writeBlockMember(prog, pu, common.SliceToBytes([]float32{x, y, z}))
	return nil
}

// Uniform4f sets a vec4 uniform.
func (c *Context) Uniform4f(loc EncodedLocation, x, y, z, w float32) error {
	prog, pu, err := c.currentProgramUniform(loc)
	if err != nil {
		return err
	}
	if pu.typ != glsl.Vec4 {
		return ErrWrongUniformType
	}
	c.writeBlockMember(prog, pu, common.SliceToBytes([]float32{x, y, z, w}))
	return nil
}

// UniformMatrix4fv sets a mat4 uniform. mat4 goes through the ordinary
// std140 block path (spec §5 Open Question 1): it is simply memcpy'd into
// the owning stage(s)' staged block bytes and applied at flush via
// ApplyUniformBlock, same as any other block member.
func (c *Context) UniformMatrix4fv(loc EncodedLocation, data []float32) error {
	prog, pu, err := c.currentProgramUniform(loc)
	if err != nil {
		return err
	}
	if pu.typ != glsl.Mat4 || len(data) < 16 {
		return ErrWrongUniformType
	}
	c.writeBlockMember(prog, pu, common.SliceToBytes(data[:16]))
	return nil
}

// UniformMatrix2fv and UniformMatrix3fv set mat2/mat3 uniforms via the
// out-of-band native-uniform-location path instead of the block: the
// values are staged on the programUniform and written through the backend
// the next time the program's pipeline exists (flush time), since a native
// location can only be resolved once a pipeline has been built (spec §4.6
// step 8, §4.9 step 5, SPEC_FULL §5 Open Question 1).
func (c *Context) UniformMatrix2fv(loc EncodedLocation, data []float32) error {
	return c.stageMatrixUniform(loc, glsl.Mat2, data, 4)
}

func (c *Context) UniformMatrix3fv(loc EncodedLocation, data []float32) error {
	return c.stageMatrixUniform(loc, glsl.Mat3, data, 9)
}

func (c *Context) stageMatrixUniform(loc EncodedLocation, want glsl.UniformType, data []float32, n int) error {
	_, pu, err := c.currentProgramUniform(loc)
	if err != nil {
		return err
	}
	if pu.typ != want || len(data) < n {
		return ErrWrongUniformType
	}
	pu.pendingMatrix = append(pu.pendingMatrix[:0], data[:n]...)
	pu.hasPendingMatrix = true
	return nil
}

// flushMatrixUniforms writes every programUniform with pending mat2/mat3
// data through the backend's native-location path, resolving and caching
// each member's UniformLocation on first use. Called from Flush once the
// program's pipeline is known to exist.
func (c *Context) flushMatrixUniforms(prog *Program) error {
	for i := range prog.uniforms {
		pu := &prog.uniforms[i]
		if !pu.hasPendingMatrix {
			continue
		}
		if !pu.hasMatrix {
			loc, ok := c.backend.GetUniformLocation(prog.pipeline, pu.name)
			if !ok {
				return ErrUnknownUniform
			}
			pu.matrixLoc = loc
			pu.hasMatrix = true
		}
		var writeErr error
		switch pu.typ {
		case glsl.Mat2:
			writeErr = c.backend.UniformMatrix2fv(prog.pipeline, pu.matrixLoc, pu.pendingMatrix)
		case glsl.Mat3:
			writeErr = c.backend.UniformMatrix3fv(prog.pipeline, pu.matrixLoc, pu.pendingMatrix)
		}
		if writeErr != nil {
			return ErrBackendFailed
		}
		pu.hasPendingMatrix = false
	}
	return nil
}
