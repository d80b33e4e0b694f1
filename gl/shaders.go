package gl

import (
	"github.com/webglnative/runtime/glsl"
	"github.com/webglnative/runtime/handle"
)

// CreateShader allocates a new, sourceless ShaderEntity for the given
// stage (spec §4.4 step 1).
func (c *Context) CreateShader(stage glsl.Stage) (handle.Handle, error) {
	h, err := c.shaders.Alloc(ShaderEntity{stage: stage})
	if err != nil {
		return handle.Invalid, ErrAtCapacity
	}
	return h, nil
}

// ShaderSource sets (or replaces) h's ES source text, invalidating any
// prior compile result.
func (c *Context) ShaderSource(h handle.Handle, source string) error {
	sh := c.shaders.Get(h)
	if sh == nil {
		return ErrInvalidHandle
	}
	sh.source = source
	sh.translated = nil
	sh.status = CompileUnknown
	sh.infoLog = ""
	return nil
}

// CompileShader runs the GLSL-ES->desktop translator over h's source in
// isolation (no cross-stage uniform filtering — that happens at link time,
// spec §4.6). CompileShader only validates that h's own source parses; it
// never talks to the backend.
func (c *Context) CompileShader(h handle.Handle) error {
	sh := c.shaders.Get(h)
	if sh == nil {
		return ErrInvalidHandle
	}
	res, err := glsl.Parse(sh.source, sh.stage, map[string]bool{})
	if err != nil {
		sh.status = CompileFailure
		sh.infoLog = err.Error()
		return ErrCompileFailed
	}
	sh.translated = res
	sh.status = CompileSuccess
	sh.infoLog = ""
	return nil
}

// GetShaderCompileStatus reports whether h last compiled successfully.
func (c *Context) GetShaderCompileStatus(h handle.Handle) (CompileStatus, error) {
	sh := c.shaders.Get(h)
	if sh == nil {
		return CompileUnknown, ErrInvalidHandle
	}
	return sh.status, nil
}

// GetShaderInfoLog returns h's most recent compile error text, or "" if
// the last compile (if any) succeeded.
func (c *Context) GetShaderInfoLog(h handle.Handle) (string, error) {
	sh := c.shaders.Get(h)
	if sh == nil {
		return "", ErrInvalidHandle
	}
	return sh.infoLog, nil
}

// DeleteShader frees h's handle-table slot. Shaders own no backend or
// staging resources of their own (those are created per-Program at link
// time), so deletion is just a table free.
func (c *Context) DeleteShader(h handle.Handle) error {
	if c.shaders.Get(h) == nil {
		return ErrInvalidHandle
	}
	c.shaders.Free(h)
	return nil
}
