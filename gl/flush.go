package gl

import (
	"fmt"

	"github.com/webglnative/runtime/backend"
)

// Flush validates and executes every command recorded since the last
// Flush, in order: upload dirty textures (CPU-side conversion fanned out
// across a worker pool, GPU upload done serially), then for each queued
// draw command upload its dirty vertex/index buffers, resolve its pipeline
// (via the cache) and issue it. Any resource a command references that has
// gone stale since it was recorded is caught here, not at record time
// (spec §4.8). A command that references a stale resource, an unlinked
// program, or a malformed attrib tuple is skipped individually, and a
// command whose backend calls fail is dropped; neither stops the rest of
// the queue (spec §4.8 "invalid commands are skipped individually;
// subsequent valid commands still render"). Flush returns the first
// backend error once every command has been processed. A texture upload
// failure returns before any draw command runs.
func (c *Context) Flush() error {
	if err := c.flushTextures(); err != nil {
		return err
	}

	commands := c.queue.Drain()
	var firstErr error
	for _, cmd := range commands {
		if _, err := c.flushOne(cmd); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// flushOne resolves and issues a single draw command. The first return
// value reports that the command was skipped because it referenced stale
// or malformed state at flush time, not because anything failed; the
// second carries a genuine backend error, which Flush reports after the
// rest of the queue has run.
func (c *Context) flushOne(cmd DrawCommand) (skip bool, err error) {
	prog := c.programs.Get(cmd.Program)
	if prog == nil || !prog.linked {
		return true, nil
	}

	vbuf := c.buffers.Get(cmd.VertexBuffer)
	if vbuf == nil {
		return true, nil
	}
	if err := c.flushBuffer(cmd.VertexBuffer); err != nil {
		return false, err
	}

	if cmd.Indexed {
		ibuf := c.buffers.Get(cmd.IndexBuffer)
		if ibuf == nil {
			return true, nil
		}
		if err := c.flushBuffer(cmd.IndexBuffer); err != nil {
			return false, err
		}
	}

	for _, th := range cmd.Textures {
		if th.IsZero() {
			continue
		}
		if c.textures.Get(th) == nil {
			return true, nil
		}
	}

	if !validAttribTuple(cmd.State, vbuf.size) {
		return true, nil
	}

	pipeline, err := c.pipelineFor(cmd.Program, prog, cmd.State)
	if err != nil {
		return false, err
	}
	prog.pipeline = pipeline
	prog.hasPipeline = true

	if err := c.flushMatrixUniforms(prog); err != nil {
		return false, err
	}

	if err := c.backend.ApplyPipeline(pipeline); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	if err := c.backend.ApplyUniformBlock(pipeline, backend.StageVertex, prog.vertexBlockBytes); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	if err := c.backend.ApplyUniformBlock(pipeline, backend.StageFragment, prog.fragmentBlockBytes); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}

	bindings := c.resolveBindings(cmd)
	if err := c.backend.ApplyBindings(pipeline, bindings); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}

	draw := c.resolveDraw(cmd)
	if err := c.backend.Draw(draw); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	return false, nil
}

// validAttribTuple checks every enabled attrib in state against
// vertexBufferSize, the size of the buffer bound to the draw at record
// time. A component count out of range, or a byte range that runs past
// the buffer's current size, makes the tuple unmappable (spec §4.8: "every
// enabled attrib has a size 1-4 ... and a resolved stride"); re-checked
// here because the buffer may have shrunk since the draw was recorded.
func validAttribTuple(state DrawState, vertexBufferSize int) bool {
	for _, a := range state.Attribs {
		if !a.Enabled {
			continue
		}
		if a.Components < 1 || a.Components > 4 {
			return false
		}
		stride := a.ByteStride
		if stride == 0 {
			stride = a.Components * 4
		}
		if a.ByteOffset < 0 || a.ByteOffset+stride > vertexBufferSize {
			return false
		}
	}
	return true
}

func (c *Context) resolveBindings(cmd DrawCommand) backend.BindingsDescriptor {
	b := backend.BindingsDescriptor{}
	if vbuf := c.buffers.Get(cmd.VertexBuffer); vbuf != nil {
		b.VertexBuffer = vbuf.backendBuf
	}
	if cmd.Indexed {
		if ibuf := c.buffers.Get(cmd.IndexBuffer); ibuf != nil {
			b.IndexBuffer = ibuf.backendBuf
		}
	}
	for _, th := range cmd.Textures {
		if th.IsZero() {
			continue
		}
		tex := c.textures.Get(th)
		if tex == nil {
			continue
		}
		b.Images = append(b.Images, tex.backendImage)
		b.Views = append(b.Views, tex.backendView)
		b.Samplers = append(b.Samplers, tex.backendSamp)
	}
	return b
}

func (c *Context) resolveDraw(cmd DrawCommand) backend.DrawDescriptor {
	return backend.DrawDescriptor{
		Indexed:    cmd.Indexed,
		Count:      cmd.Count,
		IndexByte0: cmd.IndexByte0,
		IndexType:  cmd.IndexType,
	}
}
