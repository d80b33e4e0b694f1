package gl

import (
	"fmt"

	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/handle"
)

// MaxVertexAttribs bounds the number of simultaneously configured vertex
// attribute pointers (spec §4.8).
const MaxVertexAttribs = 16

// AttribPointer is one vertexAttribPointer configuration slot.
type AttribPointer struct {
	Enabled    bool
	Components int
	ByteOffset int
	ByteStride int
	Normalized bool
}

// DrawState is the context's current draw configuration: attribute
// pointers plus blend/depth/cull, all set by discrete calls and snapshotted
// into a DrawCommand whenever drawArrays/drawElements records one (spec
// §4.8 step 1).
type DrawState struct {
	Attribs   [MaxVertexAttribs]AttribPointer
	Blend     backend.BlendState
	DepthTest bool
	DepthWrite bool
	CullMode  backend.CullMode
}

// EnableVertexAttribArray / DisableVertexAttribArray toggle an attribute
// slot without altering its pointer configuration.
func (c *Context) EnableVertexAttribArray(location int) error {
	if location < 0 || location >= MaxVertexAttribs {
		return fmt.Errorf("%w: attribute location %d out of range", ErrInvalidHandle, location)
	}
	c.drawState.Attribs[location].Enabled = true
	return nil
}

func (c *Context) DisableVertexAttribArray(location int) error {
	if location < 0 || location >= MaxVertexAttribs {
		return fmt.Errorf("%w: attribute location %d out of range", ErrInvalidHandle, location)
	}
	c.drawState.Attribs[location].Enabled = false
	return nil
}

// VertexAttribPointer configures how attribute location reads its vertex
// data. It does not capture a buffer: a draw reads every enabled attribute
// from the single buffer bound to TargetArrayBuffer when DrawArrays or
// DrawElements records it.
func (c *Context) VertexAttribPointer(location, components, byteOffset, byteStride int, normalized bool) error {
	if location < 0 || location >= MaxVertexAttribs {
		return fmt.Errorf("%w: attribute location %d out of range", ErrInvalidHandle, location)
	}
	if components < 1 || components > 4 {
		return fmt.Errorf("%w: attribute component count %d out of range", ErrInvalidHandle, components)
	}
	c.drawState.Attribs[location] = AttribPointer{
		Enabled:    c.drawState.Attribs[location].Enabled,
		Components: components,
		ByteOffset: byteOffset,
		ByteStride: byteStride,
		Normalized: normalized,
	}
	return nil
}

// SetBlendState, SetDepthState, and SetCullMode configure the remaining
// draw-state fields the pipeline cache's fingerprint covers (spec §4.9).
func (c *Context) SetBlendState(b backend.BlendState) { c.drawState.Blend = b }

func (c *Context) SetDepthState(test, write bool) {
	c.drawState.DepthTest = test
	c.drawState.DepthWrite = write
}

func (c *Context) SetCullMode(m backend.CullMode) { c.drawState.CullMode = m }

// DrawCommand is an immutable snapshot of everything a draw call needs,
// captured at record time. Handles are re-validated at flush time, not
// record time (spec §4.8: "flush-time, not record-time, validation"), so a
// resource deleted between drawArrays/drawElements and Flush is caught
// cleanly instead of dereferencing freed state.
type DrawCommand struct {
	Program      handle.Handle
	VertexBuffer handle.Handle
	IndexBuffer  handle.Handle
	Textures     [MaxTextureUnits]handle.Handle
	State        DrawState
	Indexed      bool
	Count        int
	IndexByte0   int
	IndexType    backend.IndexType
}

// DrawArrays records a non-indexed draw command.
func (c *Context) DrawArrays(count int) error {
	if c.boundProgram.IsZero() {
		return ErrNoProgramBound
	}
	cmd := c.snapshotDrawCommand()
	cmd.Indexed = false
	cmd.Count = count
	return c.queue.Push(cmd)
}

// DrawElements records an indexed draw command.
func (c *Context) DrawElements(count, byteOffset int, indexType backend.IndexType) error {
	if c.boundProgram.IsZero() {
		return ErrNoProgramBound
	}
	cmd := c.snapshotDrawCommand()
	cmd.Indexed = true
	cmd.Count = count
	cmd.IndexByte0 = byteOffset
	cmd.IndexType = indexType
	return c.queue.Push(cmd)
}

func (c *Context) snapshotDrawCommand() DrawCommand {
	return DrawCommand{
		Program:      c.boundProgram,
		VertexBuffer: c.boundArrayBuffer,
		IndexBuffer:  c.boundElementBuffer,
		Textures:     c.boundTextures,
		State:        c.drawState,
	}
}
