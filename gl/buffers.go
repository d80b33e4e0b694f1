package gl

import (
	"fmt"

	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/handle"
)

func (c *Context) backendBufferUsage(buf *Buffer) backend.BufferUsage {
	if buf.target == TargetElementArrayBuffer {
		return backend.BufferUsageIndex
	}
	return backend.BufferUsageVertex
}

// CreateBuffer allocates a new, empty Buffer entity and returns its handle.
// The buffer has no target or usage until the first BindBuffer/BufferData
// call (spec §4.3 step 1).
func (c *Context) CreateBuffer() (handle.Handle, error) {
	h, err := c.buffers.Alloc(Buffer{})
	if err != nil {
		return handle.Invalid, fmt.Errorf("%w: %v", ErrAtCapacity, err)
	}
	return h, nil
}

// BindBuffer binds h to target, becoming the context's current buffer for
// that target. Until the buffer has received data (or has a backend
// resource) each bind re-assigns its target; after that, binding it to a
// different target fails with ErrWrongTarget (spec §4.3 step 2).
func (c *Context) BindBuffer(target Target, h handle.Handle) error {
	if h.IsZero() {
		switch target {
		case TargetArrayBuffer:
			c.boundArrayBuffer = handle.Invalid
		case TargetElementArrayBuffer:
			c.boundElementBuffer = handle.Invalid
		}
		return nil
	}

	buf := c.buffers.Get(h)
	if buf == nil {
		return ErrInvalidHandle
	}
	if buf.hasBackend || buf.usageLocked {
		if buf.target != target {
			return ErrWrongTarget
		}
	} else {
		buf.target = target
	}

	switch target {
	case TargetArrayBuffer:
		c.boundArrayBuffer = h
	case TargetElementArrayBuffer:
		c.boundElementBuffer = h
	default:
		return ErrWrongTarget
	}
	return nil
}

func (c *Context) boundBufferHandle(target Target) handle.Handle {
	switch target {
	case TargetArrayBuffer:
		return c.boundArrayBuffer
	case TargetElementArrayBuffer:
		return c.boundElementBuffer
	default:
		return handle.Invalid
	}
}

// BufferData (re)sizes the buffer currently bound to target and copies
// data into its CPU staging region, locking the buffer's usage hint on
// first call (spec §4.3 step 3). Subsequent calls with a different usage
// fail with ErrUsageLocked; subsequent calls with matching usage reuse or
// grow the staging region as needed.
func (c *Context) BufferData(target Target, data []byte, usage Usage) error {
	h := c.boundBufferHandle(target)
	if h.IsZero() {
		return ErrNoBufferBound
	}
	buf := c.buffers.Get(h)
	if buf == nil {
		return ErrInvalidHandle
	}
	if buf.usageLocked && buf.usage != usage {
		return ErrUsageLocked
	}

	if buf.size > 0 {
		c.bufferStaging.Free(buf.region)
	}
	region, err := c.bufferStaging.Alloc(len(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTooLarge, err)
	}
	copy(c.bufferStaging.Slice(region), data)

	buf.region = region
	buf.size = len(data)
	buf.usage = usage
	buf.usageLocked = true
	buf.dirty = true
	return nil
}

// BufferSubData overwrites byteOffset..byteOffset+len(data) within the
// buffer currently bound to target without reallocating it.
func (c *Context) BufferSubData(target Target, byteOffset int, data []byte) error {
	h := c.boundBufferHandle(target)
	if h.IsZero() {
		return ErrNoBufferBound
	}
	buf := c.buffers.Get(h)
	if buf == nil {
		return ErrInvalidHandle
	}
	if byteOffset < 0 || byteOffset+len(data) > buf.size {
		return fmt.Errorf("%w: sub-data range out of bounds", ErrTooLarge)
	}
	dst := c.bufferStaging.Slice(buf.region)
	copy(dst[byteOffset:byteOffset+len(data)], data)
	buf.dirty = true
	return nil
}

// DeleteBuffer releases h's staging region and backend resource (if any)
// and frees its handle-table slot. Deleting a buffer that is currently
// bound clears the corresponding bind point, matching WebGL semantics: a
// future draw referencing a stale buffer handle fails cleanly at flush
// rather than mid-recording (spec §4.8's "stale-handle at flush" rule).
func (c *Context) DeleteBuffer(h handle.Handle) error {
	buf := c.buffers.Get(h)
	if buf == nil {
		return ErrInvalidHandle
	}
	if buf.size > 0 {
		c.bufferStaging.Free(buf.region)
	}
	if buf.hasBackend {
		c.backend.DestroyBuffer(buf.backendBuf)
	}
	if c.boundArrayBuffer == h {
		c.boundArrayBuffer = handle.Invalid
	}
	if c.boundElementBuffer == h {
		c.boundElementBuffer = handle.Invalid
	}
	c.buffers.Free(h)
	return nil
}

// flushBuffer uploads a dirty buffer to the backend, creating its backend
// resource on first upload. Called only from Flush (spec §4.8: validation
// and backend work happen at flush time, never at record time).
func (c *Context) flushBuffer(h handle.Handle) error {
	buf := c.buffers.Get(h)
	if buf == nil {
		return ErrInvalidHandle
	}
	if !buf.dirty {
		return nil
	}

	usage := c.backendBufferUsage(buf)
	data := c.bufferStaging.Slice(buf.region)

	if !buf.hasBackend {
		bh, err := c.backend.MakeBuffer(buf.size, usage)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackendFailed, err)
		}
		buf.backendBuf = bh
		buf.hasBackend = true
	}
	if err := c.backend.UpdateBuffer(buf.backendBuf, 0, data); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	buf.dirty = false
	return nil
}
