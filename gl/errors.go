package gl

import "errors"

// Error taxonomy for the C3/C4/C6/C7/C8 operations (spec §7). Every
// exported operation that can fail returns one of these sentinels (wrapped
// with fmt.Errorf("%w: ...") for extra context where useful), so the
// script bridge can translate failures into structured guest-visible
// errors without string-matching.
var (
	ErrInvalidHandle    = errors.New("gl: invalid handle")
	ErrNoBufferBound    = errors.New("gl: no buffer bound to target")
	ErrWrongTarget      = errors.New("gl: buffer bound to a different target")
	ErrUsageLocked      = errors.New("gl: buffer usage already locked by a prior bufferData call")
	ErrTooLarge         = errors.New("gl: request exceeds staging pool capacity")
	ErrBackendFailed    = errors.New("gl: backend operation failed")
	ErrAtCapacity       = errors.New("gl: resource table at capacity")
	ErrNotCompiled      = errors.New("gl: shader has not been compiled")
	ErrCompileFailed    = errors.New("gl: shader compilation failed")
	ErrNotLinked        = errors.New("gl: program has not been linked")
	ErrLinkFailed       = errors.New("gl: program link failed")
	ErrUnknownUniform   = errors.New("gl: no such uniform in linked program")
	ErrWrongUniformType = errors.New("gl: uniform setter type does not match declared type")
	ErrNoProgramBound   = errors.New("gl: no program bound for draw")
	ErrQueueFull        = errors.New("gl: draw command queue is full")
	ErrInvalidTexture   = errors.New("gl: texture operation invalid for current state")
)
