package bridge

import (
	"errors"
	"fmt"

	"github.com/webglnative/runtime/gl"
)

// Kind distinguishes the guest-visible error taxonomy named in spec §7:
// handle/state/argument errors throw a type-error to the guest; resource
// errors throw an internal-error with a diagnostic string; backend errors
// never throw (the offending command is dropped from the flush and logged).
type Kind int

const (
	KindHandle Kind = iota
	KindState
	KindResource
	KindArgument
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindHandle:
		return "type-error"
	case KindState:
		return "type-error"
	case KindResource:
		return "internal-error"
	case KindArgument:
		return "type-error"
	case KindBackend:
		return "dropped"
	default:
		return "error"
	}
}

// Error is the structured, guest-visible error every exported Bridge method
// returns on failure in place of the core's raw Go error (spec §4.10 "on
// failure, raises a structured error surfaced to the guest").
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newArgumentError(msg string) *Error {
	return &Error{Kind: KindArgument, Message: msg}
}

// translateCoreError maps a gl package sentinel error to the Kind the spec's
// taxonomy assigns it. Errors not recognized here are treated as backend
// errors: logged and dropped rather than thrown, matching §7's "Backend
// errors ... the offending command is dropped from the flush and logged".
func translateCoreError(err error) *Error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gl.ErrInvalidHandle):
		return &Error{Kind: KindHandle, Message: err.Error()}
	case errors.Is(err, gl.ErrNoBufferBound),
		errors.Is(err, gl.ErrWrongTarget),
		errors.Is(err, gl.ErrUsageLocked),
		errors.Is(err, gl.ErrNotCompiled),
		errors.Is(err, gl.ErrNotLinked),
		errors.Is(err, gl.ErrUnknownUniform),
		errors.Is(err, gl.ErrWrongUniformType),
		errors.Is(err, gl.ErrNoProgramBound),
		errors.Is(err, gl.ErrInvalidTexture):
		return &Error{Kind: KindState, Message: err.Error()}
	case errors.Is(err, gl.ErrTooLarge),
		errors.Is(err, gl.ErrAtCapacity),
		errors.Is(err, gl.ErrQueueFull):
		return &Error{Kind: KindResource, Message: err.Error()}
	case errors.Is(err, gl.ErrBackendFailed):
		return &Error{Kind: KindBackend, Message: err.Error()}
	default:
		// Compile/link failures are never thrown (spec §7): they stay
		// recorded in the shader/program info-log and are never routed
		// through translateCoreError by callers that know about them
		// (see bridge.go's CompileShader/LinkProgram, which call the core
		// directly and only translate the *surrounding* call's own error).
		return &Error{Kind: KindBackend, Message: err.Error()}
	}
}
