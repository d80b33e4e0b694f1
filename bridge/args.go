package bridge

import (
	"fmt"

	"github.com/webglnative/runtime/handle"
)

// Args is the untyped argument list an exported bridge function receives,
// mirroring how a script engine hands a native call its arguments: numbers,
// booleans, strings, and typed byte ranges (spec §6 "argument unpacking").
// Every exported Bridge method validates arity and kind itself before
// touching the core.
type Args []any

// Expect returns an *Error with KindArgument if len(a) != n.
func (a Args) Expect(n int) error {
	if len(a) != n {
		return newArgumentError(fmt.Sprintf("expected %d argument(s), got %d", n, len(a)))
	}
	return nil
}

// Float64 reads argument i as a float64 (the numeric type a script engine's
// number representation normalizes to).
func (a Args) Float64(i int) (float64, error) {
	v, ok := a[i].(float64)
	if !ok {
		return 0, newArgumentError(fmt.Sprintf("argument %d: expected number, got %T", i, a[i]))
	}
	return v, nil
}

// Int reads argument i as an integer-valued number.
func (a Args) Int(i int) (int, error) {
	v, err := a.Float64(i)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// Bool reads argument i as a boolean.
func (a Args) Bool(i int) (bool, error) {
	v, ok := a[i].(bool)
	if !ok {
		return false, newArgumentError(fmt.Sprintf("argument %d: expected bool, got %T", i, a[i]))
	}
	return v, nil
}

// String reads argument i as a string (length+bytes on the wire, already
// decoded by the time it reaches Args).
func (a Args) String(i int) (string, error) {
	v, ok := a[i].(string)
	if !ok {
		return "", newArgumentError(fmt.Sprintf("argument %d: expected string, got %T", i, a[i]))
	}
	return v, nil
}

// Bytes reads argument i as a typed byte range (a Float32Array/Uint16Array/
// etc.'s backing bytes, already copied out of the script engine's storage).
func (a Args) Bytes(i int) ([]byte, error) {
	v, ok := a[i].([]byte)
	if !ok {
		return nil, newArgumentError(fmt.Sprintf("argument %d: expected byte range, got %T", i, a[i]))
	}
	return v, nil
}

// Handle reads argument i as a raw numeric handle value and translates it to
// a typed handle.Handle, per spec §4.10 "translates numeric handles to
// typed handles".
func (a Args) Handle(i int) (handle.Handle, error) {
	v, err := a.Float64(i)
	if err != nil {
		return handle.Invalid, err
	}
	return handle.Handle(uint32(v)), nil
}
