// Package entry turns a (region, offset, calling-convention) triple
// into an invocable handle. Exactly one convention is supported: no
// arguments, one integer-register return value. An EntryPoint stays
// valid across patches of its region because the base address never
// moves; only releasing the region invalidates it.
package entry

import (
	"errors"
	"fmt"

	"github.com/danmuck/carrierctl/internal/memregion"
)

var (
	// ErrUnsupportedSignature reports a calling convention other than
	// the single supported one.
	ErrUnsupportedSignature = errors.New("entry: unsupported call signature")

	// ErrOffsetOutOfRange reports a bind offset at or past the end of
	// the region. No further bounds validation is performed.
	ErrOffsetOutOfRange = errors.New("entry: offset outside region")
)

// Signature names a calling convention.
type Signature uint8

// SigNoArgInt64 is the only supported convention: the payload receives
// control with a valid stack pointer and no arguments, and leaves its
// result in the designated integer return register before returning.
const SigNoArgInt64 Signature = 1

// EntryPoint is an invocable handle into a region. Never an untyped
// address: it carries its region, offset and convention tag.
type EntryPoint struct {
	region *memregion.Region
	offset int
	sig    Signature
}

// Result is the outcome of a completed invocation. A payload whose
// bytes are not valid host instructions faults at process level
// instead; that outcome never reaches a Result.
type Result struct {
	Value int64
}

// Bind validates the signature and offset and returns the handle.
func Bind(r *memregion.Region, offset int, sig Signature) (*EntryPoint, error) {
	if sig != SigNoArgInt64 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSignature, sig)
	}
	if offset < 0 || offset >= r.Len() {
		return nil, fmt.Errorf("%w: offset %d in %d byte region", ErrOffsetOutOfRange, offset, r.Len())
	}
	return &EntryPoint{region: r, offset: offset, sig: sig}, nil
}

// Call transfers control to region.base+offset under the supported
// convention and captures the returned integer. The call holds the
// region lock, so it is serialized against patches and reprotects.
func (e *EntryPoint) Call() (Result, error) {
	v, err := e.region.Invoke(e.offset, invoke)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v}, nil
}

// Region returns the owning region.
func (e *EntryPoint) Region() *memregion.Region { return e.region }

// Offset returns the bound byte offset.
func (e *EntryPoint) Offset() int { return e.offset }
