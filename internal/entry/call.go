package entry

import "unsafe"

// invoke jumps to raw code at pc and returns the integer register.
//
// A Go func value is a pointer to a funcval whose first word is the
// entry PC. Pointing that word at the region address makes a plain Go
// call land directly on the payload's first instruction; the payload's
// ret comes back here with the result in the return register.
func invoke(pc uintptr) int64 {
	fp := &pc
	fn := *(*func() int64)(unsafe.Pointer(&fp))
	return fn()
}
