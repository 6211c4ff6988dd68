//go:build !unix

package memregion

import "errors"

var errUnsupported = errors.New("executable memory regions are not supported on this platform")

func osMap(size int, p Prot) ([]byte, error) { return nil, errUnsupported }
func osProtect(mem []byte, p Prot) error     { return errUnsupported }
func osUnmap(mem []byte) error               { return nil }
