//go:build unix

package memregion

import "golang.org/x/sys/unix"

func protFlags(p Prot) int {
	switch p {
	case ProtRW:
		return unix.PROT_READ | unix.PROT_WRITE
	case ProtRX:
		return unix.PROT_READ | unix.PROT_EXEC
	case ProtRWX:
		return unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
	}
	return unix.PROT_NONE
}

func osMap(size int, p Prot) ([]byte, error) {
	return unix.Mmap(-1, 0, size, protFlags(p), unix.MAP_ANON|unix.MAP_PRIVATE)
}

func osProtect(mem []byte, p Prot) error {
	return unix.Mprotect(mem, protFlags(p))
}

func osUnmap(mem []byte) error {
	return unix.Munmap(mem)
}
