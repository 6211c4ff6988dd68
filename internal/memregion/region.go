// Package memregion owns OS-backed memory regions and their protection
// state machine: Acquire -> RW|RX|RWX (re-traversable) -> Release, with
// Release terminal. Every mutating or invoking operation on one region
// takes that region's lock, so a call can never observe a torn patch.
package memregion

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"
)

var (
	// ErrAllocation reports an OS refusal to map a region, including
	// platform policy such as W^X denying writable+executable pages.
	ErrAllocation = errors.New("memregion: allocation refused")

	// ErrProtection reports a refused or illegal protection transition.
	ErrProtection = errors.New("memregion: protection change refused")

	// ErrInvalidRegion reports any operation on a released region.
	ErrInvalidRegion = errors.New("memregion: region released")

	// ErrOutOfBounds reports a write or invoke outside the region.
	ErrOutOfBounds = errors.New("memregion: access outside region bounds")
)

// Prot is a tracked protection state for an allocated region.
type Prot uint8

const (
	ProtRW Prot = iota + 1
	ProtRX
	ProtRWX
)

func (p Prot) String() string {
	switch p {
	case ProtRW:
		return "rw-"
	case ProtRX:
		return "r-x"
	case ProtRWX:
		return "rwx"
	}
	return fmt.Sprintf("prot(%d)", uint8(p))
}

func (p Prot) valid() bool      { return p >= ProtRW && p <= ProtRWX }
func (p Prot) writable() bool   { return p == ProtRW || p == ProtRWX }
func (p Prot) executable() bool { return p == ProtRX || p == ProtRWX }

// Region is one OS-backed block of memory. Exclusively owned by the
// execution engine once acquired; the raw mapping never escapes.
type Region struct {
	mu       sync.Mutex
	mem      []byte
	prot     Prot
	released bool
}

// Manager acquires and releases regions and logs the lifecycle.
type Manager struct {
	log      zerolog.Logger
	pageSize int
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log, pageSize: os.Getpagesize()}
}

// Acquire maps a fresh anonymous region of at least length bytes with
// the given protection. The usable length is page-rounded, so it may
// exceed the request. Zero and negative lengths fail consistently.
func (m *Manager) Acquire(length int, prot Prot) (*Region, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: non-positive length %d", ErrAllocation, length)
	}
	if !prot.valid() {
		return nil, fmt.Errorf("%w: invalid initial protection %s", ErrAllocation, prot)
	}

	size := ((length + m.pageSize - 1) / m.pageSize) * m.pageSize
	mem, err := osMap(size, prot)
	if err != nil {
		return nil, fmt.Errorf("%w: map %d bytes as %s: %v", ErrAllocation, size, prot, err)
	}

	m.log.Debug().
		Int("requested", length).
		Int("mapped", size).
		Str("prot", prot.String()).
		Msg("region_acquired")
	return &Region{mem: mem, prot: prot}, nil
}

// Release unmaps the region. The handle is invalid afterwards; Release
// is terminal and a second call fails like any other operation.
func (m *Manager) Release(r *Region) error {
	if err := r.Release(); err != nil {
		return err
	}
	m.log.Debug().Msg("region_released")
	return nil
}

// Len reports the usable (page-rounded) region length, zero once released.
func (r *Region) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mem)
}

// Base reports the region's base address, zero once released. The
// address is stable across Reprotect and Rewrite.
func (r *Region) Base() uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released || len(r.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.mem[0]))
}

// Prot reports the current protection state.
func (r *Region) Prot() Prot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prot
}

// Reprotect changes the protection flags in place. RW, RX and RWX are
// freely re-traversable until the region is released.
func (r *Region) Reprotect(prot Prot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reprotectLocked(prot)
}

func (r *Region) reprotectLocked(prot Prot) error {
	if r.released {
		return ErrInvalidRegion
	}
	if !prot.valid() {
		return fmt.Errorf("%w: invalid target protection %s", ErrProtection, prot)
	}
	if err := osProtect(r.mem, prot); err != nil {
		return fmt.Errorf("%w: %s -> %s: %v", ErrProtection, r.prot, prot, err)
	}
	r.prot = prot
	return nil
}

// Write copies p into the region from offset 0. The region must
// currently be writable.
func (r *Region) Write(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrInvalidRegion
	}
	if !r.prot.writable() {
		return fmt.Errorf("%w: write to %s region", ErrProtection, r.prot)
	}
	if len(p) > len(r.mem) {
		return fmt.Errorf("%w: %d bytes into %d byte region", ErrOutOfBounds, len(p), len(r.mem))
	}
	copy(r.mem, p)
	return nil
}

// Rewrite atomically replaces the region's leading bytes while it is
// executable: flip to RW, copy, flip back, all under one lock hold.
// This is the patch primitive; an invocation either sees all old bytes
// or all new ones.
func (r *Region) Rewrite(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrInvalidRegion
	}
	if !r.prot.executable() {
		return fmt.Errorf("%w: rewrite requires an executable region, have %s", ErrProtection, r.prot)
	}
	if len(p) > len(r.mem) {
		return fmt.Errorf("%w: %d bytes into %d byte region", ErrOutOfBounds, len(p), len(r.mem))
	}

	restore := r.prot
	if !restore.writable() {
		if err := r.reprotectLocked(ProtRW); err != nil {
			return err
		}
	}
	copy(r.mem, p)
	if r.prot != restore {
		if err := r.reprotectLocked(restore); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns a snapshot copy of the region contents taken under the
// region lock. Collaborators use it for hex-dump comparison; formatting
// is theirs.
func (r *Region) Bytes() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil, ErrInvalidRegion
	}
	out := make([]byte, len(r.mem))
	copy(out, r.mem)
	return out, nil
}

// Invoke runs fn with the address of base+offset while holding the
// region lock, after checking that the region is live and executable.
// fn is expected to transfer control into the region; it runs to
// completion or faults, never preempted by a patch.
func (r *Region) Invoke(offset int, fn func(pc uintptr) int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return 0, ErrInvalidRegion
	}
	if !r.prot.executable() {
		return 0, fmt.Errorf("%w: invoke on %s region", ErrProtection, r.prot)
	}
	if offset < 0 || offset >= len(r.mem) {
		return 0, fmt.Errorf("%w: offset %d in %d byte region", ErrOutOfBounds, offset, len(r.mem))
	}
	return fn(uintptr(unsafe.Pointer(&r.mem[offset]))), nil
}

// Release unmaps the region and marks the handle terminal.
func (r *Region) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrInvalidRegion
	}
	mem := r.mem
	r.mem = nil
	r.released = true
	if err := osUnmap(mem); err != nil {
		return fmt.Errorf("memregion: unmap: %w", err)
	}
	return nil
}
