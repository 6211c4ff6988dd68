//go:build unix

package engine

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/danmuck/carrierctl/internal/memregion"
	"github.com/danmuck/carrierctl/internal/testutil/testlog"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	return New(testlog.Logger(t), opts)
}

func TestLoadRejectsEmptyPayload(t *testing.T) {
	eng := newTestEngine(t, Options{})
	if _, err := eng.Load(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestLoadEnforcesConfiguredMaximum(t *testing.T) {
	eng := newTestEngine(t, Options{MaxPayloadBytes: 4})
	if _, err := eng.Load(make([]byte, 8)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestLoadLeavesRegionExecutable(t *testing.T) {
	eng := newTestEngine(t, Options{})
	payload := []byte{0xc3, 0x90, 0x90}
	ep, err := eng.Load(payload)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer eng.Teardown(ep.Region())

	r := ep.Region()
	if r.Prot() != memregion.ProtRX {
		t.Fatalf("expected rx after load, got %s", r.Prot())
	}
	if r.Len() < len(payload) {
		t.Fatalf("region too small: %d < %d", r.Len(), len(payload))
	}
	snap, err := r.Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if !bytes.Equal(snap[:len(payload)], payload) {
		t.Fatalf("region bytes do not match payload")
	}
}

func TestPatchResizeRequired(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ep, err := eng.Load([]byte{0xc3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer eng.Teardown(ep.Region())

	over := make([]byte, ep.Region().Len()+1)
	if err := eng.Patch(ep.Region(), over); !errors.Is(err, ErrResizeRequired) {
		t.Fatalf("expected ErrResizeRequired, got %v", err)
	}
}

func TestPatchPreservesBaseAddress(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ep, err := eng.Load([]byte{0xc3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer eng.Teardown(ep.Region())

	before := ep.Region().Base()
	if err := eng.Patch(ep.Region(), []byte{0x90, 0xc3}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if after := ep.Region().Base(); after != before {
		t.Fatalf("patch moved region: %#x -> %#x", before, after)
	}
	if ep.Region().Prot() != memregion.ProtRX {
		t.Fatalf("patch should restore rx, got %s", ep.Region().Prot())
	}
}

func TestPatchRequiresExecutableRegion(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ep, err := eng.Load([]byte{0xc3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer eng.Teardown(ep.Region())

	if err := ep.Region().Reprotect(memregion.ProtRW); err != nil {
		t.Fatalf("reprotect: %v", err)
	}
	if err := eng.Patch(ep.Region(), []byte{0x90}); !errors.Is(err, memregion.ErrProtection) {
		t.Fatalf("expected ErrProtection, got %v", err)
	}
}

func TestPatchRejectsEmptyPayload(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ep, err := eng.Load([]byte{0xc3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer eng.Teardown(ep.Region())

	if err := eng.Patch(ep.Region(), nil); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestTeardownInvalidatesRegion(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ep, err := eng.Load([]byte{0xc3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := eng.Teardown(ep.Region()); err != nil {
		t.Fatalf("teardown: %v", err)
	}
	if _, err := ep.Call(); !errors.Is(err, memregion.ErrInvalidRegion) {
		t.Fatalf("call after teardown: expected ErrInvalidRegion, got %v", err)
	}
	if err := eng.Teardown(ep.Region()); !errors.Is(err, memregion.ErrInvalidRegion) {
		t.Fatalf("double teardown: expected ErrInvalidRegion, got %v", err)
	}
}

func TestPatchAfterTeardownReportsInvalidRegion(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ep, err := eng.Load([]byte{0xc3})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := eng.Teardown(ep.Region()); err != nil {
		t.Fatalf("teardown: %v", err)
	}

	// The released handle reports zero length; the terminal state must
	// still win over the size check.
	if err := eng.Patch(ep.Region(), []byte{0x90}); !errors.Is(err, memregion.ErrInvalidRegion) {
		t.Fatalf("patch after teardown: expected ErrInvalidRegion, got %v", err)
	}
}

// TestPatchSnapshotAtomicity interleaves patches with snapshot reads and
// requires every observed prefix to be uniformly old or new marker
// bytes; a mixture would mean a torn write escaped the region lock.
func TestPatchSnapshotAtomicity(t *testing.T) {
	eng := newTestEngine(t, Options{})

	const markerLen = 512
	markA := bytes.Repeat([]byte{0xaa}, markerLen)
	markB := bytes.Repeat([]byte{0xbb}, markerLen)

	ep, err := eng.Load(markA)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer eng.Teardown(ep.Region())
	r := ep.Region()

	const iterations = 200
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			p := markA
			if i%2 == 0 {
				p = markB
			}
			if err := eng.Patch(r, p); err != nil {
				t.Errorf("patch %d: %v", i, err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			snap, err := r.Bytes()
			if err != nil {
				t.Errorf("snapshot %d: %v", i, err)
				return
			}
			first := snap[0]
			if first != 0xaa && first != 0xbb {
				t.Errorf("snapshot %d: unexpected marker %#x", i, first)
				return
			}
			for j := 1; j < markerLen; j++ {
				if snap[j] != first {
					t.Errorf("snapshot %d: torn write at byte %d (%#x vs %#x)", i, j, snap[j], first)
					return
				}
			}
		}
	}()

	wg.Wait()
}

func TestLoadPageRoundsRegion(t *testing.T) {
	eng := newTestEngine(t, Options{})
	ep, err := eng.Load(make([]byte, os.Getpagesize()+1))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer eng.Teardown(ep.Region())
	if ep.Region().Len() < os.Getpagesize()+1 {
		t.Fatalf("region smaller than payload")
	}
}
