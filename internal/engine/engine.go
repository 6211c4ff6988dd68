// Package engine orchestrates the full payload path: decode a carrier
// if one was supplied, acquire a region, write the bytes, make them
// executable, bind an entry point, and invoke it. It also implements
// the patch-and-reinvoke cycle: region contents are rewritten in place
// while the previously bound entry point stays valid.
package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danmuck/carrierctl/internal/carrier"
	"github.com/danmuck/carrierctl/internal/entry"
	"github.com/danmuck/carrierctl/internal/memregion"
	"github.com/danmuck/carrierctl/internal/observability"
)

var (
	// ErrResizeRequired reports a patch payload larger than its region.
	// The engine never reallocates transparently; the caller must
	// acquire a larger region instead.
	ErrResizeRequired = errors.New("engine: payload larger than region")

	// ErrEmptyPayload reports an attempt to load or patch zero bytes.
	ErrEmptyPayload = errors.New("engine: empty payload")

	// ErrPayloadTooLarge reports a payload over the configured maximum.
	ErrPayloadTooLarge = errors.New("engine: payload exceeds configured maximum")
)

// Options tunes an Engine.
type Options struct {
	// MaxPayloadBytes rejects oversized payloads before allocation.
	// Zero means no limit.
	MaxPayloadBytes int

	// AllowRWX loads payloads into a single RWX mapping instead of the
	// default RW-write-then-RX flip. Refused outright on W^X platforms.
	AllowRWX bool
}

// Engine owns every region it acquires until Teardown.
type Engine struct {
	mgr  *memregion.Manager
	log  zerolog.Logger
	opts Options
}

func New(log zerolog.Logger, opts Options) *Engine {
	return &Engine{
		mgr:  memregion.NewManager(log),
		log:  log,
		opts: opts,
	}
}

// Load places payload into a fresh executable region and binds an entry
// point at offset 0, without invoking it.
func (e *Engine) Load(payload []byte) (*entry.EntryPoint, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if e.opts.MaxPayloadBytes > 0 && len(payload) > e.opts.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes, maximum is %d",
			ErrPayloadTooLarge, len(payload), e.opts.MaxPayloadBytes)
	}

	prot := memregion.ProtRW
	if e.opts.AllowRWX {
		prot = memregion.ProtRWX
	}
	r, err := e.mgr.Acquire(len(payload), prot)
	if err != nil {
		return nil, err
	}
	observability.RecordRegionAcquired(r.Len())

	if err := r.Write(payload); err != nil {
		e.discard(r)
		return nil, err
	}
	if !e.opts.AllowRWX {
		if err := r.Reprotect(memregion.ProtRX); err != nil {
			e.discard(r)
			return nil, err
		}
	}

	ep, err := entry.Bind(r, 0, entry.SigNoArgInt64)
	if err != nil {
		e.discard(r)
		return nil, err
	}

	e.log.Info().
		Int("payload_len", len(payload)).
		Int("region_len", r.Len()).
		Str("prot", r.Prot().String()).
		Msg("payload_loaded")
	return ep, nil
}

// LoadAndRun loads payload and invokes it once. The entry point is
// returned alive so the caller can patch and reinvoke; the region is
// owned by the engine until Teardown.
func (e *Engine) LoadAndRun(payload []byte) (*entry.EntryPoint, entry.Result, error) {
	ep, err := e.Load(payload)
	if err != nil {
		return nil, entry.Result{}, err
	}
	res, err := ep.Call()
	if err != nil {
		observability.RecordExecution("error")
		return nil, entry.Result{}, err
	}
	observability.RecordExecution("ok")
	e.log.Info().Int64("value", res.Value).Msg("payload_executed")
	return ep, res, nil
}

// LoadCarrierAndRun decodes the carrier first, then behaves like
// LoadAndRun on the recovered payload.
func (e *Engine) LoadCarrierAndRun(c *carrier.Container) (*entry.EntryPoint, entry.Result, error) {
	payload, err := carrier.Decode(c)
	if err != nil {
		return nil, entry.Result{}, err
	}
	return e.LoadAndRun(payload)
}

// Patch overwrites the region's bytes from offset 0 while keeping its
// base address, so every entry point bound into it stays valid. The
// region must currently be RX or RWX; the flip to RW and back happens
// under one lock hold, serialized against invocations.
func (e *Engine) Patch(r *memregion.Region, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if err := r.Rewrite(payload); err != nil {
		// Rewrite settles liveness and protection first, so a released
		// region surfaces as ErrInvalidRegion rather than a size failure.
		if errors.Is(err, memregion.ErrOutOfBounds) {
			return fmt.Errorf("%w: %d bytes into %d byte region", ErrResizeRequired, len(payload), r.Len())
		}
		return err
	}
	observability.RecordPatch()
	e.log.Info().Int("payload_len", len(payload)).Msg("region_patched")
	return nil
}

// Teardown releases the region; its handle and every entry point bound
// into it become invalid.
func (e *Engine) Teardown(r *memregion.Region) error {
	if err := e.mgr.Release(r); err != nil {
		return err
	}
	observability.RecordRegionReleased()
	return nil
}

// discard releases a half-initialized region on a load failure path.
func (e *Engine) discard(r *memregion.Region) {
	if err := e.mgr.Release(r); err != nil {
		e.log.Warn().Err(err).Msg("region_discard_failed")
		return
	}
	observability.RecordRegionReleased()
}
