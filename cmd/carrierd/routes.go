package main

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/danmuck/carrierctl/internal/carrier"
	"github.com/danmuck/carrierctl/internal/config"
	"github.com/danmuck/carrierctl/internal/observability"
)

var startedAt = time.Now()

// service exposes the codec over HTTP. It deliberately has no execute
// endpoint: invoking opaque bytes stays a local, explicit CLI action.
type service struct {
	cfg config.Config
	log zerolog.Logger
}

func newService(cfg config.Config, log zerolog.Logger) *service {
	return &service{cfg: cfg, log: log}
}

func (s *service) register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": "carrierd",
			"version": "0.0.1",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/encode", s.handleEncode)
	v1.POST("/decode", s.handleDecode)
	v1.POST("/inspect", s.handleInspect)
}

type encodeRequest struct {
	Kind         string `json:"kind" binding:"required"`
	PayloadB64   string `json:"payload_b64"`
	HexChunkSize int    `json:"hex_chunk_size"`
	HexChunked   *bool  `json:"hex_chunked"`
	SampleRate   int    `json:"sample_rate"`
}

func (s *service) handleEncode(c *gin.Context) {
	var req encodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, err := base64.StdEncoding.DecodeString(req.PayloadB64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload_b64 is not valid base64"})
		return
	}

	params := carrier.Params{
		HexChunkSize: s.cfg.Carrier.HexChunkSize,
		HexChunked:   s.cfg.Carrier.HexChunked,
		SampleRate:   s.cfg.Carrier.SampleRate,
	}
	if req.HexChunkSize > 0 {
		params.HexChunkSize = req.HexChunkSize
	}
	if req.HexChunked != nil {
		params.HexChunked = *req.HexChunked
	}
	if req.SampleRate > 0 {
		params.SampleRate = req.SampleRate
	}

	kind := carrier.Kind(req.Kind)
	cont, err := carrier.Encode(payload, kind, params)
	observability.RecordEncode(metricKind(kind), err == nil)
	if err != nil {
		c.JSON(codecStatus(err), gin.H{"error": err.Error()})
		return
	}
	envelope, err := carrier.MarshalContainer(cont)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":         cont.Kind,
		"payload_len":  cont.PayloadLen,
		"envelope_b64": base64.StdEncoding.EncodeToString(envelope),
		"width":        cont.Width,
		"height":       cont.Height,
		"sample_rate":  cont.SampleRate,
		"chunk_count":  len(cont.Chunks),
	})
}

type decodeRequest struct {
	EnvelopeB64 string `json:"envelope_b64" binding:"required"`
}

func (s *service) handleDecode(c *gin.Context) {
	cont, ok := s.bindEnvelope(c)
	if !ok {
		return
	}
	payload, err := carrier.Decode(cont)
	observability.RecordDecode(metricKind(cont.Kind), err == nil)
	if err != nil {
		c.JSON(codecStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":        cont.Kind,
		"payload_len": len(payload),
		"payload_b64": base64.StdEncoding.EncodeToString(payload),
	})
}

// handleInspect returns the hex dump collaborators use for byte-for-byte
// comparison against a region snapshot.
func (s *service) handleInspect(c *gin.Context) {
	cont, ok := s.bindEnvelope(c)
	if !ok {
		return
	}
	payload, err := carrier.Decode(cont)
	if err != nil {
		c.JSON(codecStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":        cont.Kind,
		"payload_len": len(payload),
		"hexdump":     hex.Dump(payload),
	})
}

func (s *service) bindEnvelope(c *gin.Context) (*carrier.Container, bool) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(req.EnvelopeB64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "envelope_b64 is not valid base64"})
		return nil, false
	}
	cont, err := carrier.UnmarshalContainer(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return cont, true
}

// metricKind folds client-supplied kind strings into a bounded label
// set so callers cannot mint metric series.
func metricKind(k carrier.Kind) string {
	if k.Valid() {
		return string(k)
	}
	return "unknown"
}

func codecStatus(err error) int {
	switch {
	case errors.Is(err, carrier.ErrCapacityExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, carrier.ErrTruncated), errors.Is(err, carrier.ErrCorrupt):
		return http.StatusUnprocessableEntity
	case errors.Is(err, carrier.ErrUnknownKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
