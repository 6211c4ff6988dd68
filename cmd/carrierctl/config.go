package main

import (
	"github.com/danmuck/carrierctl/internal/carrier"
	"github.com/danmuck/carrierctl/internal/config"
	"github.com/danmuck/carrierctl/internal/engine"
)

// loadConfig resolves the tool configuration: defaults when no path is
// given, otherwise the TOML overlay from disk.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func carrierParams(cfg config.Config) carrier.Params {
	return carrier.Params{
		HexChunkSize: cfg.Carrier.HexChunkSize,
		HexChunked:   cfg.Carrier.HexChunked,
		SampleRate:   cfg.Carrier.SampleRate,
	}
}

func engineOptions(cfg config.Config) engine.Options {
	return engine.Options{
		MaxPayloadBytes: cfg.Engine.MaxPayloadBytes,
		AllowRWX:        cfg.Engine.AllowRWX,
	}
}
