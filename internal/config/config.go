// Package config loads the shared TOML configuration for the carrier
// tools: engine limits, carrier defaults, and the serve endpoint.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	LogLevel string        `toml:"log_level"`
	Engine   EngineConfig  `toml:"engine"`
	Carrier  CarrierConfig `toml:"carrier"`
	Serve    ServeConfig   `toml:"serve"`
}

type EngineConfig struct {
	// AllowRWX loads payloads into one writable+executable mapping
	// instead of the RW-then-RX flip. Platforms enforcing W^X refuse it.
	AllowRWX        bool `toml:"allow_rwx"`
	MaxPayloadBytes int  `toml:"max_payload_bytes"`
}

type CarrierConfig struct {
	HexChunkSize int  `toml:"hex_chunk_size"`
	HexChunked   bool `toml:"hex_chunked"`
	SampleRate   int  `toml:"sample_rate"`
}

type ServeConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			AllowRWX:        false,
			MaxPayloadBytes: 8 * 1024 * 1024,
		},
		Carrier: CarrierConfig{
			HexChunkSize: 255,
			HexChunked:   true,
			SampleRate:   44100,
		},
		Serve: ServeConfig{
			Addr: ":9300",
		},
	}
}

// Load overlays the TOML file at path onto the defaults and validates
// the result. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	// toml leaves absent keys alone, so the overlay is already applied;
	// reject unknown keys to catch typos early.
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	if cfg.Engine.MaxPayloadBytes < 0 {
		return fmt.Errorf("config: max_payload_bytes must not be negative")
	}
	if cfg.Carrier.HexChunkSize <= 0 || cfg.Carrier.HexChunkSize > 255 {
		return fmt.Errorf("config: hex_chunk_size must be in 1..255, got %d", cfg.Carrier.HexChunkSize)
	}
	if cfg.Carrier.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d", cfg.Carrier.SampleRate)
	}
	if strings.TrimSpace(cfg.Serve.Addr) == "" {
		return fmt.Errorf("config: serve addr missing")
	}
	return nil
}
