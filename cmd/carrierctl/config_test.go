package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWithoutPath(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	params := carrierParams(cfg)
	if params.HexChunkSize != 255 || !params.HexChunked || params.SampleRate != 44100 {
		t.Fatalf("unexpected default params: %+v", params)
	}
	opts := engineOptions(cfg)
	if opts.AllowRWX || opts.MaxPayloadBytes != 8*1024*1024 {
		t.Fatalf("unexpected default engine options: %+v", opts)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carrier.toml")
	body := `
[engine]
allow_rwx = true
max_payload_bytes = 1024

[carrier]
hex_chunk_size = 63
hex_chunked = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	params := carrierParams(cfg)
	if params.HexChunkSize != 63 || params.HexChunked {
		t.Fatalf("params overlay missing: %+v", params)
	}
	opts := engineOptions(cfg)
	if !opts.AllowRWX || opts.MaxPayloadBytes != 1024 {
		t.Fatalf("engine overlay missing: %+v", opts)
	}
}
