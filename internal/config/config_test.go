package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carrier.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[carrier]
hex_chunk_size = 63

[serve]
addr = ":9999"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level: got=%q want=debug", cfg.LogLevel)
	}
	if cfg.Carrier.HexChunkSize != 63 {
		t.Fatalf("hex_chunk_size: got=%d want=63", cfg.Carrier.HexChunkSize)
	}
	if cfg.Serve.Addr != ":9999" {
		t.Fatalf("addr: got=%q want=:9999", cfg.Serve.Addr)
	}
	// untouched keys keep their defaults
	if cfg.Carrier.SampleRate != 44100 {
		t.Fatalf("sample_rate default lost: got=%d", cfg.Carrier.SampleRate)
	}
	if cfg.Engine.MaxPayloadBytes != 8*1024*1024 {
		t.Fatalf("max_payload_bytes default lost: got=%d", cfg.Engine.MaxPayloadBytes)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[carrier]
hex_chunksize = 63
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []string{
		"[carrier]\nhex_chunk_size = 0\n",
		"[carrier]\nhex_chunk_size = 256\n",
		"[carrier]\nsample_rate = -1\n",
		"[serve]\naddr = \" \"\n",
		"[engine]\nmax_payload_bytes = -1\n",
		"log_level = \"verbose\"\n",
	}
	for _, body := range cases {
		path := writeConfig(t, body)
		if _, err := Load(path); err == nil {
			t.Fatalf("expected validation error for %q", body)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
