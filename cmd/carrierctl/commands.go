package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/danmuck/carrierctl/internal/carrier"
	"github.com/danmuck/carrierctl/internal/engine"
	"github.com/danmuck/carrierctl/internal/entry"
	"github.com/danmuck/carrierctl/internal/observability"
)

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	configPath := fs.String("config", "", "path to TOML config")
	kind := fs.String("kind", string(carrier.KindHexText), "carrier kind: pixel-grid, audio-wave, hex-text")
	in := fs.String("in", "", "payload file to encode")
	out := fs.String("out", "", "envelope file to write")
	single := fs.Bool("single", false, "hex-text only: refuse chunking, hard maximum applies")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("encode: -in and -out are required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	params := carrierParams(cfg)
	if *single {
		params.HexChunked = false
	}

	payload, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("encode: read payload: %w", err)
	}

	c, err := carrier.Encode(payload, carrier.Kind(*kind), params)
	observability.RecordEncode(kindLabel(carrier.Kind(*kind)), err == nil)
	if err != nil {
		return err
	}

	envelope, err := carrier.MarshalContainer(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, envelope, 0o644); err != nil {
		return fmt.Errorf("encode: write envelope: %w", err)
	}
	fmt.Printf("encoded %d payload bytes into %s carrier (%d envelope bytes)\n",
		len(payload), c.Kind, len(envelope))
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	in := fs.String("in", "", "envelope file to decode")
	out := fs.String("out", "", "payload file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("decode: -in and -out are required")
	}

	c, err := readEnvelope(*in)
	if err != nil {
		return err
	}
	payload, err := carrier.Decode(c)
	observability.RecordDecode(kindLabel(c.Kind), err == nil)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		return fmt.Errorf("decode: write payload: %w", err)
	}
	fmt.Printf("recovered %d payload bytes from %s carrier\n", len(payload), c.Kind)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	in := fs.String("in", "", "file to dump")
	envelope := fs.Bool("envelope", false, "treat input as a carrier envelope and dump the recovered payload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("inspect: -in is required")
	}

	var payload []byte
	if *envelope {
		c, err := readEnvelope(*in)
		if err != nil {
			return err
		}
		payload, err = carrier.Decode(c)
		if err != nil {
			return err
		}
	} else {
		var err error
		payload, err = os.ReadFile(*in)
		if err != nil {
			return fmt.Errorf("inspect: read payload: %w", err)
		}
	}
	fmt.Print(hex.Dump(payload))
	return nil
}

func runExecute(logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to TOML config")
	in := fs.String("in", "", "carrier envelope to execute")
	raw := fs.Bool("raw", false, "treat input as raw payload bytes, not an envelope")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("run: -in is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger = logger.Level(observability.ParseLevel(cfg.LogLevel))
	eng := engine.New(logger, engineOptions(cfg))

	ep, res, err := loadAndRunFile(eng, *in, *raw)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Teardown(ep.Region()); err != nil {
			logger.Warn().Err(err).Msg("teardown_failed")
		}
	}()

	fmt.Printf("payload returned %d\n", res.Value)
	return nil
}

func runSelfMod(logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("selfmod", flag.ExitOnError)
	configPath := fs.String("config", "", "path to TOML config")
	in := fs.String("in", "", "carrier envelope holding the initial payload")
	patch := fs.String("patch", "", "raw payload file to patch over the same region")
	raw := fs.Bool("raw", false, "treat input as raw payload bytes, not an envelope")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *patch == "" {
		return fmt.Errorf("selfmod: -in and -patch are required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger = logger.Level(observability.ParseLevel(cfg.LogLevel))
	eng := engine.New(logger, engineOptions(cfg))

	ep, res, err := loadAndRunFile(eng, *in, *raw)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Teardown(ep.Region()); err != nil {
			logger.Warn().Err(err).Msg("teardown_failed")
		}
	}()
	fmt.Printf("initial payload returned %d\n", res.Value)

	next, err := os.ReadFile(*patch)
	if err != nil {
		return fmt.Errorf("selfmod: read patch payload: %w", err)
	}
	if err := eng.Patch(ep.Region(), next); err != nil {
		return err
	}

	// Same entry point, same base address, new bytes.
	res2, err := ep.Call()
	if err != nil {
		return err
	}
	fmt.Printf("patched payload returned %d\n", res2.Value)
	return nil
}

func loadAndRunFile(eng *engine.Engine, path string, raw bool) (*entry.EntryPoint, entry.Result, error) {
	if raw {
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, entry.Result{}, fmt.Errorf("read payload: %w", err)
		}
		return eng.LoadAndRun(payload)
	}
	c, err := readEnvelope(path)
	if err != nil {
		return nil, entry.Result{}, err
	}
	return eng.LoadCarrierAndRun(c)
}

// kindLabel keeps metric labels to the supported kinds plus "unknown".
func kindLabel(k carrier.Kind) string {
	if k.Valid() {
		return string(k)
	}
	return "unknown"
}

func readEnvelope(path string) (*carrier.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}
	return carrier.UnmarshalContainer(data)
}
