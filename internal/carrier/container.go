package carrier

import "fmt"

// Kind tags the carrier representation held by a Container.
type Kind string

const (
	KindPixelGrid Kind = "pixel-grid"
	KindAudioWave Kind = "audio-wave"
	KindHexText   Kind = "hex-text"
)

// Valid reports whether k names a supported carrier kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPixelGrid, KindAudioWave, KindHexText:
		return true
	}
	return false
}

const (
	// DefaultHexChunkSize is the label-style maximum: 255 payload bytes
	// per chunk before hex expansion.
	DefaultHexChunkSize = 255

	// DefaultSampleRate is the waveform rate used when params leave it
	// unset. Matches standard CD-quality mono capture.
	DefaultSampleRate = 44100
)

// Params carries the per-kind knobs accepted by Encode.
type Params struct {
	// HexChunkSize is the hard per-chunk maximum C in payload bytes.
	// Zero selects DefaultHexChunkSize.
	HexChunkSize int

	// HexChunked selects the chunking variant. When false, payloads
	// larger than HexChunkSize fail with ErrCapacityExceeded.
	HexChunked bool

	// SampleRate is the audio-wave frame rate. Zero selects
	// DefaultSampleRate.
	SampleRate int
}

// DefaultParams returns the params used by the CLI and service when the
// caller does not override them.
func DefaultParams() Params {
	return Params{
		HexChunkSize: DefaultHexChunkSize,
		HexChunked:   true,
		SampleRate:   DefaultSampleRate,
	}
}

// Container is the tagged union over the supported carrier kinds. Data
// holds the rendered carrier (a complete PNG or WAV file); hex-text
// carriers use Chunks instead, preserving chunk order for reassembly.
// PayloadLen is authoritative: renderings may pad past it.
type Container struct {
	Kind       Kind   `cbor:"kind" json:"kind"`
	PayloadLen int    `cbor:"payload_len" json:"payload_len"`
	Data       []byte `cbor:"data,omitempty" json:"data,omitempty"`

	// pixel-grid
	Width  int `cbor:"width,omitempty" json:"width,omitempty"`
	Height int `cbor:"height,omitempty" json:"height,omitempty"`

	// audio-wave
	SampleRate int `cbor:"sample_rate,omitempty" json:"sample_rate,omitempty"`

	// hex-text
	ChunkSize int      `cbor:"chunk_size,omitempty" json:"chunk_size,omitempty"`
	Chunks    []string `cbor:"chunks,omitempty" json:"chunks,omitempty"`
}

// Encode stores payload inside a fresh carrier of the given kind.
func Encode(payload []byte, kind Kind, params Params) (*Container, error) {
	switch kind {
	case KindPixelGrid:
		return encodePixelGrid(payload)
	case KindAudioWave:
		return encodeAudioWave(payload, params.SampleRate)
	case KindHexText:
		return encodeHexText(payload, params)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Decode recovers the exact payload bytes stored in c.
func Decode(c *Container) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil container", ErrCorrupt)
	}
	if c.PayloadLen < 0 {
		return nil, fmt.Errorf("%w: negative payload length %d", ErrCorrupt, c.PayloadLen)
	}
	switch c.Kind {
	case KindPixelGrid:
		return decodePixelGrid(c)
	case KindAudioWave:
		return decodeAudioWave(c)
	case KindHexText:
		return decodeHexText(c)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
}
