package carrier

import (
	"encoding/hex"
	"fmt"
)

// encodeHexText renders the payload as lowercase hex, 2N digits total.
// The chunked variant splits the payload into ceil(N/C) pieces of at
// most C bytes before hex expansion, preserving order; the single-chunk
// variant enforces C as a hard maximum.
func encodeHexText(payload []byte, params Params) (*Container, error) {
	chunkSize := params.HexChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultHexChunkSize
	}
	n := len(payload)
	if !params.HexChunked && n > chunkSize {
		return nil, fmt.Errorf("%w: %d byte payload, single-chunk maximum is %d",
			ErrCapacityExceeded, n, chunkSize)
	}

	var chunks []string
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		chunks = append(chunks, hex.EncodeToString(payload[start:end]))
	}

	return &Container{
		Kind:       KindHexText,
		PayloadLen: n,
		ChunkSize:  chunkSize,
		Chunks:     chunks,
	}, nil
}

func decodeHexText(c *Container) ([]byte, error) {
	chunkSize := c.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultHexChunkSize
	}

	// Size up the chunks before any allocation; payload_len arrives in an
	// untrusted envelope and must never drive a capacity hint.
	total := 0
	for i, chunk := range c.Chunks {
		if len(chunk)%2 != 0 {
			return nil, fmt.Errorf("%w: chunk %d has odd hex length %d", ErrTruncated, i, len(chunk))
		}
		if len(chunk)/2 > chunkSize {
			return nil, fmt.Errorf("%w: chunk %d holds %d bytes, maximum is %d",
				ErrCorrupt, i, len(chunk)/2, chunkSize)
		}
		total += len(chunk) / 2
	}
	if total < c.PayloadLen {
		return nil, fmt.Errorf("%w: chunks hold %d bytes, metadata says %d",
			ErrTruncated, total, c.PayloadLen)
	}
	if total > c.PayloadLen {
		return nil, fmt.Errorf("%w: chunks hold %d bytes, metadata says %d",
			ErrCorrupt, total, c.PayloadLen)
	}

	payload := make([]byte, 0, total)
	for i, chunk := range c.Chunks {
		raw, err := hex.DecodeString(chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", ErrCorrupt, i, err)
		}
		payload = append(payload, raw...)
	}
	return payload, nil
}
