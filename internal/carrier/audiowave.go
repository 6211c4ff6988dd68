package carrier

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// encodeAudioWave stores byte i as one unsigned 8-bit sample of a mono
// waveform; the frame count equals the payload length exactly.
func encodeAudioWave(payload []byte, sampleRate int) (*Container, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	samples := make([]int, len(payload))
	for i, b := range payload {
		samples[i] = int(b)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 8,
	}

	var sb seekBuffer
	enc := wav.NewEncoder(&sb, sampleRate, 8, 1, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("carrier: render waveform: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("carrier: finalize waveform: %w", err)
	}

	return &Container{
		Kind:       KindAudioWave,
		PayloadLen: len(payload),
		SampleRate: sampleRate,
		Data:       sb.buf,
	}, nil
}

func decodeAudioWave(c *Container) ([]byte, error) {
	dec := wav.NewDecoder(bytes.NewReader(c.Data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: waveform is not a valid WAV: %v", ErrCorrupt, err)
	}
	if dec.NumChans != 1 || dec.BitDepth != 8 {
		return nil, fmt.Errorf("%w: waveform is %d-channel %d-bit, expected mono 8-bit",
			ErrCorrupt, dec.NumChans, dec.BitDepth)
	}
	var frames []int
	if buf != nil {
		frames = buf.Data
	}
	if len(frames) < c.PayloadLen {
		return nil, fmt.Errorf("%w: %d frames hold fewer than %d payload bytes",
			ErrTruncated, len(frames), c.PayloadLen)
	}
	if len(frames) > c.PayloadLen {
		return nil, fmt.Errorf("%w: %d frames for a %d byte payload",
			ErrCorrupt, len(frames), c.PayloadLen)
	}

	payload := make([]byte, c.PayloadLen)
	for i, v := range frames {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: sample %d out of 8-bit range: %d", ErrCorrupt, i, v)
		}
		payload[i] = byte(v)
	}
	return payload, nil
}

// seekBuffer is the io.WriteSeeker the WAV encoder needs so it can
// backpatch RIFF sizes after the sample data; bytes.Buffer cannot seek.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + len(p); end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	copy(s.buf[s.pos:], p)
	s.pos += len(p)
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(s.pos) + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("carrier: invalid seek whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("carrier: seek before start of buffer")
	}
	s.pos = int(abs)
	return abs, nil
}
