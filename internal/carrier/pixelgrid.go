package carrier

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
)

// gridDims returns the smallest rectangle with width*height >= n,
// keeping the grid roughly square. A zero-byte payload still needs one
// pixel because PNG rejects empty images.
func gridDims(n int) (width, height int) {
	if n <= 1 {
		return 1, 1
	}
	width = int(math.Ceil(math.Sqrt(float64(n))))
	height = (n + width - 1) / width
	return width, height
}

// encodePixelGrid stores byte i as the gray intensity of pixel i in
// row-major order; trailing pixels stay zero.
func encodePixelGrid(payload []byte) (*Container, error) {
	w, h := gridDims(len(payload))
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, payload)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("carrier: render %dx%d pixel grid: %w", w, h, err)
	}
	return &Container{
		Kind:       KindPixelGrid,
		PayloadLen: len(payload),
		Width:      w,
		Height:     h,
		Data:       buf.Bytes(),
	}, nil
}

func decodePixelGrid(c *Container) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(c.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: pixel grid is not a valid PNG: %v", ErrCorrupt, err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("%w: pixel grid is not single-channel gray (%T)", ErrCorrupt, img)
	}

	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if c.Width != 0 && (w != c.Width || h != c.Height) {
		return nil, fmt.Errorf("%w: pixel grid is %dx%d, metadata says %dx%d",
			ErrCorrupt, w, h, c.Width, c.Height)
	}
	if w*h < c.PayloadLen {
		return nil, fmt.Errorf("%w: %d pixels hold fewer than %d payload bytes",
			ErrTruncated, w*h, c.PayloadLen)
	}

	payload := make([]byte, c.PayloadLen)
	for i := range payload {
		payload[i] = gray.Pix[(i/w)*gray.Stride+i%w]
	}
	return payload, nil
}
