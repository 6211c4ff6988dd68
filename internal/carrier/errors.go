package carrier

import "errors"

var (
	// ErrCapacityExceeded reports a payload too large for a carrier
	// variant with a hard maximum and no chunking.
	ErrCapacityExceeded = errors.New("carrier: payload exceeds carrier capacity")

	// ErrTruncated reports fewer carrier bytes than the container
	// metadata declares.
	ErrTruncated = errors.New("carrier: truncated carrier data")

	// ErrCorrupt reports carrier values outside the valid channel,
	// sample, or hex-digit range, or a carrier file that does not parse.
	ErrCorrupt = errors.New("carrier: corrupt carrier data")

	// ErrUnknownKind reports a container whose kind tag is not one of
	// the supported carriers.
	ErrUnknownKind = errors.New("carrier: unknown carrier kind")
)
