package carrier

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Containers travel between tools as a single canonical CBOR blob so a
// byte-identical envelope always means a byte-identical carrier.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("carrier: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalContainer serializes a Container to its CBOR envelope.
func MarshalContainer(c *Container) ([]byte, error) {
	return cborEncMode.Marshal(c)
}

// UnmarshalContainer deserializes a Container from its CBOR envelope.
func UnmarshalContainer(data []byte) (*Container, error) {
	var c Container
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("carrier: unmarshal envelope: %w", err)
	}
	return &c, nil
}
