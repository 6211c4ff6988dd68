package testlog

import (
	"testing"

	"github.com/rs/zerolog"
)

// Logger returns a per-test logger writing through t.Log so output
// stays attached to the test that produced it.
func Logger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).With().Str("test", t.Name()).Logger()
}
