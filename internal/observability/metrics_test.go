package observability

import (
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("carrierd", "POST", "/v1/encode", 200, 12*time.Millisecond)
	RecordEncode("pixel-grid", true)
	RecordEncode("hex-text", false)
	RecordDecode("audio-wave", true)
	RecordRegionAcquired(4096)
	RecordExecution("ok")
	RecordPatch()
	RecordRegionReleased()
}
