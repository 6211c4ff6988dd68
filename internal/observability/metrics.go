package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carrierctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "carrierctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	carrierEncodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carrierctl",
			Subsystem: "carrier",
			Name:      "encodes_total",
			Help:      "Payload encodes by carrier kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	carrierDecodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carrierctl",
			Subsystem: "carrier",
			Name:      "decodes_total",
			Help:      "Carrier decodes by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	regionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "carrierctl",
			Subsystem: "engine",
			Name:      "regions_active",
			Help:      "Memory regions currently mapped.",
		},
	)
	regionBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "carrierctl",
			Subsystem: "engine",
			Name:      "region_bytes_total",
			Help:      "Total bytes mapped across all acquired regions.",
		},
	)
	executions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carrierctl",
			Subsystem: "engine",
			Name:      "executions_total",
			Help:      "Payload invocations by outcome.",
		},
		[]string{"outcome"},
	)
	patches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "carrierctl",
			Subsystem: "engine",
			Name:      "patches_total",
			Help:      "In-place region patches.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			carrierEncodes, carrierDecodes,
			regionsActive, regionBytes, executions, patches,
		)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordEncode(kind string, ok bool) {
	RegisterMetrics()
	carrierEncodes.WithLabelValues(kind, outcomeLabel(ok)).Inc()
}

func RecordDecode(kind string, ok bool) {
	RegisterMetrics()
	carrierDecodes.WithLabelValues(kind, outcomeLabel(ok)).Inc()
}

func RecordRegionAcquired(length int) {
	RegisterMetrics()
	regionsActive.Inc()
	regionBytes.Add(float64(length))
}

func RecordRegionReleased() {
	RegisterMetrics()
	regionsActive.Dec()
}

func RecordExecution(outcome string) {
	RegisterMetrics()
	executions.WithLabelValues(outcome).Inc()
}

func RecordPatch() {
	RegisterMetrics()
	patches.Inc()
}

func outcomeLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
