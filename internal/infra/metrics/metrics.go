// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		dispatchMessagesTotal,
		dispatchLatencyMs,
		adapterState,
	)
}

var (
	dispatchMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_messages_total",
			Help: "Send attempts per platform by outcome (sent/failed/rejected) and mode (live/demo).",
		},
		[]string{"platform", "status", "mode"},
	)

	dispatchLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_latency_ms",
			Help:    "End-to-end send latency in milliseconds, registry and audit writes included.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
		[]string{"platform", "success"},
	)

	adapterState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "adapter_state",
			Help: "1 for the current lifecycle state of each platform adapter, 0 otherwise.",
		},
		[]string{"platform", "state"},
	)
)

var adapterStates = []string{"uninitialized", "demo", "connected", "failed"}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Dispatch helpers --------

func ObserveDispatch(platform, status string, demo bool, latencyMs int64) {
	mode := "live"
	if demo {
		mode = "demo"
	}
	dispatchMessagesTotal.WithLabelValues(norm(platform), norm(status), mode).Inc()
	dispatchLatencyMs.WithLabelValues(norm(platform), strconv.FormatBool(status == "sent")).
		Observe(float64(latencyMs))
}

func IncDispatchRejected(platform string) {
	dispatchMessagesTotal.WithLabelValues(norm(platform), "rejected", "none").Inc()
}

// SetAdapterState flips the gauge so exactly one state is 1 per platform.
func SetAdapterState(platform, state string) {
	for _, s := range adapterStates {
		v := 0.0
		if s == norm(state) {
			v = 1
		}
		adapterState.WithLabelValues(norm(platform), s).Set(v)
	}
}
