package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		registryUpsertsTotal,
		auditWritesTotal,
		inboundMessagesTotal,
	)
}

var (
	registryUpsertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_upserts_total",
			Help: "User registry upsert attempts by result (ok/error).",
		},
		[]string{"platform", "result"},
	)

	auditWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_writes_total",
			Help: "Message audit log appends by result (ok/error).",
		},
		[]string{"platform", "result"},
	)

	inboundMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_messages_total",
			Help: "Direct messages received from users, by whether they were queued for registration.",
		},
		[]string{"platform", "result"},
	)
)

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func IncRegistryUpsert(platform string, ok bool) {
	registryUpsertsTotal.WithLabelValues(norm(platform), result(ok)).Inc()
}

func IncAuditWrite(platform string, ok bool) {
	auditWritesTotal.WithLabelValues(norm(platform), result(ok)).Inc()
}

func IncInbound(platform, result string) {
	inboundMessagesTotal.WithLabelValues(norm(platform), norm(result)).Inc()
}
