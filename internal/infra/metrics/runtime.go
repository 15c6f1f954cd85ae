package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(userCacheTotal, dbPoolConns, inboundQueueDepth, buildInfo) }

var (
	userCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "User registry cache lookups by result (hit/miss).",
		},
		[]string{"cache", "result"},
	)

	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_stats",
			Help: "Postgres pool connections by state; all zero when persistence is disabled.",
		},
		[]string{"state"},
	)

	inboundQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inbound_queue_depth",
			Help: "Pending inbound registration tasks per worker pool.",
		},
		[]string{"pool"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Always 1; labels carry the running version and commit.",
		},
		[]string{"version", "commit"},
	)
)

func IncCacheRequest(cache, result string) {
	userCacheTotal.WithLabelValues(norm(cache), norm(result)).Inc()
}

func SetDBPoolStats(total, idle, inUse int32) {
	dbPoolConns.WithLabelValues("total").Set(float64(total))
	dbPoolConns.WithLabelValues("idle").Set(float64(idle))
	dbPoolConns.WithLabelValues("in_use").Set(float64(inUse))
}

func SetInboundQueueDepth(pool string, depth int) {
	inboundQueueDepth.WithLabelValues(norm(pool)).Set(float64(depth))
}

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}
