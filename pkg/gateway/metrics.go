package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foxgate",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Requests sent to the vendor by path and result kind",
	}, []string{"path", "result"})

	metricRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "foxgate",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Duration of vendor exchanges by path",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path"})

	metricLogins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foxgate",
		Subsystem: "gateway",
		Name:      "logins_total",
		Help:      "Login exchanges by result kind",
	}, []string{"result"})

	metricCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foxgate",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Response cache lookups by result (hit, miss)",
	}, []string{"result"})

	metricRepairs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "foxgate",
		Subsystem: "repair",
		Name:      "values_total",
		Help:      "Telemetry readings corrected by the value repair filter",
	})

	metricRoutes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "foxgate",
		Subsystem: "router",
		Name:      "calls_total",
		Help:      "Gateway calls by route (real, demo)",
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(
		metricRequests,
		metricRequestDuration,
		metricLogins,
		metricCacheLookups,
		metricRepairs,
		metricRoutes,
	)
}

// resultLabel returns the metric label for the outcome of a call.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}
