package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var metricHTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "foxgate",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Local API requests by route and status code",
}, []string{"route", "code"})

func init() {
	prometheus.MustRegister(metricHTTPRequests)
}
