package apiclient

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/civixvote/console/metrics"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "console",
		Subsystem: "apiclient",
		Name:      "requests_total",
		Help:      "API requests by endpoint and outcome (HTTP status or network_error)",
	}, []string{"endpoint", "outcome"})

	votesCast = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "console",
		Subsystem: "apiclient",
		Name:      "votes_cast_total",
		Help:      "Provisional votes successfully registered",
	})

	votesConfirmed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "console",
		Subsystem: "apiclient",
		Name:      "votes_confirmed_total",
		Help:      "Votes confirmed and committed on-chain",
	})

	registerOnce sync.Once
)

func registerMetrics() {
	registerOnce.Do(func() {
		metrics.Register(requestsTotal)
		metrics.Register(votesCast)
		metrics.Register(votesConfirmed)
	})
}

func requestMetric(urlPath []string, outcome string) {
	endpoint := "unknown"
	if len(urlPath) > 0 {
		endpoint = urlPath[0]
	}
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
}
