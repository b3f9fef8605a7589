package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeOK          = "ok"
	outcomeCallerError = "caller_error"
	outcomeError       = "error"
)

// Generation strategy label values.
const (
	strategyMemory   = "memory"
	strategyDistinct = "distinct"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "layerq_requests_total",
		Help: "Total engine requests by operation and outcome",
	}, []string{"op", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "layerq_request_duration_seconds",
		Help:    "Engine request latency by operation",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"op"})

	generatedLayers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "layerq_generated_layers_total",
		Help: "Total layers produced by the generator by strategy",
	}, []string{"strategy"})

	generateShortfall = promauto.NewCounter(prometheus.CounterOpts{
		Name: "layerq_generate_shortfall_total",
		Help: "Total generator calls that returned fewer layers than requested",
	})
)

func observe(op string, start time.Time, err error) {
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case IsCallerError(err):
		return outcomeCallerError
	default:
		return outcomeError
	}
}
