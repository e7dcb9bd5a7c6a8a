package workload

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tableorders/pkg/client"
)

// Outcome labels.
const (
	OutcomeOK         = "ok"
	OutcomeNotFound   = "not_found"
	OutcomeBadRequest = "bad_request"
	OutcomeTimeout    = "timeout"
	OutcomeError      = "error"
)

// Metrics holds the generator's collectors.
type Metrics struct {
	ticks   prometheus.Counter
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics registers the generator collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loadgen",
			Name:      "ticks_total",
			Help:      "Ticks started.",
		}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadgen",
			Name:      "operations_total",
			Help:      "Operations issued by kind and outcome.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loadgen",
			Name:      "operation_duration_seconds",
			Help:      "Operation latency by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"op"}),
	}
	reg.MustRegister(m.ticks, m.ops, m.latency)
	return m
}

func (m *Metrics) observe(op string, err error, elapsed time.Duration) {
	m.ops.WithLabelValues(op, outcome(err)).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, client.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, client.ErrBadRequest):
		return OutcomeBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	}
	return OutcomeError
}
