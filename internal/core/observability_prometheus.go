package core

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation counters and latency
// histograms through a Prometheus registry.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the recorder's collectors with reg.
// A nil registerer falls back to the default registry; an empty namespace
// defaults to "rollcore". Re-registering against the same registry reuses
// the collectors already present.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer, namespace string) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "rollcore"
	}

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Service operations by outcome.",
	}, []string{"operation", "status"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Service operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	if err := registerCollector(reg, &operations); err != nil {
		return nil, err
	}
	if err := registerCollector(reg, &durations); err != nil {
		return nil, err
	}
	return &PrometheusMetricsRecorder{operations: operations, durations: durations}, nil
}

// registerCollector registers *vec with reg, replacing *vec with the
// previously registered collector when one exists.
func registerCollector[C prometheus.Collector](reg prometheus.Registerer, vec *C) error {
	err := reg.Register(*vec)
	if err == nil {
		return nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			*vec = existing
			return nil
		}
	}
	return err
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := outcomeError
	if success {
		status = outcomeSuccess
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}
