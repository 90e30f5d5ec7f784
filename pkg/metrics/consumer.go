package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics records message handling for bus subscribers.
type ConsumerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewConsumerMetrics registers the consumer metrics on the provided registerer.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "consumer_message_duration_seconds",
		Help:    "Time spent handling one bus message.",
		Buckets: prometheus.DefBuckets,
	}, []string{"consumer"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_message_success",
		Help: "Bus messages handled and acked.",
	}, []string{"consumer"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_message_failure",
		Help: "Bus messages that failed handling.",
	}, []string{"consumer"})
	reg.MustRegister(duration, success, failure)
	return &ConsumerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records how long the consumer spent on one message.
func (c *ConsumerMetrics) ObserveDuration(consumer string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(consumer)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the consumer.
func (c *ConsumerMetrics) IncSuccess(consumer string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(consumer)).Inc()
}

// IncFailure increments the failure counter for the consumer.
func (c *ConsumerMetrics) IncFailure(consumer string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(consumer)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
