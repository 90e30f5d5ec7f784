package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestConsumerMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewConsumerMetrics(reg)
	consumer := "video-deletion"
	metrics.ObserveDuration(consumer, 250*time.Millisecond)
	metrics.IncSuccess(consumer)
	metrics.IncFailure(consumer)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "consumer_message_success", "consumer", consumer); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "consumer_message_failure", "consumer", consumer); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "consumer_message_duration_seconds", "consumer", consumer); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("/graphql/{operation}", http.MethodPost, http.StatusOK, 10*time.Millisecond)
	metrics.Observe("/graphql/{operation}", http.MethodPost, http.StatusOK, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "status", "200"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 2 {
		t.Fatalf("expected requests=2, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/graphql/{operation}"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNotificationAndOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	notifications := NewNotificationMetrics(reg)
	outbox := NewOutboxMetrics(reg)
	notifications.IncRecorded("LIKE")
	notifications.IncAnnounceFailure()
	outbox.IncPublished("publish_viewed")
	outbox.IncDeadLettered("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "notifications_recorded_total", "type", "LIKE"); err != nil || got != 1 {
		t.Fatalf("expected recorded=1, got %f (%v)", got, err)
	}
	mf := findMetricFamily(mfs, "notifications_announce_failures_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatal("expected one announce failure")
	}
	if got, err := fetchCounterValue(mfs, "outbox_published_total", "event_type", "publish_viewed"); err != nil || got != 1 {
		t.Fatalf("expected published=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_dead_lettered_total", "event_type", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected dead lettered=1, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var httpMetrics *HTTPMetrics
	httpMetrics.Observe("r", http.MethodGet, 200, time.Second)
	var consumer *ConsumerMetrics
	consumer.IncSuccess("c")
	NewNotificationMetrics(nil).IncRecorded("FOLLOW")
	NewOutboxMetrics(nil).IncFailed("tip_sent")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
