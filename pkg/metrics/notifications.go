package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics tracks stored notifications and live announce failures.
type NotificationMetrics struct {
	recorded       *prometheus.CounterVec
	announceFailed prometheus.Counter
}

// NewNotificationMetrics registers the notification metrics on the provided registerer.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_recorded_total",
		Help: "Notifications stored by type.",
	}, []string{"type"})
	announceFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_announce_failures_total",
		Help: "Notification announcements that could not be published.",
	})
	reg.MustRegister(recorded, announceFailed)
	return &NotificationMetrics{recorded: recorded, announceFailed: announceFailed}
}

// IncRecorded counts a stored notification.
func (m *NotificationMetrics) IncRecorded(kind string) {
	if m == nil || m.recorded == nil {
		return
	}
	m.recorded.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncAnnounceFailure counts a failed announcement.
func (m *NotificationMetrics) IncAnnounceFailure() {
	if m == nil || m.announceFailed == nil {
		return
	}
	m.announceFailed.Inc()
}
