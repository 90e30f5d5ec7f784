package enums

import "slices"

// AnalyticsEventType is the canonical event_type used for analytics routing.
type AnalyticsEventType string

const (
	AnalyticsEventPublishViewed  AnalyticsEventType = "publish_viewed"
	AnalyticsEventPublishLiked   AnalyticsEventType = "publish_liked"
	AnalyticsEventCommentCreated AnalyticsEventType = "comment_created"
	AnalyticsEventTipSent        AnalyticsEventType = "tip_sent"
)

var validAnalyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventPublishViewed,
	AnalyticsEventPublishLiked,
	AnalyticsEventCommentCreated,
	AnalyticsEventTipSent,
}

// IsValid reports whether the value matches the canonical analytics event_type enum.
func (a AnalyticsEventType) IsValid() bool {
	return slices.Contains(validAnalyticsEventTypes, a)
}

// ParseAnalyticsEventType converts the raw string to AnalyticsEventType.
func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	return parse(validAnalyticsEventTypes, "analytics event type", value)
}
