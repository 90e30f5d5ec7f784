package enums

import "slices"

// OutboxAggregateType names the entity an engagement event belongs to.
type OutboxAggregateType string

const (
	AggregatePublish OutboxAggregateType = "publish"
	AggregateComment OutboxAggregateType = "comment"
	AggregateTip     OutboxAggregateType = "tip"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePublish,
	AggregateComment,
	AggregateTip,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains(validAggregateTypes, a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse(validAggregateTypes, "aggregate type", value)
}

// OutboxEventType names an engagement event written to the outbox.
type OutboxEventType string

const (
	EventPublishViewed  OutboxEventType = "publish_viewed"
	EventPublishLiked   OutboxEventType = "publish_liked"
	EventCommentCreated OutboxEventType = "comment_created"
	EventTipSent        OutboxEventType = "tip_sent"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPublishViewed,
	EventPublishLiked,
	EventCommentCreated,
	EventTipSent,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	return slices.Contains(validOutboxEventTypes, e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse(validOutboxEventTypes, "event type", value)
}

// OutboxDLQErrorReason records why an outbox row was moved to the DLQ.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return slices.Contains([]OutboxDLQErrorReason{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}, r)
}
