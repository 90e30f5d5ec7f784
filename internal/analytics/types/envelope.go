package types

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

// Envelope is one engagement event read off the analytics subscription.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.AnalyticsEventType  `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}

// LogFields adds the envelope identity to fields and returns it.
func (e Envelope) LogFields(fields map[string]any) map[string]any {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["event_id"] = e.EventID
	fields["event_type"] = e.EventType
	fields["aggregate_type"] = e.AggregateType
	fields["aggregate_id"] = e.AggregateID
	fields["occurred_at"] = e.OccurredAt.UTC().Format(time.RFC3339Nano)
	return fields
}
