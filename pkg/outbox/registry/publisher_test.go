package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/db/models"
	"github.com/angelmondragon/clipstream-backend/pkg/enums"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/payloads"
)

func TestResolveDecodesTypedPayload(t *testing.T) {
	reg := testRegistry(t)
	publishID := uuid.New()
	row := outboxRow(t, enums.EventPublishLiked, enums.AggregatePublish, publishID, payloads.PublishLikedEvent{
		PublishID: publishID,
		CreatorID: uuid.New(),
		ProfileID: uuid.New(),
	})

	resolved, err := reg.Resolve(row)
	require.NoError(t, err)
	require.Equal(t, "analytics-topic", resolved.Descriptor.Topic)
	require.Equal(t, enums.EventPublishLiked, resolved.Descriptor.EventType)
	require.NotEmpty(t, resolved.Envelope.EventID)
	require.False(t, resolved.Envelope.OccurredAt.IsZero())

	liked, ok := resolved.Payload.(*payloads.PublishLikedEvent)
	require.True(t, ok, "payload type %T", resolved.Payload)
	require.Equal(t, publishID, liked.PublishID)
}

func TestResolveKeepsTipDecimals(t *testing.T) {
	reg := testRegistry(t)
	tipID := uuid.New()
	row := outboxRow(t, enums.EventTipSent, enums.AggregateTip, tipID, json.RawMessage(
		`{"tip_id":"`+tipID.String()+`","publish_id":"`+uuid.NewString()+`","amount":"12.5","fee":"0.25"}`))

	resolved, err := reg.Resolve(row)
	require.NoError(t, err)
	tip := resolved.Payload.(*payloads.TipSentEvent)
	require.Equal(t, "12.5", tip.Amount.String())
	require.Equal(t, "0.25", tip.Fee.String())
}

func TestResolveRejectsUnpublishableRows(t *testing.T) {
	reg := testRegistry(t)
	cases := map[string]models.OutboxEvent{
		"unknown event type": outboxRow(t, enums.OutboxEventType("publish_shared"), enums.AggregatePublish, uuid.New(),
			json.RawMessage(`{"reason":"none"}`)),
		"aggregate mismatch": outboxRow(t, enums.EventCommentCreated, enums.AggregatePublish, uuid.New(),
			json.RawMessage(`{"comment_id":"00000000-0000-0000-0000-000000000000"}`)),
		"missing aggregate id": outboxRow(t, enums.EventTipSent, enums.AggregateTip, uuid.Nil, json.RawMessage(`{}`)),
		"null payload":         outboxRow(t, enums.EventTipSent, enums.AggregateTip, uuid.New(), json.RawMessage("null")),
		"payload fails validation": outboxRow(t, enums.EventPublishLiked, enums.AggregatePublish, uuid.New(),
			payloads.PublishLikedEvent{PublishID: uuid.New()}),
		"envelope is not json": {
			EventType:     enums.EventPublishViewed,
			AggregateType: enums.AggregatePublish,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`[`),
		},
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(row)
			var nonRetry NonRetryableError
			require.ErrorAs(t, err, &nonRetry)
		})
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{})
	require.Error(t, err)
}

func TestNonRetryableErrorUnwraps(t *testing.T) {
	require.Equal(t, "non-retryable error", NonRetryableError{}.Error())
	cause := json.Unmarshal([]byte("{"), &struct{}{})
	require.ErrorIs(t, NewNonRetryableError(cause), cause)
}

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{AnalyticsTopic: "analytics-topic"})
	require.NoError(t, err)
	return reg
}

// outboxRow wraps data in a v1 envelope. Raw JSON is embedded as is.
func outboxRow(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, id uuid.UUID, data any) models.OutboxEvent {
	t.Helper()
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		raw, err = json.Marshal(data)
		require.NoError(t, err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   id,
		Payload:       payload,
	}
}
