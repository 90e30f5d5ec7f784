package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/clipstream-backend/pkg/enums"
)

func TestEnvelopeLogFields(t *testing.T) {
	env := Envelope{
		EventID:       "evt-1",
		EventType:     enums.AnalyticsEventTipSent,
		AggregateType: enums.AggregatePublish,
		AggregateID:   "pub-1",
		OccurredAt:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("x", 3600)),
	}

	fields := env.LogFields(map[string]any{"message_id": "m-1"})
	require.Equal(t, "m-1", fields["message_id"])
	require.Equal(t, "evt-1", fields["event_id"])
	require.Equal(t, "pub-1", fields["aggregate_id"])
	require.Equal(t, "2025-03-01T09:00:00Z", fields["occurred_at"])

	require.Len(t, env.LogFields(nil), 5)
}
