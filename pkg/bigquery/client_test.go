package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
)

type sampleRow struct {
	EventID    string    `bigquery:"event_id"`
	OccurredAt time.Time `bigquery:"occurred_at"`
	Views      int64     `bigquery:"views"`
}

func TestNormalizeSpecs(t *testing.T) {
	specs, err := normalizeSpecs([]TableSpec{{Name: " engagement_events "}})
	require.NoError(t, err)
	require.Equal(t, "engagement_events", specs[0].Name)

	_, err = normalizeSpecs(nil)
	require.ErrorIs(t, err, errTableNameRequired)
	_, err = normalizeSpecs([]TableSpec{{Name: " "}})
	require.ErrorIs(t, err, errTableNameRequired)
}

func TestClientOptions(t *testing.T) {
	require.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"dummy":"value"}`, ApplicationCredentials: "/tmp/creds"}), 1)
	require.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/creds"}), 1)
	require.Empty(t, clientOptions(config.GCPConfig{}))
}

func TestTableMetadataPartitionsOnField(t *testing.T) {
	meta, err := tableMetadata(TableSpec{Name: "engagement_events", Row: sampleRow{}, PartitionField: "occurred_at"})
	require.NoError(t, err)
	require.Len(t, meta.Schema, 3)
	require.Equal(t, "event_id", meta.Schema[0].Name)
	require.Equal(t, bigquery.TimestampFieldType, meta.Schema[1].Type)
	require.Equal(t, "occurred_at", meta.TimePartitioning.Field)

	meta, err = tableMetadata(TableSpec{Name: "plain", Row: sampleRow{}})
	require.NoError(t, err)
	require.Nil(t, meta.TimePartitioning)
}

func TestIsNotFound(t *testing.T) {
	require.True(t, isNotFound(fmt.Errorf("metadata: %w", &googleapi.Error{Code: http.StatusNotFound})))
	require.False(t, isNotFound(&googleapi.Error{Code: http.StatusForbidden}))
	require.False(t, isNotFound(errors.New("boom")))
}

func TestNilClient(t *testing.T) {
	var c *Client
	require.ErrorIs(t, c.Ping(context.Background()), errClientNotInitialized)
	require.Empty(t, c.EngagementTable())
	require.NoError(t, c.Close())
}
