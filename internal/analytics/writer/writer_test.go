package writer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/clipstream-backend/internal/analytics/types"
)

type insertCall struct {
	table string
	rows  []any
}

// fakeInserter answers each InsertRows call with the next queued error.
type fakeInserter struct {
	results []error
	calls   []insertCall
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.calls = append(f.calls, insertCall{table: table, rows: rows})
	if len(f.results) == 0 {
		return nil
	}
	err := f.results[0]
	f.results = f.results[1:]
	return err
}

func testWriter(t *testing.T, batchSize int, results ...error) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	fake := &fakeInserter{results: results}
	w, err := newWriter(fake, Config{
		EngagementTable: "engagement_events",
		BatchSize:       batchSize,
		RetryPolicy:     RetryPolicy{InitialBackoff: time.Millisecond, MaximumBackoff: time.Millisecond},
	})
	require.NoError(t, err)
	return w, fake
}

func insert(t *testing.T, w *BigQueryWriter, ids ...string) error {
	t.Helper()
	var err error
	for _, id := range ids {
		err = w.InsertEngagement(context.Background(), types.EngagementEventRow{EventID: id})
	}
	return err
}

func TestNewWriterValidation(t *testing.T) {
	_, err := New(nil, Config{EngagementTable: "engagement_events"})
	require.Error(t, err)
	_, err = newWriter(&fakeInserter{}, Config{EngagementTable: " "})
	require.Error(t, err)
}

func TestWriterBuffersUntilBatchIsFull(t *testing.T) {
	w, fake := testWriter(t, 2)

	require.NoError(t, insert(t, w, "1"))
	require.Empty(t, fake.calls)
	require.Equal(t, 1, w.Pending())

	require.NoError(t, insert(t, w, "2"))
	require.Len(t, fake.calls, 1)
	require.Len(t, fake.calls[0].rows, 2)
	require.Zero(t, w.Pending())
}

func TestWriterFlushDrainsBuffer(t *testing.T) {
	w, fake := testWriter(t, 10)
	require.NoError(t, insert(t, w, "1"))
	require.NoError(t, w.Flush(context.Background()))
	require.Len(t, fake.calls, 1)
	require.Zero(t, w.Pending())

	require.NoError(t, w.Flush(context.Background()))
	require.Len(t, fake.calls, 1, "empty flush does not call BigQuery")
}

func TestWriterRetriesTransientErrors(t *testing.T) {
	w, fake := testWriter(t, 1, &googleapi.Error{Code: http.StatusServiceUnavailable}, nil)

	require.NoError(t, insert(t, w, "1"))
	require.Len(t, fake.calls, 2)
	require.Equal(t, "engagement_events", fake.calls[1].table)
	require.Zero(t, w.Pending())
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	unavailable := status.Error(codes.Unavailable, "down")
	w, fake := testWriter(t, 1, unavailable, unavailable, unavailable, unavailable)

	require.Error(t, insert(t, w, "1"))
	require.Len(t, fake.calls, 3)
	require.Equal(t, 1, w.Pending())
}

func TestWriterStopsOnPermanentError(t *testing.T) {
	w, fake := testWriter(t, 1, &googleapi.Error{Code: http.StatusBadRequest})

	require.Error(t, insert(t, w, "1"))
	require.Len(t, fake.calls, 1)
	require.Equal(t, 1, w.Pending(), "row is kept for a later flush")
}

func TestWriterKeepsOnlyRejectedRows(t *testing.T) {
	w, _ := testWriter(t, 2, cbigquery.PutMultiError{
		{InsertID: "2", RowIndex: 1, Errors: cbigquery.MultiError{errors.New("invalid field")}},
	})

	require.Error(t, insert(t, w, "1", "2"))
	require.Equal(t, 1, w.Pending())
	require.Equal(t, "2", w.pending[0].EventID)
}

func TestWriterHonorsCanceledContext(t *testing.T) {
	w, _ := testWriter(t, 10, &googleapi.Error{Code: http.StatusTooManyRequests})
	require.NoError(t, insert(t, w, "1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Flush(ctx), context.Canceled)
}

func TestRowsCarryInsertIDs(t *testing.T) {
	w, fake := testWriter(t, 1)
	require.NoError(t, insert(t, w, "evt-9"))

	saver, ok := fake.calls[0].rows[0].(*cbigquery.StructSaver)
	require.True(t, ok)
	require.Equal(t, "evt-9", saver.InsertID)
}

func TestIsRetryableBigQueryError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":              {nil, false},
		"http 429":         {&googleapi.Error{Code: http.StatusTooManyRequests}, true},
		"http 404":         {&googleapi.Error{Code: http.StatusNotFound}, false},
		"grpc unavailable": {status.Error(codes.Unavailable, "down"), true},
		"grpc invalid":     {status.Error(codes.InvalidArgument, "bad"), false},
		"plain":            {errors.New("boom"), false},
		"all rows transient": {cbigquery.PutMultiError{
			{RowIndex: 0, Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusBadGateway}}},
		}, true},
		"one row invalid": {cbigquery.PutMultiError{
			{RowIndex: 0, Errors: cbigquery.MultiError{&googleapi.Error{Code: http.StatusBadGateway}}},
			{RowIndex: 1, Errors: cbigquery.MultiError{errors.New("invalid")}},
		}, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, isRetryableBigQueryError(tc.err))
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	nj, err := EncodeJSON(map[string]any{"publish_id": "p-1"})
	require.NoError(t, err)
	require.True(t, nj.Valid)
	require.JSONEq(t, `{"publish_id":"p-1"}`, nj.JSONVal)

	nj, err = EncodeJSON(nil)
	require.NoError(t, err)
	require.False(t, nj.Valid)

	raw := json.RawMessage(`{"views":3}`)
	nj, err = EncodeJSON(raw)
	require.NoError(t, err)
	require.Equal(t, string(raw), nj.JSONVal)
}
