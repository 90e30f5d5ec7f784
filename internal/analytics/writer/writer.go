package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/angelmondragon/clipstream-backend/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/clipstream-backend/pkg/bigquery"
)

const defaultBatchSize = 1

// Config controls the analytics writer behavior.
type Config struct {
	EngagementTable string
	BatchSize       int
	RetryPolicy     RetryPolicy
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter buffers engagement rows and inserts them in batches,
// retrying transient BigQuery failures.
type BigQueryWriter struct {
	client    tableInserter
	table     string
	batchSize int
	retry     RetryPolicy

	mu      sync.Mutex
	pending []types.EngagementEventRow
}

// New creates a writer backed by the shared BigQuery client.
func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	return newWriter(client, cfg)
}

func newWriter(client tableInserter, cfg Config) (*BigQueryWriter, error) {
	table := strings.TrimSpace(cfg.EngagementTable)
	if table == "" {
		return nil, errors.New("engagement table is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &BigQueryWriter{
		client:    client,
		table:     table,
		batchSize: batchSize,
		retry:     cfg.RetryPolicy.withDefaults(),
	}, nil
}

// InsertEngagement queues row and flushes once the batch is full.
func (w *BigQueryWriter) InsertEngagement(ctx context.Context, row types.EngagementEventRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, row)
	if len(w.pending) >= w.batchSize {
		return w.flushLocked(ctx)
	}
	return nil
}

// Flush writes any buffered rows immediately.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked(ctx)
}

// Pending reports how many rows are buffered.
func (w *BigQueryWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// flushLocked inserts the buffer. Each row carries its event id as the
// insert id so BigQuery drops duplicates of a redelivered event. When only
// some rows fail, the inserted ones leave the buffer and the rest stay for
// the next flush.
func (w *BigQueryWriter) flushLocked(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	rows := make([]any, len(w.pending))
	for i := range w.pending {
		rows[i] = &cbigquery.StructSaver{Struct: &w.pending[i], InsertID: w.pending[i].EventID}
	}
	err := w.retry.do(ctx, func() error {
		return w.client.InsertRows(ctx, w.table, rows)
	})
	if err == nil {
		w.pending = w.pending[:0]
		return nil
	}
	if failed, ok := failedRowIndexes(err); ok {
		kept := w.pending[:0]
		for i, row := range w.pending {
			if failed[i] {
				kept = append(kept, row)
			}
		}
		w.pending = kept
	}
	return fmt.Errorf("insert %s rows: %w", w.table, err)
}

// failedRowIndexes reports which buffered rows a partial insert rejected.
func failedRowIndexes(err error) (map[int]bool, bool) {
	var pme cbigquery.PutMultiError
	if !errors.As(err, &pme) || len(pme) == 0 {
		return nil, false
	}
	failed := make(map[int]bool, len(pme))
	for _, rowErr := range pme {
		failed[rowErr.RowIndex] = true
	}
	return failed, true
}

// EncodeJSON serializes the provided payload so it can be stored in BigQuery JSON columns.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return value, nil
	case json.RawMessage:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	case []byte:
		if len(value) == 0 {
			return cbigquery.NullJSON{}, nil
		}
		return cbigquery.NullJSON{Valid: true, JSONVal: string(value)}, nil
	}

	marshaled, err := json.Marshal(payload)
	if err != nil {
		return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
	}
	if len(marshaled) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(marshaled)}, nil
}
