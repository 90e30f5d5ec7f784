package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

const metadataCheckTimeout = 10 * time.Second

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// TableSpec describes a table the client depends on. Row is a zero value of
// the struct written to it; its bigquery tags define the schema used when
// the table has to be created.
type TableSpec struct {
	Name           string
	Row            any
	PartitionField string
}

// Client wraps one BigQuery dataset.
type Client struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	tables  []TableSpec
	create  bool
	logg    *logger.Logger
}

// NewClient connects to the configured dataset and checks every table in
// specs. Missing tables are created when the config allows it and are an
// error otherwise.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger, specs ...TableSpec) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	tables, err := normalizeSpecs(specs)
	if err != nil {
		return nil, err
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	client := &Client{
		client:  bqClient,
		dataset: bqClient.Dataset(datasetID),
		tables:  tables,
		create:  cfg.CreateMissingTables,
		logg:    logg,
	}
	if err := client.ensureTables(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "dataset", datasetID), "bigquery client initialized")
	}
	return client, nil
}

func normalizeSpecs(specs []TableSpec) ([]TableSpec, error) {
	if len(specs) == 0 {
		return nil, errTableNameRequired
	}
	out := make([]TableSpec, 0, len(specs))
	for _, spec := range specs {
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			return nil, errTableNameRequired
		}
		out = append(out, spec)
	}
	return out, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	default:
		return nil
	}
}

func (c *Client) ensureTables(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("dataset %q does not exist", c.dataset.DatasetID)
		}
		return fmt.Errorf("checking dataset %q: %w", c.dataset.DatasetID, err)
	}
	for _, spec := range c.tables {
		_, err := c.dataset.Table(spec.Name).Metadata(ctx)
		switch {
		case err == nil:
		case isNotFound(err) && c.create && spec.Row != nil:
			if err := c.createTable(ctx, spec); err != nil {
				return err
			}
		case isNotFound(err):
			return fmt.Errorf("table %q does not exist", spec.Name)
		default:
			return fmt.Errorf("checking table %q: %w", spec.Name, err)
		}
	}
	return nil
}

func (c *Client) createTable(ctx context.Context, spec TableSpec) error {
	meta, err := tableMetadata(spec)
	if err != nil {
		return err
	}
	if err := c.dataset.Table(spec.Name).Create(ctx, meta); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			return nil
		}
		return fmt.Errorf("creating table %q: %w", spec.Name, err)
	}
	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "table", spec.Name), "bigquery table created")
	}
	return nil
}

func tableMetadata(spec TableSpec) (*bigquery.TableMetadata, error) {
	schema, err := bigquery.InferSchema(spec.Row)
	if err != nil {
		return nil, fmt.Errorf("infer schema for %q: %w", spec.Name, err)
	}
	meta := &bigquery.TableMetadata{Schema: schema}
	if spec.PartitionField != "" {
		meta.TimePartitioning = &bigquery.TimePartitioning{Type: bigquery.DayPartitioningType, Field: spec.PartitionField}
	}
	return meta, nil
}

// Ping verifies the dataset and tables are reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return errClientNotInitialized
	}
	return c.ensureTables(ctx)
}

// EngagementTable returns the first configured table, which the analytics
// worker writes engagement rows to.
func (c *Client) EngagementTable() string {
	if c == nil || len(c.tables) == 0 {
		return ""
	}
	return c.tables[0].Name
}

// InsertRows streams rows into table.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errTableNameRequired
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, rows)
}

// Close releases the BigQuery client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
