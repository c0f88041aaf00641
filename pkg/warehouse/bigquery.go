package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// BigQueryWarehouse implements Warehouse against BigQuery.
type BigQueryWarehouse struct {
	log    *slog.Logger
	client *bigquery.Client
}

// NewBigQuery creates a warehouse client for the given project. Credentials
// come from the ambient application-default chain.
func NewBigQuery(ctx context.Context, log *slog.Logger, projectID string) (*BigQueryWarehouse, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &BigQueryWarehouse{log: log, client: client}, nil
}

// Close releases the underlying client.
func (w *BigQueryWarehouse) Close() error {
	return w.client.Close()
}

// ListTables enumerates the regular tables of a dataset. Views are skipped.
func (w *BigQueryWarehouse) ListTables(ctx context.Context, datasetID string) ([]string, error) {
	var tables []string
	it := w.client.Dataset(datasetID).Tables(ctx)
	for {
		t, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list tables in %s: %w", datasetID, err)
		}
		md, err := t.Metadata(ctx)
		if err != nil {
			w.log.Warn("skipping table with unreadable metadata",
				"dataset", datasetID, "table", t.TableID, "error", err)
			continue
		}
		if md.Type != bigquery.RegularTable {
			continue
		}
		tables = append(tables, t.TableID)
	}
	return tables, nil
}

// TableSchema returns the column metadata of one table in schema order.
func (w *BigQueryWarehouse) TableSchema(ctx context.Context, datasetID, tableID string) ([]Column, error) {
	md, err := w.client.Dataset(datasetID).Table(tableID).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema for %s.%s: %w", datasetID, tableID, err)
	}

	columns := make([]Column, 0, len(md.Schema))
	for _, field := range md.Schema {
		desc := field.Description
		if desc == "" {
			desc = NoDescription
		}
		columns = append(columns, Column{
			Name:        field.Name,
			Type:        string(field.Type),
			Mode:        fieldMode(field),
			Description: desc,
		})
	}
	return columns, nil
}

func fieldMode(field *bigquery.FieldSchema) string {
	switch {
	case field.Repeated:
		return "REPEATED"
	case field.Required:
		return "REQUIRED"
	default:
		return "NULLABLE"
	}
}

// RunQuery executes a query and materializes the full result. Failures are
// returned to the caller rather than swallowed into an empty result.
func (w *BigQueryWarehouse) RunQuery(ctx context.Context, sql string) (ResultSet, error) {
	it, err := w.client.Query(sql).Read(ctx)
	if err != nil {
		return ResultSet{}, fmt.Errorf("query failed: %w", err)
	}

	var result ResultSet
	for {
		var values map[string]bigquery.Value
		err := it.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return ResultSet{}, fmt.Errorf("failed to read query results: %w", err)
		}
		if result.Columns == nil {
			result.Columns = columnNames(it.Schema)
		}
		row := make(Row, len(values))
		for k, v := range values {
			row[k] = v
		}
		result.Rows = append(result.Rows, row)
	}
	if result.Columns == nil {
		result.Columns = columnNames(it.Schema)
	}
	result.Count = len(result.Rows)
	return result, nil
}

func columnNames(schema bigquery.Schema) []string {
	names := make([]string, 0, len(schema))
	for _, field := range schema {
		names = append(names, field.Name)
	}
	return names
}
