// Package schema loads and caches the warehouse schema snapshot used to
// ground query synthesis. The snapshot is built once at process start and is
// read-only afterwards; picking up warehouse schema changes requires a
// restart.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/warehouse"
)

// ErrSchemaUnavailable marks a dataset that could not be enumerated. The
// registry tolerates it per dataset: the dataset maps to an empty table set
// and the load continues.
var ErrSchemaUnavailable = errors.New("schema unavailable")

// TableSchema is the ordered column metadata of one table.
type TableSchema []warehouse.Column

// Snapshot is the immutable dataset -> table -> schema view held for the
// process lifetime.
type Snapshot struct {
	datasets []string
	tables   map[string]map[string]TableSchema
}

// Registry loads schema snapshots from the warehouse.
type Registry struct {
	log      *slog.Logger
	wh       warehouse.Warehouse
	datasets []string
}

// NewRegistry creates a registry over the configured datasets.
func NewRegistry(log *slog.Logger, wh warehouse.Warehouse, datasets []string) *Registry {
	return &Registry{log: log, wh: wh, datasets: datasets}
}

// Load builds the snapshot. A dataset whose tables cannot be enumerated is
// logged and mapped to an empty table set; one bad dataset never aborts the
// load. A table whose schema cannot be read is logged and skipped.
func (r *Registry) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		datasets: append([]string(nil), r.datasets...),
		tables:   make(map[string]map[string]TableSchema, len(r.datasets)),
	}

	for _, datasetID := range r.datasets {
		if datasetID == "" {
			continue
		}
		snap.tables[datasetID] = make(map[string]TableSchema)

		tables, err := r.wh.ListTables(ctx, datasetID)
		if err != nil {
			r.log.Error("failed to enumerate dataset, continuing without it",
				"dataset", datasetID, "error", fmt.Errorf("%w: %v", ErrSchemaUnavailable, err))
			continue
		}

		for _, tableID := range tables {
			columns, err := r.wh.TableSchema(ctx, datasetID, tableID)
			if err != nil {
				r.log.Warn("failed to read table schema, skipping table",
					"dataset", datasetID, "table", tableID, "error", err)
				continue
			}
			snap.tables[datasetID][tableID] = columns
		}

		r.log.Info("loaded dataset schema",
			"dataset", datasetID, "tables", len(snap.tables[datasetID]))
	}

	return snap, nil
}

// Datasets returns the configured dataset IDs in order.
func (s *Snapshot) Datasets() []string {
	return s.datasets
}

// Tables returns the table IDs of a dataset, sorted for stable iteration.
func (s *Snapshot) Tables(datasetID string) []string {
	names := make([]string, 0, len(s.tables[datasetID]))
	for name := range s.tables[datasetID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table returns the schema of one table, or nil if unknown.
func (s *Snapshot) Table(datasetID, tableID string) TableSchema {
	return s.tables[datasetID][tableID]
}

// HasTable reports whether the snapshot knows the given table.
func (s *Snapshot) HasTable(datasetID, tableID string) bool {
	_, ok := s.tables[datasetID][tableID]
	return ok
}

// FirstTable returns the first (dataset, table) pair in snapshot order, used
// for fallback sample queries. ok is false when the snapshot is empty.
func (s *Snapshot) FirstTable() (datasetID, tableID string, ok bool) {
	for _, d := range s.datasets {
		tables := s.Tables(d)
		if len(tables) > 0 {
			return d, tables[0], true
		}
	}
	return "", "", false
}

// SampleQuery builds a bounded sample query over one table, used as the
// fallback when no rule matches a question.
func (s *Snapshot) SampleQuery(projectID, datasetID, tableID string, limit int) string {
	return fmt.Sprintf("SELECT * FROM `%s.%s.%s` LIMIT %d", projectID, datasetID, tableID, limit)
}

// TableCount returns the total number of tables across datasets.
func (s *Snapshot) TableCount() int {
	n := 0
	for _, tables := range s.tables {
		n += len(tables)
	}
	return n
}

// Nested returns the snapshot as dataset -> table -> columns, the shape
// served by the schema introspection endpoint.
func (s *Snapshot) Nested() map[string]map[string][]warehouse.Column {
	out := make(map[string]map[string][]warehouse.Column, len(s.tables))
	for datasetID, tables := range s.tables {
		out[datasetID] = make(map[string][]warehouse.Column, len(tables))
		for tableID, columns := range tables {
			out[datasetID][tableID] = columns
		}
	}
	return out
}

// PromptContext renders the snapshot as human-readable grounding text for
// the generative synthesizer.
func (s *Snapshot) PromptContext() string {
	var sb strings.Builder
	sb.WriteString("Available tables and their schemas:\n\n")
	for _, datasetID := range s.datasets {
		sb.WriteString(fmt.Sprintf("Dataset: %s\n", datasetID))
		for _, tableID := range s.Tables(datasetID) {
			sb.WriteString(fmt.Sprintf("  Table: %s\n", tableID))
			for _, col := range s.tables[datasetID][tableID] {
				sb.WriteString(fmt.Sprintf("    - %s (%s): %s\n", col.Name, col.Type, col.Description))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Digest is a short per-table summary (first five columns) for startup logs.
func (s *Snapshot) Digest() string {
	var parts []string
	for _, datasetID := range s.datasets {
		for _, tableID := range s.Tables(datasetID) {
			columns := s.tables[datasetID][tableID]
			names := make([]string, 0, 5)
			for _, col := range columns {
				if len(names) == 5 {
					break
				}
				names = append(names, col.Name)
			}
			suffix := ""
			if len(columns) > 5 {
				suffix = fmt.Sprintf(" (+%d more)", len(columns)-5)
			}
			parts = append(parts, fmt.Sprintf("%s.%s[%s%s]", datasetID, tableID, strings.Join(names, ","), suffix))
		}
	}
	return strings.Join(parts, " ")
}

// TimestampColumn returns the first column of a table whose name looks like
// a timestamp, or empty when none exists.
func (t TableSchema) TimestampColumn() string {
	for _, col := range t {
		name := strings.ToLower(col.Name)
		for _, hint := range []string{"time", "date", "created", "updated"} {
			if strings.Contains(name, hint) {
				return col.Name
			}
		}
	}
	return ""
}
