// Package warehouse defines the narrow interface to the tabular data
// warehouse and its BigQuery implementation.
package warehouse

import (
	"context"
)

// NoDescription is the placeholder used when a column carries no description.
const NoDescription = "No description"

// Column describes one column of a warehouse table.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

// Row is one result row, keyed by column name.
type Row map[string]any

// ResultSet is an ordered set of rows returned by a query. An empty
// ResultSet is a normal outcome, not an error.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Count   int      `json:"count"`
}

// Empty reports whether the result set has no rows.
func (r ResultSet) Empty() bool {
	return len(r.Rows) == 0
}

// First returns the first row, or nil for an empty result set.
func (r ResultSet) First() Row {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Warehouse is the contract for the data warehouse. All calls
// are blocking; cancellation comes from the caller's context.
type Warehouse interface {
	// ListTables returns the table IDs of a dataset, excluding views.
	ListTables(ctx context.Context, datasetID string) ([]string, error)

	// TableSchema returns the ordered column metadata of one table.
	TableSchema(ctx context.Context, datasetID, tableID string) ([]Column, error)

	// RunQuery executes a query string and returns the tabular result.
	RunQuery(ctx context.Context, sql string) (ResultSet, error)
}
