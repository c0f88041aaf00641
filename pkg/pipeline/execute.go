package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/warehouse"
)

// WarehouseExecutor runs queries against the warehouse. A
// failure wraps ErrExecution and terminates the request; an empty result is
// returned as-is.
type WarehouseExecutor struct {
	log *slog.Logger
	wh  warehouse.Warehouse
}

// NewWarehouseExecutor creates an executor over the warehouse.
func NewWarehouseExecutor(log *slog.Logger, wh warehouse.Warehouse) *WarehouseExecutor {
	return &WarehouseExecutor{log: log, wh: wh}
}

// Execute runs the query and returns its result set.
func (e *WarehouseExecutor) Execute(ctx context.Context, query GeneratedQuery) (warehouse.ResultSet, error) {
	results, err := e.wh.RunQuery(ctx, query.SQL)
	if err != nil {
		e.log.Error("query execution failed", "intent", query.Intent, "error", err)
		return warehouse.ResultSet{}, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	e.log.Info("query executed", "intent", query.Intent, "rows", results.Count)
	return results, nil
}
