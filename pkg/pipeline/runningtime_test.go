package pipeline

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/warehouse"
)

// recordingExecutor returns a canned result and records the queries it saw.
type recordingExecutor struct {
	result  warehouse.ResultSet
	err     error
	queries []string
}

func (r *recordingExecutor) Execute(_ context.Context, query GeneratedQuery) (warehouse.ResultSet, error) {
	r.queries = append(r.queries, query.SQL)
	return r.result, r.err
}

func statusRow(code, status string, at time.Time) warehouse.Row {
	return warehouse.Row{
		"machine_code":   code,
		"machine_status": status,
		"created_at":     at,
	}
}

func TestComputeRunningTimeFromStatusTransitions(t *testing.T) {
	t0 := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	exec := &recordingExecutor{result: warehouse.ResultSet{
		Columns: []string{"machine_code", "machine_status", "created_at"},
		Rows: []warehouse.Row{
			statusRow("VMC153", "Idle", t0),
			statusRow("VMC153", "Running", t0.Add(10*time.Minute)),
			statusRow("VMC153", "Idle", t0.Add(25*time.Minute)),
		},
		Count: 3,
	}}

	engine := NewRunningTimeEngine(slog.Default(), exec, testProject, clockwork.NewFakeClockAt(t0.Add(time.Hour)))
	result, err := engine.Compute(context.Background(), "VMC153")
	require.NoError(t, err)

	// Only the interval following the Running row counts: 15 minutes.
	assert.Equal(t, 15, result.RunningMinutes)
	assert.Equal(t, 0.25, result.RunningHours)
	assert.True(t, result.HasData)
	assert.Contains(t, result.Explanation(), "15 minutes")
}

func TestComputeRunningTimeWindowBound(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	exec := &recordingExecutor{result: warehouse.ResultSet{}}

	engine := NewRunningTimeEngine(slog.Default(), exec, testProject, clockwork.NewFakeClockAt(now))
	_, err := engine.Compute(context.Background(), "VMC153")
	require.NoError(t, err)

	require.Len(t, exec.queries, 1)
	sql := exec.queries[0]
	assert.Contains(t, sql, "WHERE machine_code = 'VMC153'")
	assert.Contains(t, sql, "TIMESTAMP('2026-08-27T12:00:00Z')")
	assert.Contains(t, sql, "ORDER BY created_at ASC")
}

func TestComputeRunningTimeNoData(t *testing.T) {
	exec := &recordingExecutor{result: warehouse.ResultSet{}}
	engine := NewRunningTimeEngine(slog.Default(), exec, testProject, clockwork.NewFakeClock())

	result, err := engine.Compute(context.Background(), "VMC153")
	require.NoError(t, err)

	assert.Zero(t, result.RunningMinutes)
	assert.Zero(t, result.RunningHours)
	assert.False(t, result.HasData)
	assert.Contains(t, result.Explanation(), "No status data found for machine VMC153")
}

func TestComputeRunningTimeNeverRunning(t *testing.T) {
	t0 := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	exec := &recordingExecutor{result: warehouse.ResultSet{
		Rows: []warehouse.Row{
			statusRow("VMC153", "Idle", t0),
			statusRow("VMC153", "Alarm", t0.Add(30*time.Minute)),
		},
		Count: 2,
	}}

	engine := NewRunningTimeEngine(slog.Default(), exec, testProject, clockwork.NewFakeClockAt(t0.Add(time.Hour)))
	result, err := engine.Compute(context.Background(), "VMC153")
	require.NoError(t, err)

	assert.Zero(t, result.RunningMinutes)
	assert.True(t, result.HasData)
	// Distinct message from the no-data case.
	assert.Contains(t, result.Explanation(), "was not in Running status")
}

func TestComputeRunningTimeParsesStringTimestamps(t *testing.T) {
	exec := &recordingExecutor{result: warehouse.ResultSet{
		Rows: []warehouse.Row{
			{"machine_code": "VMC153", "machine_status": "Running", "created_at": "2026-08-28T08:00:00Z"},
			{"machine_code": "VMC153", "machine_status": "Idle", "created_at": "2026-08-28T08:30:00Z"},
		},
		Count: 2,
	}}

	engine := NewRunningTimeEngine(slog.Default(), exec, testProject, clockwork.NewFakeClock())
	result, err := engine.Compute(context.Background(), "VMC153")
	require.NoError(t, err)
	assert.Equal(t, 30, result.RunningMinutes)
	assert.Equal(t, 0.5, result.RunningHours)
}
