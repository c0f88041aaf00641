package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// statusRunning is the machine status value that counts toward running time.
const statusRunning = "Running"

// defaultWindow is the trailing window over which running time is computed.
const defaultWindow = 24 * time.Hour

// RunningTimeResult is the derived running-time metric for one machine.
type RunningTimeResult struct {
	MachineCode    string  `json:"machineCode"`
	RunningMinutes int     `json:"runningMinutes"`
	RunningHours   float64 `json:"runningHours"`
	// HasData distinguishes "no rows in the window" from "rows but no
	// running intervals". Both report zero time.
	HasData bool `json:"hasData"`
}

// RunningTimeEngine answers "how long has machine X been running" by
// reconstructing status intervals from the status-change history. This is
// the only multi-row temporal reasoning in the pipeline; when it matches, it
// replaces the synthesize/execute/explain sequence entirely.
type RunningTimeEngine struct {
	log       *slog.Logger
	exec      Executor
	projectID string
	clock     clockwork.Clock
	window    time.Duration
}

// NewRunningTimeEngine creates the engine with the default 24h window.
func NewRunningTimeEngine(log *slog.Logger, exec Executor, projectID string, clock clockwork.Clock) *RunningTimeEngine {
	return &RunningTimeEngine{
		log:       log,
		exec:      exec,
		projectID: projectID,
		clock:     clock,
		window:    defaultWindow,
	}
}

// Compute fetches the machine's status changes inside the window, ordered
// ascending, and sums the intervals whose preceding status was Running.
func (e *RunningTimeEngine) Compute(ctx context.Context, machineCode string) (RunningTimeResult, error) {
	since := e.clock.Now().Add(-e.window).UTC()
	sql := fmt.Sprintf(
		"SELECT machine_code, machine_status, created_at FROM `%s.%s.%s` WHERE machine_code = '%s' AND created_at >= TIMESTAMP('%s') ORDER BY created_at ASC",
		e.projectID, cncDataset, tableConnections, machineCode, since.Format(time.RFC3339))

	results, err := e.exec.Execute(ctx, GeneratedQuery{SQL: sql, Intent: IntentRunningTime, Source: SourceRules})
	if err != nil {
		return RunningTimeResult{}, err
	}

	result := RunningTimeResult{MachineCode: machineCode, HasData: !results.Empty()}

	var running time.Duration
	var prevStatus string
	var prevAt time.Time
	for i, row := range results.Rows {
		at, ok := asTime(row["created_at"])
		if !ok {
			continue
		}
		if i > 0 && prevStatus == statusRunning {
			running += at.Sub(prevAt)
		}
		prevStatus, _ = row["machine_status"].(string)
		prevAt = at
	}

	result.RunningMinutes = int(running.Minutes())
	result.RunningHours = math.Round(running.Minutes()/60*100) / 100

	e.log.Info("computed running time",
		"machine", machineCode, "minutes", result.RunningMinutes, "rows", results.Count)
	return result, nil
}

// Explanation is the fixed message family for the derived metric. The two
// zero cases are distinguishable only by text.
func (r RunningTimeResult) Explanation() string {
	hours := int(defaultWindow.Hours())
	switch {
	case !r.HasData:
		return fmt.Sprintf("No status data found for machine %s in the last %d hours.", r.MachineCode, hours)
	case r.RunningMinutes == 0:
		return fmt.Sprintf("Machine %s was not in Running status during the last %d hours.", r.MachineCode, hours)
	default:
		return fmt.Sprintf("Machine %s has been running for %d minutes (%.2f hours) over the last %d hours.",
			r.MachineCode, r.RunningMinutes, r.RunningHours, hours)
	}
}

// asTime normalizes timestamp values from the warehouse, which arrive as
// time.Time from the driver or as RFC 3339 text.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
