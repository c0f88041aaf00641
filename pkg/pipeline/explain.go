package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/warehouse"
)

// noDataMessage is the fixed empty-result answer. Every intent goes through
// it before any template runs; an empty result set is never an error.
const noDataMessage = "No data found for your query."

// timestampColumns are excluded from the default field enumeration unless
// too few other fields exist.
var timestampColumns = map[string]struct{}{
	"created_at":       {},
	"first_created_at": {},
	"timestamp":        {},
}

// TemplateExplainer is the deterministic explanation strategy:
// intent-specific templates over the first result row.
type TemplateExplainer struct {
	log *slog.Logger
}

// NewTemplateExplainer creates the deterministic strategy.
func NewTemplateExplainer(log *slog.Logger) *TemplateExplainer {
	return &TemplateExplainer{log: log}
}

// Explain renders the result set with the template matching the query's
// intent. It never fails.
func (e *TemplateExplainer) Explain(_ context.Context, q Question, query GeneratedQuery, results warehouse.ResultSet) (string, error) {
	if results.Empty() {
		return noDataMessage, nil
	}

	switch query.Intent {
	case IntentUptimeDowntime:
		return explainUptime(results.First()), nil
	case IntentParameters:
		return explainParameters(q, results.First()), nil
	case IntentStatus:
		return explainStatus(results.First()), nil
	case IntentCount:
		return explainCount(results.First()), nil
	case IntentLatest:
		return fmt.Sprintf("Here are the %d most recent records from your manufacturing data.", results.Count), nil
	default:
		return explainDefault(results), nil
	}
}

func explainUptime(row warehouse.Row) string {
	machine := stringField(row, "machine_code", "Unknown")
	asOf := stringField(row, "first_created_at", "Unknown")

	uptime, upOK := floatField(row, "total_uptime_hours")
	downtime, downOK := floatField(row, "total_downtime_hours")
	if !upOK || !downOK {
		return fmt.Sprintf("Machine %s - Uptime: %s hours, Downtime: %s hours (as of %s)",
			machine, stringField(row, "total_uptime_hours", "N/A"), stringField(row, "total_downtime_hours", "N/A"), asOf)
	}

	availability := 0.0
	if total := uptime + downtime; total > 0 {
		availability = uptime / total * 100
	}
	return fmt.Sprintf("Machine %s - Uptime: %g hours, Downtime: %g hours, Availability: %.1f%% (as of %s)",
		machine, uptime, downtime, availability, asOf)
}

func explainParameters(q Question, row warehouse.Row) string {
	machine := stringField(row, "machine_code", "Unknown")
	asOf := stringField(row, "created_at", "Unknown")
	lower := strings.ToLower(q.Text)

	// Legacy column aliases: first non-null wins.
	spindle := firstField(row, "spindle_speed", "spindel_speed")
	feed := firstField(row, "actual_feed_rate", "feed_rate")

	switch {
	case strings.Contains(lower, "spindle"):
		return fmt.Sprintf("Machine %s spindle speed is %s RPM (as of %s)", machine, spindle, asOf)
	case strings.Contains(lower, "feed"):
		return fmt.Sprintf("Machine %s actual feed rate is %s (as of %s)", machine, feed, asOf)
	default:
		return fmt.Sprintf("Machine %s parameters: Spindle Speed: %s RPM, Feed Rate: %s. Last updated: %s",
			machine, spindle, feed, asOf)
	}
}

func explainStatus(row warehouse.Row) string {
	machine := stringField(row, "machine_code", "Unknown")
	status := strings.ToLower(stringField(row, "machine_status", "unknown"))
	connection := stringField(row, "connection_status", "Unknown")
	asOf := stringField(row, "created_at", "Unknown")
	return fmt.Sprintf("Machine %s is currently %s. Connection status: %s. Last updated: %s",
		machine, status, connection, asOf)
}

func explainCount(row warehouse.Row) string {
	if total, ok := row["total_records"]; ok {
		return fmt.Sprintf("Total number of records: %s", formatValue(total))
	}
	return explainDefault(warehouse.ResultSet{Columns: nil, Rows: []warehouse.Row{row}, Count: 1})
}

// explainDefault enumerates up to 5 column/value pairs from the first row,
// skipping timestamp columns unless too few other fields exist.
func explainDefault(results warehouse.ResultSet) string {
	row := results.First()
	columns := results.Columns
	if len(columns) == 0 {
		for name := range row {
			columns = append(columns, name)
		}
	}

	var parts []string
	for _, col := range columns {
		if len(parts) == 5 {
			break
		}
		if _, isTimestamp := timestampColumns[col]; isTimestamp && len(parts) >= 3 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", col, formatValue(row[col])))
	}
	if len(parts) == 0 {
		return noDataMessage
	}
	return "Data found: " + strings.Join(parts, ", ")
}

// stringField renders a row value as text, with a fallback for missing or
// nil values.
func stringField(row warehouse.Row, name, fallback string) string {
	v, ok := row[name]
	if !ok || v == nil {
		return fallback
	}
	return formatValue(v)
}

// firstField returns the first non-nil value among the named columns.
func firstField(row warehouse.Row, names ...string) string {
	for _, name := range names {
		if v, ok := row[name]; ok && v != nil {
			return formatValue(v)
		}
	}
	return "N/A"
}

func floatField(row warehouse.Row, name string) (float64, bool) {
	switch v := row[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// formatValue renders a scalar for prose output. Floats are trimmed to two
// decimals so readings do not surface as long decimal tails.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "N/A"
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	case float32:
		return formatValue(float64(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}
