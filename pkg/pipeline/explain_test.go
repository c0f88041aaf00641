package pipeline

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/warehouse"
)

func explain(t *testing.T, question string, query GeneratedQuery, results warehouse.ResultSet) string {
	t.Helper()
	e := NewTemplateExplainer(slog.Default())
	text, err := e.Explain(context.Background(), ParseQuestion(question), query, results)
	require.NoError(t, err)
	return text
}

func TestEmptyResultAlwaysYieldsNoDataMessage(t *testing.T) {
	for _, intent := range []Intent{
		IntentParameters, IntentUptimeDowntime, IntentStatus, IntentLatest, IntentCount, IntentGeneric,
	} {
		text := explain(t, "anything", GeneratedQuery{Intent: intent}, warehouse.ResultSet{})
		assert.Equal(t, noDataMessage, text, "intent: %s", intent)
	}
}

func TestAvailabilityPercentage(t *testing.T) {
	results := warehouse.ResultSet{
		Columns: []string{"machine_code", "total_uptime_hours", "total_downtime_hours", "first_created_at"},
		Rows: []warehouse.Row{{
			"machine_code":         "VMC153",
			"total_uptime_hours":   float64(18),
			"total_downtime_hours": float64(6),
			"first_created_at":     "2026-08-28T00:00:00Z",
		}},
		Count: 1,
	}

	text := explain(t, "uptime of VMC153", GeneratedQuery{Intent: IntentUptimeDowntime}, results)
	assert.Contains(t, text, "Availability: 75.0%")
	assert.Contains(t, text, "Uptime: 18 hours")
	assert.Contains(t, text, "Downtime: 6 hours")
}

func TestAvailabilityGuardsDivisionByZero(t *testing.T) {
	results := warehouse.ResultSet{
		Rows: []warehouse.Row{{
			"machine_code":         "VMC153",
			"total_uptime_hours":   float64(0),
			"total_downtime_hours": float64(0),
			"first_created_at":     "2026-08-28T00:00:00Z",
		}},
		Count: 1,
	}

	text := explain(t, "uptime of VMC153", GeneratedQuery{Intent: IntentUptimeDowntime}, results)
	assert.Contains(t, text, "Availability: 0.0%")
}

func TestParametersLegacyColumnAliases(t *testing.T) {
	// Only the misspelled legacy column has a value: first non-null wins.
	results := warehouse.ResultSet{
		Rows: []warehouse.Row{{
			"machine_code":  "VMC153",
			"spindle_speed": nil,
			"spindel_speed": float64(4500),
			"created_at":    "2026-08-28T10:00:00Z",
		}},
		Count: 1,
	}

	text := explain(t, "spindle speed of VMC153", GeneratedQuery{Intent: IntentParameters}, results)
	assert.Contains(t, text, "spindle speed is 4500 RPM")
}

func TestParametersFeedRatePrefersActual(t *testing.T) {
	results := warehouse.ResultSet{
		Rows: []warehouse.Row{{
			"machine_code":     "VMC153",
			"feed_rate":        float64(100),
			"actual_feed_rate": float64(82.5),
			"created_at":       "2026-08-28T10:00:00Z",
		}},
		Count: 1,
	}

	text := explain(t, "feed rate of VMC153", GeneratedQuery{Intent: IntentParameters}, results)
	assert.Contains(t, text, "actual feed rate is 82.50")
}

func TestStatusExplanation(t *testing.T) {
	results := warehouse.ResultSet{
		Rows: []warehouse.Row{{
			"machine_code":      "VMC153",
			"machine_status":    "Running",
			"connection_status": "Connected",
			"created_at":        "2026-08-28T10:00:00Z",
		}},
		Count: 1,
	}

	text := explain(t, "status of machine VMC153", GeneratedQuery{Intent: IntentStatus}, results)
	assert.Contains(t, text, "Machine VMC153 is currently running")
	assert.Contains(t, text, "Connection status: Connected")
}

func TestLatestReportsRowCountOnly(t *testing.T) {
	results := warehouse.ResultSet{
		Columns: []string{"machine_code", "spindle_speed"},
		Rows: []warehouse.Row{
			{"machine_code": "VMC153", "spindle_speed": float64(4500)},
			{"machine_code": "CTC074", "spindle_speed": float64(3000)},
		},
		Count: 2,
	}

	text := explain(t, "latest data", GeneratedQuery{Intent: IntentLatest}, results)
	assert.Equal(t, "Here are the 2 most recent records from your manufacturing data.", text)
}

func TestDefaultEnumerationSkipsTimestamps(t *testing.T) {
	results := warehouse.ResultSet{
		Columns: []string{"machine_code", "line_name", "location_name", "machine_name", "created_at", "status"},
		Rows: []warehouse.Row{{
			"machine_code":  "VMC153",
			"line_name":     "Line A",
			"location_name": "Plant 1",
			"machine_name":  "Mill 3",
			"created_at":    "2026-08-28T10:00:00Z",
			"status":        "ok",
		}},
		Count: 1,
	}

	text := explain(t, "tell me about the factory", GeneratedQuery{Intent: IntentGeneric}, results)
	assert.Contains(t, text, "Data found: ")
	assert.Contains(t, text, "machine_code: VMC153")
	// With enough non-timestamp fields, created_at is excluded.
	assert.NotContains(t, text, "created_at")
	assert.Contains(t, text, "status: ok")
}

func TestDefaultEnumerationKeepsTimestampsWhenSparse(t *testing.T) {
	results := warehouse.ResultSet{
		Columns: []string{"machine_code", "created_at"},
		Rows: []warehouse.Row{{
			"machine_code": "VMC153",
			"created_at":   "2026-08-28T10:00:00Z",
		}},
		Count: 1,
	}

	text := explain(t, "tell me about the factory", GeneratedQuery{Intent: IntentGeneric}, results)
	assert.Contains(t, text, "created_at")
}

// Round-trip: every query the rule synthesizer can produce must be
// explainable by the template explainer without error, even on an empty
// result set.
func TestRuleQueriesAlwaysExplainable(t *testing.T) {
	snap := testSnapshot(t, newTestWarehouse())
	questions := []string{
		"spindle speed of VMC153",
		"feed rate of VMC153",
		"parameters of VMC153",
		"uptime of VMC153",
		"status of machine VMC153",
		"latest data",
		"total record count",
		"tell me about the factory",
	}

	e := NewTemplateExplainer(slog.Default())
	for _, question := range questions {
		q := ParseQuestion(question)
		query := synthesize(t, question, snap)

		for _, results := range []warehouse.ResultSet{
			{},
			{Columns: []string{"machine_code"}, Rows: []warehouse.Row{{"machine_code": "VMC153"}}, Count: 1},
		} {
			_, err := e.Explain(context.Background(), q, query, results)
			require.NoError(t, err, "question: %s", question)
		}
	}
}
