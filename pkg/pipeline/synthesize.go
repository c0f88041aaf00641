package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/schema"
)

// Well-known tables of the manufacturing warehouse.
const (
	cncDataset          = "cnc_dataset"
	tableParameters     = "machine_parameters"
	tableUptimeDowntime = "machine_uptime_downtime"
	tableConnections    = "machine_connections"
)

// RuleSynthesizer is the deterministic synthesis strategy: an ordered rule
// list over a fixed keyword vocabulary, each rule emitting a parameterized
// query template. It never fails; unmatched questions get a bounded sample
// query, or a trivial constant query when the snapshot is empty.
type RuleSynthesizer struct {
	log       *slog.Logger
	projectID string
}

// NewRuleSynthesizer creates the deterministic strategy for one warehouse
// project.
func NewRuleSynthesizer(log *slog.Logger, projectID string) *RuleSynthesizer {
	return &RuleSynthesizer{log: log, projectID: projectID}
}

// Synthesize maps the question's intent to a query template.
func (s *RuleSynthesizer) Synthesize(_ context.Context, q Question, snap *schema.Snapshot) (GeneratedQuery, error) {
	sql := s.buildSQL(q, snap)
	s.log.Debug("synthesized query from rules", "intent", q.Intent, "machine", q.MachineCode)
	return GeneratedQuery{SQL: sql, Intent: q.Intent, Source: SourceRules}, nil
}

func (s *RuleSynthesizer) buildSQL(q Question, snap *schema.Snapshot) string {
	lower := strings.ToLower(q.Text)

	switch q.Intent {
	case IntentParameters:
		switch {
		case strings.Contains(lower, "spindle"):
			return fmt.Sprintf(
				"SELECT machine_code, spindle_speed, spindel_speed, created_at FROM `%s.%s.%s` WHERE machine_code = '%s' ORDER BY created_at DESC LIMIT 1",
				s.projectID, cncDataset, tableParameters, q.MachineCode)
		case strings.Contains(lower, "feed"):
			return fmt.Sprintf(
				"SELECT machine_code, feed_rate, actual_feed_rate, created_at FROM `%s.%s.%s` WHERE machine_code = '%s' ORDER BY created_at DESC LIMIT 1",
				s.projectID, cncDataset, tableParameters, q.MachineCode)
		default:
			return fmt.Sprintf(
				"SELECT machine_code, spindle_speed, spindel_speed, feed_rate, actual_feed_rate, created_at FROM `%s.%s.%s` WHERE machine_code = '%s' ORDER BY created_at DESC LIMIT 1",
				s.projectID, cncDataset, tableParameters, q.MachineCode)
		}

	case IntentUptimeDowntime:
		return fmt.Sprintf(
			"SELECT machine_code, total_uptime_hours, total_downtime_hours, first_created_at FROM `%s.%s.%s` WHERE machine_code = '%s' ORDER BY first_created_at DESC LIMIT 1",
			s.projectID, cncDataset, tableUptimeDowntime, q.MachineCode)

	case IntentStatus:
		return fmt.Sprintf(
			"SELECT machine_code, machine_status, connection_status, created_at FROM `%s.%s.%s` WHERE machine_code = '%s' ORDER BY created_at DESC LIMIT 1",
			s.projectID, cncDataset, tableConnections, q.MachineCode)

	case IntentLatest:
		// First table with a timestamp-like column, newest rows first.
		for _, datasetID := range snap.Datasets() {
			for _, tableID := range snap.Tables(datasetID) {
				if col := snap.Table(datasetID, tableID).TimestampColumn(); col != "" {
					return fmt.Sprintf(
						"SELECT * FROM `%s.%s.%s` ORDER BY %s DESC LIMIT 10",
						s.projectID, datasetID, tableID, col)
				}
			}
		}

	case IntentCount:
		if datasetID, tableID, ok := snap.FirstTable(); ok {
			return fmt.Sprintf(
				"SELECT COUNT(*) AS total_records FROM `%s.%s.%s`",
				s.projectID, datasetID, tableID)
		}
	}

	// Fallback: sample rows from the first table in the snapshot.
	if datasetID, tableID, ok := snap.FirstTable(); ok {
		return snap.SampleQuery(s.projectID, datasetID, tableID, 5)
	}
	return "SELECT 1 AS result"
}
