package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/schema"
)

// generateRules is the fixed instruction set given to the model along
// with the schema snapshot. The table-selection hints and window rules are
// specific to the manufacturing warehouse.
const generateRules = `Generate a BigQuery SQL query based on the user's question and available table schemas.

RULES:
1. Use full table references: ` + "`%s.dataset.table`" + `
2. Extract machine codes from question (format: 2+ letters + 2+ digits like CTC074, VMC153)
3. For time queries use TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL X HOUR/DAY)
4. Always include ORDER BY with timestamp columns DESC
5. Use appropriate LIMIT:
   - If user says "all" or "show all": use LIMIT 100 or no LIMIT
   - Otherwise: use LIMIT 10-20
6. Match user intent to correct tables:
   - "machine types" or "types of machines" -> dev_public.machine_type
   - "machine details" or "machine info" -> dev_public.machine_details
   - "machine status" or "status" -> cnc_dataset.machine_parameters
   - "machine parameters" or "feed rate" or "spindle speed" -> cnc_dataset.machine_parameters
   - "uptime" or "downtime" -> cnc_dataset.machine_uptime_downtime
7. For useful columns:
   - machine_type: name, description
   - machine_details: machine_code, machine_name, machine_status, line_name, location_name
8. NEVER include id, uuid, or similar identifier columns in SELECT
9. ALWAYS add WHERE conditions to exclude NULL values for main columns
10. For counting running machines: use COUNT(DISTINCT machine_code) to count unique machines only
11. For "current" or "currently running/idle" machines: use timestamp filter within last 2 minutes:
    - Running: WHERE machine_status = 'Running' AND timestamp BETWEEN TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL 2 MINUTE) AND CURRENT_TIMESTAMP()
    - Idle: WHERE machine_status = 'Idle' AND timestamp BETWEEN TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL 2 MINUTE) AND CURRENT_TIMESTAMP()

Generate ONLY the SQL query.`

// LLMSynthesizer is the generative synthesis strategy: it grounds the
// model on the full schema snapshot and the fixed rule set, then
// trusts its output apart from stripping code-fence markup. Syntax
// validation is left to the warehouse; the guard checks table references.
type LLMSynthesizer struct {
	log       *slog.Logger
	llm       LLMClient
	projectID string
}

// NewLLMSynthesizer creates the generative strategy.
func NewLLMSynthesizer(log *slog.Logger, llm LLMClient, projectID string) *LLMSynthesizer {
	return &LLMSynthesizer{log: log, llm: llm, projectID: projectID}
}

// Synthesize asks the model for a query grounded on the snapshot.
func (s *LLMSynthesizer) Synthesize(ctx context.Context, q Question, snap *schema.Snapshot) (GeneratedQuery, error) {
	systemPrompt := fmt.Sprintf(generateRules, s.projectID) + "\n\n" + snap.PromptContext()
	userPrompt := fmt.Sprintf("Question: %s", q.Text)

	response, err := s.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return GeneratedQuery{}, fmt.Errorf("sql generation failed: %w", err)
	}

	sql := stripCodeFences(response)
	if sql == "" {
		return GeneratedQuery{}, fmt.Errorf("sql generation returned empty query")
	}

	s.log.Debug("synthesized query from model", "intent", q.Intent, "sqlLen", len(sql))
	return GeneratedQuery{SQL: sql, Intent: q.Intent, Source: SourceGenerative}, nil
}

// stripCodeFences removes markdown code-fence wrappers the model may
// put around the query.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```sql", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
