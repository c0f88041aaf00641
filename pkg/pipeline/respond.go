package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/warehouse"
)

const explainInstructions = `Give a one-line explanation followed by the data.

Format:
- Start with ONE short sentence explaining what was found
- Then present the data clearly
- If no data: brief explanation why
- Keep the answer short and business-readable`

// maxRenderedRows bounds the result rendering handed to the model
// when the user did not ask for everything.
const maxRenderedRows = 5

// LLMExplainer is the generative explanation strategy: the model gets
// the question, the query, and a bounded textual rendering of the results.
type LLMExplainer struct {
	log *slog.Logger
	llm LLMClient
}

// NewLLMExplainer creates the generative strategy.
func NewLLMExplainer(log *slog.Logger, llm LLMClient) *LLMExplainer {
	return &LLMExplainer{log: log, llm: llm}
}

// Explain delegates to the model. The empty-result case is handled
// first with the fixed message family, without a model call.
func (e *LLMExplainer) Explain(ctx context.Context, q Question, query GeneratedQuery, results warehouse.ResultSet) (string, error) {
	if results.Empty() {
		return noDataMessage, nil
	}

	userPrompt := fmt.Sprintf("User asked: %s\n\nSQL query:\n%s\n\nResults: %s",
		q.Text, query.SQL, renderResults(q, results))

	response, err := e.llm.Complete(ctx, explainInstructions, userPrompt)
	if err != nil {
		return "", fmt.Errorf("explanation generation failed: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// renderResults produces the bounded textual result rendering: the full
// table when it is small or the user asked for "all", otherwise a head
// sample.
func renderResults(q Question, results warehouse.ResultSet) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query returned %d rows with columns: %s\n",
		results.Count, strings.Join(results.Columns, ", ")))

	rows := results.Rows
	if results.Count > 10 && !strings.Contains(strings.ToLower(q.Text), "all") {
		rows = rows[:maxRenderedRows]
		sb.WriteString(fmt.Sprintf("\nFirst %d rows:\n", maxRenderedRows))
	} else {
		sb.WriteString("\nAll data:\n")
	}

	for _, row := range rows {
		values := make([]string, 0, len(results.Columns))
		for _, col := range results.Columns {
			values = append(values, formatValue(row[col]))
		}
		sb.WriteString(strings.Join(values, " | ") + "\n")
	}
	return sb.String()
}
