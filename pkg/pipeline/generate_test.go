package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLLM returns canned responses and records the prompts it received.
type mockLLM struct {
	response string
	err      error
	system   string
	user     string
}

func (m *mockLLM) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	m.system = systemPrompt
	m.user = userPrompt
	return m.response, m.err
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "SELECT 1", stripCodeFences("SELECT 1"))
	assert.Equal(t, "SELECT 1", stripCodeFences("```sql\nSELECT 1\n```"))
	assert.Equal(t, "SELECT 1", stripCodeFences("```\nSELECT 1\n```"))
	assert.Equal(t, "SELECT 1", stripCodeFences("  ```sql\nSELECT 1\n```  "))
}

func TestLLMSynthesizerGroundsPromptOnSnapshot(t *testing.T) {
	snap := testSnapshot(t, newTestWarehouse())
	llm := &mockLLM{response: "```sql\nSELECT machine_code FROM `raymond-maini-iiot.cnc_dataset.machine_parameters` LIMIT 1\n```"}

	s := NewLLMSynthesizer(slog.Default(), llm, testProject)
	query, err := s.Synthesize(context.Background(), ParseQuestion("spindle speed of VMC153"), snap)
	require.NoError(t, err)

	assert.Equal(t, SourceGenerative, query.Source)
	assert.Equal(t, "SELECT machine_code FROM `raymond-maini-iiot.cnc_dataset.machine_parameters` LIMIT 1", query.SQL)

	// The model prompt is grounded on the schema and the fixed rules.
	assert.Contains(t, llm.system, "Available tables and their schemas:")
	assert.Contains(t, llm.system, "Table: machine_parameters")
	assert.Contains(t, llm.system, "`raymond-maini-iiot.dataset.table`")
	assert.Contains(t, llm.system, "INTERVAL 2 MINUTE")
	assert.Contains(t, llm.user, "spindle speed of VMC153")
}

func TestLLMSynthesizerPropagatesClientFailure(t *testing.T) {
	snap := testSnapshot(t, newTestWarehouse())
	llm := &mockLLM{err: fmt.Errorf("model overloaded")}

	s := NewLLMSynthesizer(slog.Default(), llm, testProject)
	_, err := s.Synthesize(context.Background(), ParseQuestion("anything"), snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sql generation failed")
}

func TestLLMSynthesizerRejectsEmptyResponse(t *testing.T) {
	snap := testSnapshot(t, newTestWarehouse())
	llm := &mockLLM{response: "```sql\n```"}

	s := NewLLMSynthesizer(slog.Default(), llm, testProject)
	_, err := s.Synthesize(context.Background(), ParseQuestion("anything"), snap)
	assert.Error(t, err)
}
