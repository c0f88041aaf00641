// Package pipeline implements the question-to-query-to-answer pipeline: a
// user question is classified, turned into one executable warehouse query,
// executed, and the tabular result is explained back as prose. Synthesis and
// explanation each have a deterministic and a generative strategy, selected
// at construction time.
package pipeline

import (
	"context"
	"errors"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/schema"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/warehouse"
)

// ErrExecution wraps a warehouse failure during query execution. There is no
// retry: one failed execution terminates the request.
var ErrExecution = errors.New("query execution failed")

// Intent is the classified purpose of a question.
type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentRunningTime    Intent = "running-time"
	IntentParameters     Intent = "parameters"
	IntentUptimeDowntime Intent = "uptime-downtime"
	IntentStatus         Intent = "status"
	IntentLatest         Intent = "latest"
	IntentCount          Intent = "count"
	IntentGeneric        Intent = "generic"
)

// Question is the raw input plus fields derived during classification.
type Question struct {
	Text        string
	MachineCode string
	Intent      Intent
}

// QuerySource records which strategy produced a query. Model-generated SQL
// passes through the guard before execution; rule-built SQL is constructed
// from known tables and does not.
type QuerySource string

const (
	SourceRules      QuerySource = "rules"
	SourceGenerative QuerySource = "generative"
)

// GeneratedQuery is an opaque query string plus the intent that produced it.
// It is never parsed, only executed or rejected.
type GeneratedQuery struct {
	SQL    string
	Intent Intent
	Source QuerySource
}

// Synthesizer produces one executable query for a question.
type Synthesizer interface {
	Synthesize(ctx context.Context, q Question, snap *schema.Snapshot) (GeneratedQuery, error)
}

// Executor runs a query against the warehouse.
type Executor interface {
	Execute(ctx context.Context, query GeneratedQuery) (warehouse.ResultSet, error)
}

// Explainer turns a result set back into a bounded natural-language answer.
type Explainer interface {
	Explain(ctx context.Context, q Question, query GeneratedQuery, results warehouse.ResultSet) (string, error)
}

// LLMClient is the generative-text backend. A single blocking call, no
// retry, no structured output contract.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// EventType tags one unit of the streamed pipeline protocol.
type EventType string

const (
	EventStatus      EventType = "status"
	EventExplanation EventType = "explanation"
	EventError       EventType = "error"
	EventComplete    EventType = "complete"
)

// Event is one progress event emitted by the orchestrator. Events for one
// request are delivered in state-machine order and never interleave with
// another request's events on the same stream.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Text    string    `json:"text,omitempty"`
}

// EmitFunc receives pipeline events in order.
type EmitFunc func(Event)
