package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/schema"
)

// welcomeMessage is the canned answer for pure greetings.
const welcomeMessage = "Hello! I'm your manufacturing data assistant. " +
	"Ask me about machine status, spindle and feed parameters, uptime and downtime, or recent production data."

// Config holds the pipeline's dependencies. Strategy choice (deterministic
// vs generative) is made by the caller through the Synthesizer and Explainer
// it injects.
type Config struct {
	Logger      *slog.Logger
	Snapshot    *schema.Snapshot
	Synthesizer Synthesizer
	Executor    Executor
	Explainer   Explainer
	RunningTime *RunningTimeEngine
	// Guard is applied to model-generated queries before execution.
	// Optional; rule-produced queries always bypass it.
	Guard *Guard
}

// Pipeline sequences synthesize -> execute -> explain for one question,
// emitting progress events. Each request is one attempt: no retry, no
// resume. Requests share only the read-only snapshot.
type Pipeline struct {
	cfg Config
	log *slog.Logger
}

// New validates the configuration and creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Snapshot == nil {
		return nil, errors.New("schema snapshot is required")
	}
	if cfg.Synthesizer == nil {
		return nil, errors.New("synthesizer is required")
	}
	if cfg.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if cfg.Explainer == nil {
		return nil, errors.New("explainer is required")
	}
	if cfg.RunningTime == nil {
		return nil, errors.New("running-time engine is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, log: cfg.Logger}, nil
}

// Ask runs the pipeline for one question, emitting events in state-machine
// order. Any step failure produces a single terminal error event; no
// partial state is exposed.
func (p *Pipeline) Ask(ctx context.Context, question string, emit EmitFunc) {
	q := ParseQuestion(question)
	p.log.Info("processing question", "intent", q.Intent, "machine", q.MachineCode)

	switch q.Intent {
	case IntentGreeting:
		emit(Event{Type: EventExplanation, Text: welcomeMessage})
		emit(Event{Type: EventComplete})
		return

	case IntentRunningTime:
		emit(Event{Type: EventStatus, Message: "Computing running time..."})
		result, err := p.cfg.RunningTime.Compute(ctx, q.MachineCode)
		if err != nil {
			p.fail(emit, err)
			return
		}
		emit(Event{Type: EventExplanation, Text: result.Explanation()})
		emit(Event{Type: EventComplete})
		return
	}

	emit(Event{Type: EventStatus, Message: "Generating SQL query..."})
	query, err := p.cfg.Synthesizer.Synthesize(ctx, q, p.cfg.Snapshot)
	if err != nil {
		p.fail(emit, err)
		return
	}

	if p.cfg.Guard != nil && query.Source == SourceGenerative {
		if err := p.cfg.Guard.Check(query.SQL, p.cfg.Snapshot); err != nil {
			p.fail(emit, err)
			return
		}
	}

	emit(Event{Type: EventStatus, Message: "Executing query..."})
	results, err := p.cfg.Executor.Execute(ctx, query)
	if err != nil {
		p.fail(emit, err)
		return
	}

	emit(Event{Type: EventStatus, Message: "Generating explanation..."})
	explanation, err := p.cfg.Explainer.Explain(ctx, q, query, results)
	if err != nil {
		p.fail(emit, err)
		return
	}

	emit(Event{Type: EventExplanation, Text: explanation})
	emit(Event{Type: EventComplete})
}

// Answer runs Ask and returns the final explanation text, for single-shot
// callers.
func (p *Pipeline) Answer(ctx context.Context, question string) (string, error) {
	var answer string
	var failure error
	p.Ask(ctx, question, func(ev Event) {
		switch ev.Type {
		case EventExplanation:
			answer = ev.Text
		case EventError:
			failure = fmt.Errorf("%s", ev.Message)
		}
	})
	if failure != nil {
		return "", failure
	}
	return answer, nil
}

func (p *Pipeline) fail(emit EmitFunc, err error) {
	p.log.Error("pipeline failed", "error", err)
	emit(Event{Type: EventError, Message: err.Error()})
}
