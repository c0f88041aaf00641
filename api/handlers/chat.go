// Package handlers implements the HTTP surface of the chatbot API.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/api/metrics"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/pipeline"
	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/schema"
)

// ChatRequest is the incoming question.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is the single-shot answer.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// Chatbot holds the request handlers and their injected dependencies. The
// snapshot is the only state shared across requests and is read-only.
type Chatbot struct {
	log  *slog.Logger
	pipe *pipeline.Pipeline
	snap *schema.Snapshot
}

// NewChatbot creates the handler set.
func NewChatbot(log *slog.Logger, pipe *pipeline.Pipeline, snap *schema.Snapshot) *Chatbot {
	return &Chatbot{log: log, pipe: pipe, snap: snap}
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "Question is required", http.StatusBadRequest)
		return "", false
	}
	return req.Question, true
}

// Chat answers one question with a single line-delimited JSON object.
func (h *Chatbot) Chat(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}
	metrics.RecordQuestion(string(pipeline.ParseQuestion(question).Intent))

	answer, err := h.pipe.Answer(r.Context(), question)
	if err != nil {
		metrics.PipelineErrorsTotal.Inc()
		answer = "Error: " + err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{Answer: answer})
}

// ChatStream answers one question over server-sent events. Each pipeline
// event becomes one data frame tagged with its type; complete is always the
// last frame on success.
func (h *Chatbot) ChatStream(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}
	metrics.RecordQuestion(string(pipeline.ParseQuestion(question).Intent))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	h.pipe.Ask(r.Context(), question, func(ev pipeline.Event) {
		if ev.Type == pipeline.EventError {
			metrics.PipelineErrorsTotal.Inc()
		}
		data, err := json.Marshal(ev)
		if err != nil {
			h.log.Error("failed to marshal event", "type", ev.Type, "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	})
}
