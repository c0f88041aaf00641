package handlers

import (
	"encoding/json"
	"net/http"
)

// exampleQuestions are suggestions surfaced to UIs.
var exampleQuestions = []string{
	"Show me the latest production data",
	"What is the spindle speed of machine VMC153",
	"Show me uptime and downtime for machine CTC074",
	"How many machines are currently running",
	"What is the running status of machine VMC153 in last 24 hours and how long",
}

// Schemas serves the schema snapshot as nested JSON
// (dataset -> table -> columns) for introspection and debugging.
func (h *Chatbot) Schemas(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.snap.Nested())
}

// Examples serves the example question list.
func (h *Chatbot) Examples(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"examples": exampleQuestions})
}

// Health is the liveness endpoint. It only responds once the schema
// snapshot has been loaded, since the server is not constructed before
// that.
func (h *Chatbot) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "tables": h.snap.TableCount()})
}
