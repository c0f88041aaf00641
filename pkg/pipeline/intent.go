package pipeline

import (
	"regexp"
	"strings"
)

// machineCodePattern matches domain machine identifiers: 2+ uppercase
// letters followed by 2+ digits, e.g. VMC153 or CTC074.
var machineCodePattern = regexp.MustCompile(`\b([A-Z]{2,}\d{2,})\b`)

// greetingPhrases are matched exactly (trimmed, case-insensitive), not by
// substring, so "hello, what is the status of VMC153" is not a greeting.
var greetingPhrases = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"hi there":       {},
	"hello there":    {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
}

// parameterKeywords is the machine-parameter vocabulary. Shared between the
// rule synthesizer and the template explainer.
var parameterKeywords = []string{
	"feed", "rate", "spindle", "speed", "rpm", "axis", "position", "alarm",
	"cutting", "cycle", "emergency", "operating", "part", "count", "power",
	"program", "servo", "load", "tool", "offset", "diagnosis", "path",
	"sequence", "number",
}

var (
	uptimeKeywords = []string{"uptime", "downtime", "availability"}
	statusKeywords = []string{"status", "machine"}
	latestKeywords = []string{"latest", "recent", "new"}
	countKeywords  = []string{"count", "total", "number"}
)

// intentRule is one classification rule. Rules are evaluated in order and
// the first match wins.
type intentRule struct {
	intent Intent
	match  func(lower string, machineCode string) bool
}

var intentRules = []intentRule{
	{IntentGreeting, func(lower, _ string) bool {
		_, ok := greetingPhrases[strings.TrimSpace(lower)]
		return ok
	}},
	{IntentRunningTime, func(lower, code string) bool {
		return code != "" && strings.Contains(lower, "running status") && strings.Contains(lower, "how long")
	}},
	{IntentParameters, func(lower, code string) bool {
		return code != "" && containsAny(lower, parameterKeywords)
	}},
	{IntentUptimeDowntime, func(lower, code string) bool {
		return code != "" && containsAny(lower, uptimeKeywords)
	}},
	{IntentStatus, func(lower, code string) bool {
		return code != "" && containsAny(lower, statusKeywords)
	}},
	{IntentLatest, func(lower, _ string) bool {
		return containsAny(lower, latestKeywords)
	}},
	{IntentCount, func(lower, _ string) bool {
		return containsAny(lower, countKeywords)
	}},
}

// ParseQuestion extracts the machine code and classifies the question's
// intent. It never fails; unmatched questions are IntentGeneric.
func ParseQuestion(text string) Question {
	q := Question{Text: text, Intent: IntentGeneric}
	if m := machineCodePattern.FindStringSubmatch(text); m != nil {
		q.MachineCode = m[1]
	}

	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		if rule.match(lower, q.MachineCode) {
			q.Intent = rule.intent
			break
		}
	}
	return q
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
