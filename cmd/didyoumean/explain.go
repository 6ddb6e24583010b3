package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/didyoumean/core"
	"github.com/poiesic/didyoumean/suggest"
)

// explainMonitor prints every suggester stage.
type explainMonitor struct {
	w io.Writer
}

var _ suggest.Monitor = (*explainMonitor)(nil)

func newExplainMonitor(w io.Writer) *explainMonitor {
	return &explainMonitor{w: w}
}

func (m *explainMonitor) Start(query string, n int) {
	fmt.Fprintf(m.w, "query %q, up to %d suggestions\n", query, n)
}

func (m *explainMonitor) Gathered(query string, list *core.SuggestionList) {
	var entries []core.Suggestion
	if list != nil {
		entries = list.Suggestions
	}
	fmt.Fprintf(m.w, "  list %q: %s\n", query, joinSuggestions(entries))
}

func (m *explainMonitor) SecondLevel(query string, results []core.Suggestion) {
	fmt.Fprintf(m.w, "  second level %q: %s\n", query, joinSuggestions(results))
}

func (m *explainMonitor) NavigationStep(step int, from, to []core.Suggestion) {
	fmt.Fprintf(m.w, "  step %d: %s -> %s\n", step, topText(from), topText(to))
}

func (m *explainMonitor) NavigationAborted(query string, steps int) {
	fmt.Fprintf(m.w, "  navigation for %q aborted after %d steps\n", query, steps)
}

func (m *explainMonitor) Finish(query string, results []core.Suggestion) {
	fmt.Fprintf(m.w, "result %q: %s\n", query, joinSuggestions(results))
}

func joinSuggestions(list []core.Suggestion) string {
	if len(list) == 0 {
		return "(none)"
	}
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = fmt.Sprintf("%s [%0.3f, %s]", s.Text, s.Score, formatHits(s.Hits))
	}
	return strings.Join(parts, "; ")
}

func topText(list []core.Suggestion) string {
	if len(list) == 0 {
		return "(none)"
	}
	return list[0].Text
}
