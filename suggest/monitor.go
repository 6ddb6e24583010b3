package suggest

import (
	"github.com/poiesic/didyoumean/core"
)

// Monitor provides hooks to observe how a suggestion is produced.
// Implement this interface to trace the intermediate lists, for example
// to explain a correction on the command line.
type Monitor interface {
	Start(query string, n int)
	Gathered(query string, list *core.SuggestionList)
	SecondLevel(query string, results []core.Suggestion)
	NavigationStep(step int, from, to []core.Suggestion)
	NavigationAborted(query string, steps int)
	Finish(query string, results []core.Suggestion)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                        {}
func (n *noopMonitor) Gathered(_ string, _ *core.SuggestionList)    {}
func (n *noopMonitor) SecondLevel(_ string, _ []core.Suggestion)    {}
func (n *noopMonitor) NavigationStep(_ int, _, _ []core.Suggestion) {}
func (n *noopMonitor) NavigationAborted(_ string, _ int)            {}
func (n *noopMonitor) Finish(_ string, _ []core.Suggestion)         {}
