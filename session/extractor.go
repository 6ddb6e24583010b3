package session

import (
	"time"

	"github.com/poiesic/didyoumean/core"
)

// GoalTreeExtractor splits a session tree into independent goal trees.
type GoalTreeExtractor interface {
	// ExtractGoalRoots detaches goal subtrees from the tree under root and
	// returns their roots. The subtrees partition the original nodes.
	ExtractGoalRoots(root *core.QueryGoalNode) []*core.QueryGoalNode
}

// ExtractorConfig holds the thresholds that decide whether a query belongs
// to the same goal as the query before it.
type ExtractorConfig struct {
	// MinimumSimilarity is the normalized edit similarity at which a query
	// always joins its parent's goal.
	MinimumSimilarity float64

	// MaximumTimeBetweenQueries bounds how quickly a dissimilar query must
	// follow its parent to be considered for the same goal.
	MaximumTimeBetweenQueries time.Duration

	// InspectionWeightThreshold is the inspection weight a fast dissimilar
	// query must exceed to join its parent's goal.
	InspectionWeightThreshold float64
}

// DefaultExtractorConfig returns the standard thresholds.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MinimumSimilarity:         0.6,
		MaximumTimeBetweenQueries: 20 * time.Second,
		InspectionWeightThreshold: 0,
	}
}

// DefaultExtractor segments trees by query similarity, accepted
// suggestions, repeated queries and quick successful follow-ups.
type DefaultExtractor struct {
	config   ExtractorConfig
	distance core.EditDistance
}

var _ GoalTreeExtractor = (*DefaultExtractor)(nil)

// NewExtractor creates a DefaultExtractor. A nil distance selects Levenshtein.
func NewExtractor(config ExtractorConfig, distance core.EditDistance) *DefaultExtractor {
	if distance == nil {
		distance = core.Levenshtein{}
	}
	return &DefaultExtractor{config: config, distance: distance}
}

// IsPartOfParentGoal reports whether child continues its parent's goal.
func (e *DefaultExtractor) IsPartOfParentGoal(child *core.QueryGoalNode) bool {
	parent := child.Parent()
	if parent == nil {
		return false
	}
	if child.Query == parent.Suggestion || child.Query == parent.Query {
		return true
	}
	if core.NormalizedSimilarity(e.distance, child.Query, parent.Query) >= e.config.MinimumSimilarity {
		return true
	}
	if child.Timestamp.Sub(parent.Timestamp) < e.config.MaximumTimeBetweenQueries {
		weight, ok := child.InspectionWeight()
		return ok && weight > e.config.InspectionWeightThreshold
	}
	return false
}

// ExtractGoalRoots walks up from every leaf while nodes belong to their
// parent's goal. The first node that does not is cut loose as a goal root
// and its former parent is revisited as a new leaf.
func (e *DefaultExtractor) ExtractGoalRoots(root *core.QueryGoalNode) []*core.QueryGoalNode {
	var queue []*core.QueryGoalNode
	for n := range root.Descendants() {
		if n.IsLeaf() {
			queue = append(queue, n)
		}
	}
	if len(queue) == 0 {
		return []*core.QueryGoalNode{root}
	}

	emitted := make(map[*core.QueryGoalNode]bool)
	var roots []*core.QueryGoalNode

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		// The walk merges node into its parent's goal; a goal is the
		// subtree left under the node where the walk stops.
		for e.IsPartOfParentGoal(node) {
			node = node.Parent()
		}

		if parent := node.Parent(); parent != nil {
			queue = append(queue, parent)
			node.Detach()
		}
		if !emitted[node] {
			emitted[node] = true
			roots = append(roots, node)
		}
	}
	return roots
}
