package session

import (
	"slices"

	"github.com/poiesic/didyoumean/core"
)

// JurorReference is the inspection reference recorded on goals the juror picks.
const JurorReference = "juror"

// GoalJuror picks goals for a goal tree that carries no goal inspections.
type GoalJuror interface {
	// CreateGoals marks and returns the goal nodes of the tree under root.
	// An empty result means there is no training signal.
	CreateGoals(root *core.QueryGoalNode) ([]*core.QueryGoalNode, error)
}

// DefaultJuror treats the most recent query as the goal when it found anything.
type DefaultJuror struct{}

var _ GoalJuror = DefaultJuror{}

// CreateGoals returns ErrAlreadyClassified if any node in the tree already
// has a goal inspection.
func (DefaultJuror) CreateGoals(root *core.QueryGoalNode) ([]*core.QueryGoalNode, error) {
	nodes := root.Subtree()
	for _, n := range nodes {
		if n.HasGoal() {
			return nil, ErrAlreadyClassified
		}
	}

	slices.SortStableFunc(nodes, func(a, b *core.QueryGoalNode) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	latest := nodes[0]
	if latest.Hits <= 0 {
		return nil, nil
	}
	latest.Inspect(JurorReference, core.Goal, latest.Timestamp)
	return []*core.QueryGoalNode{latest}, nil
}
