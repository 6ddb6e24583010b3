package session

import (
	"testing"
	"time"

	"github.com/poiesic/didyoumean/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(v int64) time.Time {
	return time.UnixMilli(v)
}

func chain(root *core.QueryGoalNode, queries []string, hits []int, stamps []int64) *core.QueryGoalNode {
	node := root
	for i, q := range queries {
		node = core.NewQueryGoalNode(node, q, hits[i], "", ms(stamps[i]))
	}
	return node
}

// collect returns every node reachable from roots, failing on duplicates.
func collect(t *testing.T, roots []*core.QueryGoalNode) map[*core.QueryGoalNode]bool {
	t.Helper()
	seen := make(map[*core.QueryGoalNode]bool)
	for _, r := range roots {
		assert.Nil(t, r.Parent())
		for _, n := range r.Subtree() {
			require.False(t, seen[n], "node %q in more than one goal", n.Query)
			seen[n] = true
		}
	}
	return seen
}

func TestExtractor_SingleNode(t *testing.T) {
	e := NewExtractor(DefaultExtractorConfig(), nil)
	root := core.NewQueryGoalNode(nil, "heroes of knight and magic", 10, "", ms(1))

	roots := e.ExtractGoalRoots(root)
	require.Len(t, roots, 1)
	assert.Same(t, root, roots[0])
}

func TestExtractor_SimilarChainIsOneGoal(t *testing.T) {
	e := NewExtractor(DefaultExtractorConfig(), nil)
	root := core.NewQueryGoalNode(nil, "heroes of knight and magic", 10, "", ms(1))
	leaf := chain(root,
		[]string{
			"heroes of knight and magic",
			"heroes of night and magic",
			"heroes of might and magic",
			"heroes of might and magic 3",
			"heroes of might and magic iv",
			"heroes of might and magic 4",
		},
		[]int{10, 13, 132, 12, 12, 6},
		[]int64{0, 10000, 15000, 25000, 100000, 105000})
	leaf.Inspect("", core.Goal, ms(105000))

	roots := e.ExtractGoalRoots(root)
	require.Len(t, roots, 1)
	assert.Same(t, root, roots[0])
	assert.Equal(t, 6, roots[0].NumDescendants())
}

func TestExtractor_DissimilarQuerySplitsGoals(t *testing.T) {
	tests := []struct {
		name string
		hits []int
	}{
		{name: "similarity", hits: []int{13, 132, 12, 12, 6}},
		{name: "zero hits", hits: []int{13, 132, 0, 12, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(DefaultExtractorConfig(), nil)
			root := core.NewQueryGoalNode(nil, "heroes of knight and magic", 10, "", ms(0))
			chain(root,
				[]string{
					"heroes of night and magic",
					"heroes of might and magic",
					"heroes of might and magic 3",
					"the davinci code",
					"the da vinci code",
				},
				tt.hits,
				[]int64{10000, 15000, 25000, 27000, 29000})

			roots := e.ExtractGoalRoots(root)
			require.Len(t, roots, 2)
			assert.Equal(t, "the davinci code", roots[0].Query)
			assert.Equal(t, 1, roots[0].NumDescendants())
			assert.Same(t, root, roots[1])
			assert.Equal(t, 3, roots[1].NumDescendants())
			assert.Len(t, collect(t, roots), 6)
		})
	}
}

func TestExtractor_BranchesArePartitioned(t *testing.T) {
	e := NewExtractor(DefaultExtractorConfig(), nil)
	root := core.NewQueryGoalNode(nil, "pirates of the caribbean", 40, "", ms(0))
	core.NewQueryGoalNode(root, "homm", 5, "", ms(60000))
	core.NewQueryGoalNode(root, "the da vinci code", 7, "", ms(120000))

	roots := e.ExtractGoalRoots(root)
	require.Len(t, roots, 3)
	assert.Len(t, collect(t, roots), 3)
	for _, r := range roots {
		assert.True(t, r.IsLeaf())
	}
}

func TestExtractor_IsPartOfParentGoal(t *testing.T) {
	e := NewExtractor(DefaultExtractorConfig(), nil)

	tests := []struct {
		name    string
		parent  *core.QueryGoalNode
		query   string
		at      int64
		inspect *core.Classification
		want    bool
	}{
		{
			name:   "accepted suggestion",
			parent: core.NewQueryGoalNode(nil, "homm", 0, "heroes of might and magic", ms(0)),
			query:  "heroes of might and magic",
			at:     60000,
			want:   true,
		},
		{
			name:   "repeated query",
			parent: core.NewQueryGoalNode(nil, "abc", 0, "", ms(0)),
			query:  "abc",
			at:     60000,
			want:   true,
		},
		{
			name:   "dissimilar and slow",
			parent: core.NewQueryGoalNode(nil, "pirates", 3, "", ms(0)),
			query:  "homm",
			at:     60000,
			want:   false,
		},
		{
			name:   "dissimilar and fast without inspections",
			parent: core.NewQueryGoalNode(nil, "pirates", 3, "", ms(0)),
			query:  "homm",
			at:     1000,
			want:   false,
		},
		{
			name:    "dissimilar and fast with goal",
			parent:  core.NewQueryGoalNode(nil, "pirates", 3, "", ms(0)),
			query:   "homm",
			at:      1000,
			inspect: ptr(core.Goal),
			want:    true,
		},
		{
			name:    "dissimilar and fast with rejection",
			parent:  core.NewQueryGoalNode(nil, "pirates", 3, "", ms(0)),
			query:   "homm",
			at:      1000,
			inspect: ptr(core.NoPartOfGoal),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child := core.NewQueryGoalNode(tt.parent, tt.query, 1, "", ms(tt.at))
			if tt.inspect != nil {
				child.Inspect("doc", *tt.inspect, ms(tt.at))
			}
			assert.Equal(t, tt.want, e.IsPartOfParentGoal(child))
		})
	}

	t.Run("root", func(t *testing.T) {
		assert.False(t, e.IsPartOfParentGoal(core.NewQueryGoalNode(nil, "x", 1, "", ms(0))))
	})
}

func ptr[T any](v T) *T {
	return &v
}
