package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(v int64) time.Time {
	return time.UnixMilli(v)
}

func TestQueryGoalNode_Tree(t *testing.T) {
	root := NewQueryGoalNode(nil, "a", 1, "", ms(0))
	b := NewQueryGoalNode(root, "b", 1, "", ms(1))
	c := NewQueryGoalNode(b, "c", 1, "", ms(2))
	d := NewQueryGoalNode(root, "d", 1, "", ms(3))

	assert.Nil(t, root.Parent())
	assert.Same(t, root, b.Parent())
	assert.Same(t, root, c.Root())
	assert.Equal(t, []*QueryGoalNode{b, d}, root.Children())
	assert.Equal(t, 3, root.NumDescendants())
	assert.Equal(t, []*QueryGoalNode{root, b, c, d}, root.Subtree())
	assert.True(t, c.IsLeaf())
	assert.False(t, b.IsLeaf())

	t.Run("detach keeps both sides consistent", func(t *testing.T) {
		b.Detach()
		assert.Nil(t, b.Parent())
		assert.Equal(t, []*QueryGoalNode{d}, root.Children())
		assert.Same(t, b, c.Root())
		assert.Equal(t, 1, root.NumDescendants())

		b.Detach()
		assert.Nil(t, b.Parent())
	})

	t.Run("attach moves a node", func(t *testing.T) {
		d.Attach(c)
		assert.Same(t, d, c.Parent())
		assert.True(t, b.IsLeaf())
		assert.Equal(t, []*QueryGoalNode{c}, d.Children())
	})
}

func TestQueryGoalNode_Descendants_StopsEarly(t *testing.T) {
	root := NewQueryGoalNode(nil, "a", 1, "", ms(0))
	for i := 0; i < 5; i++ {
		NewQueryGoalNode(root, "x", 1, "", ms(int64(i)))
	}

	count := 0
	for range root.Descendants() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestQueryGoalNode_InspectionWeight(t *testing.T) {
	n := NewQueryGoalNode(nil, "q", UnknownHits, "", ms(0))

	_, ok := n.InspectionWeight()
	assert.False(t, ok, "no inspections means no weight, not zero")
	assert.False(t, n.HasGoal())
	assert.False(t, n.HasHits())

	n.Inspect("r1", Goal, ms(1))
	w, ok := n.InspectionWeight()
	require.True(t, ok)
	assert.Equal(t, 2.0, w)
	assert.True(t, n.HasGoal())

	n.Inspect("r2", Goal, ms(2))
	w, _ = n.InspectionWeight()
	assert.Equal(t, 4.0, w)

	n.Inspect("r3", NoPartOfGoal, ms(3))
	w, ok = n.InspectionWeight()
	require.True(t, ok)
	assert.Equal(t, 0.0, w)
}
