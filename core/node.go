package core

import (
	"iter"
	"slices"
	"time"
)

// Inspection records a user interaction with a result of a query.
type Inspection struct {
	Reference      string
	Timestamp      time.Time
	Classification Classification
}

// QueryGoalNode is one query event in a session tree.
//
// A node owns its children and its inspections. The parent link is a plain
// back-reference; it is maintained only through NewQueryGoalNode, Attach and
// Detach so that parent and children always agree.
type QueryGoalNode struct {
	Query       string
	Hits        int // UnknownHits when not measured
	Suggestion  string
	Timestamp   time.Time
	Inspections []Inspection

	parent   *QueryGoalNode
	children []*QueryGoalNode
}

// NewQueryGoalNode creates a node and, when parent is not nil, appends it
// to the parent's children.
func NewQueryGoalNode(parent *QueryGoalNode, query string, hits int, suggestion string, ts time.Time) *QueryGoalNode {
	n := &QueryGoalNode{
		Query:      query,
		Hits:       hits,
		Suggestion: suggestion,
		Timestamp:  ts,
	}
	if parent != nil {
		parent.Attach(n)
	}
	return n
}

// Parent returns the parent node or nil at a root.
func (n *QueryGoalNode) Parent() *QueryGoalNode {
	return n.parent
}

// Children returns the node's children. The slice must not be modified.
func (n *QueryGoalNode) Children() []*QueryGoalNode {
	return n.children
}

// IsLeaf reports whether the node has no children.
func (n *QueryGoalNode) IsLeaf() bool {
	return len(n.children) == 0
}

// HasHits reports whether the corpus hit count is known.
func (n *QueryGoalNode) HasHits() bool {
	return n.Hits >= 0
}

// Attach makes child a child of n, detaching it from any previous parent.
func (n *QueryGoalNode) Attach(child *QueryGoalNode) {
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// Detach removes n from its parent's children and clears the back-reference.
func (n *QueryGoalNode) Detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

// Root walks parent links to the top of the tree.
func (n *QueryGoalNode) Root() *QueryGoalNode {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Inspect records an inspection on the node.
func (n *QueryGoalNode) Inspect(reference string, classification Classification, ts time.Time) {
	n.Inspections = append(n.Inspections, Inspection{
		Reference:      reference,
		Timestamp:      ts,
		Classification: classification,
	})
}

// InspectionWeight returns the product of (1 + classification) over all
// inspections. ok is false when there are no inspections.
func (n *QueryGoalNode) InspectionWeight() (weight float64, ok bool) {
	if len(n.Inspections) == 0 {
		return 0, false
	}
	weight = 1
	for _, in := range n.Inspections {
		weight *= 1 + float64(in.Classification)
	}
	return weight, true
}

// HasGoal reports whether any inspection is classified above Unknown.
func (n *QueryGoalNode) HasGoal() bool {
	for _, in := range n.Inspections {
		if in.Classification > Unknown {
			return true
		}
	}
	return false
}

// Descendants yields every node below n in pre-order. n itself is not yielded.
func (n *QueryGoalNode) Descendants() iter.Seq[*QueryGoalNode] {
	return func(yield func(*QueryGoalNode) bool) {
		n.walk(yield)
	}
}

func (n *QueryGoalNode) walk(yield func(*QueryGoalNode) bool) bool {
	for _, c := range n.children {
		if !yield(c) || !c.walk(yield) {
			return false
		}
	}
	return true
}

// NumDescendants counts every node below n.
func (n *QueryGoalNode) NumDescendants() int {
	count := 0
	for range n.Descendants() {
		count++
	}
	return count
}

// Subtree returns n followed by its descendants in pre-order.
func (n *QueryGoalNode) Subtree() []*QueryGoalNode {
	nodes := []*QueryGoalNode{n}
	for d := range n.Descendants() {
		nodes = append(nodes, d)
	}
	return nodes
}
