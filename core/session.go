package core

import (
	"fmt"
	"time"
)

// DefaultSessionExpiration is how long a session may stay untouched before
// it is considered complete.
const DefaultSessionExpiration = 600 * time.Second

// NoParent selects a rootless node in QueryWithParent.
const NoParent = -1

// QuerySession is the ordered record of one user's query events. Nodes are
// addressed by the index returned when they were added.
type QuerySession struct {
	ID          string
	LastTouched time.Time
	Expiration  time.Duration

	nodes []*QueryGoalNode
	index map[*QueryGoalNode]int
}

// NewQuerySession creates an empty session. A non-positive expiration
// selects DefaultSessionExpiration.
func NewQuerySession(id string, expiration time.Duration) *QuerySession {
	if expiration <= 0 {
		expiration = DefaultSessionExpiration
	}
	return &QuerySession{
		ID:         id,
		Expiration: expiration,
		index:      make(map[*QueryGoalNode]int),
	}
}

// Query appends a query event whose parent is the most recently added node.
// It returns the index of the new node.
func (s *QuerySession) Query(query string, hits int, suggestion string, ts time.Time) int {
	parent := len(s.nodes) - 1
	idx, _ := s.QueryWithParent(parent, query, hits, suggestion, ts)
	return idx
}

// QueryWithParent appends a query event below the node at parent, or as a
// root when parent is NoParent.
func (s *QuerySession) QueryWithParent(parent int, query string, hits int, suggestion string, ts time.Time) (int, error) {
	var p *QueryGoalNode
	if parent != NoParent {
		if parent < 0 || parent >= len(s.nodes) {
			return 0, fmt.Errorf("%w: %d", ErrInvalidNodeIndex, parent)
		}
		p = s.nodes[parent]
	}
	n := NewQueryGoalNode(p, query, hits, suggestion, ts)
	s.nodes = append(s.nodes, n)
	if s.index == nil {
		s.index = make(map[*QueryGoalNode]int)
	}
	s.index[n] = len(s.nodes) - 1
	s.Touch(ts)
	return len(s.nodes) - 1, nil
}

// Inspect records an inspection on the node at index.
func (s *QuerySession) Inspect(index int, reference string, classification Classification, ts time.Time) error {
	n, err := s.Node(index)
	if err != nil {
		return err
	}
	n.Inspect(reference, classification, ts)
	s.Touch(ts)
	return nil
}

// Touch moves LastTouched forward to ts.
func (s *QuerySession) Touch(ts time.Time) {
	if ts.After(s.LastTouched) {
		s.LastTouched = ts
	}
}

// Node returns the node at index.
func (s *QuerySession) Node(index int) (*QueryGoalNode, error) {
	if index < 0 || index >= len(s.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNodeIndex, index)
	}
	return s.nodes[index], nil
}

// Nodes returns the nodes in insertion order. The slice must not be modified.
func (s *QuerySession) Nodes() []*QueryGoalNode {
	return s.nodes
}

// Len returns the number of nodes.
func (s *QuerySession) Len() int {
	return len(s.nodes)
}

// Root returns the root of the first node's tree, or nil for an empty session.
func (s *QuerySession) Root() *QueryGoalNode {
	if len(s.nodes) == 0 {
		return nil
	}
	return s.nodes[0].Root()
}

// ParentIndex returns the index of the node's parent, or NoParent.
func (s *QuerySession) ParentIndex(index int) int {
	n, err := s.Node(index)
	if err != nil || n.parent == nil {
		return NoParent
	}
	if i, ok := s.index[n.parent]; ok {
		return i
	}
	return NoParent
}

// IsExpired reports whether the session has been idle longer than its expiration.
func (s *QuerySession) IsExpired(now time.Time) bool {
	return now.After(s.LastTouched.Add(s.Expiration))
}

// Clone returns a deep copy with an independent node tree.
func (s *QuerySession) Clone() *QuerySession {
	c := NewQuerySession(s.ID, s.Expiration)
	for i, n := range s.nodes {
		idx, _ := c.QueryWithParent(s.ParentIndex(i), n.Query, n.Hits, n.Suggestion, n.Timestamp)
		c.nodes[idx].Inspections = append([]Inspection(nil), n.Inspections...)
	}
	c.LastTouched = s.LastTouched
	return c
}
