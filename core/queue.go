package core

import (
	"container/heap"
	"slices"
)

// SuggestionQueue is a bounded priority queue that keeps the highest
// scoring suggestions it has been offered.
type SuggestionQueue struct {
	capacity int
	h        suggestionHeap
}

// NewSuggestionQueue creates a queue holding at most capacity entries.
func NewSuggestionQueue(capacity int) *SuggestionQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &SuggestionQueue{capacity: capacity}
}

// Len returns the number of queued suggestions.
func (q *SuggestionQueue) Len() int {
	return q.h.Len()
}

// Capacity returns the maximum number of entries.
func (q *SuggestionQueue) Capacity() int {
	return q.capacity
}

// InsertWithOverflow offers s to the queue. When the queue is full, s is
// kept only if it beats the current worst entry, which is then evicted.
// The returned suggestion is whichever one did not fit; ok is false when
// nothing was dropped.
func (q *SuggestionQueue) InsertWithOverflow(s Suggestion) (dropped Suggestion, ok bool) {
	if q.h.Len() < q.capacity {
		heap.Push(&q.h, s)
		return Suggestion{}, false
	}
	worst := q.h[0]
	if s.Score <= worst.Score {
		return s, true
	}
	q.h[0] = s
	heap.Fix(&q.h, 0)
	return worst, true
}

// Best returns the highest scoring entry without removing it.
func (q *SuggestionQueue) Best() (Suggestion, bool) {
	if q.h.Len() == 0 {
		return Suggestion{}, false
	}
	best := q.h[0]
	for _, s := range q.h[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best, true
}

// Drain removes every entry and returns them best first.
// The queue is empty afterwards.
func (q *SuggestionQueue) Drain() []Suggestion {
	out := make([]Suggestion, q.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&q.h).(Suggestion)
	}
	return out
}

// Snapshot returns the entries best first and leaves the queue untouched.
func (q *SuggestionQueue) Snapshot() []Suggestion {
	out := slices.Clone([]Suggestion(q.h))
	slices.SortStableFunc(out, Compare)
	return out
}

// suggestionHeap is a min-heap on score.
type suggestionHeap []Suggestion

func (h suggestionHeap) Len() int           { return len(h) }
func (h suggestionHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h suggestionHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *suggestionHeap) Push(x any) {
	*h = append(*h, x.(Suggestion))
}

func (h *suggestionHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
