package secondlevel

import (
	"cmp"
	"slices"
	"sync"

	"github.com/poiesic/didyoumean/core"
	"github.com/tchap/go-patricia/v2/patricia"
)

// posting lists the positions of one term in one document. seq is the
// document's insertion ordinal, so every posting list is sorted by seq.
type posting struct {
	seq       int
	doc       core.ID
	positions []int
}

type document struct {
	id      core.ID
	text    string
	vectors bool
}

// Match is one document satisfying a proximity query, with the position
// chosen for each query term.
type Match struct {
	Doc       core.ID
	Positions []int
}

// Index is an in-memory inverted index of known-good text. Terms live in
// a patricia trie mapping each term to its postings in insertion order.
//
// Index is safe for concurrent use.
type Index struct {
	analyzer *Analyzer

	mu    sync.RWMutex
	terms *patricia.Trie
	docs  map[core.ID]*document
	order []core.ID
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithAnalyzer sets the analyzer used to tokenize documents.
// Default is NewAnalyzer().
func WithAnalyzer(a *Analyzer) IndexOption {
	return func(idx *Index) {
		if a != nil {
			idx.analyzer = a
		}
	}
}

// NewIndex creates an empty index.
func NewIndex(opts ...IndexOption) *Index {
	idx := &Index{
		analyzer: NewAnalyzer(),
		terms:    patricia.NewTrie(),
		docs:     make(map[core.ID]*document),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Analyzer returns the analyzer documents are tokenized with.
func (idx *Index) Analyzer() *Analyzer {
	return idx.analyzer
}

// AddDocument indexes text and returns its content ID. When storeVectors is
// set, the document's term positions can be read back with TermVector.
// Adding the same text twice is a no-op; added reports whether the document
// was new.
func (idx *Index) AddDocument(text string, storeVectors bool) (id core.ID, added bool, err error) {
	tokens := idx.analyzer.Analyze(text)
	if len(tokens) == 0 {
		return 0, false, ErrEmptyDocument
	}
	id = core.IDFromContent(text)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.docs[id]; ok {
		return id, false, nil
	}

	positions := make(map[string][]int)
	for pos, tok := range tokens {
		positions[tok] = append(positions[tok], pos)
	}
	seq := len(idx.order)
	for term, pos := range positions {
		key := patricia.Prefix(term)
		p := posting{seq: seq, doc: id, positions: pos}
		if item := idx.terms.Get(key); item != nil {
			idx.terms.Set(key, append(item.([]posting), p))
			continue
		}
		idx.terms.Insert(key, []posting{p})
	}

	idx.docs[id] = &document{id: id, text: text, vectors: storeVectors}
	idx.order = append(idx.order, id)
	return id, true, nil
}

// Len returns the number of documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.order)
}

// Document returns the original text of a document.
func (idx *Index) Document(id core.ID) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	doc, ok := idx.docs[id]
	if !ok {
		return "", false
	}
	return doc.text, true
}

// Documents returns the text of every document in insertion order.
func (idx *Index) Documents() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, len(idx.order))
	for i, id := range idx.order {
		out[i] = idx.docs[id].text
	}
	return out
}

// DocFreq returns the number of documents containing term.
func (idx *Index) DocFreq(term string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.postings(term))
}

// NumTerms returns the number of distinct terms.
func (idx *Index) NumTerms() int {
	n := 0
	_ = idx.VisitTerms(func(string, int) error {
		n++
		return nil
	})
	return n
}

// VisitTerms calls fn with every term and its document frequency.
// An error returned by fn stops the walk and is returned.
func (idx *Index) VisitTerms(fn func(term string, docFreq int) error) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.terms.Visit(func(prefix patricia.Prefix, item patricia.Item) error {
		return fn(string(prefix), len(item.([]posting)))
	})
}

// TermsWithPrefix returns the terms starting with prefix, sorted.
func (idx *Index) TermsWithPrefix(prefix string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var terms []string
	_ = idx.terms.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, _ patricia.Item) error {
		terms = append(terms, string(p))
		return nil
	})
	slices.Sort(terms)
	return terms
}

// HasVectors reports whether the term positions of a document may be used
// to restore the corpus word order.
func (idx *Index) HasVectors(id core.ID) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	doc, ok := idx.docs[id]
	return ok && doc.vectors
}

// Conjunction returns the documents containing every term, in insertion order.
func (idx *Index) Conjunction(terms []string) []core.ID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	lists, ok := idx.postingLists(terms)
	if !ok {
		return nil
	}
	var out []core.ID
	intersect(lists, func(doc core.ID, _ [][]int) {
		out = append(out, doc)
	})
	return out
}

// Near returns the documents where all terms occur within slop extra
// positions of each other. A match needs a distinct position per term. With
// inOrder the positions must follow the order of terms.
func (idx *Index) Near(terms []string, slop int, inOrder bool) []Match {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	lists, ok := idx.postingLists(terms)
	if !ok {
		return nil
	}
	var out []Match
	intersect(lists, func(doc core.ID, positions [][]int) {
		if chosen, ok := nearest(positions, slop, inOrder); ok {
			out = append(out, Match{Doc: doc, Positions: chosen})
		}
	})
	return out
}

func (idx *Index) postings(term string) []posting {
	item := idx.terms.Get(patricia.Prefix(term))
	if item == nil {
		return nil
	}
	return item.([]posting)
}

// postingLists resolves each term's postings. ok is false if any term is
// missing from the index.
func (idx *Index) postingLists(terms []string) ([][]posting, bool) {
	if len(terms) == 0 {
		return nil, false
	}
	lists := make([][]posting, len(terms))
	for i, term := range terms {
		lists[i] = idx.postings(term)
		if len(lists[i]) == 0 {
			return nil, false
		}
	}
	return lists, true
}

// intersect calls fn, in insertion order, for every document present in
// all lists with each term's positions in it. The shortest list drives the
// walk and the others are searched from a moving cursor, so only candidate
// documents are visited. positions is reused between calls.
func intersect(lists [][]posting, fn func(doc core.ID, positions [][]int)) {
	driver := 0
	for i := range lists {
		if len(lists[i]) < len(lists[driver]) {
			driver = i
		}
	}

	cursors := make([]int, len(lists))
	positions := make([][]int, len(lists))
next:
	for _, p := range lists[driver] {
		for i, list := range lists {
			if i == driver {
				positions[i] = p.positions
				continue
			}
			j, found := slices.BinarySearchFunc(list[cursors[i]:], p.seq, func(q posting, seq int) int {
				return cmp.Compare(q.seq, seq)
			})
			cursors[i] += j
			if !found {
				continue next
			}
			positions[i] = list[cursors[i]].positions
		}
		fn(p.doc, positions)
	}
}

// nearest searches for one distinct position per term whose span, less the
// number of terms, is at most slop.
func nearest(positions [][]int, slop int, inOrder bool) ([]int, bool) {
	n := len(positions)
	chosen := make([]int, n)
	used := make(map[int]bool, n)

	var search func(i, lo, hi int) bool
	search = func(i, lo, hi int) bool {
		if i == n {
			return true
		}
		for _, pos := range positions[i] {
			if used[pos] {
				continue
			}
			if inOrder && i > 0 && pos <= chosen[i-1] {
				continue
			}
			nlo, nhi := lo, hi
			if i == 0 || pos < nlo {
				nlo = pos
			}
			if i == 0 || pos > nhi {
				nhi = pos
			}
			if nhi-nlo+1-n > slop {
				continue
			}
			chosen[i] = pos
			used[pos] = true
			if search(i+1, nlo, nhi) {
				return true
			}
			delete(used, pos)
		}
		return false
	}

	if !search(0, 0, 0) {
		return nil, false
	}
	return chosen, true
}
