package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/didyoumean/core"
)

// sessionRecord is the stored form of a QuerySession. Nodes are kept in
// arena order with parent indices.
type sessionRecord struct {
	ID          string
	LastTouched time.Time
	Expiration  time.Duration
	Nodes       []nodeRecord
}

type nodeRecord struct {
	Parent      int
	Query       string
	Hits        int
	Suggestion  string
	Timestamp   time.Time
	Inspections []core.Inspection
}

// Timestamps are stored as Unix microseconds, floats as their IEEE bits.
var sessionRecordMUS = sessionRecordSerializer{}

type sessionRecordSerializer struct{}

func (sessionRecordSerializer) Size(rec sessionRecord) (size int) {
	size = ord.String.Size(rec.ID)
	size += varint.Int64.Size(rec.LastTouched.UnixMicro())
	size += varint.Int64.Size(int64(rec.Expiration))
	size += varint.Int64.Size(int64(len(rec.Nodes)))
	for _, n := range rec.Nodes {
		size += varint.Int64.Size(int64(n.Parent))
		size += ord.String.Size(n.Query)
		size += varint.Int64.Size(int64(n.Hits))
		size += ord.String.Size(n.Suggestion)
		size += varint.Int64.Size(n.Timestamp.UnixMicro())
		size += varint.Int64.Size(int64(len(n.Inspections)))
		for _, in := range n.Inspections {
			size += ord.String.Size(in.Reference)
			size += varint.Int64.Size(in.Timestamp.UnixMicro())
			size += varint.Uint64.Size(math.Float64bits(float64(in.Classification)))
		}
	}
	return size
}

func (sessionRecordSerializer) Marshal(rec sessionRecord, bs []byte) (n int) {
	n = ord.String.Marshal(rec.ID, bs)
	n += varint.Int64.Marshal(rec.LastTouched.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(int64(rec.Expiration), bs[n:])
	n += varint.Int64.Marshal(int64(len(rec.Nodes)), bs[n:])
	for _, node := range rec.Nodes {
		n += varint.Int64.Marshal(int64(node.Parent), bs[n:])
		n += ord.String.Marshal(node.Query, bs[n:])
		n += varint.Int64.Marshal(int64(node.Hits), bs[n:])
		n += ord.String.Marshal(node.Suggestion, bs[n:])
		n += varint.Int64.Marshal(node.Timestamp.UnixMicro(), bs[n:])
		n += varint.Int64.Marshal(int64(len(node.Inspections)), bs[n:])
		for _, in := range node.Inspections {
			n += ord.String.Marshal(in.Reference, bs[n:])
			n += varint.Int64.Marshal(in.Timestamp.UnixMicro(), bs[n:])
			n += varint.Uint64.Marshal(math.Float64bits(float64(in.Classification)), bs[n:])
		}
	}
	return n
}

func (sessionRecordSerializer) Unmarshal(bs []byte) (rec sessionRecord, n int, err error) {
	r := &musReader{bs: bs}
	rec.ID = r.string()
	rec.LastTouched = r.time()
	rec.Expiration = time.Duration(r.int64())
	count := r.count()
	if count > 0 {
		rec.Nodes = make([]nodeRecord, count)
	}
	for i := 0; i < count && r.err == nil; i++ {
		node := &rec.Nodes[i]
		node.Parent = int(r.int64())
		node.Query = r.string()
		node.Hits = int(r.int64())
		node.Suggestion = r.string()
		node.Timestamp = r.time()
		inspections := r.count()
		if inspections > 0 {
			node.Inspections = make([]core.Inspection, inspections)
		}
		for j := 0; j < inspections && r.err == nil; j++ {
			node.Inspections[j] = core.Inspection{
				Reference:      r.string(),
				Timestamp:      r.time(),
				Classification: core.Classification(math.Float64frombits(r.uint64())),
			}
		}
	}
	if r.err != nil {
		return sessionRecord{}, r.n, r.err
	}
	return rec, r.n, nil
}

// musReader decodes fields in order and keeps the first error.
type musReader struct {
	bs  []byte
	n   int
	err error
}

func (r *musReader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) time() time.Time {
	us := r.int64()
	if r.err != nil {
		return time.Time{}
	}
	return time.UnixMicro(us)
}

// count reads a collection length. Every element takes at least one byte,
// so a length beyond the remaining input is corrupt.
func (r *musReader) count() int {
	v := r.int64()
	if r.err != nil {
		return 0
	}
	if v < 0 || v > int64(len(r.bs)-r.n) {
		r.err = fmt.Errorf("%w: length %d", ErrTruncatedData, v)
		return 0
	}
	return int(v)
}
