package engine

import "sync/atomic"

// Sequence stamps events with strictly increasing numbers in enqueue order.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	n atomic.Int64
}

// Next returns the next sequence number. The first call returns 1.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}
