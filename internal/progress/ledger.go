package progress

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Ledger is a set of written ranks out of a known total.
// It is safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	rb    *roaring64.Bitmap
	total uint64
}

// NewLedger returns an empty ledger for total combinations.
func NewLedger(total uint64) *Ledger {
	return &Ledger{
		rb:    roaring64.New(),
		total: total,
	}
}

// Add marks seq as written.
func (l *Ledger) Add(seq uint64) {
	l.mu.Lock()
	l.rb.Add(seq)
	l.mu.Unlock()
}

// Contains reports whether seq was written.
func (l *Ledger) Contains(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rb.Contains(seq)
}

// Total returns the number of combinations the run was expected to write.
func (l *Ledger) Total() uint64 {
	return l.total
}

// Written returns the number of distinct ranks recorded.
func (l *Ledger) Written() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rb.GetCardinality()
}

// Complete reports whether every rank below Total was written.
func (l *Ledger) Complete() bool {
	return l.Written() == l.total
}

// FirstMissing returns the lowest rank below Total that was not written.
// ok is false when the ledger is complete.
func (l *Ledger) FirstMissing() (seq uint64, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Ranks are iterated in ascending order; the first gap is the answer.
	var want uint64
	it := l.rb.Iterator()
	for it.HasNext() && want < l.total {
		if it.Next() != want {
			return want, true
		}
		want++
	}
	if want < l.total {
		return want, true
	}
	return 0, false
}

// Missing returns up to limit unwritten ranks in ascending order.
func (l *Ledger) Missing(limit int) []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []uint64
	for seq := uint64(0); seq < l.total && len(out) < limit; seq++ {
		if !l.rb.Contains(seq) {
			out = append(out, seq)
		}
	}
	return out
}
