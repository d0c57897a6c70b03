package combinator

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
)

var (
	// ErrInvalidSize is returned when k < 1 or k > p.
	ErrInvalidSize = errors.New("combinator: need 1 <= k <= p")

	// ErrOverflow is returned by Count when C(p,k) does not fit in a uint64.
	ErrOverflow = errors.New("combinator: combination count overflows uint64")
)

// Iterator yields the k-subsets of {0..p-1} in lexicographic order.
type Iterator struct {
	p, k    int
	idx     []int
	started bool
	done    bool
	rank    uint64
}

// New returns an iterator over the k-subsets of p candidates.
func New(p, k int) (*Iterator, error) {
	if k < 1 || k > p {
		return nil, fmt.Errorf("%w: p=%d k=%d", ErrInvalidSize, p, k)
	}
	return &Iterator{p: p, k: k, idx: make([]int, k)}, nil
}

// Next returns the next index vector. The returned slice is owned by the caller.
// ok is false once the sequence is exhausted.
func (it *Iterator) Next() (idx []int, ok bool) {
	if it.done {
		return nil, false
	}

	if !it.started {
		it.started = true
		for i := range it.idx {
			it.idx[i] = i
		}
		return slices.Clone(it.idx), true
	}

	// Find the rightmost position that can still move right. Position i can hold
	// at most p-k+i, otherwise the remaining positions cannot be filled.
	i := it.k - 1
	for i >= 0 && it.idx[i] == it.p-it.k+i {
		i--
	}
	if i < 0 {
		it.done = true
		return nil, false
	}

	it.idx[i]++
	for j := i + 1; j < it.k; j++ {
		it.idx[j] = it.idx[j-1] + 1
	}
	it.rank++

	return slices.Clone(it.idx), true
}

// Rank returns the zero-based lexicographic rank of the vector last returned by Next.
func (it *Iterator) Rank() uint64 {
	return it.rank
}

// Count returns C(p,k).
func Count(p, k int) (uint64, error) {
	if k < 1 || k > p {
		return 0, fmt.Errorf("%w: p=%d k=%d", ErrInvalidSize, p, k)
	}
	n := new(big.Int).Binomial(int64(p), int64(k))
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: C(%d,%d)", ErrOverflow, p, k)
	}
	return n.Uint64(), nil
}
