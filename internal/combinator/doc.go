// Package combinator enumerates k-subsets of candidate indices.
//
// An Iterator walks every strictly increasing index vector of length k drawn
// from 0..p-1 in lexicographic order, using an explicit index vector instead of
// recursion so the stack depth does not depend on k:
//
//	it, _ := combinator.New(4, 2)
//	for idx, ok := it.Next(); ok; idx, ok = it.Next() {
//	    // [0 1] [0 2] [0 3] [1 2] [1 3] [2 3]
//	}
//
// The sequence is finite and cannot be restarted.
package combinator
