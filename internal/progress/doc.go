// Package progress records which combinations have reached the sink.
//
// Combinations are identified by their lexicographic rank. After an aborted
// run the ledger tells how many rows were written and which rank is the first
// one missing.
package progress
