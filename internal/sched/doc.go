// Package sched raises the scheduling priority of the calling goroutine's OS
// thread on a best-effort basis.
//
// The generator and the writer stages bracket the worker pool; running them on
// favoured threads keeps workers fed and drained when CPUs are oversubscribed.
package sched
