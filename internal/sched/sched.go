package sched

import (
	"errors"
	"runtime"
)

// ErrUnsupported is returned on platforms without per-thread priorities.
var ErrUnsupported = errors.New("sched: thread priority not supported on this platform")

// Elevate locks the calling goroutine to its OS thread and gives the thread
// the most favourable nice value the process is permitted to set. It returns
// the nice value applied.
//
// The goroutine stays locked; when it returns the runtime retires the thread
// instead of handing the raised priority to other goroutines.
func Elevate() (int, error) {
	runtime.LockOSThread()
	return elevate()
}
