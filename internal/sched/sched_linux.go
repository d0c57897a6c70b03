//go:build linux

package sched

import "golang.org/x/sys/unix"

// Linux nice values range from -20 (most favourable) to 19.
const (
	minNice = -20
	maxNice = 19
)

func elevate() (int, error) {
	tid := unix.Gettid()

	var err error
	for nice := minNice; nice <= 0; nice++ {
		// On Linux PRIO_PROCESS with a thread id targets just that thread.
		if err = unix.Setpriority(unix.PRIO_PROCESS, tid, nice); err == nil {
			return nice, nil
		}
	}
	return maxNice, err
}
