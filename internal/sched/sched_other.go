//go:build !linux

package sched

func elevate() (int, error) {
	return 0, ErrUnsupported
}
