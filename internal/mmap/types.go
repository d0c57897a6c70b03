package mmap

import "errors"

// AccessPattern is a hint to the kernel about how a mapping will be read.
type AccessPattern int

const (
	// AccessDefault gives no advice.
	AccessDefault AccessPattern = iota
	// AccessSequential expects a single front-to-back pass.
	AccessSequential
	// AccessWillNeed asks the kernel to read ahead the whole mapping.
	AccessWillNeed
)

var (
	// ErrClosed is returned when a closed mapping is accessed.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files whose size cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
