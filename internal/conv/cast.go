package conv

import (
	"errors"
	"fmt"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// Integer is any built-in integer type.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// To converts v to T, failing with ErrOverflow if the value changes.
func To[T, F Integer](v F) (T, error) {
	out := T(v)
	// A round trip that changes the value or flips the sign lost information.
	if F(out) != v || (out < 0) != (v < 0) {
		return 0, fmt.Errorf("%w: %d does not fit in %T", ErrOverflow, v, out)
	}
	return out, nil
}
