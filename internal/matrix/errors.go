package matrix

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSizeMismatch is the kind of all size mismatch errors.
var ErrSizeMismatch = errors.New("size mismatch")

// SizeMismatchError reports matrices of one device, or of one comparison,
// that disagree in their total element count or shape.
type SizeMismatchError struct {
	Device string
	Names  []string
	Sizes  []int
}

func (e *SizeMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("not all SRAM maps have equal size")
	if e.Device != "" {
		fmt.Fprintf(&b, " for device %s", e.Device)
	}

	if len(e.Sizes) > 0 {
		parts := make([]string, len(e.Sizes))
		for i, size := range e.Sizes {
			if i < len(e.Names) {
				parts[i] = fmt.Sprintf("%s=%d", e.Names[i], size)
			} else {
				parts[i] = fmt.Sprintf("%d", size)
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}

func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }

// CheckSizes returns a SizeMismatchError if the given cell counts are not all equal.
func CheckSizes(device string, names []string, sizes []int) error {
	for _, size := range sizes[min(1, len(sizes)):] {
		if size != sizes[0] {
			return &SizeMismatchError{
				Device: device,
				Names:  names,
				Sizes:  sizes,
			}
		}
	}
	return nil
}

// CheckShapes returns a SizeMismatchError if both shapes differ.
func CheckShapes(nameA string, a Shape, nameB string, b Shape) error {
	if a == b {
		return nil
	}
	return &SizeMismatchError{
		Names: []string{nameA + " " + a.String(), nameB + " " + b.String()},
		Sizes: []int{a.Cells(), b.Cells()},
	}
}
