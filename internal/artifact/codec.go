package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/retroenv/sramtools/internal/matrix"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// ErrCorrupt is returned for blobs that can not be decoded.
var ErrCorrupt = errors.New("corrupt cache artifact")

// NumPy data type descriptors accepted for caches and maps.
const (
	descrUint8   = "|u1"
	descrUint8LE = "<u1"
	descrBool    = "|b1"
	descrFloat64 = "<f8"
)

// EncodeBits writes a bit matrix as a two dimensional float64 NumPy array.
func EncodeBits(w io.Writer, m matrix.Bits) error {
	data := make([]float64, len(m.Data))
	for i, b := range m.Data {
		data[i] = float64(b)
	}
	return encodeDense(w, m.Shape, data)
}

// DecodeBits parses a two dimensional NumPy array of 0 and 1 values. Arrays
// of uint8, bool and float64 elements are accepted.
func DecodeBits(data []byte) (matrix.Bits, error) {
	r, shape, err := openArray(data)
	if err != nil {
		return matrix.Bits{}, err
	}

	m := matrix.NewBits(shape.Rows, shape.Cols)
	switch typ := r.Header.Descr.Type; typ {
	case descrUint8, descrUint8LE:
		var values []uint8
		if err := r.Read(&values); err != nil {
			return matrix.Bits{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		for i, v := range values {
			if v > 1 {
				return matrix.Bits{}, fmt.Errorf("%w: element %d has value %d", ErrCorrupt, i, v)
			}
			m.Data[i] = v
		}

	case descrBool:
		var values []bool
		if err := r.Read(&values); err != nil {
			return matrix.Bits{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		for i, v := range values {
			if v {
				m.Data[i] = 1
			}
		}

	case descrFloat64:
		var values []float64
		if err := r.Read(&values); err != nil {
			return matrix.Bits{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		for i, v := range values {
			if v != 0 && v != 1 {
				return matrix.Bits{}, fmt.Errorf("%w: element %d has value %g", ErrCorrupt, i, v)
			}
			m.Data[i] = uint8(v)
		}

	default:
		return matrix.Bits{}, fmt.Errorf("%w: unsupported data type '%s'", ErrCorrupt, typ)
	}
	return m, nil
}

// EncodeMap writes a floating point map as a two dimensional NumPy array.
func EncodeMap(w io.Writer, m matrix.Map) error {
	return encodeDense(w, m.Shape, m.Data)
}

// DecodeMap parses a two dimensional float64 NumPy array.
func DecodeMap(data []byte) (matrix.Map, error) {
	r, shape, err := openArray(data)
	if err != nil {
		return matrix.Map{}, err
	}
	if typ := r.Header.Descr.Type; typ != descrFloat64 {
		return matrix.Map{}, fmt.Errorf("%w: data type '%s', expected '%s'", ErrCorrupt, typ, descrFloat64)
	}

	var values []float64
	if err := r.Read(&values); err != nil {
		return matrix.Map{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	m := matrix.NewMap(shape.Rows, shape.Cols)
	copy(m.Data, values)
	return m, nil
}

func encodeDense(w io.Writer, shape matrix.Shape, data []float64) error {
	if shape.Rows <= 0 || shape.Cols <= 0 || len(data) != shape.Cells() {
		return fmt.Errorf("invalid matrix shape %s for %d elements", shape, len(data))
	}
	if err := npyio.Write(w, mat.NewDense(shape.Rows, shape.Cols, data)); err != nil {
		return fmt.Errorf("writing array: %w", err)
	}
	return nil
}

// openArray parses the NumPy header and checks that the array is two
// dimensional, stored in row major order and that the payload holds exactly
// the number of elements of the shape. The element count is validated
// before the reader allocates anything.
func openArray(data []byte) (*npyio.Reader, matrix.Shape, error) {
	br := bytes.NewReader(data)
	r, err := npyio.NewReader(br)
	if err != nil {
		return nil, matrix.Shape{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	descr := r.Header.Descr
	if len(descr.Shape) != 2 {
		return nil, matrix.Shape{}, fmt.Errorf("%w: array has %d dimensions, expected 2", ErrCorrupt, len(descr.Shape))
	}
	if descr.Fortran {
		return nil, matrix.Shape{}, fmt.Errorf("%w: column major arrays are not supported", ErrCorrupt)
	}
	shape := matrix.Shape{Rows: descr.Shape[0], Cols: descr.Shape[1]}

	size := elementSize(descr.Type)
	if size == 0 {
		return nil, matrix.Shape{}, fmt.Errorf("%w: unsupported data type '%s'", ErrCorrupt, descr.Type)
	}
	if !payloadFits(shape, size, br.Len()) {
		return nil, matrix.Shape{}, fmt.Errorf("%w: %s payload has %d bytes of %d byte elements",
			ErrCorrupt, shape, br.Len(), size)
	}
	return r, shape, nil
}

// payloadFits reports whether a payload of n bytes holds exactly the
// elements of the shape. Divisions keep huge shapes from overflowing.
func payloadFits(shape matrix.Shape, size, n int) bool {
	if shape.Rows <= 0 || shape.Cols <= 0 || n%size != 0 {
		return false
	}
	elements := n / size
	return elements%shape.Cols == 0 && elements/shape.Cols == shape.Rows
}

func elementSize(descr string) int {
	switch descr {
	case descrUint8, descrUint8LE, descrBool:
		return 1
	case descrFloat64:
		return 8
	default:
		return 0
	}
}
