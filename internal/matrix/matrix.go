// Package matrix contains the 2-D arrays the analyzer works on: bit matrices
// decoded from single memory dumps and floating point maps derived from them.
package matrix

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when a matrix would have no rows.
var ErrEmpty = errors.New("matrix has no rows")

// Shape describes the dimensions of a matrix.
type Shape struct {
	Rows int
	Cols int
}

// Cells returns the total element count.
func (s Shape) Cells() int {
	return s.Rows * s.Cols
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// Bits is a row-major matrix of single bit values, every element is 0 or 1.
type Bits struct {
	Shape
	Data []uint8
}

// NewBits returns a zeroed bit matrix.
func NewBits(rows, cols int) Bits {
	return Bits{
		Shape: Shape{Rows: rows, Cols: cols},
		Data:  make([]uint8, rows*cols),
	}
}

// FromRows expands every byte of every row most significant bit first
// and stacks the resulting bit rows in order.
func FromRows(rows [][]byte) (Bits, error) {
	if len(rows) == 0 {
		return Bits{}, ErrEmpty
	}

	width := len(rows[0])
	m := NewBits(len(rows), width*8)
	for r, row := range rows {
		if len(row) != width {
			return Bits{}, fmt.Errorf("row %d has %d bytes, expected %d", r, len(row), width)
		}

		out := m.Row(r)
		for i, b := range row {
			for bit := range 8 {
				out[i*8+bit] = (b >> (7 - bit)) & 1
			}
		}
	}
	return m, nil
}

// Row returns the bits of row r, sharing the underlying storage.
func (m Bits) Row(r int) []uint8 {
	return m.Data[r*m.Cols : (r+1)*m.Cols]
}

// At returns the bit at row r and column c.
func (m Bits) At(r, c int) uint8 {
	return m.Data[r*m.Cols+c]
}

// Set sets the bit at row r and column c.
func (m Bits) Set(r, c int, v uint8) {
	m.Data[r*m.Cols+c] = v & 1
}

// Bytes packs every row back into bytes, most significant bit first.
// A trailing partial byte is padded with zero bits.
func (m Bits) Bytes() [][]byte {
	rows := make([][]byte, m.Rows)
	width := (m.Cols + 7) / 8
	for r := range m.Rows {
		row := make([]byte, width)
		for c, bit := range m.Row(r) {
			row[c/8] |= bit << (7 - c%8)
		}
		rows[r] = row
	}
	return rows
}

// Equal returns whether both matrices have the same shape and content.
func (m Bits) Equal(other Bits) bool {
	if m.Shape != other.Shape || len(m.Data) != len(other.Data) {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// Map is a row-major matrix of floating point values such as a
// probability or entropy map.
type Map struct {
	Shape
	Data []float64
}

// NewMap returns a zeroed map.
func NewMap(rows, cols int) Map {
	return Map{
		Shape: Shape{Rows: rows, Cols: cols},
		Data:  make([]float64, rows*cols),
	}
}

// At returns the value at row r and column c.
func (m Map) At(r, c int) float64 {
	return m.Data[r*m.Cols+c]
}

// Sum returns the sum of all values.
func (m Map) Sum() float64 {
	var sum float64
	for _, v := range m.Data {
		sum += v
	}
	return sum
}

// Mean returns the average value, 0 for an empty map.
func (m Map) Mean() float64 {
	if len(m.Data) == 0 {
		return 0
	}
	return m.Sum() / float64(len(m.Data))
}

// ToMap converts the bits to a map of 0.0 and 1.0 values.
func (m Bits) ToMap() Map {
	out := NewMap(m.Rows, m.Cols)
	for i, bit := range m.Data {
		out.Data[i] = float64(bit)
	}
	return out
}
