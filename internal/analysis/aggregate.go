package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/retroenv/sramtools/internal/matrix"
)

// ErrEmptyInput is returned when there is no cached data to work on.
var ErrEmptyInput = errors.New("no cached data")

// Entropy returns the binary Shannon entropy in bits of a cell that powers
// up as 1 with probability p. Both terms are 0 at p = 0 and p = 1.
func Entropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	q := 1 - p
	return -p*math.Log2(p) - q*math.Log2(q)
}

// Aggregate sums the matrices cell by cell and returns the probability map
// (frequency / count) and the entropy map derived from it.
func Aggregate(matrices []matrix.Bits) (matrix.Map, matrix.Map, error) {
	if len(matrices) == 0 {
		return matrix.Map{}, matrix.Map{}, ErrEmptyInput
	}

	shape := matrices[0].Shape
	frequency := make([]uint32, shape.Cells())
	for i, m := range matrices {
		if m.Shape != shape {
			return matrix.Map{}, matrix.Map{}, fmt.Errorf("matrix %d: %w", i,
				matrix.CheckShapes("first", shape, "current", m.Shape))
		}
		for j, bit := range m.Data {
			frequency[j] += uint32(bit)
		}
	}

	count := float64(len(matrices))
	probability := matrix.NewMap(shape.Rows, shape.Cols)
	entropy := matrix.NewMap(shape.Rows, shape.Cols)
	for i, freq := range frequency {
		p := float64(freq) / count
		probability.Data[i] = p
		entropy.Data[i] = Entropy(p)
	}
	return probability, entropy, nil
}
