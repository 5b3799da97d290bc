// Package compare computes differences and Hamming distances between two
// cached bit matrices.
package compare

import (
	"github.com/retroenv/sramtools/internal/matrix"
	"github.com/retroenv/sramtools/internal/projector"
)

// Difference is the transient result of comparing two bit matrices.
type Difference struct {
	Count   int              // number of differing bits
	Pattern matrix.Bits      // 1 where the matrices differ
	Pixels  projector.Buffer // 3 channel buffer, differing bits are green
}

// Cells returns the total number of compared bits.
func (d Difference) Cells() int {
	return d.Pattern.Cells()
}

// Ratio returns the fraction of differing bits.
func (d Difference) Ratio() float64 {
	if d.Cells() == 0 {
		return 0
	}
	return float64(d.Count) / float64(d.Cells())
}

// Diff compares two bit matrices of identical shape cell by cell.
func Diff(a, b matrix.Bits) (Difference, error) {
	if err := matrix.CheckShapes("first", a.Shape, "second", b.Shape); err != nil {
		return Difference{}, err
	}

	pattern := matrix.NewBits(a.Rows, a.Cols)
	pixels := projector.Buffer{
		Width:    a.Cols,
		Height:   a.Rows,
		Channels: 3,
		Pix:      make([]uint8, 3*a.Cells()),
	}

	count := 0
	for i := range a.Data {
		bit := a.Data[i] ^ b.Data[i]
		if bit == 0 {
			continue
		}
		pattern.Data[i] = 1
		pixels.Pix[3*i+1] = 255
		count++
	}

	return Difference{
		Count:   count,
		Pattern: pattern,
		Pixels:  pixels,
	}, nil
}

// Hamming returns the average number of differing bits per matrix row.
func Hamming(a, b matrix.Bits) (float64, error) {
	if err := matrix.CheckShapes("first", a.Shape, "second", b.Shape); err != nil {
		return 0, err
	}
	if a.Rows == 0 {
		return 0, matrix.ErrEmpty
	}

	total := 0
	for r := range a.Rows {
		rowA, rowB := a.Row(r), b.Row(r)
		for c := range rowA {
			if rowA[c] != rowB[c] {
				total++
			}
		}
	}
	return float64(total) / float64(a.Rows), nil
}
