package compare

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/sramtools/internal/matrix"
)

func TestDiffIdentical(t *testing.T) {
	a := randomBits(8, 128, 1)

	diff, err := Diff(a, a)
	assert.NoError(t, err)
	assert.Equal(t, 0, diff.Count)
	assert.Equal(t, 0.0, diff.Ratio())
	for _, v := range diff.Pixels.Pix {
		assert.Equal(t, uint8(0), v)
	}
}

func TestDiffSingleBit(t *testing.T) {
	a := matrix.NewBits(100, 128)
	b := matrix.NewBits(100, 128)
	b.Set(42, 27, 1)

	diff, err := Diff(a, b)
	assert.NoError(t, err)
	assert.Equal(t, 1, diff.Count)
	assert.Equal(t, 12800, diff.Cells())
	assert.Equal(t, uint8(1), diff.Pattern.At(42, 27))

	assert.Equal(t, 128, diff.Pixels.Width)
	assert.Equal(t, 100, diff.Pixels.Height)
	assert.Equal(t, []uint8{0, 255, 0}, diff.Pixels.At(27, 42))
	assert.Equal(t, []uint8{0, 0, 0}, diff.Pixels.At(26, 42))
}

func TestDiffBounds(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		a := randomBits(4, 16, seed)
		b := randomBits(4, 16, seed+100)

		diff, err := Diff(a, b)
		assert.NoError(t, err)
		assert.True(t, diff.Count >= 0 && diff.Count <= a.Cells())
		assert.Equal(t, diff.Count == 0, a.Equal(b))

		reverse, err := Diff(b, a)
		assert.NoError(t, err)
		assert.Equal(t, diff.Count, reverse.Count)
	}

	ones := matrix.NewBits(2, 8)
	for i := range ones.Data {
		ones.Data[i] = 1
	}
	diff, err := Diff(matrix.NewBits(2, 8), ones)
	assert.NoError(t, err)
	assert.Equal(t, 16, diff.Count)
	assert.Equal(t, 1.0, diff.Ratio())
}

func TestDiffShapeMismatch(t *testing.T) {
	_, err := Diff(matrix.NewBits(2, 8), matrix.NewBits(8, 2))
	assert.True(t, errors.Is(err, matrix.ErrSizeMismatch))

	_, err = Hamming(matrix.NewBits(2, 8), matrix.NewBits(3, 8))
	assert.True(t, errors.Is(err, matrix.ErrSizeMismatch))
}

func TestHamming(t *testing.T) {
	a := matrix.NewBits(4, 128)
	b := matrix.NewBits(4, 128)
	b.Set(0, 0, 1)
	b.Set(0, 1, 1)
	b.Set(2, 127, 1)
	b.Set(3, 64, 1)
	b.Set(3, 65, 1)
	b.Set(3, 66, 1)

	hd, err := Hamming(a, b)
	assert.NoError(t, err)
	assert.Equal(t, 1.5, hd)

	same, err := Hamming(a, a)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, same)

	_, err = Hamming(matrix.Bits{}, matrix.Bits{})
	assert.True(t, errors.Is(err, matrix.ErrEmpty))
}

func TestHammingSymmetric(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		a := randomBits(16, 128, seed)
		b := randomBits(16, 128, seed*7)

		ab, err := Hamming(a, b)
		assert.NoError(t, err)
		ba, err := Hamming(b, a)
		assert.NoError(t, err)
		assert.Equal(t, ab, ba)
	}
}

func randomBits(rows, cols int, seed uint64) matrix.Bits {
	rng := rand.New(rand.NewPCG(seed, seed))
	m := matrix.NewBits(rows, cols)
	for i := range m.Data {
		m.Data[i] = uint8(rng.IntN(2))
	}
	return m
}
