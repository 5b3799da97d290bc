package projector

import (
	"errors"
	"math"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/sramtools/internal/matrix"
)

func TestParseResolution(t *testing.T) {
	tests := []struct {
		input   string
		want    Resolution
		wantErr bool
	}{
		{input: "1024x768", want: Resolution{Width: 1024, Height: 768}},
		{input: " 128X8 ", want: Resolution{Width: 128, Height: 8}},
		{input: "1024", wantErr: true},
		{input: "ax768", wantErr: true},
		{input: "1024xb", wantErr: true},
		{input: "0x768", wantErr: true},
		{input: "-2x-4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseResolution(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProject(t *testing.T) {
	m := matrix.NewMap(2, 4)
	copy(m.Data, []float64{0, 0.5, 1, 0.25, 0.75, 1, 0, 0.1})

	tests := []struct {
		name    string
		res     Resolution
		wantErr bool
	}{
		{name: "natural shape", res: Resolution{Width: 4, Height: 2}},
		{name: "reshaped", res: Resolution{Width: 2, Height: 4}},
		{name: "single row", res: Resolution{Width: 8, Height: 1}},
		{name: "too many pixels", res: Resolution{Width: 4, Height: 4}, wantErr: true},
		{name: "too few pixels", res: Resolution{Width: 7, Height: 1}, wantErr: true},
		{name: "zero width", res: Resolution{Width: 0, Height: 8}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := Project(m, tt.res)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrResolutionMismatch))
				var resErr *ResolutionMismatchError
				assert.True(t, errors.As(err, &resErr))
				assert.Equal(t, 8, resErr.Cells)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.res.Width, buf.Width)
			assert.Equal(t, tt.res.Height, buf.Height)
			assert.Equal(t, 1, buf.Channels)
			assert.Equal(t, []uint8{0, 128, 255, 64, 191, 255, 0, 26}, buf.Pix)
		})
	}
}

func TestProjectPreservesValues(t *testing.T) {
	m := matrix.NewMap(16, 16)
	for i := range m.Data {
		m.Data[i] = float64(i) / 255
	}

	buf, err := Project(m, Resolution{Width: 64, Height: 4})
	assert.NoError(t, err)
	for i, v := range buf.Pix {
		assert.Equal(t, uint8(i), v)
	}
	assert.Equal(t, []uint8{uint8(64 + 3)}, buf.At(3, 1))
}

func TestReshape(t *testing.T) {
	buf := Buffer{Width: 4, Height: 1, Channels: 3, Pix: make([]uint8, 12)}
	buf.Pix[3*3+1] = 255

	out, err := Reshape(buf, Resolution{Width: 2, Height: 2})
	assert.NoError(t, err)
	assert.Equal(t, []uint8{0, 255, 0}, out.At(1, 1))

	_, err = Reshape(buf, Resolution{Width: 3, Height: 1})
	assert.True(t, errors.Is(err, ErrResolutionMismatch))
}

func TestScale(t *testing.T) {
	assert.Equal(t, uint8(0), Scale(0))
	assert.Equal(t, uint8(255), Scale(1))
	assert.Equal(t, uint8(128), Scale(0.5))
	assert.Equal(t, uint8(0), Scale(-1))
	assert.Equal(t, uint8(255), Scale(2))
	assert.Equal(t, uint8(0), Scale(math.NaN()))
}

func TestCumulative(t *testing.T) {
	a := matrix.NewMap(1, 3)
	copy(a.Data, []float64{0, 1, 0.5})
	b := matrix.NewMap(1, 3)
	copy(b.Data, []float64{1, 1, 0})

	sum, err := Cumulative([]string{"a", "b"}, []matrix.Map{a, b})
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 0.25}, sum.Data)

	_, err = Cumulative(nil, nil)
	assert.True(t, errors.Is(err, ErrNoMaps))

	_, err = Cumulative([]string{"a", "c"}, []matrix.Map{a, matrix.NewMap(3, 1)})
	assert.True(t, errors.Is(err, matrix.ErrSizeMismatch))
	assert.ErrorContains(t, err, "'c'")
}
