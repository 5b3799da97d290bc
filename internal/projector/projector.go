// Package projector reshapes 2-D statistical maps into pixel buffers of a
// requested resolution.
package projector

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/retroenv/sramtools/internal/matrix"
)

// ErrResolutionMismatch is the kind of all ResolutionMismatchError values.
var ErrResolutionMismatch = errors.New("invalid resolution")

// ResolutionMismatchError reports a resolution whose pixel count differs
// from the element count of the map to project.
type ResolutionMismatchError struct {
	Resolution Resolution
	Cells      int
}

func (e *ResolutionMismatchError) Error() string {
	return fmt.Sprintf("%s: %s has %d pixels but the SRAM map has %d cells, the total resolution must correspond to the total size of the SRAM memory",
		ErrResolutionMismatch, e.Resolution, e.Resolution.Pixels(), e.Cells)
}

func (e *ResolutionMismatchError) Unwrap() error { return ErrResolutionMismatch }

// Resolution is the target size of a projection.
type Resolution struct {
	Width  int
	Height int
}

// Pixels returns the pixel count of the resolution.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution parses a resolution in the form WIDTHxHEIGHT.
func ParseResolution(s string) (Resolution, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Resolution{}, fmt.Errorf("resolution '%s' is not in the form WIDTHxHEIGHT", s)
	}

	width, err := strconv.Atoi(w)
	if err != nil {
		return Resolution{}, fmt.Errorf("parsing resolution width '%s': %w", w, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Resolution{}, fmt.Errorf("parsing resolution height '%s': %w", h, err)
	}
	if width <= 0 || height <= 0 {
		return Resolution{}, fmt.Errorf("resolution '%s' must be positive", s)
	}
	return Resolution{Width: width, Height: height}, nil
}

// Buffer is a row-major pixel buffer with interleaved channels.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// At returns the channel values of the pixel at x, y.
func (b Buffer) At(x, y int) []uint8 {
	offset := (y*b.Width + x) * b.Channels
	return b.Pix[offset : offset+b.Channels]
}

// Project scales the values of the map, assumed to be in [0,1], by 255 and
// lays them out as a single channel buffer of the given resolution.
func Project(m matrix.Map, res Resolution) (Buffer, error) {
	if err := checkResolution(res, m.Cells()); err != nil {
		return Buffer{}, err
	}

	buf := Buffer{
		Width:    res.Width,
		Height:   res.Height,
		Channels: 1,
		Pix:      make([]uint8, len(m.Data)),
	}
	for i, v := range m.Data {
		buf.Pix[i] = Scale(v)
	}
	return buf, nil
}

// Reshape lays out an already scaled buffer in the given resolution.
// The pixel order is kept, only the width and height change.
func Reshape(b Buffer, res Resolution) (Buffer, error) {
	if err := checkResolution(res, b.Width*b.Height); err != nil {
		return Buffer{}, err
	}

	return Buffer{
		Width:    res.Width,
		Height:   res.Height,
		Channels: b.Channels,
		Pix:      b.Pix,
	}, nil
}

// Scale converts a normalized value to a pixel intensity.
func Scale(v float64) uint8 {
	v = math.Round(v * 255)
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

func checkResolution(res Resolution, cells int) error {
	if res.Width <= 0 || res.Height <= 0 || res.Pixels() != cells {
		return &ResolutionMismatchError{
			Resolution: res,
			Cells:      cells,
		}
	}
	return nil
}
