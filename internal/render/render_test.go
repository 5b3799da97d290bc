package render

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/sramtools/internal/projector"
	"golang.org/x/image/bmp"
)

func TestToImage(t *testing.T) {
	t.Run("grayscale", func(t *testing.T) {
		buf := projector.Buffer{Width: 2, Height: 2, Channels: 1, Pix: []uint8{0, 64, 128, 255}}
		img, err := ToImage(buf)
		assert.NoError(t, err)

		gray, ok := img.(*image.Gray)
		assert.True(t, ok)
		assert.Equal(t, uint8(128), gray.GrayAt(0, 1).Y)
		assert.Equal(t, uint8(255), gray.GrayAt(1, 1).Y)
	})

	t.Run("rgb", func(t *testing.T) {
		buf := projector.Buffer{Width: 2, Height: 1, Channels: 3, Pix: []uint8{0, 0, 0, 0, 255, 0}}
		img, err := ToImage(buf)
		assert.NoError(t, err)

		rgba, ok := img.(*image.RGBA)
		assert.True(t, ok)
		px := rgba.RGBAAt(1, 0)
		assert.Equal(t, uint8(0), px.R)
		assert.Equal(t, uint8(255), px.G)
		assert.Equal(t, uint8(0), px.B)
	})

	t.Run("invalid buffer", func(t *testing.T) {
		_, err := ToImage(projector.Buffer{Width: 2, Height: 2, Channels: 1, Pix: []uint8{0}})
		assert.Error(t, err)

		_, err = ToImage(projector.Buffer{Width: 1, Height: 1, Channels: 2, Pix: []uint8{0, 0}})
		assert.ErrorContains(t, err, "channel count")
	})
}

func TestFormatFromPath(t *testing.T) {
	format, err := FormatFromPath("out/diff.PNG")
	assert.NoError(t, err)
	assert.Equal(t, PNG, format)

	format, err = FormatFromPath("map.bmp")
	assert.NoError(t, err)
	assert.Equal(t, BMP, format)

	_, err = FormatFromPath("map.jpg")
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	buf := projector.Buffer{Width: 4, Height: 2, Channels: 1, Pix: []uint8{0, 1, 2, 3, 252, 253, 254, 255}}

	var pngData bytes.Buffer
	assert.NoError(t, Encode(&pngData, buf, PNG))
	img, err := png.Decode(&pngData)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	var bmpData bytes.Buffer
	assert.NoError(t, Encode(&bmpData, buf, BMP))
	img, err = bmp.Decode(&bmpData)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	assert.Error(t, Encode(&bmpData, buf, "gif"))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.png")
	buf := projector.Buffer{Width: 1, Height: 1, Channels: 1, Pix: []uint8{42}}

	assert.NoError(t, WriteFile(path, buf))
	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.True(t, info.Size() > 0)
}
