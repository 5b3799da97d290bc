// Package render encodes projected pixel buffers as image files.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/sramtools/internal/projector"
	"golang.org/x/image/bmp"
)

// Supported image formats.
const (
	PNG = "png"
	BMP = "bmp"
)

// ToImage converts a single channel buffer to a grayscale image and a three
// channel buffer to an RGBA image.
func ToImage(buf projector.Buffer) (image.Image, error) {
	if len(buf.Pix) != buf.Width*buf.Height*buf.Channels {
		return nil, fmt.Errorf("buffer of %dx%dx%d has %d bytes", buf.Width, buf.Height, buf.Channels, len(buf.Pix))
	}

	rect := image.Rect(0, 0, buf.Width, buf.Height)
	switch buf.Channels {
	case 1:
		img := image.NewGray(rect)
		copy(img.Pix, buf.Pix)
		return img, nil

	case 3:
		img := image.NewRGBA(rect)
		for y := range buf.Height {
			for x := range buf.Width {
				px := buf.At(x, y)
				img.SetRGBA(x, y, color.RGBA{R: px[0], G: px[1], B: px[2], A: 0xff})
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("unsupported channel count %d", buf.Channels)
	}
}

// FormatFromPath returns the image format matching the file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return PNG, nil
	case ".bmp":
		return BMP, nil
	default:
		return "", fmt.Errorf("unsupported image file extension '%s'", ext)
	}
}

// Encode writes the buffer in the given image format.
func Encode(w io.Writer, buf projector.Buffer, format string) error {
	img, err := ToImage(buf)
	if err != nil {
		return err
	}

	switch format {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format '%s'", format)
	}
}

// WriteFile writes the buffer to the image file, the format is derived from the extension.
func WriteFile(path string, buf projector.Buffer) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", path, err)
	}

	if err := Encode(file, buf, format); err != nil {
		_ = file.Close()
		return fmt.Errorf("encoding image '%s': %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing file '%s': %w", path, err)
	}
	return nil
}
