// Package snapshot saves the display as a PNG image.
package snapshot

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/kapitanov/chip8/internal/vm"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

var (
	Background = color.RGBA{0x00, 0x00, 0x00, 0xff}
	Foreground = color.RGBA{0xbe, 0xa7, 0x00, 0xff}
)

// Image renders the framebuffer with every display pixel scaled to a
// scale x scale square.
func Image(fb *vm.Framebuffer, scale int) *image.Paletted {
	palette := color.Palette{Background, Foreground}

	src := image.NewPaletted(image.Rect(0, 0, fb.Width(), fb.Height()), palette)
	for y := 0; y < fb.Height(); y++ {
		for x := 0; x < fb.Width(); x++ {
			if fb.At(x, y) {
				src.SetColorIndex(x, y, 1)
			}
		}
	}

	if scale <= 1 {
		return src
	}

	dst := image.NewPaletted(image.Rect(0, 0, fb.Width()*scale, fb.Height()*scale), palette)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Encode writes the framebuffer to w as PNG.
func Encode(w io.Writer, fb *vm.Framebuffer, scale int) error {
	return errors.Wrap(png.Encode(w, Image(fb, scale)), "failed to encode png")
}

// Save writes the framebuffer to a PNG file at path.
func Save(path string, fb *vm.Framebuffer, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", path)
	}

	if err := Encode(f, fb, scale); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", path)
	}

	slog.Info("snapshot saved", "path", path, "scale", scale)
	return nil
}
