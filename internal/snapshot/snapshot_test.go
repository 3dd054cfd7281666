package snapshot

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/kapitanov/chip8/internal/vm"
	"github.com/retroenv/retrogolib/assert"
)

// drawZero puts glyph 0 (rows F0 90 90 90 F0) at the top left corner.
func drawZero(t *testing.T) *vm.Framebuffer {
	t.Helper()

	v := vm.New()
	assert.NoError(t, v.LoadProgram([]byte{
		0xF0, 0x29, // font v0
		0xD0, 0x05, // sprite v0, v0, 5
	}))
	assert.NoError(t, v.Step())
	assert.NoError(t, v.Step())
	return v.Framebuffer()
}

func TestImageUnscaled(t *testing.T) {
	img := Image(drawZero(t), 1)

	assert.Equal(t, vm.ScreenWidth, img.Bounds().Dx())
	assert.Equal(t, vm.ScreenHeight, img.Bounds().Dy())
	assert.Equal(t, uint8(1), img.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(1), img.ColorIndexAt(3, 1))
	assert.Equal(t, uint8(0), img.ColorIndexAt(1, 1))
	assert.Equal(t, uint8(0), img.ColorIndexAt(4, 0))
}

func TestImageScaled(t *testing.T) {
	const scale = 4
	img := Image(drawZero(t), scale)

	assert.Equal(t, vm.ScreenWidth*scale, img.Bounds().Dx())
	assert.Equal(t, vm.ScreenHeight*scale, img.Bounds().Dy())

	// Display pixel (1, 1) is unlit, its neighbours (0, 1) and (1, 0) are lit.
	for dy := 0; dy < scale; dy++ {
		for dx := 0; dx < scale; dx++ {
			assert.Equal(t, uint8(0), img.ColorIndexAt(scale+dx, scale+dy))
			assert.Equal(t, uint8(1), img.ColorIndexAt(dx, scale+dy))
			assert.Equal(t, uint8(1), img.ColorIndexAt(scale+dx, dy))
		}
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.png")
	assert.NoError(t, Save(path, drawZero(t), 2))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.Equal(t, vm.ScreenWidth*2, img.Bounds().Dx())

	r, g, b, _ := img.At(0, 0).RGBA()
	fr, fg, fb, _ := Foreground.RGBA()
	assert.Equal(t, fr, r)
	assert.Equal(t, fg, g)
	assert.Equal(t, fb, b)
}

func TestSaveBadPath(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "missing", "screen.png"), drawZero(t), 1)
	assert.True(t, err != nil)
}
