package hal

import (
	"testing"

	"github.com/kapitanov/chip8/internal/vm"
	"github.com/retroenv/retrogolib/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestKeyMap(t *testing.T) {
	tests := []struct {
		code sdl.Scancode
		key  vm.Key
	}{
		{sdl.SCANCODE_1, vm.Key1},
		{sdl.SCANCODE_4, vm.KeyC},
		{sdl.SCANCODE_W, vm.Key5},
		{sdl.SCANCODE_F, vm.KeyE},
		{sdl.SCANCODE_X, vm.Key0},
		{sdl.SCANCODE_V, vm.KeyF},
	}

	for _, tt := range tests {
		key, ok := keyMap(tt.code)
		assert.True(t, ok)
		assert.Equal(t, tt.key, key)
	}

	_, ok := keyMap(sdl.SCANCODE_P)
	assert.False(t, ok)
}

func TestKeyMapCoversKeypad(t *testing.T) {
	seen := map[vm.Key]bool{}
	for code := sdl.Scancode(0); code < 512; code++ {
		if key, ok := keyMap(code); ok {
			assert.False(t, seen[key])
			seen[key] = true
		}
	}
	assert.Equal(t, vm.KeyCount, len(seen))
}

func TestFill(t *testing.T) {
	v := vm.New()
	assert.NoError(t, v.LoadProgram([]byte{
		0x60, 0x0F, // mov v0, 15
		0xF0, 0x29, // font v0
		0xD1, 0x15, // sprite v1, v1, 5
	}))
	for i := 0; i < 3; i++ {
		assert.NoError(t, v.Step())
	}

	dst := make([]uint32, vm.ScreenWidth*vm.ScreenHeight)
	fill(dst, v.Framebuffer())

	// Glyph F: top row 1111, second row 1000.
	assert.Equal(t, fgColor, dst[0])
	assert.Equal(t, fgColor, dst[3])
	assert.Equal(t, bgColor, dst[4])
	assert.Equal(t, fgColor, dst[vm.ScreenWidth])
	assert.Equal(t, bgColor, dst[vm.ScreenWidth+1])
}

func TestShutdownPartial(t *testing.T) {
	// New shuts down whatever it created before a failure; nothing created yet is the edge.
	hal := &HAL{}
	hal.Shutdown()
	hal.Shutdown()

	assert.True(t, hal.window == nil)
	assert.True(t, hal.renderer == nil)
	assert.True(t, hal.texture == nil)
}
