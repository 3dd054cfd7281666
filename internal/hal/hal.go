// Package hal is the SDL frontend: a window showing the display and a
// keyboard mapped onto the hex keypad.
package hal

import (
	"log/slog"
	"unsafe"

	"github.com/kapitanov/chip8/internal/machine"
	"github.com/kapitanov/chip8/internal/vm"
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
)

const DefaultScale = 16

const (
	bgColor = uint32(0x000000)
	fgColor = uint32(0xbea700)
)

// Config describes the window.
type Config struct {
	Title string // Window title.
	Scale int    // Size of one display pixel in window pixels.
}

type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int
}

func New(cfg Config) (*HAL, error) {
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	if cfg.Title == "" {
		cfg.Title = "CHIP-8"
	}
	width, height := int32(vm.ScreenWidth*cfg.Scale), int32(vm.ScreenHeight*cfg.Scale)

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "failed to init sdl")
	}

	hal := &HAL{
		backBuffer:      make([]uint32, vm.ScreenWidth*vm.ScreenHeight),
		backBufferPitch: vm.ScreenWidth * int(unsafe.Sizeof(uint32(0))),
	}

	window, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, width, height, sdl.WINDOW_SHOWN|sdl.WINDOW_UTILITY)
	if err != nil {
		hal.Shutdown()
		return nil, errors.Wrap(err, "failed to create sdl window")
	}
	hal.window = window
	slog.Debug("hal: create window", "width", width, "height", height)
	window.Show()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		hal.Shutdown()
		return nil, errors.Wrap(err, "failed to create sdl renderer")
	}
	hal.renderer = renderer
	if err := renderer.SetLogicalSize(width, height); err != nil {
		hal.Shutdown()
		return nil, errors.Wrap(err, "failed to resize sdl renderer")
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, vm.ScreenWidth, vm.ScreenHeight)
	if err != nil {
		hal.Shutdown()
		return nil, errors.Wrap(err, "failed to create sdl texture")
	}
	hal.texture = texture
	slog.Debug("hal: create texture")

	return hal, nil
}

// Shutdown releases whatever New managed to create and quits SDL.
func (hal *HAL) Shutdown() {
	if hal.texture != nil {
		if err := hal.texture.Destroy(); err != nil {
			slog.Error("failed to destroy sdl texture", "err", err)
		}
		hal.texture = nil
	}

	if hal.renderer != nil {
		if err := hal.renderer.Destroy(); err != nil {
			slog.Error("failed to destroy sdl renderer", "err", err)
		}
		hal.renderer = nil
	}

	if hal.window != nil {
		if err := hal.window.Destroy(); err != nil {
			slog.Error("failed to destroy sdl window", "err", err)
		}
		hal.window = nil
	}

	sdl.Quit()
}

// ReadInput drains the SDL event queue. Backspace reboots, closing the window quits.
func (hal *HAL) ReadInput(setKey func(vm.Key, bool)) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return machine.ErrQuit

		case sdl.KEYDOWN:
			ke := e.(*sdl.KeyboardEvent)
			if ke.Keysym.Scancode == sdl.SCANCODE_BACKSPACE {
				slog.Debug("hal: reboot requested")
				return machine.ErrReboot
			}
			if key, ok := keyMap(ke.Keysym.Scancode); ok {
				setKey(key, true)
			}

		case sdl.KEYUP:
			ke := e.(*sdl.KeyboardEvent)
			if key, ok := keyMap(ke.Keysym.Scancode); ok {
				setKey(key, false)
			}
		}
	}

	return nil
}

func keyMap(code sdl.Scancode) (vm.Key, bool) {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	switch code {
	case sdl.SCANCODE_X:
		return vm.Key0, true
	case sdl.SCANCODE_1:
		return vm.Key1, true
	case sdl.SCANCODE_2:
		return vm.Key2, true
	case sdl.SCANCODE_3:
		return vm.Key3, true
	case sdl.SCANCODE_Q:
		return vm.Key4, true
	case sdl.SCANCODE_W:
		return vm.Key5, true
	case sdl.SCANCODE_E:
		return vm.Key6, true
	case sdl.SCANCODE_A:
		return vm.Key7, true
	case sdl.SCANCODE_S:
		return vm.Key8, true
	case sdl.SCANCODE_D:
		return vm.Key9, true
	case sdl.SCANCODE_Z:
		return vm.KeyA, true
	case sdl.SCANCODE_C:
		return vm.KeyB, true
	case sdl.SCANCODE_4:
		return vm.KeyC, true
	case sdl.SCANCODE_R:
		return vm.KeyD, true
	case sdl.SCANCODE_F:
		return vm.KeyE, true
	case sdl.SCANCODE_V:
		return vm.KeyF, true
	default:
		return 0, false
	}
}

// fill converts the framebuffer into texture pixels.
func fill(dst []uint32, fb *vm.Framebuffer) {
	for y := 0; y < vm.ScreenHeight; y++ {
		for x := 0; x < vm.ScreenWidth; x++ {
			color := bgColor
			if fb.At(x, y) {
				color = fgColor
			}

			dst[x+y*vm.ScreenWidth] = color
		}
	}
}

func (hal *HAL) Draw(fb *vm.Framebuffer) error {
	fill(hal.backBuffer, fb)

	backBufferPtr := unsafe.Pointer(&hal.backBuffer[0])
	if err := hal.texture.Update(nil, backBufferPtr, hal.backBufferPitch); err != nil {
		return errors.Wrap(err, "failed to update sdl texture")
	}

	if err := hal.renderer.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear sdl renderer")
	}

	if err := hal.renderer.Copy(hal.texture, nil, nil); err != nil {
		return errors.Wrap(err, "failed to copy sdl texture to renderer")
	}

	hal.renderer.Present()
	return nil
}

// WaitForQuit keeps the last frame on screen until the window is closed.
func (hal *HAL) WaitForQuit() {
	for {
		e := sdl.WaitEvent()
		if e == nil {
			return
		}
		if e.GetType() == sdl.QUIT {
			return
		}
	}
}
