package machine

import "github.com/kapitanov/chip8/internal/vm"

// Headless is a frontend with no display and no keys.
type Headless struct{}

func (Headless) ReadInput(func(vm.Key, bool)) error {
	return nil
}

func (Headless) Draw(*vm.Framebuffer) error {
	return nil
}
