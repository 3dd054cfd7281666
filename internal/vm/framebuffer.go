package vm

// Framebuffer is the 64x32 monochrome display, row-major with the origin at the top left.
type Framebuffer struct {
	pixels [ScreenWidth * ScreenHeight]bool
}

func (fb *Framebuffer) Width() int {
	return ScreenWidth
}

func (fb *Framebuffer) Height() int {
	return ScreenHeight
}

// At reports whether the pixel at (x, y) is lit. Coordinates outside the screen are unlit.
func (fb *Framebuffer) At(x, y int) bool {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return false
	}
	return fb.pixels[y*ScreenWidth+x]
}

// Pixels returns a copy of the display contents.
func (fb *Framebuffer) Pixels() []bool {
	out := make([]bool, len(fb.pixels))
	copy(out, fb.pixels[:])
	return out
}

func (fb *Framebuffer) clear() {
	for i := range fb.pixels {
		fb.pixels[i] = false
	}
}

// toggle flips a pixel and reports whether it was lit before.
func (fb *Framebuffer) toggle(x, y int) bool {
	i := y*ScreenWidth + x
	was := fb.pixels[i]
	fb.pixels[i] = !was
	return was
}
