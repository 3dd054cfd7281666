package termhal

import (
	"io"

	"github.com/kapitanov/chip8/internal/vm"
)

const (
	escHome       = "\x1b[H"
	escClear      = "\x1b[2J"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
)

// Two display rows share one text row.
var halfBlocks = [4]string{
	" ", // neither
	"▀", // top
	"▄", // bottom
	"█", // both
}

// render writes the framebuffer as ScreenHeight/2 lines of half blocks,
// starting at the top left corner of the terminal.
func render(w io.StringWriter, fb *vm.Framebuffer) error {
	if _, err := w.WriteString(escHome); err != nil {
		return err
	}

	for y := 0; y < fb.Height(); y += 2 {
		for x := 0; x < fb.Width(); x++ {
			i := 0
			if fb.At(x, y) {
				i |= 1
			}
			if fb.At(x, y+1) {
				i |= 2
			}
			if _, err := w.WriteString(halfBlocks[i]); err != nil {
				return err
			}
		}
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
	}

	return nil
}
