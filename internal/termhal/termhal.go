// Package termhal is a text frontend that draws the display with ANSI half
// blocks and reads the keypad from a raw mode terminal.
package termhal

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/kapitanov/chip8/internal/machine"
	"github.com/kapitanov/chip8/internal/vm"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Terminal reads keys from in and draws to out.
type Terminal struct {
	in       *os.File
	out      *bufio.Writer
	oldState *term.State
	input    chan byte
	done     chan struct{}
	keys     keypad
	now      func() time.Time
	closed   sync.Once
}

// New creates a terminal frontend. Call Start before use and Close after.
func New(in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		in:    in,
		out:   bufio.NewWriter(out),
		input: make(chan byte, 64),
		done:  make(chan struct{}),
		keys:  keypad{hold: DefaultHoldTime},
		now:   time.Now,
	}
}

// Start switches the input terminal to raw mode and begins reading keys.
// Input that is not a terminal is read as is.
func (t *Terminal) Start() error {
	fd := int(t.in.Fd())

	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return errors.Wrap(err, "failed to set raw mode")
		}
		t.oldState = oldState

		if w, h, err := term.GetSize(fd); err == nil && (w < vm.ScreenWidth || h < vm.ScreenHeight/2) {
			slog.Warn("termhal: terminal is smaller than the display", "cols", w, "rows", h)
		}
	} else {
		slog.Debug("termhal: input is not a terminal")
	}

	// The reader blocks in Read, so it ends at EOF, on the first keystroke
	// after Close, or with the process.
	go func() {
		defer close(t.input)
		buf := make([]byte, 16)

		for {
			n, err := t.in.Read(buf)
			for _, b := range buf[:n] {
				select {
				case t.input <- b:
				case <-t.done:
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Error("termhal: read failed", "err", err)
				}
				return
			}
		}
	}()

	if _, err := t.out.WriteString(escHideCursor + escClear); err != nil {
		return errors.Wrap(err, "failed to write to terminal")
	}
	return errors.Wrap(t.out.Flush(), "failed to write to terminal")
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.closed.Do(func() {
		close(t.done)

		_, _ = t.out.WriteString(escShowCursor + "\r\n")
		if err := t.out.Flush(); err != nil {
			slog.Error("termhal: failed to flush output", "err", err)
		}

		if t.oldState != nil {
			if err := term.Restore(int(t.in.Fd()), t.oldState); err != nil {
				slog.Error("termhal: failed to restore terminal", "err", err)
			}
		}
	})
}

// ReadInput consumes pending keystrokes. Backspace reboots, Ctrl-C, Ctrl-D
// and the end of input quit.
func (t *Terminal) ReadInput(setKey func(vm.Key, bool)) error {
	now := t.now()

	for {
		select {
		case b, ok := <-t.input:
			if !ok {
				slog.Debug("termhal: input closed")
				return machine.ErrQuit
			}

			switch b {
			case ctrlC, ctrlD:
				slog.Debug("termhal: exit requested")
				return machine.ErrQuit
			case backspace, del:
				slog.Debug("termhal: reboot requested")
				// The VM forgets its keypad on reboot; held keys must be pressed again.
				t.keys = keypad{hold: t.keys.hold}
				return machine.ErrReboot
			}

			if key, ok := keyMap(b); ok {
				t.keys.press(key, now, setKey)
			}

		default:
			t.keys.expire(now, setKey)
			return nil
		}
	}
}

// Draw redraws the whole display.
func (t *Terminal) Draw(fb *vm.Framebuffer) error {
	if err := render(t.out, fb); err != nil {
		return errors.Wrap(err, "failed to render display")
	}
	return errors.Wrap(t.out.Flush(), "failed to write to terminal")
}
