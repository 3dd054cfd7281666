// Package machine wires a VM to a frontend: it feeds input, executes
// instructions at a fixed rate, presents the display and runs the 60Hz clock.
package machine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kapitanov/chip8/internal/clock"
	"github.com/kapitanov/chip8/internal/vm"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrReboot is returned by a frontend to restart the loaded program.
	ErrReboot = errors.New("reboot")
	// ErrQuit is returned by a frontend to stop the machine.
	ErrQuit = errors.New("quit")
)

const (
	// DefaultCyclesPerSecond is the instruction rate used when none is configured.
	DefaultCyclesPerSecond = 600
	// MaxCyclesPerSecond is the highest rate that is still paced.
	MaxCyclesPerSecond = 1_000_000
)

// idleDelay is how long the driver sleeps between input polls once the
// program has halted itself.
const idleDelay = clock.Period

// HAL is a frontend the machine presents to and reads keys from.
type HAL interface {
	// ReadInput drains pending input events, reporting keypad changes through setKey.
	// It returns ErrQuit or ErrReboot when the user asks for that.
	ReadInput(setKey func(key vm.Key, pressed bool)) error
	// Draw presents the framebuffer.
	Draw(fb *vm.Framebuffer) error
}

// Machine runs one program on one VM.
type Machine struct {
	hal    HAL
	rom    []byte
	vm     *vm.VM
	cps    int
	cycles int
	tone   clock.ToneFunc
}

// Option configures a Machine.
type Option func(*Machine)

// WithCyclesPerSecond sets the instruction rate. Zero runs unthrottled.
func WithCyclesPerSecond(cps int) Option {
	return func(m *Machine) {
		m.cps = cps
	}
}

// WithCycleLimit stops the machine after n driver cycles. Zero means no limit.
func WithCycleLimit(n int) Option {
	return func(m *Machine) {
		m.cycles = n
	}
}

// WithTone sets the sink for the sound timer signal.
func WithTone(tone clock.ToneFunc) Option {
	return func(m *Machine) {
		m.tone = tone
	}
}

// WithVM replaces the VM the machine drives.
func WithVM(v *vm.VM) Option {
	return func(m *Machine) {
		m.vm = v
	}
}

// New creates a machine for the given program. The program is validated here
// so that a bad ROM is reported before any frontend work starts.
func New(hal HAL, rom []byte, opts ...Option) (*Machine, error) {
	m := &Machine{
		hal: hal,
		rom: rom,
		cps: DefaultCyclesPerSecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.vm == nil {
		m.vm = vm.New()
	}

	if err := m.vm.LoadProgram(rom); err != nil {
		return nil, err
	}

	return m, nil
}

// VM returns the machine's VM.
func (m *Machine) VM() *vm.VM {
	return m.vm
}

// Run executes the program until the frontend quits, the cycle limit is hit,
// ctx is cancelled or the VM faults. A reboot request restarts the program
// from a clean state.
func (m *Machine) Run(ctx context.Context) error {
	for {
		err := m.boot(ctx)

		switch {
		case errors.Is(err, ErrReboot):
			slog.Info("reboot")
			continue
		case errors.Is(err, ErrQuit):
			slog.Debug("exit requested")
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		default:
			return err
		}
	}
}

func (m *Machine) boot(ctx context.Context) error {
	m.vm.Initialize()
	if err := m.vm.LoadProgram(m.rom); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return clock.New(m.vm, m.tone).Run(gctx)
	})

	// Frontends may be bound to the calling thread, so the CPU loop stays here.
	err := m.loop(gctx)
	cancel()

	if werr := g.Wait(); err == nil {
		err = werr
	}
	return err
}

func (m *Machine) loop(ctx context.Context) error {
	var pace <-chan time.Time
	if interval := pacing(m.cps); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		pace = ticker.C
	}

	halted := false
	for cycle := 1; ; cycle++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.hal.ReadInput(m.setKey); err != nil {
			return err
		}

		if m.vm.Looping() {
			if !halted {
				slog.Info("program looped", "pc", m.vm.PC())
				halted = true
			}
			if err := sleep(ctx, idleDelay); err != nil {
				return err
			}
		} else {
			if err := m.vm.Step(); err != nil {
				return err
			}

			if m.vm.TakeDrawFlag() {
				if err := m.hal.Draw(m.vm.Framebuffer()); err != nil {
					return err
				}
			}

			if pace != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-pace:
				}
			}
		}

		if m.cycles > 0 && cycle >= m.cycles {
			slog.Debug("cycle limit reached", "cycles", cycle)
			return nil
		}
	}
}

// pacing returns the interval between two instructions, or zero when the
// rate is too high to pace.
func pacing(cps int) time.Duration {
	if cps <= 0 {
		return 0
	}
	return time.Second / time.Duration(cps)
}

func (m *Machine) setKey(key vm.Key, pressed bool) {
	if err := m.vm.SetKey(key, pressed); err != nil {
		slog.Warn("ignored key", "key", key, "err", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
