package main

import (
	"fmt"

	"github.com/kapitanov/chip8/internal/hal"
	"github.com/kapitanov/chip8/internal/machine"
	"github.com/spf13/cobra"
)

const (
	frontendSDL  = "sdl"
	frontendTerm = "term"
	frontendNone = "none"
)

// config defines program configuration.
type config struct {
	ROM      string // Path to the ROM image.
	Verbose  bool   // Enable debug logging and instruction trace.
	Frontend string // One of sdl, term or none.
	CPS      int    // Instructions per second, 0 for unthrottled.
	Scale    int    // Window and snapshot pixel scale.
	Mute     bool   // Disable the buzzer.
	Cycles   int    // Stop after this many cycles, 0 for no limit.
	Snapshot string // Write the final display to this PNG file.
}

func defaultConfig() *config {
	return &config{
		Frontend: frontendSDL,
		CPS:      machine.DefaultCyclesPerSecond,
		Scale:    hal.DefaultScale,
	}
}

func (c *config) bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "enable verbose logging")
	flags.StringVar(&c.Frontend, "frontend", c.Frontend, "display frontend: sdl, term or none")
	flags.IntVar(&c.CPS, "cps", c.CPS, "instructions per second, 0 runs unthrottled")
	flags.IntVar(&c.Scale, "scale", c.Scale, "pixel scale factor for the window and snapshots")
	flags.BoolVar(&c.Mute, "mute", c.Mute, "disable sound")
	flags.IntVar(&c.Cycles, "cycles", c.Cycles, "stop after N cycles, 0 runs until quit")
	flags.StringVar(&c.Snapshot, "snapshot", c.Snapshot, "save the final display as PNG to this path")
}

func (c *config) validate() error {
	switch c.Frontend {
	case frontendSDL, frontendTerm, frontendNone:
	default:
		return fmt.Errorf("unknown frontend %q", c.Frontend)
	}

	if c.CPS < 0 || c.CPS > machine.MaxCyclesPerSecond {
		return fmt.Errorf("--cps must be between 0 and %d, got %d", machine.MaxCyclesPerSecond, c.CPS)
	}
	if c.Scale < 1 {
		return fmt.Errorf("--scale must be at least 1, got %d", c.Scale)
	}
	if c.Cycles < 0 {
		return fmt.Errorf("--cycles must not be negative, got %d", c.Cycles)
	}
	if c.Frontend == frontendNone && c.Cycles == 0 {
		return fmt.Errorf("--frontend=%s needs --cycles", frontendNone)
	}

	return nil
}
