package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/kapitanov/chip8/internal/audio"
	"github.com/kapitanov/chip8/internal/hal"
	"github.com/kapitanov/chip8/internal/machine"
	"github.com/kapitanov/chip8/internal/snapshot"
	"github.com/kapitanov/chip8/internal/termhal"
	"github.com/spf13/cobra"
)

func init() {
	// SDL must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg := defaultConfig()

	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run emulator",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cfg.bindFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if cfg.Verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))

		cfg.ROM = args[0]
		if err := cfg.validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return run(ctx, cfg)
	}

	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config) error {
	bs, err := os.ReadFile(cfg.ROM)
	if err != nil {
		return fmt.Errorf("unable to load file %q: %w", cfg.ROM, err)
	}

	opts := []machine.Option{
		machine.WithCyclesPerSecond(cfg.CPS),
		machine.WithCycleLimit(cfg.Cycles),
	}

	if !cfg.Mute && cfg.Frontend != frontendNone {
		speaker, err := audio.New()
		if err != nil {
			slog.Warn("sound disabled", "err", err)
		} else {
			defer func() {
				if err := speaker.Close(); err != nil {
					slog.Error("failed to close audio", "err", err)
				}
			}()
			opts = append(opts, machine.WithTone(speaker.SetTone))
		}
	}

	var (
		frontend machine.HAL
		window   *hal.HAL
	)
	switch cfg.Frontend {
	case frontendSDL:
		window, err = hal.New(hal.Config{
			Title: "CHIP-8 - " + filepath.Base(cfg.ROM),
			Scale: cfg.Scale,
		})
		if err != nil {
			return fmt.Errorf("unable to initialize hal: %w", err)
		}
		defer window.Shutdown()
		frontend = window

	case frontendTerm:
		t := termhal.New(os.Stdin, os.Stdout)
		if err := t.Start(); err != nil {
			return fmt.Errorf("unable to initialize terminal: %w", err)
		}
		defer t.Close()
		frontend = t

	default:
		frontend = machine.Headless{}
	}

	m, err := machine.New(frontend, bs, opts...)
	if err != nil {
		return fmt.Errorf("unable to load program %q: %w", cfg.ROM, err)
	}

	runErr := m.Run(ctx)

	if cfg.Snapshot != "" {
		if err := snapshot.Save(cfg.Snapshot, m.VM().Framebuffer(), cfg.Scale); err != nil {
			slog.Error("failed to save snapshot", "err", err)
		}
	}

	if runErr != nil && window != nil {
		slog.Error("machine halted, close the window to exit", "err", runErr)
		window.WaitForQuit()
	}

	return runErr
}
