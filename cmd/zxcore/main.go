// main.go - application shell entry point
//
// Grounded on main.go's wiring order (bus, then peripherals,
// then CPU, then GUI, then start) and retroio's cmd/spectrum_read.go cobra
// command shape (flags for media type/path, a Run func doing the actual
// work). Unlike either, this is a single root command rather than a
// multi-platform dispatcher or a read-only file inspector, since the whole
// point here is to run the machine, not just decode one file format.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/zxcore/spectrum48/internal/bus"
	"github.com/zxcore/spectrum48/internal/loader"
	"github.com/zxcore/spectrum48/internal/machine"
	"github.com/zxcore/spectrum48/internal/ula"
)

var (
	romPath      string
	tapePath     string
	snapshotPath string
	scale        int
	headless     bool
	frames       int
)

var rootCmd = &cobra.Command{
	Use:   "zxcore",
	Short: "ZX Spectrum 48K emulator core",
	Long: `zxcore - ZX Spectrum 48K emulator

Loads a 48K ROM image and optionally a tape (.tap/.tzx) or snapshot (.z80),
then runs the machine in a window with video, keyboard and beeper audio.

Pass --headless to run a fixed number of frames with no window, useful for
smoke-testing a ROM/tape/snapshot combination in CI.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&romPath, "rom", "", "path to a 16 KiB 48K ROM image (required)")
	rootCmd.Flags().StringVar(&tapePath, "tape", "", "path to a .tap or .tzx tape file")
	rootCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "path to a .z80 snapshot to load at startup")
	rootCmd.Flags().IntVar(&scale, "scale", 2, "window scale factor")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run without a window for a fixed number of frames, then exit")
	rootCmd.Flags().IntVar(&frames, "frames", 50, "frames to run under --headless")
	rootCmd.MarkFlagRequired("rom")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	rom, err := loader.ROM(romPath)
	if err != nil {
		return err
	}

	b := bus.New()
	if err := b.LoadROM(rom); err != nil {
		return fmt.Errorf("zxcore: %w", err)
	}
	m := machine.New(b)

	if tapePath != "" {
		blocks, err := loader.Tape(tapePath)
		if err != nil {
			return err
		}
		m.LoadTape(blocks)
	}

	if snapshotPath != "" {
		snap, err := loader.Snapshot(snapshotPath)
		if err != nil {
			return err
		}
		if err := loader.ApplySnapshot(m, snap); err != nil {
			return err
		}
	}

	if headless {
		return runHeadless(m, frames)
	}
	return runWindowed(m, scale)
}

// runHeadless steps the machine for a fixed number of frames and exits,
// used by tests and CI to smoke-test a ROM/tape/snapshot combination
// without opening a window.
func runHeadless(m *machine.Machine, frames int) error {
	for i := 0; i < frames; i++ {
		m.RunFrame()
		m.EndFrame()
	}
	return nil
}

func runWindowed(m *machine.Machine, scale int) error {
	game, err := NewGame(m, scale)
	if err != nil {
		return fmt.Errorf("zxcore: initializing audio: %w", err)
	}
	defer game.Close()

	ebiten.SetWindowSize(ula.FrameWidth*scale, ula.FrameHeight*scale)
	ebiten.SetWindowTitle("zxcore")
	ebiten.SetWindowResizable(true)
	return ebiten.RunGame(game)
}
