// loader.go - ROM/tape/snapshot file loading glue
//
// A collaborator, not part of the cycle-accurate core: it reads a file from
// disk and dispatches to the right format parser by extension, the way the
// teacher's MediaLoader (media_loader.go) dispatches a "play this file" MMIO
// request across its PSG/SID/TED/AHX players by extension. Here the targets
// are tape containers (internal/tap, internal/tzx) and snapshots
// (internal/snapshot) instead of chiptune formats, and the result is handed
// straight to a Machine rather than queued behind MMIO registers.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zxcore/spectrum48/internal/machine"
	"github.com/zxcore/spectrum48/internal/snapshot"
	"github.com/zxcore/spectrum48/internal/tap"
	"github.com/zxcore/spectrum48/internal/tape"
	"github.com/zxcore/spectrum48/internal/tzx"
)

// ROM reads a 16 KiB ROM image from path.
func ROM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading ROM %q: %w", path, err)
	}
	return data, nil
}

// Tape reads a .tap or .tzx file from path and parses it into a block
// sequence ready for tape.NewPlayer, dispatching on the file extension.
func Tape(path string) ([]tape.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading tape %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tap":
		return tap.Parse(data)
	case ".tzx":
		return tzx.Parse(data)
	default:
		return nil, fmt.Errorf("loader: %q: %w", path, ErrUnknownFormat)
	}
}

// Snapshot reads a .z80 snapshot image from path.
func Snapshot(path string) (*snapshot.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: opening snapshot %q: %w", path, err)
	}
	defer f.Close()

	snap, err := snapshot.Load(f)
	if err != nil {
		return nil, fmt.Errorf("loader: parsing snapshot %q: %w", path, err)
	}
	return snap, nil
}

// ApplySnapshot restores a loaded snapshot onto a Machine: registers, full
// 48K RAM image, border color, interrupt mode and flip-flops. The Machine's
// Bus must already have a ROM loaded; ROM content is unaffected since a
// .z80 image carries RAM only.
func ApplySnapshot(m *machine.Machine, snap *snapshot.Snapshot) error {
	r := &snap.Registers
	m.CPU.A, m.CPU.F = r.A, r.F
	m.CPU.B, m.CPU.C = r.B, r.C
	m.CPU.D, m.CPU.E = r.D, r.E
	m.CPU.H, m.CPU.L = r.H, r.L
	m.CPU.A2, m.CPU.F2 = r.A2, r.F2
	m.CPU.B2, m.CPU.C2 = r.B2, r.C2
	m.CPU.D2, m.CPU.E2 = r.D2, r.E2
	m.CPU.H2, m.CPU.L2 = r.H2, r.L2
	m.CPU.IX, m.CPU.IY = r.IX, r.IY
	m.CPU.SP, m.CPU.PC = r.SP, r.PC
	m.CPU.I, m.CPU.R = r.I, r.R
	m.CPU.IM = snap.IM
	m.CPU.IFF1, m.CPU.IFF2 = snap.IFF1, snap.IFF2

	if err := m.Bus.SetRAM(snap.RAM[:]); err != nil {
		return fmt.Errorf("loader: applying snapshot RAM: %w", err)
	}
	m.ULA.Write(0xFE, snap.Border)
	return nil
}
