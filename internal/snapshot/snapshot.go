// snapshot.go - classic .z80 snapshot format, versions 1 through 3
//
// A collaborator, not part of the cycle-accurate core: Load and Save are
// pure functions over a byte stream, grounded on the TZX/TAP packages'
// hand-rolled little-endian reader style (internal/tzx, internal/tap);
// no pack repo implements .z80 support, so the header/RLE layout itself
// follows the classic community format documentation.
// The loaded Snapshot only ever reaches the core through its register-
// setters and RAM-setter (internal/bus.Bus.SetRAM, internal/z80's public
// Registers fields); nothing here depends on internal/z80 or internal/bus
// directly, keeping this package a pure format codec.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	ramSize       = 49152
	pageSize      = 16384
	header1Size   = 30
	pcPlaceholder = 0 // PC==0 in the classic header signals a v2/v3 file
)

// page numbers the classic format assigns to the three 48K RAM banks.
const (
	page48kLow  = 8 // 0x4000-0x7FFF
	page48kMid  = 4 // 0x8000-0xBFFF
	page48kHigh = 5 // 0xC000-0xFFFF
)

// validHardwareModes lists the hardware mode values this loader accepts;
// anything else is InvalidSnapshot.
var validHardwareModes = map[uint8]bool{0: true, 1: true, 3: true}

// RegisterFile mirrors the register fields of z80.Registers (everything but
// its Halted/EIPending bookkeeping) so a loader can copy them straight
// across without this package importing internal/z80.
type RegisterFile struct {
	A, F       uint8
	B, C       uint8
	D, E       uint8
	H, L       uint8
	A2, F2     uint8
	B2, C2     uint8
	D2, E2     uint8
	H2, L2     uint8
	IX, IY     uint16
	SP, PC     uint16
	I, R       uint8
	IM         uint8
	IFF1, IFF2 bool
}

func (r *RegisterFile) BC() uint16  { return uint16(r.B)<<8 | uint16(r.C) }
func (r *RegisterFile) DE() uint16  { return uint16(r.D)<<8 | uint16(r.E) }
func (r *RegisterFile) HL() uint16  { return uint16(r.H)<<8 | uint16(r.L) }
func (r *RegisterFile) BC2() uint16 { return uint16(r.B2)<<8 | uint16(r.C2) }
func (r *RegisterFile) DE2() uint16 { return uint16(r.D2)<<8 | uint16(r.E2) }
func (r *RegisterFile) HL2() uint16 { return uint16(r.H2)<<8 | uint16(r.L2) }

func (r *RegisterFile) SetBC(v uint16)  { r.B, r.C = byte(v>>8), byte(v) }
func (r *RegisterFile) SetDE(v uint16)  { r.D, r.E = byte(v>>8), byte(v) }
func (r *RegisterFile) SetHL(v uint16)  { r.H, r.L = byte(v>>8), byte(v) }
func (r *RegisterFile) SetBC2(v uint16) { r.B2, r.C2 = byte(v>>8), byte(v) }
func (r *RegisterFile) SetDE2(v uint16) { r.D2, r.E2 = byte(v>>8), byte(v) }
func (r *RegisterFile) SetHL2(v uint16) { r.H2, r.L2 = byte(v>>8), byte(v) }

// Snapshot is the in-memory representation of a .z80 image: register
// file, border color, full 48K RAM image, interrupt mode and flip-flops.
type Snapshot struct {
	Registers RegisterFile
	Border    uint8
	RAM       [ramSize]byte
	IM        uint8
	IFF1      bool
	IFF2      bool
}

// Load parses a .z80 image (version 1, 2 or 3) from r.
func Load(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: reading stream")
	}
	if len(data) < header1Size {
		return nil, fmt.Errorf("snapshot: file too short (%d bytes): %w", len(data), ErrInvalidSnapshot)
	}

	snap := &Snapshot{}
	h := data[:header1Size]

	snap.Registers.A = h[0]
	snap.Registers.F = h[1]
	snap.Registers.SetBC(binary.LittleEndian.Uint16(h[2:4]))
	snap.Registers.SetHL(binary.LittleEndian.Uint16(h[4:6]))
	pc := binary.LittleEndian.Uint16(h[6:8])
	snap.Registers.SP = binary.LittleEndian.Uint16(h[8:10])
	snap.Registers.I = h[10]
	r7AndBorder := h[12]
	snap.Registers.R = h[11]&0x7F | (r7AndBorder&0x01)<<7
	snap.Border = (r7AndBorder >> 1) & 0x07
	compressedV1 := r7AndBorder&0x20 != 0
	snap.Registers.SetDE(binary.LittleEndian.Uint16(h[13:15]))
	snap.Registers.SetBC2(binary.LittleEndian.Uint16(h[15:17]))
	snap.Registers.SetDE2(binary.LittleEndian.Uint16(h[17:19]))
	snap.Registers.SetHL2(binary.LittleEndian.Uint16(h[19:21]))
	snap.Registers.A2 = h[21]
	snap.Registers.F2 = h[22]
	snap.Registers.IY = binary.LittleEndian.Uint16(h[23:25])
	snap.Registers.IX = binary.LittleEndian.Uint16(h[25:27])
	snap.Registers.IFF1 = h[27] != 0
	snap.Registers.IFF2 = h[28] != 0
	snap.Registers.IM = h[29] & 0x03
	snap.IM = snap.Registers.IM
	snap.IFF1 = snap.Registers.IFF1
	snap.IFF2 = snap.Registers.IFF2

	rest := data[header1Size:]

	if pc != pcPlaceholder {
		snap.Registers.PC = pc
		if err := loadV1Body(snap, rest, compressedV1); err != nil {
			return nil, err
		}
		return snap, nil
	}

	return loadV2V3(snap, rest)
}

// loadV1Body restores RAM from a version 1 image: a single blob covering
// all 48K, optionally RLE-compressed and terminated by 00 ED ED 00.
func loadV1Body(snap *Snapshot, body []byte, compressed bool) error {
	if !compressed {
		if len(body) < ramSize {
			return fmt.Errorf("snapshot: v1 body too short (%d bytes): %w", len(body), ErrInvalidSnapshot)
		}
		copy(snap.RAM[:], body[:ramSize])
		return nil
	}
	if end := bytes.Index(body, []byte{0x00, 0xED, 0xED, 0x00}); end >= 0 {
		body = body[:end]
	}
	plain := rleDecode(body)
	if len(plain) < ramSize {
		return fmt.Errorf("snapshot: v1 decompressed body too short (%d bytes): %w", len(plain), ErrInvalidSnapshot)
	}
	copy(snap.RAM[:], plain[:ramSize])
	return nil
}

// loadV2V3 restores a version 2/3 image: a short extended header carrying
// the real PC and hardware mode, followed by one RLE-compressed block per
// 16K memory page.
func loadV2V3(snap *Snapshot, body []byte) error {
	if len(body) < 2 {
		return fmt.Errorf("snapshot: missing extended header length: %w", ErrInvalidSnapshot)
	}
	extLen := int(binary.LittleEndian.Uint16(body[:2]))
	body = body[2:]
	if len(body) < extLen {
		return fmt.Errorf("snapshot: extended header truncated (want %d, got %d): %w", extLen, len(body), ErrInvalidSnapshot)
	}
	ext := body[:extLen]
	body = body[extLen:]

	if len(ext) < 3 {
		return fmt.Errorf("snapshot: extended header too short: %w", ErrInvalidSnapshot)
	}
	snap.Registers.PC = binary.LittleEndian.Uint16(ext[0:2])
	hwMode := ext[2]
	if !validHardwareModes[hwMode] {
		return fmt.Errorf("snapshot: unsupported hardware mode %d: %w", hwMode, ErrInvalidSnapshot)
	}

	for len(body) >= 3 {
		blockLen := int(binary.LittleEndian.Uint16(body[:2]))
		page := body[2]
		body = body[3:]

		var plain []byte
		if blockLen == 0xFFFF {
			if len(body) < pageSize {
				return fmt.Errorf("snapshot: uncompressed page truncated: %w", ErrInvalidSnapshot)
			}
			plain = body[:pageSize]
			body = body[pageSize:]
		} else {
			if len(body) < blockLen {
				return fmt.Errorf("snapshot: compressed page truncated: %w", ErrInvalidSnapshot)
			}
			plain = rleDecode(body[:blockLen])
			body = body[blockLen:]
		}
		if len(plain) != pageSize {
			return fmt.Errorf("snapshot: page %d decoded to %d bytes, want %d: %w", page, len(plain), pageSize, ErrInvalidSnapshot)
		}

		switch page {
		case page48kLow:
			copy(snap.RAM[0:pageSize], plain)
		case page48kMid:
			copy(snap.RAM[pageSize:2*pageSize], plain)
		case page48kHigh:
			copy(snap.RAM[2*pageSize:3*pageSize], plain)
		}
	}
	return nil
}

// Save writes snap as a version 3 .z80 image: a 30-byte classic header
// with PC forced to 0, a 54-byte extended header, and three RLE-compressed
// 16K pages in address order (pages 8, 4, 5).
func Save(w io.Writer, snap *Snapshot) error {
	h := make([]byte, header1Size)
	h[0] = snap.Registers.A
	h[1] = snap.Registers.F
	binary.LittleEndian.PutUint16(h[2:4], snap.Registers.BC())
	binary.LittleEndian.PutUint16(h[4:6], snap.Registers.HL())
	binary.LittleEndian.PutUint16(h[6:8], pcPlaceholder)
	binary.LittleEndian.PutUint16(h[8:10], snap.Registers.SP)
	h[10] = snap.Registers.I
	h[11] = snap.Registers.R & 0x7F
	h[12] = (snap.Registers.R>>7)&0x01 | (snap.Border&0x07)<<1
	binary.LittleEndian.PutUint16(h[13:15], snap.Registers.DE())
	binary.LittleEndian.PutUint16(h[15:17], snap.Registers.BC2())
	binary.LittleEndian.PutUint16(h[17:19], snap.Registers.DE2())
	binary.LittleEndian.PutUint16(h[19:21], snap.Registers.HL2())
	h[21] = snap.Registers.A2
	h[22] = snap.Registers.F2
	binary.LittleEndian.PutUint16(h[23:25], snap.Registers.IY)
	binary.LittleEndian.PutUint16(h[25:27], snap.Registers.IX)
	h[27] = boolByte(snap.IFF1)
	h[28] = boolByte(snap.IFF2)
	h[29] = snap.IM & 0x03
	if _, err := w.Write(h); err != nil {
		return errors.Wrap(err, "snapshot: writing header")
	}

	ext := make([]byte, 54)
	binary.LittleEndian.PutUint16(ext[0:2], snap.Registers.PC)
	ext[2] = 0 // hardware mode: plain 48K

	extLen := make([]byte, 2)
	binary.LittleEndian.PutUint16(extLen, uint16(len(ext)))
	if _, err := w.Write(extLen); err != nil {
		return errors.Wrap(err, "snapshot: writing extended header length")
	}
	if _, err := w.Write(ext); err != nil {
		return errors.Wrap(err, "snapshot: writing extended header")
	}

	pages := []struct {
		num  uint8
		data []byte
	}{
		{page48kLow, snap.RAM[0:pageSize]},
		{page48kMid, snap.RAM[pageSize : 2*pageSize]},
		{page48kHigh, snap.RAM[2*pageSize : 3*pageSize]},
	}
	for _, p := range pages {
		compressed := rleEncode(p.data)
		lenBuf := make([]byte, 2)
		binary.LittleEndian.PutUint16(lenBuf, uint16(len(compressed)))
		if _, err := w.Write(lenBuf); err != nil {
			return errors.Wrap(err, "snapshot: writing page length")
		}
		if _, err := w.Write([]byte{p.num}); err != nil {
			return errors.Wrap(err, "snapshot: writing page number")
		}
		if _, err := w.Write(compressed); err != nil {
			return errors.Wrap(err, "snapshot: writing page data")
		}
	}
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// rleEncode implements the classic .z80 run-length scheme: runs of five
// or more identical bytes, and runs of two or more 0xED bytes, become
// ED ED <count> <byte>; the byte after a lone 0xED is always written
// literally, so a literal 0xED is never left adjacent to another 0xED.
func rleEncode(data []byte) []byte {
	var out []byte
	i := 0
	for i < len(data) {
		j := i + 1
		for j < len(data) && data[j] == data[i] && j-i < 255 {
			j++
		}
		runLen := j - i
		if runLen >= 5 || (data[i] == 0xED && runLen >= 2) {
			out = append(out, 0xED, 0xED, byte(runLen), data[i])
			i = j
			continue
		}
		out = append(out, data[i])
		if data[i] == 0xED && i+1 < len(data) {
			out = append(out, data[i+1])
			i += 2
			continue
		}
		i++
	}
	return out
}

// rleDecode reverses rleEncode: ED ED <count> <byte> expands to count
// copies of byte; any other byte (including a lone ED or an ED not
// followed by another ED) is copied through unchanged.
func rleDecode(data []byte) []byte {
	var out []byte
	i := 0
	for i < len(data) {
		if i+3 < len(data) && data[i] == 0xED && data[i+1] == 0xED {
			count := int(data[i+2])
			b := data[i+3]
			for n := 0; n < count; n++ {
				out = append(out, b)
			}
			i += 4
			continue
		}
		out = append(out, data[i])
		i++
	}
	return out
}
