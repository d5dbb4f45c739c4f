// tzx.go - TZX tape container parser
//
// TZX files store a 10-byte header, followed by zero or more blocks, each
// introduced by a one-byte ID. This parser reads every block the tape
// player understands directly into a tape.Block and returns the parsed
// sequence; an unknown block ID stops the parse but still returns the
// already-decoded prefix of blocks alongside the error, so a tape with one
// trailing unsupported block can still be played up to that point.
//
// Rules and definitions (from the TZX specification):
//   - multi-byte values are little-endian.
//   - timings are given in T-states unless stated otherwise.
//   - an ArchiveInfo block (0x32), if present, is always the first block
//     after the header; it carries no playback effect.
package tzx

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/zxcore/spectrum48/internal/tape"
)

const (
	supportedMajorVersion = 1
	supportedMinorVersion = 20
)

// Block IDs this parser recognizes.
const (
	idStandardSpeedData = 0x10
	idTurboSpeedData     = 0x11
	idPureTone           = 0x12
	idSequenceOfPulses   = 0x13
	idPureData           = 0x14
	idDirectRecording    = 0x15
	idPauseOrStopTape    = 0x20
	idGroupStart         = 0x21
	idGroupEnd           = 0x22
	idJumpTo             = 0x23
	idLoopStart          = 0x24
	idLoopEnd            = 0x25
	idStopTapeWhen48K    = 0x2a
	idTextDescription    = 0x30
	idMessage            = 0x31
	idArchiveInfo        = 0x32
	idHardwareType       = 0x33
	idCustomInfo         = 0x35
	idGlueBlock          = 0x5a
)

type header struct {
	Signature    [7]byte
	Terminator   uint8
	MajorVersion uint8
	MinorVersion uint8
}

func (h header) valid() error {
	var err error
	add := func(format string, args ...interface{}) {
		if err == nil {
			err = errors.Errorf(format, args...)
		} else {
			err = errors.Wrapf(err, format, args...)
		}
	}
	want := [7]byte{'Z', 'X', 'T', 'a', 'p', 'e', '!'}
	if h.Signature != want {
		add("tzx: bad signature %q", h.Signature)
	}
	if h.Terminator != 0x1a {
		add("tzx: bad terminator %#x", h.Terminator)
	}
	if h.MajorVersion != supportedMajorVersion {
		add("tzx: unsupported version v%d.%d", h.MajorVersion, h.MinorVersion)
	}
	return err
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) byte() (uint8, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) word() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) dword() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// bytes3 reads a 3-byte little-endian length, the format TZX uses for
// block data lengths (the extension rule excepted).
func (r *reader) bytes3() (uint32, error) {
	if r.pos+3 > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	v := uint32(r.data[r.pos]) | uint32(r.data[r.pos+1])<<8 | uint32(r.data[r.pos+2])<<16
	r.pos += 3
	return v, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) skip(n int) error {
	_, err := r.take(n)
	return err
}

func (r *reader) eof() bool { return r.pos >= len(r.data) }

// Parse reads a complete TZX file image and returns its blocks in order,
// suitable for tape.NewPlayer. ArchiveInfo, Text/Message, HardwareType and
// CustomInfo blocks are preserved as tape.KindInfo entries; they carry no
// playback effect of their own.
func Parse(data []byte) ([]tape.Block, error) {
	r := &reader{data: data}

	var h header
	sig, err := r.take(7)
	if err != nil {
		return nil, errors.Wrap(err, "tzx: reading header")
	}
	copy(h.Signature[:], sig)
	if h.Terminator, err = r.byte(); err != nil {
		return nil, errors.Wrap(err, "tzx: reading header")
	}
	if h.MajorVersion, err = r.byte(); err != nil {
		return nil, errors.Wrap(err, "tzx: reading header")
	}
	if h.MinorVersion, err = r.byte(); err != nil {
		return nil, errors.Wrap(err, "tzx: reading header")
	}
	if err := h.valid(); err != nil {
		return nil, err
	}

	var blocks []tape.Block
	for !r.eof() {
		id, err := r.byte()
		if err != nil {
			break
		}
		blk, err := r.readBlock(id)
		if err != nil {
			return blocks, fmt.Errorf("tzx: block 0x%02x: %w", id, err)
		}
		if blk != nil {
			blocks = append(blocks, *blk)
		}
	}
	return blocks, nil
}

func (r *reader) readBlock(id uint8) (*tape.Block, error) {
	switch id {
	case idStandardSpeedData:
		return r.readStandardSpeedData()
	case idTurboSpeedData:
		return r.readTurboSpeedData()
	case idPureTone:
		return r.readPureTone()
	case idSequenceOfPulses:
		return r.readSequenceOfPulses()
	case idPureData:
		return r.readPureData()
	case idDirectRecording:
		return r.readDirectRecording()
	case idPauseOrStopTape:
		return r.readPauseOrStopTape()
	case idGroupStart:
		return r.readGroupStart()
	case idGroupEnd:
		blk := tape.Block{Kind: tape.KindInfo, Name: "Group End"}
		return &blk, nil
	case idJumpTo:
		return r.readJumpTo()
	case idLoopStart:
		return r.readLoopStart()
	case idLoopEnd:
		blk := tape.Block{Kind: tape.KindLoopEnd}
		return &blk, nil
	case idStopTapeWhen48K:
		if _, err := r.dword(); err != nil {
			return nil, err
		}
		blk := tape.Block{Kind: tape.KindStopIf48K}
		return &blk, nil
	case idTextDescription:
		return r.readTextDescription()
	case idMessage:
		return r.readMessage()
	case idArchiveInfo:
		return r.readAndSkipLengthPrefixed("Archive Info")
	case idHardwareType:
		return r.readHardwareType()
	case idCustomInfo:
		return r.readAndSkipLengthPrefixed("Custom Info")
	case idGlueBlock:
		if err := r.skip(9); err != nil {
			return nil, err
		}
		blk := tape.Block{Kind: tape.KindInfo, Name: "Glue"}
		return &blk, nil
	default:
		return nil, fmt.Errorf("%w: id 0x%02x", ErrUnsupportedBlock, id)
	}
}

func (r *reader) readStandardSpeedData() (*tape.Block, error) {
	pauseMs, err := r.word()
	if err != nil {
		return nil, err
	}
	length, err := r.word()
	if err != nil {
		return nil, err
	}
	data, err := r.take(int(length))
	if err != nil {
		return nil, err
	}
	headerBlock := len(data) > 0 && data[0] < 128
	blk := tape.NewStandardSpeedBlock(data, headerBlock, uint32(pauseMs))
	return &blk, nil
}

func (r *reader) readTurboSpeedData() (*tape.Block, error) {
	pilotPulse, err := r.word()
	if err != nil {
		return nil, err
	}
	sync1, err := r.word()
	if err != nil {
		return nil, err
	}
	sync2, err := r.word()
	if err != nil {
		return nil, err
	}
	zero, err := r.word()
	if err != nil {
		return nil, err
	}
	one, err := r.word()
	if err != nil {
		return nil, err
	}
	pilotTone, err := r.word()
	if err != nil {
		return nil, err
	}
	usedBits, err := r.byte()
	if err != nil {
		return nil, err
	}
	pauseMs, err := r.word()
	if err != nil {
		return nil, err
	}
	length, err := r.bytes3()
	if err != nil {
		return nil, err
	}
	data, err := r.take(int(length))
	if err != nil {
		return nil, err
	}
	blk := tape.Block{
		Kind:             tape.KindStandardOrTurbo,
		Data:             data,
		PilotPulse:       uint32(pilotPulse),
		Sync1:            uint32(sync1),
		Sync2:            uint32(sync2),
		ZeroPulse:        uint32(zero),
		OnePulse:         uint32(one),
		PilotCount:       uint32(pilotTone),
		PauseMs:          uint32(pauseMs),
		UsedBitsLastByte: usedBits,
	}
	return &blk, nil
}

func (r *reader) readPureTone() (*tape.Block, error) {
	length, err := r.word()
	if err != nil {
		return nil, err
	}
	count, err := r.word()
	if err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindPureTone, PulseLength: uint32(length), PulseCount: uint32(count)}
	return &blk, nil
}

func (r *reader) readSequenceOfPulses() (*tape.Block, error) {
	n, err := r.byte()
	if err != nil {
		return nil, err
	}
	pulses := make([]uint32, n)
	for i := range pulses {
		p, err := r.word()
		if err != nil {
			return nil, err
		}
		pulses[i] = uint32(p)
	}
	blk := tape.Block{Kind: tape.KindPulseSequence, Pulses: pulses}
	return &blk, nil
}

func (r *reader) readPureData() (*tape.Block, error) {
	zero, err := r.word()
	if err != nil {
		return nil, err
	}
	one, err := r.word()
	if err != nil {
		return nil, err
	}
	usedBits, err := r.byte()
	if err != nil {
		return nil, err
	}
	pauseMs, err := r.word()
	if err != nil {
		return nil, err
	}
	length, err := r.bytes3()
	if err != nil {
		return nil, err
	}
	data, err := r.take(int(length))
	if err != nil {
		return nil, err
	}
	blk := tape.Block{
		Kind:             tape.KindPureData,
		Data:             data,
		ZeroPulse:        uint32(zero),
		OnePulse:         uint32(one),
		UsedBitsLastByte: usedBits,
		PauseMs:          uint32(pauseMs),
	}
	return &blk, nil
}

func (r *reader) readDirectRecording() (*tape.Block, error) {
	tstatesPerSample, err := r.word()
	if err != nil {
		return nil, err
	}
	pauseMs, err := r.word()
	if err != nil {
		return nil, err
	}
	usedBits, err := r.byte()
	if err != nil {
		return nil, err
	}
	length, err := r.bytes3()
	if err != nil {
		return nil, err
	}
	data, err := r.take(int(length))
	if err != nil {
		return nil, err
	}
	blk := tape.Block{
		Kind:             tape.KindDirectRecording,
		Data:             data,
		TStatesPerSample: uint32(tstatesPerSample),
		PauseMs:          uint32(pauseMs),
		UsedBitsLastByte: usedBits,
	}
	return &blk, nil
}

func (r *reader) readPauseOrStopTape() (*tape.Block, error) {
	pauseMs, err := r.word()
	if err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindPause, PauseMs: uint32(pauseMs)}
	return &blk, nil
}

func (r *reader) readGroupStart() (*tape.Block, error) {
	n, err := r.byte()
	if err != nil {
		return nil, err
	}
	name, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindInfo, Name: "Group: " + string(name)}
	return &blk, nil
}

func (r *reader) readJumpTo() (*tape.Block, error) {
	v, err := r.word()
	if err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindJump, JumpOffset: int16(v)}
	return &blk, nil
}

func (r *reader) readLoopStart() (*tape.Block, error) {
	count, err := r.word()
	if err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindLoopStart, LoopCount: uint32(count)}
	return &blk, nil
}

func (r *reader) readTextDescription() (*tape.Block, error) {
	n, err := r.byte()
	if err != nil {
		return nil, err
	}
	text, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindInfo, Name: string(text)}
	return &blk, nil
}

func (r *reader) readMessage() (*tape.Block, error) {
	if _, err := r.byte(); err != nil { // display duration in seconds, not used by the player
		return nil, err
	}
	n, err := r.byte()
	if err != nil {
		return nil, err
	}
	text, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindInfo, Name: string(text)}
	return &blk, nil
}

func (r *reader) readHardwareType() (*tape.Block, error) {
	n, err := r.byte()
	if err != nil {
		return nil, err
	}
	if err := r.skip(int(n) * 3); err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindInfo, Name: "Hardware Type"}
	return &blk, nil
}

// readAndSkipLengthPrefixed reads a block whose body is a 4-byte length
// followed by that many bytes (ArchiveInfo, CustomInfo); its content has
// no playback effect so the player only needs to know the block existed.
func (r *reader) readAndSkipLengthPrefixed(name string) (*tape.Block, error) {
	length, err := r.dword()
	if err != nil {
		return nil, err
	}
	if err := r.skip(int(length)); err != nil {
		return nil, err
	}
	blk := tape.Block{Kind: tape.KindInfo, Name: name}
	return &blk, nil
}
