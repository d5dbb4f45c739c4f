// block.go - parsed tape block data model
//
// A loaded tape is an ordered sequence of Block values. This package never
// reads a .tap or .tzx file itself (see internal/tap and internal/tzx for
// the container parsers); it only defines the shape Player consumes and
// plays back at T-state resolution.
package tape

// Kind tags the variant held by a Block.
type Kind int

const (
	KindStandardOrTurbo Kind = iota
	KindPureTone
	KindPulseSequence
	KindPureData
	KindDirectRecording
	KindPause
	KindLoopStart
	KindLoopEnd
	KindJump
	KindStopIf48K
	KindInfo // Group, Text, Message, ArchiveInfo, Hardware, Custom, Glue
)

// Block is a tagged union of every tape block variant the player
// understands. Only the fields relevant to Kind are meaningful; parsers
// are responsible for zeroing the rest.
type Block struct {
	Kind Kind

	// StandardOrTurbo / PureData
	Data             []byte
	PilotPulse       uint32
	Sync1            uint32
	Sync2            uint32
	ZeroPulse        uint32
	OnePulse         uint32
	PilotCount       uint32
	PauseMs          uint32
	UsedBitsLastByte uint8

	// PureTone
	PulseLength uint32
	PulseCount  uint32

	// PulseSequence
	Pulses []uint32

	// DirectRecording (also uses Data, UsedBitsLastByte, PauseMs)
	TStatesPerSample uint32

	// Pause: PauseMs == 0 means stop-the-tape
	// LoopStart
	LoopCount uint32

	// Jump
	JumpOffset int16

	// Info blocks carry no playback effect; Name is kept for diagnostics.
	Name string
}

// StandardSpeedDefaults mirror the ROM loader's documented timing
// constants, used by TAP-file blocks which carry no explicit timing of
// their own.
const (
	StandardPilotPulse = 2168
	StandardSync1      = 667
	StandardSync2      = 735
	StandardZeroPulse  = 855
	StandardOnePulse   = 1710
	HeaderPilotCount   = 8063
	DataPilotCount     = 3223
)

// NewStandardSpeedBlock builds a Block with the ROM loader's standard
// pilot/sync/data timing for a TAP-file data block. headerBlock controls
// the pilot tone length (header vs. data per the ROM loading convention).
func NewStandardSpeedBlock(data []byte, headerBlock bool, pauseMs uint32) Block {
	pilotCount := uint32(DataPilotCount)
	if headerBlock {
		pilotCount = HeaderPilotCount
	}
	return Block{
		Kind:             KindStandardOrTurbo,
		Data:             data,
		PilotPulse:       StandardPilotPulse,
		Sync1:            StandardSync1,
		Sync2:            StandardSync2,
		ZeroPulse:        StandardZeroPulse,
		OnePulse:         StandardOnePulse,
		PilotCount:       pilotCount,
		PauseMs:          pauseMs,
		UsedBitsLastByte: 8,
	}
}
