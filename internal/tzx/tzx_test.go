package tzx

import (
	"errors"
	"testing"

	"github.com/zxcore/spectrum48/internal/tape"
)

func tzxHeader() []byte {
	return []byte{'Z', 'X', 'T', 'a', 'p', 'e', '!', 0x1a, 1, 20}
}

func TestParseRejectsBadSignature(t *testing.T) {
	data := append([]byte{'N', 'O', 'P', 'E', '!', '!', '!', 0x1a, 1, 20})
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected an error for a bad signature")
	}
}

func TestParseStandardSpeedData(t *testing.T) {
	data := tzxHeader()
	data = append(data, idStandardSpeedData)
	data = append(data, 0xE8, 0x03) // pause 1000 ms
	data = append(data, 0x02, 0x00) // length 2
	data = append(data, 0x00, 0xAA) // flag byte (header), checksum

	blocks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	blk := blocks[0]
	if blk.Kind != tape.KindStandardOrTurbo {
		t.Fatalf("expected KindStandardOrTurbo, got %v", blk.Kind)
	}
	if blk.PilotCount != tape.HeaderPilotCount {
		t.Fatalf("expected header pilot count for flag byte < 128, got %d", blk.PilotCount)
	}
	if blk.PauseMs != 1000 {
		t.Fatalf("PauseMs = %d, want 1000", blk.PauseMs)
	}
}

func TestParseLoopStartAndEnd(t *testing.T) {
	data := tzxHeader()
	data = append(data, idLoopStart, 0x03, 0x00)
	data = append(data, idLoopEnd)

	blocks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != tape.KindLoopStart || blocks[0].LoopCount != 3 {
		t.Fatalf("bad LoopStart block: %+v", blocks[0])
	}
	if blocks[1].Kind != tape.KindLoopEnd {
		t.Fatalf("bad LoopEnd block: %+v", blocks[1])
	}
}

func TestParseUnsupportedBlockID(t *testing.T) {
	data := tzxHeader()
	data = append(data, 0x19) // Generalized Data, not supported by this player

	_, err := Parse(data)
	if err == nil || !errors.Is(err, ErrUnsupportedBlock) {
		t.Fatalf("expected ErrUnsupportedBlock, got %v", err)
	}
}

func TestParseUnsupportedBlockIDReturnsDecodedPrefix(t *testing.T) {
	data := tzxHeader()
	data = append(data, idStandardSpeedData)
	data = append(data, 0xE8, 0x03) // pause 1000 ms
	data = append(data, 0x02, 0x00) // length 2
	data = append(data, 0x00, 0xAA) // flag byte (header), checksum
	data = append(data, 0x19)       // Generalized Data, not supported by this player

	blocks, err := Parse(data)
	if err == nil || !errors.Is(err, ErrUnsupportedBlock) {
		t.Fatalf("expected ErrUnsupportedBlock, got %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected the decoded prefix of 1 block to still be returned, got %d", len(blocks))
	}
	if blocks[0].Kind != tape.KindStandardOrTurbo {
		t.Fatalf("bad prefix block: %+v", blocks[0])
	}
}

func TestParsePauseZeroStopsTape(t *testing.T) {
	data := tzxHeader()
	data = append(data, idPauseOrStopTape, 0x00, 0x00)

	blocks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Kind != tape.KindPause || blocks[0].PauseMs != 0 {
		t.Fatalf("bad Pause block: %+v", blocks)
	}
}

func TestParsePureToneAndSequenceOfPulses(t *testing.T) {
	data := tzxHeader()
	data = append(data, idPureTone, 0x68, 0x08, 0x05, 0x00) // length 2168, count 5
	data = append(data, idSequenceOfPulses, 0x02, 0x64, 0x00, 0xC8, 0x00)

	blocks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].PulseLength != 2168 || blocks[0].PulseCount != 5 {
		t.Fatalf("bad PureTone block: %+v", blocks[0])
	}
	if len(blocks[1].Pulses) != 2 || blocks[1].Pulses[0] != 100 || blocks[1].Pulses[1] != 200 {
		t.Fatalf("bad PulseSequence block: %+v", blocks[1])
	}
}

func TestParseArchiveInfoSkippedAsInfo(t *testing.T) {
	data := tzxHeader()
	data = append(data, idArchiveInfo, 0x02, 0x00, 0x00, 0x00, 0xAB, 0xCD)

	blocks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Kind != tape.KindInfo {
		t.Fatalf("expected a single Info block, got %+v", blocks)
	}
}
