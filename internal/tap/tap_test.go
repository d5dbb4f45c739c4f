package tap

import (
	"testing"

	"github.com/zxcore/spectrum48/internal/tape"
)

func TestParseSingleHeaderBlock(t *testing.T) {
	body := append([]byte{0x00}, make([]byte, 18)...)
	data := []byte{byte(len(body)), 0x00}
	data = append(data, body...)

	blocks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].PilotCount != tape.HeaderPilotCount {
		t.Fatalf("expected header pilot count, got %d", blocks[0].PilotCount)
	}
}

func TestParseHeaderThenDataBlock(t *testing.T) {
	header := append([]byte{0x00}, make([]byte, 18)...)
	dataBlock := append([]byte{0xff}, make([]byte, 10)...)

	data := []byte{byte(len(header)), 0x00}
	data = append(data, header...)
	data = append(data, byte(len(dataBlock)), 0x00)
	data = append(data, dataBlock...)

	blocks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].PilotCount != tape.HeaderPilotCount {
		t.Fatalf("block 0: expected header pilot count, got %d", blocks[0].PilotCount)
	}
	if blocks[1].PilotCount != tape.DataPilotCount {
		t.Fatalf("block 1: expected data pilot count, got %d", blocks[1].PilotCount)
	}
}

func TestParseTruncatedLengthPrefix(t *testing.T) {
	if _, err := Parse([]byte{0x05}); err == nil {
		t.Fatalf("expected an error for a truncated length prefix")
	}
}

func TestParseDeclaredLengthExceedsData(t *testing.T) {
	data := []byte{0xff, 0xff, 0x01, 0x02}
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected an error when declared length exceeds remaining data")
	}
}
