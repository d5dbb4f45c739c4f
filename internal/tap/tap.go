// tap.go - TAP tape container parser
//
// A .tap file is a flat sequence of length-prefixed blocks: a little-endian
// uint16 length, followed by that many bytes (the first of which is the
// flag byte: 0x00 for a header block, 0xff for a data block, per the ROM
// loading convention - see headers/numeric_data.go in the retroio corpus
// for the header layout this convention comes from). There is no file
// header, version field, or block-ID byte as in TZX; every TAP block plays
// back with the ROM loader's standard pilot/sync/data timing.
package tap

import (
	"encoding/binary"
	"fmt"

	"github.com/zxcore/spectrum48/internal/tape"
)

// Parse reads a complete TAP file image and returns its blocks in order,
// suitable for tape.NewPlayer. Every block is timed exactly as the 48K ROM
// loader would time it; TAP carries no pause field, so blocks use the
// ROM's default 1-second inter-block pause.
func Parse(data []byte) ([]tape.Block, error) {
	const defaultPauseMs = 1000

	var blocks []tape.Block
	pos := 0
	for pos < len(data) {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("tap: truncated length prefix at offset %d", pos)
		}
		length := int(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
		if pos+length > len(data) {
			return nil, fmt.Errorf("tap: block at offset %d declares %d bytes, only %d remain", pos-2, length, len(data)-pos)
		}
		body := data[pos : pos+length]
		pos += length

		headerBlock := len(body) > 0 && body[0] == 0x00
		blocks = append(blocks, tape.NewStandardSpeedBlock(body, headerBlock, defaultPauseMs))
	}
	return blocks, nil
}
