// player.go - tape pulse engine
//
// Player consumes an ordered sequence of parsed Block values and produces
// the EAR-input bit the ULA reads, as a function of the absolute T-state
// stream the Frame Driver supplies. It owns no wall-clock timer of its
// own: every edge is scheduled in absolute T-states relative to whenever
// playback of the current block began.
package tape

type state int

const (
	stateIdle state = iota
	statePilot
	stateSync1
	stateSync2
	stateData
	statePureTone
	statePulseSequence
	stateDirectRecording
	statePause
)

type loopFrame struct {
	blockIndex int
	counter    uint32
}

type pendingCmd int

const (
	cmdNone pendingCmd = iota
	cmdPlay
	cmdPause
	cmdResume
	cmdStop
	cmdRewind
)

// Player is the tape pulse engine described in spec §4.3.
type Player struct {
	blocks     []Block
	blockIndex int

	state state

	bytePos   int
	bitPos    int
	pulseHalf int

	pilotEdgesRemaining uint32
	pulseCountRemaining uint32
	pulseSeqIndex       int

	nextEdge       uint64
	pauseRemaining int64

	loopStack []loopFrame

	ear         bool
	playing     bool
	paused      bool
	initialized bool
	lastTState  uint64

	pending pendingCmd
}

// NewPlayer returns a Player positioned at the start of blocks, stopped.
func NewPlayer(blocks []Block) *Player {
	return &Player{blocks: blocks}
}

// Play starts (or resumes from a stopped state) playback; takes effect on
// the next call to Update.
func (p *Player) Play() { p.pending = cmdPlay }

// Pause suspends playback, holding the EAR bit; takes effect on the next
// call to Update.
func (p *Player) Pause() { p.pending = cmdPause }

// Resume clears a previously requested Pause; takes effect on the next
// call to Update.
func (p *Player) Resume() { p.pending = cmdResume }

// Stop halts playback entirely; takes effect on the next call to Update.
func (p *Player) Stop() { p.pending = cmdStop }

// Rewind resets playback to the first block; takes effect on the next
// call to Update.
func (p *Player) Rewind() { p.pending = cmdRewind }

// Playing reports whether the player is actively advancing (not stopped,
// though it may be paused).
func (p *Player) Playing() bool { return p.playing }

// Paused reports whether playback is currently suspended.
func (p *Player) Paused() bool { return p.paused }

func (p *Player) applyPending() {
	switch p.pending {
	case cmdPlay:
		p.playing = true
		p.paused = false
	case cmdPause:
		p.paused = true
	case cmdResume:
		p.paused = false
	case cmdStop:
		p.playing = false
		p.paused = false
	case cmdRewind:
		p.blockIndex = 0
		p.state = stateIdle
		p.loopStack = nil
		p.ear = false
		p.initialized = false
	}
	p.pending = cmdNone
}

// Update advances playback to cpuTStates (an absolute, monotonically
// increasing T-state count) and returns the current EAR-input bit.
func (p *Player) Update(cpuTStates uint64) bool {
	p.applyPending()

	if !p.playing || p.paused {
		return p.ear
	}

	if !p.initialized {
		p.lastTState = cpuTStates
		p.beginBlock(cpuTStates)
		p.initialized = true
	}

	if p.state == statePause {
		elapsed := cpuTStates - p.lastTState
		p.lastTState = cpuTStates
		p.ear = false
		if int64(elapsed) < p.pauseRemaining {
			p.pauseRemaining -= int64(elapsed)
		} else {
			p.pauseRemaining = 0
			p.blockIndex++
			p.beginBlock(cpuTStates)
		}
		return p.ear
	}

	p.lastTState = cpuTStates
	for p.playing && p.state != statePause && cpuTStates >= p.nextEdge {
		if p.state == stateDirectRecording {
			p.advanceDirectSample(cpuTStates)
		} else {
			p.ear = !p.ear
			p.transition(cpuTStates)
		}
	}
	return p.ear
}

func (p *Player) currentBlock() Block {
	return p.blocks[p.blockIndex]
}

// beginBlock processes control/informational blocks in sequence (loop
// bookkeeping, jumps, stop conditions, informational skips) until it lands
// on a playable block, a Pause, a stop condition, or the end of the tape.
func (p *Player) beginBlock(cpuTStates uint64) {
	for {
		if p.blockIndex < 0 || p.blockIndex >= len(p.blocks) {
			p.playing = false
			return
		}
		blk := p.currentBlock()
		switch blk.Kind {
		case KindInfo:
			p.blockIndex++
		case KindLoopStart:
			p.loopStack = append(p.loopStack, loopFrame{blockIndex: p.blockIndex, counter: blk.LoopCount})
			p.blockIndex++
		case KindLoopEnd:
			if len(p.loopStack) == 0 {
				p.blockIndex++
				continue
			}
			top := &p.loopStack[len(p.loopStack)-1]
			top.counter--
			if top.counter > 0 {
				p.blockIndex = top.blockIndex + 1
			} else {
				p.loopStack = p.loopStack[:len(p.loopStack)-1]
				p.blockIndex++
			}
		case KindJump:
			p.blockIndex += int(blk.JumpOffset)
		case KindStopIf48K:
			p.playing = false
			return
		case KindPause:
			if blk.PauseMs == 0 {
				p.playing = false
				return
			}
			p.state = statePause
			p.pauseRemaining = int64(blk.PauseMs) * 3500
			p.ear = false
			return
		default:
			if !p.startPlayableBlock(blk, cpuTStates) {
				p.playing = false
				return
			}
			return
		}
	}
}

// startPlayableBlock initializes the state machine for a data-carrying
// block. It returns false if the block is malformed (declared data
// shorter than its header implies), in which case playback ends silently.
func (p *Player) startPlayableBlock(blk Block, cpuTStates uint64) bool {
	switch blk.Kind {
	case KindStandardOrTurbo:
		if len(blk.Data) == 0 {
			return false
		}
		p.state = statePilot
		p.pilotEdgesRemaining = 2 * blk.PilotCount
		p.nextEdge = cpuTStates + uint64(blk.PilotPulse)
	case KindPureTone:
		if blk.PulseCount == 0 {
			p.endOfBlock(cpuTStates)
			return true
		}
		p.state = statePureTone
		p.pulseCountRemaining = blk.PulseCount
		p.nextEdge = cpuTStates + uint64(blk.PulseLength)
	case KindPulseSequence:
		if len(blk.Pulses) == 0 {
			p.endOfBlock(cpuTStates)
			return true
		}
		p.state = statePulseSequence
		p.pulseSeqIndex = 0
		p.nextEdge = cpuTStates + uint64(blk.Pulses[0])
	case KindPureData:
		if len(blk.Data) == 0 {
			return false
		}
		p.beginData(cpuTStates)
	case KindDirectRecording:
		if len(blk.Data) == 0 {
			return false
		}
		p.state = stateDirectRecording
		p.bytePos = 0
		p.bitPos = 0
		p.nextEdge = cpuTStates // first sample is taken at block start
	default:
		return false
	}
	return true
}

func (p *Player) beginData(cpuTStates uint64) {
	p.state = stateData
	p.bytePos = 0
	p.bitPos = 0
	p.pulseHalf = 0
	p.nextEdge = cpuTStates + uint64(p.bitDuration())
}

func (p *Player) bitDuration() uint32 {
	blk := p.currentBlock()
	if bitOfByte(blk.Data[p.bytePos], p.bitPos) {
		return blk.OnePulse
	}
	return blk.ZeroPulse
}

func bitOfByte(b byte, bitIndex int) bool {
	return b&(0x80>>uint(bitIndex)) != 0
}

func usedBitsFor(blk Block, byteIdx int) int {
	if byteIdx != len(blk.Data)-1 {
		return 8
	}
	used := int(blk.UsedBitsLastByte)
	if used == 0 || used > 8 {
		return 8
	}
	return used
}

// transition advances the state machine by one edge; called immediately
// after the EAR bit has been toggled for a non-direct-recording block.
func (p *Player) transition(cpuTStates uint64) {
	blk := p.currentBlock()
	switch p.state {
	case statePilot:
		p.pilotEdgesRemaining--
		if p.pilotEdgesRemaining > 0 {
			p.nextEdge += uint64(blk.PilotPulse)
		} else {
			p.state = stateSync1
			p.nextEdge += uint64(blk.Sync1)
		}
	case stateSync1:
		p.state = stateSync2
		p.nextEdge += uint64(blk.Sync2)
	case stateSync2:
		p.beginData(cpuTStates)
	case stateData:
		p.advanceDataHalf(cpuTStates)
	case statePureTone:
		p.pulseCountRemaining--
		if p.pulseCountRemaining > 0 {
			p.nextEdge += uint64(blk.PulseLength)
		} else {
			p.endOfBlock(cpuTStates)
		}
	case statePulseSequence:
		p.pulseSeqIndex++
		if p.pulseSeqIndex < len(blk.Pulses) {
			p.nextEdge += uint64(blk.Pulses[p.pulseSeqIndex])
		} else {
			p.endOfBlock(cpuTStates)
		}
	}
}

func (p *Player) advanceDataHalf(cpuTStates uint64) {
	blk := p.currentBlock()
	p.pulseHalf++
	if p.pulseHalf < 2 {
		p.nextEdge += uint64(p.bitDuration())
		return
	}
	p.pulseHalf = 0
	p.bitPos++
	limit := usedBitsFor(blk, p.bytePos)
	if p.bitPos >= limit {
		p.bitPos = 0
		p.bytePos++
		if p.bytePos >= len(blk.Data) {
			p.endOfBlock(cpuTStates)
			return
		}
	}
	p.nextEdge += uint64(p.bitDuration())
}

func (p *Player) advanceDirectSample(cpuTStates uint64) {
	blk := p.currentBlock()
	if p.bytePos >= len(blk.Data) {
		p.endOfBlock(cpuTStates)
		return
	}
	p.ear = bitOfByte(blk.Data[p.bytePos], p.bitPos)

	limit := usedBitsFor(blk, p.bytePos)
	p.bitPos++
	if p.bitPos >= limit {
		p.bitPos = 0
		p.bytePos++
	}
	p.nextEdge += uint64(blk.TStatesPerSample)
}

func (p *Player) endOfBlock(cpuTStates uint64) {
	blk := p.currentBlock()
	if blk.PauseMs > 0 {
		p.state = statePause
		p.pauseRemaining = int64(blk.PauseMs) * 3500
		p.ear = false
		return
	}
	p.blockIndex++
	p.beginBlock(cpuTStates)
}
