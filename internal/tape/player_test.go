package tape

import "testing"

func TestPlayerPilotThenSync1(t *testing.T) {
	blk := NewStandardSpeedBlock([]byte{0x00, 0xFF}, true, 1000)
	p := NewPlayer([]Block{blk})
	p.Play()

	const start = uint64(1000)
	p.Update(start)

	totalPilotEdges := uint64(2 * HeaderPilotCount)
	edgeTState := start + totalPilotEdges*StandardPilotPulse

	// One T-state short of the final pilot edge: still counting pilot
	// edges, next_edge has not yet moved into Sync1.
	p.Update(edgeTState - 1)
	if p.state != statePilot {
		t.Fatalf("expected statePilot just before final pilot edge, got %v", p.state)
	}

	// The final pilot edge fires exactly at edgeTState, transitioning into
	// Sync1 and scheduling the next edge StandardSync1 T-states later.
	p.Update(edgeTState)
	if p.state != stateSync1 {
		t.Fatalf("expected stateSync1 after %d pilot edges, got %v", totalPilotEdges, p.state)
	}
	wantNext := edgeTState + StandardSync1
	if p.nextEdge != wantNext {
		t.Fatalf("next_edge = %d, want %d", p.nextEdge, wantNext)
	}
}

func TestPlayerSyncThenDataBeginsOnFirstBit(t *testing.T) {
	blk := NewStandardSpeedBlock([]byte{0x80}, false, 0)
	p := NewPlayer([]Block{blk})
	p.Play()

	start := uint64(0)
	p.Update(start)

	t0 := start + uint64(2*DataPilotCount)*StandardPilotPulse
	t1 := t0 + StandardSync1
	t2 := t1 + StandardSync2

	p.Update(t0) // -> Sync1
	p.Update(t1) // -> Sync2
	p.Update(t2) // -> Data, first bit is MSB of 0x80 = 1

	if p.state != stateData {
		t.Fatalf("expected stateData after Sync2 edge, got %v", p.state)
	}
	wantNext := t2 + StandardOnePulse
	if p.nextEdge != wantNext {
		t.Fatalf("next_edge after entering Data = %d, want %d", p.nextEdge, wantNext)
	}
}

func TestPlayerDataByteThenPause(t *testing.T) {
	blk := NewStandardSpeedBlock([]byte{0xFF}, false, 500)
	p := NewPlayer([]Block{blk})
	p.Play()

	p.Update(0)
	tstate := uint64(2*DataPilotCount) * StandardPilotPulse
	p.Update(tstate) // last pilot edge: enter sync1
	tstate += StandardSync1
	p.Update(tstate) // enter sync2
	tstate += StandardSync2
	p.Update(tstate)    // enter data
	tstate = p.nextEdge // first bit scheduled

	// Walk every edge of the single 0xFF byte: 8 bits * 2 edges each.
	for i := 0; i < 16; i++ {
		p.Update(tstate)
		tstate = p.nextEdge
		if p.state == statePause {
			break
		}
	}

	if p.state != statePause {
		t.Fatalf("expected statePause after the last bit of the only byte, got %v", p.state)
	}
	if p.pauseRemaining != 500*3500 {
		t.Fatalf("pauseRemaining = %d, want %d", p.pauseRemaining, 500*3500)
	}
}

func TestPlayerPauseCountsDownAndAdvancesBlock(t *testing.T) {
	blk1 := Block{Kind: KindPause, PauseMs: 10}
	blk2 := NewStandardSpeedBlock([]byte{0x01}, false, 0)
	p := NewPlayer([]Block{blk1, blk2})
	p.Play()

	p.Update(0)
	if p.state != statePause {
		t.Fatalf("expected immediate Pause from a standalone Pause block, got %v", p.state)
	}

	total := int64(10 * 3500)
	p.Update(uint64(total - 1))
	if p.blockIndex != 0 {
		t.Fatalf("block advanced before pause elapsed")
	}

	p.Update(uint64(total))
	if p.blockIndex != 1 {
		t.Fatalf("expected advance to block 1 once the pause elapsed, got block %d", p.blockIndex)
	}
	if p.state != statePilot {
		t.Fatalf("expected the next block's pilot to start, got %v", p.state)
	}
}

func TestPlayerZeroMsPauseStopsTape(t *testing.T) {
	blk := Block{Kind: KindPause, PauseMs: 0}
	p := NewPlayer([]Block{blk})
	p.Play()
	p.Update(0)
	if p.Playing() {
		t.Fatalf("a zero-duration pause block should stop the tape")
	}
}

func TestPlayerLoopRepeatsBody(t *testing.T) {
	blocks := []Block{
		{Kind: KindLoopStart, LoopCount: 2},
		{Kind: KindPureTone, PulseLength: 100, PulseCount: 1}, // body: a playable block, where beginBlock stops
		{Kind: KindLoopEnd},
		{Kind: KindStopIf48K},
	}
	p := NewPlayer(blocks)
	p.Play()
	p.Update(0)

	if p.blockIndex != 1 {
		t.Fatalf("expected to land on the loop body first, got block %d", p.blockIndex)
	}

	// First pass through LoopEnd: counter 2 -> 1, jumps back into the body.
	p.blockIndex = 2
	p.beginBlock(0)
	if p.blockIndex != 1 {
		t.Fatalf("expected loop to re-enter body, got block %d", p.blockIndex)
	}

	// Second pass: counter 1 -> 0, loop pops and falls through.
	p.blockIndex = 2
	p.beginBlock(0)
	if p.blockIndex != 3 {
		t.Fatalf("expected loop to fall through to block 3, got %d", p.blockIndex)
	}
	if p.Playing() {
		t.Fatalf("StopIf48K block should stop playback")
	}
}

func TestPlayerJumpOffset(t *testing.T) {
	blocks := []Block{
		{Kind: KindJump, JumpOffset: 2},
		{Kind: KindInfo},
		NewStandardSpeedBlock([]byte{0x01}, true, 0),
	}
	p := NewPlayer(blocks)
	p.Play()
	p.Update(0)
	if p.blockIndex != 2 {
		t.Fatalf("expected jump to land on block 2, got %d", p.blockIndex)
	}
}

func TestPlayerMalformedBlockStopsSilently(t *testing.T) {
	blk := NewStandardSpeedBlock(nil, true, 0)
	p := NewPlayer([]Block{blk})
	p.Play()
	p.Update(0)
	if p.Playing() {
		t.Fatalf("a block with no data should end playback silently")
	}
}

func TestPlayerStopAndRewind(t *testing.T) {
	blk := NewStandardSpeedBlock([]byte{0x01}, true, 0)
	p := NewPlayer([]Block{blk})
	p.Play()
	p.Update(0)
	if !p.Playing() {
		t.Fatalf("expected playback to start")
	}

	p.Stop()
	p.Update(1)
	if p.Playing() {
		t.Fatalf("expected Stop to halt playback")
	}

	p.Rewind()
	p.Play()
	p.Update(100)
	if p.blockIndex != 0 || p.state != statePilot {
		t.Fatalf("expected Rewind to restart from block 0 in Pilot, got block %d state %v", p.blockIndex, p.state)
	}
}

func TestPlayerIdleReturnsLastEAR(t *testing.T) {
	p := NewPlayer(nil)
	if got := p.Update(0); got != false {
		t.Fatalf("a never-played Player should report EAR low, got %v", got)
	}
}

func TestPulseSequenceBlock(t *testing.T) {
	blk := Block{Kind: KindPulseSequence, Pulses: []uint32{100, 200, 300}}
	p := NewPlayer([]Block{blk})
	p.Play()
	p.Update(0)
	if p.state != statePulseSequence {
		t.Fatalf("expected statePulseSequence, got %v", p.state)
	}
	if p.nextEdge != 100 {
		t.Fatalf("next_edge = %d, want 100", p.nextEdge)
	}
	p.Update(100)
	if p.nextEdge != 300 {
		t.Fatalf("next_edge after first pulse = %d, want 300", p.nextEdge)
	}
	p.Update(300)
	if p.nextEdge != 600 {
		t.Fatalf("next_edge after second pulse = %d, want 600", p.nextEdge)
	}
}

func TestDirectRecordingTakesBitsMSBFirst(t *testing.T) {
	blk := Block{
		Kind:             KindDirectRecording,
		Data:             []byte{0x80},
		UsedBitsLastByte: 8,
		TStatesPerSample: 79,
	}
	p := NewPlayer([]Block{blk})
	p.Play()
	ear := p.Update(0)
	if ear != true {
		t.Fatalf("first sample should be the MSB (1) of 0x80, got %v", ear)
	}
}
