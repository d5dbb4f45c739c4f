package machine

import (
	"testing"

	"github.com/zxcore/spectrum48/internal/bus"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	b := bus.New()
	rom := make([]byte, 16384)
	// HALT at the reset vector: every Step past the first charges 4
	// T-states and does nothing else, which is all RunFrame needs to
	// reach its 69,888 T-state target deterministically.
	rom[0] = 0x76
	if err := b.LoadROM(rom); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	return New(b)
}

func TestRunFrameAdvancesAtLeastOneFrameOfTStates(t *testing.T) {
	m := newTestMachine(t)
	before := m.CPU.TStates
	m.RunFrame()
	elapsed := m.CPU.TStates - before
	if elapsed < TStatesPerFrame {
		t.Fatalf("frame advanced %d T-states, want at least %d", elapsed, TStatesPerFrame)
	}
}

func TestRunFrameAcceptsInterruptWhenEnabled(t *testing.T) {
	m := newTestMachine(t)
	m.CPU.IFF1 = true
	m.CPU.IFF2 = true
	m.CPU.SP = 0xFFFF

	m.RunFrame()

	if m.CPU.PC != 0x0038 {
		t.Fatalf("PC after frame-boundary interrupt = %#04x, want 0x0038", m.CPU.PC)
	}
	if m.CPU.IFF1 {
		t.Fatal("expected IFF1 cleared after interrupt acceptance")
	}
}

func TestRunFrameLeavesInterruptPendingWhenDisabled(t *testing.T) {
	m := newTestMachine(t)
	m.CPU.IFF1 = false

	m.RunFrame()

	if m.CPU.PC == 0x0038 {
		t.Fatal("interrupt should not be accepted while IFF1 is false")
	}
	if !m.ULA.IntPending() {
		t.Fatal("expected int_pending to remain set since the CPU never accepted it")
	}
}

func TestFrameCountIncrementsPerFrame(t *testing.T) {
	m := newTestMachine(t)
	m.RunFrame()
	m.EndFrame()
	m.RunFrame()
	if m.FrameCount() != 2 {
		t.Fatalf("FrameCount() = %d, want 2", m.FrameCount())
	}
}

func TestKeyDownReachesULAMatrix(t *testing.T) {
	m := newTestMachine(t)
	m.KeyDown(0, 0)
	if got := m.ULA.Read(0xFEFE); got&0x01 != 0 {
		t.Fatalf("expected bit 0 clear after KeyDown(0,0), got %05b", got&0x1F)
	}
	m.KeyUp(0, 0)
	if got := m.ULA.Read(0xFEFE); got&0x01 == 0 {
		t.Fatalf("expected bit 0 set after KeyUp(0,0), got %05b", got&0x1F)
	}
}

type fakeSink struct {
	edges []struct {
		level bool
		dur   uint32
	}
}

func (f *fakeSink) PushEdge(level bool, dur uint32) {
	f.edges = append(f.edges, struct {
		level bool
		dur   uint32
	}{level, dur})
}

func TestSpeakerEdgesForwardedToSink(t *testing.T) {
	m := newTestMachine(t)
	sink := &fakeSink{}
	m.Sink = sink

	m.ULA.Write(0xFE, 0x00)
	m.RunFrame()
	m.ULA.Write(0xFE, 0x10)
	m.flushSpeakerEdges(new(int))

	if len(sink.edges) == 0 {
		t.Fatal("expected at least one speaker edge forwarded to the sink")
	}
}

func TestSpeakerLevelHeldAcrossFrameBoundaryIsFlushed(t *testing.T) {
	m := newTestMachine(t)
	sink := &fakeSink{}
	m.Sink = sink

	m.ULA.Write(0xFE, 0x10) // raise the speaker level and hold it
	m.RunFrame()

	if len(sink.edges) == 0 {
		t.Fatal("expected the held level to be flushed as a trailing edge at the frame boundary")
	}
	last := sink.edges[len(sink.edges)-1]
	if last.dur == 0 {
		t.Fatalf("expected a nonzero duration for the flushed tail edge, got %d", last.dur)
	}

	var total uint32
	for _, e := range sink.edges {
		total += e.dur
	}
	if total != TStatesPerFrame {
		t.Fatalf("expected flushed edge durations to sum to one full frame (%d), got %d", TStatesPerFrame, total)
	}
}
