// machine.go - the Frame Driver: the outer loop tying Bus, ULA, TapePlayer
// and the Z80 core together into one 50 Hz frame
//
// Grounded on cpu_z80_runner.go's CPUZ80Runner: a thin owner
// of the CPU plus a start/stop lifecycle around a driving loop, adapted
// from a free-running goroutine into an explicit one-frame-at-a-time call
// so the host controls pacing (vsync, audio buffer backpressure, single-
// stepping a debugger) rather than the driver sleeping internally.
package machine

import (
	"github.com/zxcore/spectrum48/internal/bus"
	"github.com/zxcore/spectrum48/internal/tape"
	"github.com/zxcore/spectrum48/internal/ula"
	"github.com/zxcore/spectrum48/internal/z80"
)

// TStatesPerFrame is the Spectrum's defining constant: 69,888 T-states
// produce one 50 Hz frame from the 3.5 MHz clock.
const TStatesPerFrame = 69888

// busAdapter implements z80.Bus by fanning memory accesses to the Bus and
// I/O accesses to the ULA, charging contention from the ULA's current
// scanline position.
type busAdapter struct {
	bus *bus.Bus
	ula *ula.ULA
}

func (a *busAdapter) Read(addr uint16) byte  { return a.bus.Read8(addr) }
func (a *busAdapter) Write(addr uint16, v byte) { a.bus.Write8(addr, v) }

func (a *busAdapter) In(port uint16) byte {
	return bus.PortIn(port, a.ula)
}

func (a *busAdapter) Out(port uint16, v byte) {
	bus.PortOut(port, v, a.ula)
}

func (a *busAdapter) ContentionDelay(addr uint16) int {
	return bus.ContentionDelay(addr, a.ula.Scanline(), a.ula.ScanlineTState())
}

// SpeakerSink receives beeper edges as the Frame Driver discovers them;
// an audio resampler (internal/audio) is the usual implementation.
type SpeakerSink interface {
	PushEdge(level bool, durationTStates uint32)
}

// Machine owns the CPU, Bus, ULA and TapePlayer for the lifetime of the
// emulation and drives them one frame at a time.
type Machine struct {
	CPU    *z80.CPU
	Bus    *bus.Bus
	ULA    *ula.ULA
	Tape   *tape.Player
	Sink   SpeakerSink

	adapter    *busAdapter
	frameCount int
}

// New wires a Machine around a Bus that already has a ROM loaded.
func New(b *bus.Bus) *Machine {
	u := ula.New()
	m := &Machine{
		CPU:     z80.New(),
		Bus:     b,
		ULA:     u,
		Tape:    tape.NewPlayer(nil),
		adapter: &busAdapter{bus: b, ula: u},
	}
	return m
}

// LoadTape replaces the current tape with a freshly parsed block sequence.
func (m *Machine) LoadTape(blocks []tape.Block) {
	m.Tape = tape.NewPlayer(blocks)
}

// RunFrame advances the machine by one 50 Hz frame (at least 69,888
// T-states; the last instruction may run past the target): step the CPU
// one instruction at a time, feed the tape's EAR
// bit to the ULA, tick the ULA's scanline counter, forward speaker edges
// to the sink, flush the trailing speaker interval up to the frame boundary,
// and finally accept the frame-boundary interrupt.
func (m *Machine) RunFrame() {
	target := m.CPU.TStates + TStatesPerFrame
	lastSpeakerCount := len(m.ULA.SpeakerLog())

	for m.CPU.TStates < target {
		before := m.CPU.TStates
		m.CPU.Step(m.adapter)
		elapsed := int(m.CPU.TStates - before)

		ear := m.Tape.Update(m.CPU.TStates)
		m.ULA.SetEarIn(ear)
		m.ULA.Tick(elapsed)

		m.flushSpeakerEdges(&lastSpeakerCount)
	}

	m.ULA.FlushSpeaker()
	m.flushSpeakerEdges(&lastSpeakerCount)

	if m.ULA.IntPending() && m.CPU.Accept(m.adapter) {
		m.ULA.ClearInt()
	}
	m.frameCount++
}

// flushSpeakerEdges forwards any speaker-log entries appended since the
// last flush to the sink, in order.
func (m *Machine) flushSpeakerEdges(seen *int) {
	if m.Sink == nil {
		*seen = len(m.ULA.SpeakerLog())
		return
	}
	log := m.ULA.SpeakerLog()
	for _, edge := range log[*seen:] {
		m.Sink.PushEdge(edge.Level, edge.Duration)
	}
	*seen = len(log)
}

// FrameCount returns the number of frames run so far, used by the
// renderer to drive the FLASH attribute's toggle timing.
func (m *Machine) FrameCount() int {
	return m.frameCount
}

// EndFrame clears the ULA's per-frame border/speaker logs; called by the
// host after it has consumed RunFrame's output (rendered the frame,
// drained the speaker log) so the next RunFrame starts with empty logs.
func (m *Machine) EndFrame() {
	m.ULA.NewFrame()
}

// KeyDown and KeyUp forward to the ULA's keyboard matrix.
func (m *Machine) KeyDown(row, col int) { m.ULA.KeyDown(row, col) }
func (m *Machine) KeyUp(row, col int)   { m.ULA.KeyUp(row, col) }
func (m *Machine) ReleaseAllKeys()      { m.ULA.ReleaseAll() }
