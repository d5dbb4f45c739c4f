// beeper.go - beeper edge stream to fixed-rate PCM resampler
//
// A collaborator, not part of the cycle-accurate core: Beeper consumes the
// (level, duration_tstates) edges the Frame Driver discovers each frame and
// expands them into a ring buffer of float32 samples at a fixed output rate,
// pulled by an io.Reader-shaped audio sink. Grounded on audio_backend_oto.go's
// OtoPlayer.Read: a mutex-protected ring buffer fed by
// one producer and drained by the audio backend's own callback goroutine,
// generalised from a polyphonic SoundChip source to a single square-wave
// beeper edge source.
package audio

import (
	"math"
	"sync"
)

// cpuHz is the Spectrum's clock rate; edges arrive as a T-state duration
// and are converted to samples against this rate and the output sample rate.
const cpuHz = 3500000

// Beeper turns PushEdge calls into a float32 PCM stream. Zero value is not
// usable; construct with NewBeeper.
type Beeper struct {
	sampleRate int
	level      float32

	mu        sync.Mutex
	ring      []float32
	head      int
	tail      int
	count     int
	remainder int64 // fractional sample (in 1/cpuHz units) carried to the next edge to avoid drift
}

// NewBeeper creates a Beeper emitting PCM at sampleRate Hz, buffering up to
// capacity samples before PushEdge starts dropping the oldest ones.
func NewBeeper(sampleRate, capacity int) *Beeper {
	return &Beeper{
		sampleRate: sampleRate,
		ring:       make([]float32, capacity),
	}
}

// PushEdge appends durationTStates worth of samples at the speaker level
// that held for that duration. level is the level that was active for the
// duration just ending, matching ula.SpeakerEdge's field meaning.
func (b *Beeper) PushEdge(level bool, durationTStates uint32) {
	amplitude := float32(-0.25)
	if level {
		amplitude = 0.25
	}

	total := int64(durationTStates)*int64(b.sampleRate) + b.remainder
	n := total / cpuHz
	b.remainder = total % cpuHz

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := int64(0); i < n; i++ {
		b.push(amplitude)
	}
}

// push writes one sample into the ring buffer, overwriting the oldest
// sample if the buffer is full; caller must hold b.mu.
func (b *Beeper) push(sample float32) {
	if len(b.ring) == 0 {
		return
	}
	if b.count == len(b.ring) {
		b.head = (b.head + 1) % len(b.ring)
		b.count--
	}
	b.ring[b.tail] = sample
	b.tail = (b.tail + 1) % len(b.ring)
	b.count++
}

// Read implements io.Reader over a little-endian float32 PCM stream,
// matching the sample encoding oto.NewContext expects with FormatFloat32LE.
// Underruns are padded with silence rather than blocking, so a slow Frame
// Driver never stalls audio playback.
func (b *Beeper) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	numSamples := len(p) / 4
	for i := 0; i < numSamples; i++ {
		var sample float32
		if b.count > 0 {
			sample = b.ring[b.head]
			b.head = (b.head + 1) % len(b.ring)
			b.count--
		}
		putFloat32LE(p[i*4:i*4+4], sample)
	}
	return numSamples * 4, nil
}

// Buffered reports how many samples are currently queued, used by tests and
// by the host to size its audio buffer.
func (b *Beeper) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func putFloat32LE(dst []byte, f float32) {
	bits := math.Float32bits(f)
	dst[0] = byte(bits)
	dst[1] = byte(bits >> 8)
	dst[2] = byte(bits >> 16)
	dst[3] = byte(bits >> 24)
}
