// game.go - ebiten.Game wiring around the Frame Driver
//
// Grounded on video_backend_ebiten.go's EbitenOutput: Update
// scans input and steps the emulated machine, Draw blits the last rendered
// frame, Layout reports the fixed logical size. Audio is wired the same way
// audio_backend_oto.go wires OtoPlayer: the oto.Player's Read callback pulls
// from a buffer the emulation side fills, here internal/audio.Beeper instead
// of SoundChip.ReadSampleFromRing.
package main

import (
	"image"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/zxcore/spectrum48/internal/audio"
	"github.com/zxcore/spectrum48/internal/machine"
	"github.com/zxcore/spectrum48/internal/ula"
)

const sampleRate = 44100

// Game drives one Machine per 50 Hz tick and presents its rendered frame.
type Game struct {
	machine *machine.Machine
	beeper  *audio.Beeper
	player  *oto.Player

	scale int
	frame *image.RGBA

	clipboardOK bool
	paste       *pasteQueue
}

// NewGame wires a Machine, its audio sink, and the oto playback context.
func NewGame(m *machine.Machine, scale int) (*Game, error) {
	beeper := audio.NewBeeper(sampleRate, sampleRate) // 1 second of headroom
	m.Sink = beeper

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4096,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	g := &Game{
		machine:     m,
		beeper:      beeper,
		scale:       scale,
		paste:       newPasteQueue(),
		clipboardOK: clipboard.Init() == nil,
	}
	g.player = ctx.NewPlayer(beeper)
	g.player.Play()
	return g, nil
}

// Update steps exactly one emulated frame, syncs the keyboard matrix from
// ebiten's input state, and services a pending clipboard paste.
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyControlLeft) && ebiten.IsKeyPressed(ebiten.KeyShiftLeft) &&
		inpututil.IsKeyJustPressed(ebiten.KeyV) {
		pasteFromClipboard(g.clipboardOK, g.paste)
	}

	syncKeyboard(g.machine)
	if g.paste.Pending() {
		g.paste.Drive(g.machine)
	}

	g.machine.RunFrame()
	g.frame = ula.Scale(
		ula.Render(g.machine.Bus.RAM(), g.machine.ULA.Border(), g.machine.ULA.BorderLog(), g.machine.FrameCount()),
		ula.FrameWidth*g.scale, ula.FrameHeight*g.scale,
	)
	g.machine.EndFrame()
	return nil
}

// Draw blits the most recently rendered frame.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		return
	}
	img := ebiten.NewImageFromImage(g.frame)
	screen.DrawImage(img, nil)
}

// Layout reports the fixed logical screen size: the Spectrum frame scaled
// by the configured window scale factor.
func (g *Game) Layout(_, _ int) (int, int) {
	return ula.FrameWidth * g.scale, ula.FrameHeight * g.scale
}

// Close releases the audio player.
func (g *Game) Close() {
	if g.player != nil {
		g.player.Close()
	}
}
