// renderer.go - pure ULA display renderer, no feedback into the core
//
// Ported from video_ula.go's RenderFrame/GetBitmapAddress/ParseAttribute,
// adapted from a mutex-guarded 32-bit-bus video peripheral
// into a pure function of (RAM, border, border-change log, flash frame):
// nothing here reads or writes chip state, so a caller can render on any
// goroutine without coordinating with the Frame Driver.
package ula

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

const (
	DisplayWidth  = 256
	DisplayHeight = 192
	CellSize      = 8
	CellsX        = DisplayWidth / CellSize
	CellsY        = DisplayHeight / CellSize

	// BorderX/BorderY give the standard 352x296 Spectrum display including
	// border, asymmetric because the border isn't square on real hardware.
	BorderX = 48
	BorderY = 52

	FrameWidth  = DisplayWidth + 2*BorderX
	FrameHeight = DisplayHeight + 2*BorderY

	attrOffset = 6144

	// FlashFrames is how many 50 Hz frames the FLASH attribute holds each
	// phase: 16 frames on, 16 off, a ~1.6 Hz period.
	FlashFrames = 16
)

// colorNormalRGB and colorBrightRGB are the ZX Spectrum's 8+8 RGB palette;
// black cannot be brightened, so index 0 is identical in both tables.
var colorNormalRGB = [8][3]uint8{
	{0, 0, 0},
	{0, 0, 205},
	{205, 0, 0},
	{205, 0, 205},
	{0, 205, 0},
	{0, 205, 205},
	{205, 205, 0},
	{205, 205, 205},
}

var colorBrightRGB = [8][3]uint8{
	{0, 0, 0},
	{0, 0, 255},
	{255, 0, 0},
	{255, 0, 255},
	{0, 255, 0},
	{0, 255, 255},
	{255, 255, 0},
	{255, 255, 255},
}

// rowStartAddr precomputes the non-linear ZX Spectrum bitmap row address
// for each of the 192 display lines, avoiding the bit-decomposition on
// every pixel.
var rowStartAddr [DisplayHeight]uint16

func init() {
	for y := 0; y < DisplayHeight; y++ {
		rowStartAddr[y] = BitmapAddress(y, 0)
	}
}

// BitmapAddress computes the VRAM offset of the byte holding pixel (x, y),
// using the Spectrum's characteristic non-linear Y decomposition:
// high 2 bits of Y select the third of the screen, low 3 bits select the
// scanline within a character row, middle 3 bits select the character row.
func BitmapAddress(y, x int) uint16 {
	highY := (y & 0xC0) << 5
	lowY := (y & 0x07) << 8
	midY := (y & 0x38) << 2
	return uint16(highY + lowY + midY + x>>3)
}

// AttributeAddress computes the (linear) attribute byte address for the
// character cell at (cellX, cellY).
func AttributeAddress(cellY, cellX int) uint16 {
	return uint16(attrOffset + cellY*CellsX + cellX)
}

// ParseAttribute splits an attribute byte into its four fields.
func ParseAttribute(attr uint8) (ink, paper uint8, bright, flash bool) {
	ink = attr & 0x07
	paper = (attr >> 3) & 0x07
	bright = attr&0x40 != 0
	flash = attr&0x80 != 0
	return
}

func rgbOf(color uint8, bright bool) (r, g, b uint8) {
	idx := color & 0x07
	if bright {
		c := colorBrightRGB[idx]
		return c[0], c[1], c[2]
	}
	c := colorNormalRGB[idx]
	return c[0], c[1], c[2]
}

// Render draws one frame: ram must be the Bus's 48 KiB RAM slice (so
// bitmap/attribute bytes sit at their real offsets 0 and 6144), border is
// the border color in effect before the first logged change, borderLog is
// the frame's ULA.BorderLog() in T-state order, and flashFrame is a
// counter of frames rendered so far (FLASH toggles every FlashFrames of
// it). The border color for a given scanline is whatever the log says was
// most recently written by that scanline's first T-state.
func Render(ram []byte, border uint8, borderLog []BorderChange, flashFrame int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))
	flashOn := (flashFrame/FlashFrames)%2 == 1

	logIdx := 0
	currentBorder := border
	for scanline := 0; scanline < FrameHeight; scanline++ {
		lineStartTState := uint32(scanline * TStatesPerScanline)
		for logIdx < len(borderLog) && borderLog[logIdx].TState <= lineStartTState {
			currentBorder = borderLog[logIdx].Color
			logIdx++
		}
		r, g, b := rgbOf(currentBorder, false)
		fillRow(img, scanline, r, g, b)
	}

	for y := 0; y < DisplayHeight; y++ {
		rowAddr := rowStartAddr[y]
		cellY := y >> 3
		attrRowBase := AttributeAddress(cellY, 0)
		frameY := BorderY + y

		for cellX := 0; cellX < CellsX; cellX++ {
			bitmapByte := ram[int(rowAddr)+cellX]
			attr := ram[int(attrRowBase)+cellX]
			ink, paper, bright, flash := ParseAttribute(attr)

			fg, bg := ink, paper
			if flash && flashOn {
				fg, bg = bg, fg
			}
			fr, fgc, fb := rgbOf(fg, bright)
			br, bgc, bb := rgbOf(bg, bright)

			frameX := BorderX + cellX*CellSize
			for bit := 0; bit < 8; bit++ {
				px := frameX + bit
				if bitmapByte&(0x80>>uint(bit)) != 0 {
					setPixel(img, px, frameY, fr, fgc, fb)
				} else {
					setPixel(img, px, frameY, br, bgc, bb)
				}
			}
		}
	}

	return img
}

func setPixel(img *image.RGBA, x, y int, r, g, b uint8) {
	off := img.PixOffset(x, y)
	img.Pix[off] = r
	img.Pix[off+1] = g
	img.Pix[off+2] = b
	img.Pix[off+3] = 0xFF
}

func fillRow(img *image.RGBA, y int, r, g, b uint8) {
	for x := 0; x < FrameWidth; x++ {
		setPixel(img, x, y, r, g, b)
	}
}

// Scale resizes src to the given output dimensions using the x/image
// nearest-neighbor scaler, matching the blocky, pixel-faithful look a
// ZX Spectrum display is expected to keep under integer and non-integer
// zoom alike.
func Scale(src *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
