// keymap.go - host keyboard to Spectrum keyboard matrix translation
//
// Grounded on video_backend_ebiten.go's handleKeyboardInput/runeToInputByte:
// per-frame scan of ebiten's pressed-key state
// translated into emulator input. There the target was a single-byte
// terminal input stream; here it is the Spectrum's 8x5 matrix, so a rune
// maps to one or two (row, col) cells (Sym Shift or Caps Shift held
// alongside the letter) instead of one byte.
package main

import "github.com/hajimehoshi/ebiten/v2"

type matrixKey struct {
	row, col int
}

var (
	capsShift = matrixKey{0, 0}
	symShift  = matrixKey{7, 1}
)

// letterKeys maps A-Z to their matrix cell; the Spectrum keyboard has no
// separate shift state for letters, ebiten reports the same ebiten.Key
// regardless of host shift, so capitalisation is irrelevant here.
var letterKeys = map[ebiten.Key]matrixKey{
	ebiten.KeyA: {1, 0}, ebiten.KeyS: {1, 1}, ebiten.KeyD: {1, 2}, ebiten.KeyF: {1, 3}, ebiten.KeyG: {1, 4},
	ebiten.KeyQ: {2, 0}, ebiten.KeyW: {2, 1}, ebiten.KeyE: {2, 2}, ebiten.KeyR: {2, 3}, ebiten.KeyT: {2, 4},
	ebiten.KeyP: {5, 0}, ebiten.KeyO: {5, 1}, ebiten.KeyI: {5, 2}, ebiten.KeyU: {5, 3}, ebiten.KeyY: {5, 4},
	ebiten.KeyL: {6, 1}, ebiten.KeyK: {6, 2}, ebiten.KeyJ: {6, 3}, ebiten.KeyH: {6, 4},
	ebiten.KeyM: {7, 2}, ebiten.KeyN: {7, 3}, ebiten.KeyB: {7, 4},
	ebiten.KeyZ: {0, 1}, ebiten.KeyX: {0, 2}, ebiten.KeyC: {0, 3}, ebiten.KeyV: {0, 4},
}

// digitKeys maps 0-9 to their matrix cell, the high byte's row-3/row-4
// split the Spectrum's keyboard ROM uses (1-5 on row 3, 0/9-6 on row 4).
var digitKeys = map[ebiten.Key]matrixKey{
	ebiten.Key1: {3, 0}, ebiten.Key2: {3, 1}, ebiten.Key3: {3, 2}, ebiten.Key4: {3, 3}, ebiten.Key5: {3, 4},
	ebiten.Key0: {4, 0}, ebiten.Key9: {4, 1}, ebiten.Key8: {4, 2}, ebiten.Key7: {4, 3}, ebiten.Key6: {4, 4},
}

var otherKeys = map[ebiten.Key]matrixKey{
	ebiten.KeyEnter:      {6, 0},
	ebiten.KeySpace:      {7, 0},
	ebiten.KeyShiftLeft:  capsShift,
	ebiten.KeyShiftRight: capsShift,
}

// cursorKeys mirrors the real 48K convention of reading the arrow keys as
// Caps Shift held with a digit key (no dedicated cursor-key hardware).
var cursorKeys = map[ebiten.Key]matrixKey{
	ebiten.KeyArrowLeft:  {3, 4}, // Caps Shift + 5
	ebiten.KeyArrowDown:  {4, 4}, // Caps Shift + 6
	ebiten.KeyArrowUp:    {4, 3}, // Caps Shift + 7
	ebiten.KeyArrowRight: {4, 2}, // Caps Shift + 8
}

// syncKeyboard applies every host key held this frame to the ULA's matrix
// once per Update so overlapping keys (shift + letter)
// combine correctly instead of one press clobbering another.
func syncKeyboard(ula keyboardDevice) {
	ula.ReleaseAllKeys()

	for key, cell := range letterKeys {
		if ebiten.IsKeyPressed(key) {
			ula.KeyDown(cell.row, cell.col)
		}
	}
	for key, cell := range digitKeys {
		if ebiten.IsKeyPressed(key) {
			ula.KeyDown(cell.row, cell.col)
		}
	}
	for key, cell := range otherKeys {
		if ebiten.IsKeyPressed(key) {
			ula.KeyDown(cell.row, cell.col)
		}
	}
	for key, cell := range cursorKeys {
		if ebiten.IsKeyPressed(key) {
			ula.KeyDown(capsShift.row, capsShift.col)
			ula.KeyDown(cell.row, cell.col)
		}
	}
	if ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		ula.KeyDown(symShift.row, symShift.col)
	}
}

// keyboardDevice is the subset of *machine.Machine syncKeyboard needs,
// narrowed so this file can be exercised without a live ebiten context.
type keyboardDevice interface {
	KeyDown(row, col int)
	ReleaseAllKeys()
}

// letterRune and digitRune recover the character a key press/paste targets,
// used by pasteboard.go to drive the same matrix tables syncKeyboard uses.
func letterRune(key ebiten.Key) rune {
	switch key {
	case ebiten.KeyA:
		return 'A'
	case ebiten.KeyB:
		return 'B'
	case ebiten.KeyC:
		return 'C'
	case ebiten.KeyD:
		return 'D'
	case ebiten.KeyE:
		return 'E'
	case ebiten.KeyF:
		return 'F'
	case ebiten.KeyG:
		return 'G'
	case ebiten.KeyH:
		return 'H'
	case ebiten.KeyI:
		return 'I'
	case ebiten.KeyJ:
		return 'J'
	case ebiten.KeyK:
		return 'K'
	case ebiten.KeyL:
		return 'L'
	case ebiten.KeyM:
		return 'M'
	case ebiten.KeyN:
		return 'N'
	case ebiten.KeyO:
		return 'O'
	case ebiten.KeyP:
		return 'P'
	case ebiten.KeyQ:
		return 'Q'
	case ebiten.KeyR:
		return 'R'
	case ebiten.KeyS:
		return 'S'
	case ebiten.KeyT:
		return 'T'
	case ebiten.KeyU:
		return 'U'
	case ebiten.KeyV:
		return 'V'
	case ebiten.KeyW:
		return 'W'
	case ebiten.KeyX:
		return 'X'
	case ebiten.KeyY:
		return 'Y'
	case ebiten.KeyZ:
		return 'Z'
	default:
		return 0
	}
}

func digitRune(key ebiten.Key) rune {
	switch key {
	case ebiten.Key0:
		return '0'
	case ebiten.Key1:
		return '1'
	case ebiten.Key2:
		return '2'
	case ebiten.Key3:
		return '3'
	case ebiten.Key4:
		return '4'
	case ebiten.Key5:
		return '5'
	case ebiten.Key6:
		return '6'
	case ebiten.Key7:
		return '7'
	case ebiten.Key8:
		return '8'
	case ebiten.Key9:
		return '9'
	default:
		return 0
	}
}
