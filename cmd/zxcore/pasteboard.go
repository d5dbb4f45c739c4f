// pasteboard.go - paste the host clipboard into the emulated keyboard buffer
//
// Grounded on video_backend_ebiten.go's handleClipboardPaste/
// normalizePasteText/capPasteText: Ctrl+Shift+V reads clipboard.FmtText,
// normalizes CRLF to LF, caps the length, then feeds it through the same
// per-character input path as a typed key. Here "the input path" is the
// Spectrum keyboard matrix instead of a single-byte terminal stream, so each
// character becomes a short queued sequence of matrix presses spread across
// frames rather than one immediate byte.
package main

import "golang.design/x/clipboard"

const maxPasteLen = 4096

// pasteQueue holds matrix cells still waiting to be pressed, one rune's
// worth (1-2 cells) at the front; Drive consumes it a step per call.
type pasteQueue struct {
	cells       []matrixKey
	holdFrames  int
	framesLeft  int
	initialized bool
}

func newPasteQueue() *pasteQueue {
	return &pasteQueue{holdFrames: 2}
}

// Enqueue appends the matrix cells needed to type text, one rune at a time.
func (q *pasteQueue) Enqueue(text []byte) {
	text = normalizePasteText(text)
	if len(text) > maxPasteLen {
		text = text[:maxPasteLen]
	}
	for _, b := range text {
		if cells, ok := runeToCells(rune(b)); ok {
			q.cells = append(q.cells, cells...)
		}
	}
}

// Pending reports whether the queue still has keystrokes to deliver.
func (q *pasteQueue) Pending() bool {
	return len(q.cells) > 0
}

// Drive presses the next queued rune's cells (a queued Caps Shift is held
// together with the letter after it) if the previous rune has been held for
// holdFrames frames, otherwise re-asserts the current ones; it is called
// once per Update so a long paste spreads naturally across many frames
// instead of pressing every key within a single scanline.
func (q *pasteQueue) Drive(ula keyboardDevice) {
	if len(q.cells) == 0 {
		return
	}
	if q.framesLeft <= 0 {
		q.framesLeft = q.holdFrames
	}
	held := 1
	ula.KeyDown(q.cells[0].row, q.cells[0].col)
	if q.cells[0] == capsShift && len(q.cells) > 1 {
		ula.KeyDown(q.cells[1].row, q.cells[1].col)
		held = 2
	}
	q.framesLeft--
	if q.framesLeft <= 0 {
		q.cells = q.cells[held:]
	}
}

// normalizePasteText collapses CRLF to LF so a paste from a Windows host
// doesn't inject a stray carriage return before every newline.
func normalizePasteText(raw []byte) []byte {
	norm := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\r' {
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			norm = append(norm, '\n')
			continue
		}
		norm = append(norm, raw[i])
	}
	return norm
}

// runeToCells maps one ASCII character to the matrix cell(s) that type it,
// holding Caps Shift for uppercase letters (the Spectrum has no separate
// shift-state latch the host can drive; the matrix cell is held directly).
func runeToCells(r rune) ([]matrixKey, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return lookupLetter(r - 'a' + 'A')
	case r >= 'A' && r <= 'Z':
		cells, ok := lookupLetter(r)
		if !ok {
			return nil, false
		}
		return append([]matrixKey{capsShift}, cells...), true
	case r >= '0' && r <= '9':
		cell, ok := lookupDigit(r)
		if !ok {
			return nil, false
		}
		return []matrixKey{cell}, true
	case r == ' ':
		return []matrixKey{{7, 0}}, true
	case r == '\n':
		return []matrixKey{{6, 0}}, true
	default:
		return nil, false
	}
}

func lookupLetter(upper rune) ([]matrixKey, bool) {
	for key, cell := range letterKeys {
		if letterRune(key) == upper {
			return []matrixKey{cell}, true
		}
	}
	return nil, false
}

func lookupDigit(r rune) (matrixKey, bool) {
	for key, cell := range digitKeys {
		if digitRune(key) == r {
			return cell, true
		}
	}
	return matrixKey{}, false
}

// pasteFromClipboard reads the host clipboard as text and queues it for
// typing; it is a no-op if the clipboard backend failed to initialize or
// holds no text.
func pasteFromClipboard(clipboardOK bool, q *pasteQueue) {
	if !clipboardOK {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return
	}
	q.Enqueue(data)
}
