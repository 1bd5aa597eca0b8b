// Package syntax turns file text into parse trees, line indices, and (for
// host-language files) extracted GraphQL blocks with offset maps back to
// the host file.
package syntax

// Position is a zero-based (line, UTF-16 code unit) pair, matching the
// engine's external position contract (§6.A, §7).
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) pair.
type Range struct {
	Start Position
	End   Position
}

// LineIndex maps byte offsets in a specific text to (line, utf16-character)
// positions and back: a binary search over a precomputed line-start table
// finds the line in O(log n), then a per-line scan finds the UTF-16
// column. Lookups are not O(1).
type LineIndex struct {
	text       string
	lineStarts []int // byte offset of the first byte of each line
}

// NewLineIndex builds the line-start table for text. Construction is O(n)
// in the length of text; lookups are O(log n) for the line plus O(line
// length) for the UTF-16 column within that line.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, lineStarts: starts}
}

// PositionFor converts a byte offset into a Position. Offsets outside the
// text are clamped to the nearest valid position rather than dropped,
// honoring the "diagnostic ranges are always within extent" invariant
// (§3, Invariants).
func (li *LineIndex) PositionFor(byteOffset int) Position {
	if byteOffset < 0 {
		byteOffset = 0
	}
	if byteOffset > len(li.text) {
		byteOffset = len(li.text)
	}

	line := li.lineForOffset(byteOffset)
	lineStart := li.lineStarts[line]
	col := utf16Len(li.text[lineStart:byteOffset])
	return Position{Line: line, Character: col}
}

// ByteOffsetFor converts a Position back into a byte offset, clamping a
// character count beyond the line's length to the line's end and a line
// number beyond the text to the final position.
func (li *LineIndex) ByteOffsetFor(pos Position) int {
	line := pos.Line
	if line < 0 {
		line = 0
	}
	if line >= len(li.lineStarts) {
		return len(li.text)
	}
	lineStart := li.lineStarts[line]
	lineEnd := len(li.text)
	if line+1 < len(li.lineStarts) {
		lineEnd = li.lineStarts[line+1]
	}
	lineText := li.text[lineStart:lineEnd]

	units := 0
	for i, r := range lineText {
		if units >= pos.Character {
			return lineStart + i
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return lineEnd
}

func (li *LineIndex) lineForOffset(byteOffset int) int {
	lo, hi := 0, len(li.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.lineStarts[mid] <= byteOffset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// utf16Len counts UTF-16 code units in s, correctly counting surrogate
// pairs for runes outside the basic multilingual plane (emoji, some CJK
// extensions).
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Clamp restricts a Range to lie within [0, textLen] in line/character
// terms, as measured by li. Used so that a diagnostic whose source range
// was computed against stale text never escapes the current text extent
// (§3 Invariants: "out-of-range ranges are clamped rather than dropped").
func (li *LineIndex) Clamp(r Range) Range {
	maxPos := li.PositionFor(len(li.text))
	clampPos := func(p Position) Position {
		if p.Line > maxPos.Line || (p.Line == maxPos.Line && p.Character > maxPos.Character) {
			return maxPos
		}
		if p.Line < 0 {
			return Position{}
		}
		return p
	}
	start := clampPos(r.Start)
	end := clampPos(r.End)
	if end.Line < start.Line || (end.Line == start.Line && end.Character < start.Character) {
		end = start
	}
	return Range{Start: start, End: end}
}
