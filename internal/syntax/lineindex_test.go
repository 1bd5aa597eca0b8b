package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndexRoundTripAscii(t *testing.T) {
	text := "query Q {\n  user {\n    id\n  }\n}\n"
	li := NewLineIndex(text)

	pos := li.PositionFor(12) // 'u' of "user"
	assert.Equal(t, Position{Line: 1, Character: 2}, pos)

	offset := li.ByteOffsetFor(pos)
	assert.Equal(t, 12, offset)
}

func TestLineIndexHandlesSurrogatePairs(t *testing.T) {
	// "😀" is one rune outside the BMP, encoded as two UTF-16 code units.
	text := "# 😀 comment\nquery Q { id }\n"
	li := NewLineIndex(text)

	secondLineStart := len("# 😀 comment\n")
	pos := li.PositionFor(secondLineStart)
	assert.Equal(t, 0, pos.Character)
	assert.Equal(t, 1, pos.Line)

	// character offset of 'c' in "comment" must count the emoji as 2 units.
	commentByte := len("# 😀 ")
	posAtComment := li.PositionFor(commentByte)
	assert.Equal(t, 2+1+2, posAtComment.Character) // "# " + space + 2 emoji units
}

func TestLineIndexClampsOutOfRange(t *testing.T) {
	text := "a\nb\n"
	li := NewLineIndex(text)

	clamped := li.Clamp(Range{
		Start: Position{Line: 50, Character: 50},
		End:   Position{Line: 99, Character: 99},
	})
	maxPos := li.PositionFor(len(text))
	assert.Equal(t, maxPos, clamped.Start)
	assert.Equal(t, maxPos, clamped.End)
}
