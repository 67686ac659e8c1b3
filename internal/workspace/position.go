package workspace

import (
	"bytes"
	"unicode/utf8"
)

// Position is a zero-based line and UTF-16 column, the unit editors use.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Offset converts pos to a byte offset in content. Positions past the end
// of a line clamp to the line end; lines past the end clamp to len(content).
func Offset(content []byte, pos Position) uint32 {
	i := 0
	for line := uint32(0); line < pos.Line; line++ {
		nl := bytes.IndexByte(content[i:], '\n')
		if nl < 0 {
			return uint32(len(content))
		}
		i += nl + 1
	}

	for units := uint32(0); i < len(content) && units < pos.Character; {
		r, size := utf8.DecodeRune(content[i:])
		if r == '\n' || r == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			break
		}
		units += utf16Len(r)
		if units > pos.Character {
			break
		}
		i += size
	}
	return uint32(i)
}

// PositionAt converts a byte offset in content to a position.
func PositionAt(content []byte, offset uint32) Position {
	if int(offset) > len(content) {
		offset = uint32(len(content))
	}
	var pos Position
	lineStart := 0
	for i := 0; i < int(offset); i++ {
		if content[i] == '\n' {
			pos.Line++
			lineStart = i + 1
		}
	}
	for i := lineStart; i < int(offset); {
		r, size := utf8.DecodeRune(content[i:])
		pos.Character += utf16Len(r)
		i += size
	}
	return pos
}

func utf16Len(r rune) uint32 {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
