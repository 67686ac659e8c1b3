package parser

import (
	"bytes"
	"fmt"
)

// Edit describes replacing the bytes [StartByte, OldEndByte) of the old
// input with NewEndByte-StartByte bytes of new text. Points are optional and
// only informational.
type Edit struct {
	StartByte   uint32
	OldEndByte  uint32
	NewEndByte  uint32
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

func (e Edit) String() string {
	return fmt.Sprintf("edit [%d,%d) -> [%d,%d)", e.StartByte, e.OldEndByte, e.StartByte, e.NewEndByte)
}

// NewEdit describes replacing source[start:oldEnd] with replacement and
// returns the edit together with the new text.
func NewEdit(source []byte, start, oldEnd uint32, replacement []byte) (Edit, []byte) {
	n := uint32(len(source))
	start = min(start, n)
	oldEnd = min(max(oldEnd, start), n)

	next := make([]byte, 0, len(source)-int(oldEnd-start)+len(replacement))
	next = append(next, source[:start]...)
	next = append(next, replacement...)
	next = append(next, source[oldEnd:]...)

	e := Edit{
		StartByte:   start,
		OldEndByte:  oldEnd,
		NewEndByte:  start + uint32(len(replacement)),
		StartPoint:  pointIn(source, start),
		OldEndPoint: pointIn(source, oldEnd),
	}
	e.NewEndPoint = pointIn(next, e.NewEndByte)
	return e, next
}

func pointIn(source []byte, offset uint32) Point {
	head := source[:offset]
	row := bytes.Count(head, []byte{'\n'})
	col := offset
	if i := bytes.LastIndexByte(head, '\n'); i >= 0 {
		col = offset - uint32(i) - 1
	}
	return Point{Row: uint32(row), Column: col}
}

// mapOffset moves an old offset to its position after the edit. Offsets
// inside the replaced range collapse onto the end of the new text.
func (e Edit) mapOffset(x uint32) uint32 {
	switch {
	case x <= e.StartByte:
		return x
	case x >= e.OldEndByte:
		return x + e.NewEndByte - e.OldEndByte
	default:
		return e.NewEndByte
	}
}

// Edit returns a tree describing the input after e. The receiver is not
// modified. Nodes touching the edit are copied with adjusted extents and
// marked damaged; all others are shared. The returned tree has no source
// and is meant to be passed to the next parse.
func (t *Tree) Edit(e Edit) *Tree {
	n := t.Len()
	e.StartByte = min(e.StartByte, n)
	e.OldEndByte = min(max(e.OldEndByte, e.StartByte), n)
	e.NewEndByte = max(e.NewEndByte, e.StartByte)

	from := damageFrom(t.root, e.StartByte)
	root := editSubtree(t.root, 0, e, from)

	next := &Tree{lang: t.lang, root: root}
	if size := n - e.OldEndByte + e.NewEndByte; size > root.total() {
		next.trailing = size - root.total()
	}
	return next
}

// damageFrom is where damage starts: the start, including padding, of the
// last leaf that starts at or before offset. Damaging the token before an
// edit covers the lookahead it was reduced with.
func damageFrom(root *subtree, offset uint32) uint32 {
	s, off := root, uint32(0)
	for !s.isLeaf() {
		next, nextOff := (*subtree)(nil), off
		pos := off
		for _, c := range s.children {
			if pos > offset {
				break
			}
			next, nextOff = c, pos
			pos += c.total()
		}
		if next == nil {
			return off
		}
		s, off = next, nextOff
	}
	return off
}

func editSubtree(s *subtree, offset uint32, e Edit, from uint32) *subtree {
	end := offset + s.total()
	if end < from || offset > e.OldEndByte {
		return s
	}
	c := *s
	c.damaged = true
	if s.isLeaf() {
		start := offset + s.padding
		newOffset := e.mapOffset(offset)
		newStart := e.mapOffset(start)
		c.padding = newStart - newOffset
		c.size = e.mapOffset(end) - newStart
		return &c
	}
	c.children = make([]*subtree, len(s.children))
	pos := offset
	for i, child := range s.children {
		c.children[i] = editSubtree(child, pos, e, from)
		pos += child.total()
	}
	var total uint32
	for _, child := range c.children {
		total += child.total()
	}
	c.padding = c.children[0].padding
	c.size = total - c.padding
	return &c
}
