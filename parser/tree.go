package parser

import (
	"iter"
	"sort"

	"github.com/dhamidi/vbsitter/language"
)

// Tree is the result of a parse. Trees are immutable; Edit returns a new
// tree that shares every untouched subtree with its receiver.
type Tree struct {
	lang *language.Language
	root *subtree
	// source is nil for trees produced by Edit.
	source []byte
	// trailing is the trivia after the last token.
	trailing uint32
	lines    []uint32
}

func newTree(lang *language.Language, root *subtree, source []byte) *Tree {
	t := &Tree{lang: lang, root: root, source: source}
	if n := uint32(len(source)); n > root.total() {
		t.trailing = n - root.total()
	}
	t.lines = lineStarts(source)
	return t
}

func lineStarts(source []byte) []uint32 {
	lines := []uint32{0}
	for i, b := range source {
		if b == '\n' {
			lines = append(lines, uint32(i+1))
		}
	}
	return lines
}

func (t *Tree) Language() *language.Language { return t.lang }

// RootNode spans the whole input, including leading and trailing trivia.
func (t *Tree) RootNode() *Node {
	return &Node{tree: t, sub: t.root}
}

// Len is the length of the input the tree describes.
func (t *Tree) Len() uint32 { return t.root.total() + t.trailing }

// Source returns the parsed input, or nil when the tree was produced by
// Edit and has not been reparsed.
func (t *Tree) Source() []byte { return t.source }

// HasError reports whether the tree contains ERROR nodes.
func (t *Tree) HasError() bool { return t.root.hasError }

// PointAt converts a byte offset to a row and column. Trees without source
// report every offset on row zero.
func (t *Tree) PointAt(offset uint32) Point {
	if len(t.lines) == 0 {
		return Point{Column: offset}
	}
	row := sort.Search(len(t.lines), func(i int) bool { return t.lines[i] > offset }) - 1
	return Point{Row: uint32(row), Column: offset - t.lines[row]}
}

// Walk yields every visible node in pre-order. The sequence is lazy and can
// be ranged over any number of times.
func (t *Tree) Walk() iter.Seq[*Node] {
	return t.RootNode().Walk()
}

// Errors returns the outermost ERROR nodes.
func (t *Tree) Errors() []*Node {
	var out []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if !n.HasError() {
			return
		}
		if n.IsError() {
			out = append(out, n)
			return
		}
		for c := range n.children() {
			visit(c)
		}
	}
	visit(t.RootNode())
	return out
}

func (t *Tree) String() string { return t.RootNode().String() }
