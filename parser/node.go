package parser

import (
	"fmt"
	"iter"
	"strings"

	"github.com/dhamidi/vbsitter/language"
)

// Point is a zero-based row and byte column.
type Point struct {
	Row    uint32
	Column uint32
}

func (p Point) String() string { return fmt.Sprintf("%d:%d", p.Row+1, p.Column+1) }

// Node is a view of a subtree at its absolute position in a tree. Nodes are
// cheap to create and are not retained by the tree; the parent link is only
// valid for the node it was obtained from.
type Node struct {
	tree   *Tree
	sub    *subtree
	offset uint32
	parent *Node
	field  language.FieldID
}

func (n *Node) Tree() *Tree { return n.tree }

func (n *Node) Symbol() language.Symbol { return n.sub.symbol }

func (n *Node) Type() string { return n.tree.lang.SymbolName(n.sub.symbol) }

func (n *Node) IsNamed() bool { return n.tree.lang.Symbol(n.sub.symbol).Named }

func (n *Node) IsError() bool { return n.sub.isError() }

func (n *Node) IsExtra() bool { return n.sub.extra && !n.sub.isError() }

// HasError reports whether the node is or contains an ERROR node.
func (n *Node) HasError() bool { return n.sub.hasError }

// StartByte is where the node's content starts. The root starts at zero.
func (n *Node) StartByte() uint32 {
	if n.parent == nil {
		return 0
	}
	return n.offset + n.sub.padding
}

// EndByte is where the node's content ends. The root ends at the end of
// the input.
func (n *Node) EndByte() uint32 {
	if n.parent == nil {
		return n.tree.Len()
	}
	return n.offset + n.sub.padding + n.sub.size
}

func (n *Node) StartPoint() Point { return n.tree.PointAt(n.StartByte()) }

func (n *Node) EndPoint() Point { return n.tree.PointAt(n.EndByte()) }

// Text returns the node's source. Trees produced by Edit have no source.
func (n *Node) Text() string {
	if n.tree.source == nil {
		return ""
	}
	return string(n.tree.source[n.StartByte():n.EndByte()])
}

// Parent returns nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// FieldName is the field under which the node appears in its parent.
func (n *Node) FieldName() string { return n.tree.lang.FieldName(n.field) }

func (n *Node) visible(s *subtree) bool {
	return s.isError() || n.tree.lang.Symbol(s.symbol).Visible
}

// children yields the visible children in order.
func (n *Node) children() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		off := n.offset
		for i, c := range n.sub.children {
			start := off
			off += c.total()
			if !n.visible(c) {
				continue
			}
			if !yield(&Node{tree: n.tree, sub: c, offset: start, parent: n, field: n.sub.fieldAt(i)}) {
				return
			}
		}
	}
}

func (n *Node) ChildCount() int {
	count := 0
	for _, c := range n.sub.children {
		if n.visible(c) {
			count++
		}
	}
	return count
}

// Child returns the i-th visible child, or nil.
func (n *Node) Child(i int) *Node {
	for c := range n.children() {
		if i == 0 {
			return c
		}
		i--
	}
	return nil
}

func (n *Node) Children() []*Node {
	var out []*Node
	for c := range n.children() {
		out = append(out, c)
	}
	return out
}

func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for c := range n.children() {
		if c.IsNamed() {
			out = append(out, c)
		}
	}
	return out
}

// ChildByFieldName returns the first child stored under name, or nil.
func (n *Node) ChildByFieldName(name string) *Node {
	id, ok := n.tree.lang.FieldID(name)
	if !ok {
		return nil
	}
	for c := range n.children() {
		if c.field == id {
			return c
		}
	}
	return nil
}

func (n *Node) ChildrenByFieldName(name string) []*Node {
	id, ok := n.tree.lang.FieldID(name)
	if !ok {
		return nil
	}
	var out []*Node
	for c := range n.children() {
		if c.field == id {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) FirstChildOfKind(kind string) *Node {
	for c := range n.children() {
		if c.Type() == kind {
			return c
		}
	}
	return nil
}

func (n *Node) ChildrenOfKind(kind string) []*Node {
	var out []*Node
	for c := range n.children() {
		if c.Type() == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk yields n and its visible descendants depth first, parents before
// children. Each call starts a fresh traversal.
func (n *Node) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for c := range n.children() {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// DescendantForRange returns the smallest named node spanning [start, end).
func (n *Node) DescendantForRange(start, end uint32) *Node {
	best := n
	for {
		var next *Node
		for c := range n.children() {
			if c.StartByte() <= start && end <= c.EndByte() && c.IsNamed() {
				next = c
				break
			}
			if c.StartByte() <= start && end <= c.EndByte() {
				next = c
			}
		}
		if next == nil {
			return best
		}
		n = next
		if n.IsNamed() {
			best = n
		}
	}
}

// String renders the named nodes as an S-expression.
func (n *Node) String() string {
	var b strings.Builder
	n.sexp(&b, false)
	return b.String()
}

// StringWithPositions is String with the byte range of every node.
func (n *Node) StringWithPositions() string {
	var b strings.Builder
	n.sexp(&b, true)
	return b.String()
}

func (n *Node) sexp(b *strings.Builder, positions bool) {
	b.WriteByte('(')
	b.WriteString(n.Type())
	if positions {
		fmt.Fprintf(b, " [%d-%d]", n.StartByte(), n.EndByte())
	}
	for c := range n.children() {
		if !c.IsNamed() {
			continue
		}
		b.WriteByte(' ')
		if name := c.FieldName(); name != "" {
			b.WriteString(name)
			b.WriteString(": ")
		}
		c.sexp(b, positions)
	}
	b.WriteByte(')')
}
