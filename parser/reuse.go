package parser

import "github.com/dhamidi/vbsitter/language"

type reuseFrame struct {
	node  *subtree
	index int
	// offset is where children[index] starts, including its padding.
	offset uint32
	end    uint32
}

// reuseCursor walks the previous tree in step with the parser. Positions
// only move forward during a parse, so each node is visited at most once.
type reuseCursor struct {
	root   *subtree
	frames []reuseFrame
	last   uint32
	// found holds the candidates at last; a position is queried again
	// after every reduce.
	found  []*subtree
	filled bool
}

func newReuseCursor(root *subtree) *reuseCursor {
	c := &reuseCursor{root: root}
	c.rewind()
	return c
}

func (c *reuseCursor) rewind() {
	c.frames = append(c.frames[:0], reuseFrame{node: c.root, end: c.root.total()})
	c.last = 0
	c.found = nil
	c.filled = false
}

// candidates returns the nodes starting exactly at pos, outermost first.
func (c *reuseCursor) candidates(pos uint32) []*subtree {
	if pos < c.last {
		c.rewind()
	}
	if pos == c.last && c.filled {
		return c.found
	}
	c.last, c.filled = pos, true
	c.found = c.scan(pos)
	return c.found
}

func (c *reuseCursor) scan(pos uint32) []*subtree {
	for len(c.frames) > 1 && pos >= c.frames[len(c.frames)-1].end {
		c.frames = c.frames[:len(c.frames)-1]
	}

	var out []*subtree
	for {
		f := &c.frames[len(c.frames)-1]
		children := f.node.children
		for f.index < len(children) && f.offset+children[f.index].total() <= pos {
			f.offset += children[f.index].total()
			f.index++
		}
		if f.index >= len(children) || f.offset > pos {
			return out
		}
		child := children[f.index]
		if f.offset == pos {
			out = append(out, child)
		}
		// Nodes inside an ERROR were shaped by recovery.
		if child.isLeaf() || child.isError() {
			return out
		}
		c.frames = append(c.frames, reuseFrame{node: child, offset: f.offset, end: f.offset + child.total()})
	}
}

// reusable returns the largest node of the previous tree that can be pushed
// at v's position as is.
func (p *Parser) reusable(v *version, state language.StateID) *subtree {
	for _, n := range p.reuse.candidates(v.pos) {
		if p.canReuse(n, state) {
			return n
		}
	}
	return nil
}

func (p *Parser) canReuse(n *subtree, state language.StateID) bool {
	if n.damaged || n.hasError || n.fragile || n.extra || n.isLeaf() || n.total() == 0 {
		return false
	}
	if n.state != state {
		return false
	}
	acts := p.lang.Actions(state, n.symbol)
	if len(acts) != 1 || acts[0].Type != language.ActionShift {
		return false
	}
	leaf := n.firstLeaf()
	if !p.lang.Symbol(leaf.symbol).IsTerminal() {
		return false
	}
	first := p.lang.Actions(state, leaf.symbol)
	if len(first) == 0 {
		return false
	}
	for _, a := range first {
		if a.Type == language.ActionReduce {
			return false
		}
	}
	return true
}
