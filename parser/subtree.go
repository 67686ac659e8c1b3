package parser

import "github.com/dhamidi/vbsitter/language"

// subtree is the immutable, shareable representation of a node. Positions
// are relative: a subtree knows the length of its leading trivia (padding)
// and of its content (size), and a parent's children tile its extent. This
// lets an edit copy only the nodes it touches while every other subtree is
// shared between the old and the new tree.
type subtree struct {
	symbol   language.Symbol
	padding  uint32
	size     uint32
	children []*subtree
	// fields runs parallel to children; nil when no child has a field.
	fields []language.FieldID
	// state is the parse state the node was shifted in.
	state language.StateID

	extra    bool
	hasError bool
	damaged  bool
	// fragile nodes were built while several parse versions were alive and
	// are never reused.
	fragile bool
}

func newLeaf(sym language.Symbol, padding, size uint32, state language.StateID) *subtree {
	return &subtree{
		symbol:   sym,
		padding:  padding,
		size:     size,
		state:    state,
		hasError: sym == language.SymbolError,
	}
}

func newNode(sym language.Symbol, children []*subtree, fields []language.FieldID) *subtree {
	n := &subtree{symbol: sym, children: children}
	for _, f := range fields {
		if f != 0 {
			n.fields = fields
			break
		}
	}
	var total uint32
	for i, c := range children {
		if i == 0 {
			n.padding = c.padding
		}
		total += c.total()
		if c.hasError {
			n.hasError = true
		}
	}
	if len(children) > 0 {
		n.size = total - n.padding
	}
	if sym == language.SymbolError {
		n.hasError = true
	}
	return n
}

func (s *subtree) total() uint32 { return s.padding + s.size }

func (s *subtree) isError() bool { return s.symbol == language.SymbolError }

func (s *subtree) isLeaf() bool { return len(s.children) == 0 }

func (s *subtree) fieldAt(i int) language.FieldID {
	if i >= len(s.fields) {
		return 0
	}
	return s.fields[i]
}

// withSymbol returns a copy of s renamed to sym.
func (s *subtree) withSymbol(sym language.Symbol) *subtree {
	c := *s
	c.symbol = sym
	return &c
}

func (s *subtree) firstLeaf() *subtree {
	for !s.isLeaf() {
		s = s.children[0]
	}
	return s
}
