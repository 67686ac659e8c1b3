package parser

import (
	"slices"

	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/lexer"
)

type stackEntry struct {
	state language.StateID
	// node is nil for the bottom entry.
	node *subtree
}

// version is one LR stack explored by the parser. Versions fork on
// conflicting actions and are condensed when they meet again.
type version struct {
	stack   []stackEntry
	pos     uint32
	cost    int
	dynamic int
	// path records the action index taken at every fork.
	path []uint8

	failTok      lexer.Token
	lastRecovery int64
	root         *subtree
}

func newVersion() *version {
	return &version{
		stack:        []stackEntry{{state: 0}},
		lastRecovery: -1,
	}
}

func (v *version) clone() *version {
	c := *v
	c.stack = slices.Clone(v.stack)
	c.path = slices.Clone(v.path)
	return &c
}

func (v *version) top() language.StateID { return v.stack[len(v.stack)-1].state }

func (v *version) push(state language.StateID, node *subtree) {
	v.stack = append(v.stack, stackEntry{state: state, node: node})
}

// pushExtra pushes a node that does not change the parse state.
func (v *version) pushExtra(node *subtree) {
	node.extra = true
	v.push(v.top(), node)
}

// pushError pushes an error leaf or node as an extra, merging it into an
// ERROR node already on top of the stack.
func (v *version) pushError(node *subtree) {
	last := &v.stack[len(v.stack)-1]
	if len(v.stack) > 1 && last.node.extra && last.node.isError() {
		prev := last.node
		var merged *subtree
		switch {
		case prev.isLeaf() && node.isLeaf() && node.isError():
			merged = newLeaf(language.SymbolError, prev.padding, prev.size+node.total(), prev.state)
		case prev.isLeaf():
			merged = newNode(language.SymbolError, []*subtree{prev, node}, nil)
		default:
			merged = newNode(language.SymbolError, append(slices.Clone(prev.children), node), nil)
		}
		merged.extra = true
		merged.state = prev.state
		last.node = merged
		return
	}
	if !node.isError() {
		node = newNode(language.SymbolError, []*subtree{node}, nil)
		node.state = v.top()
	}
	v.pushExtra(node)
}

// nodes returns the subtrees on the stack, bottom first.
func (v *version) nodes() []*subtree {
	out := make([]*subtree, 0, len(v.stack)-1)
	for _, e := range v.stack[1:] {
		out = append(out, e.node)
	}
	return out
}

func (v *version) sameStack(o *version) bool {
	if v.pos != o.pos || len(v.stack) != len(o.stack) {
		return false
	}
	for i := range v.stack {
		if v.stack[i].state != o.stack[i].state {
			return false
		}
	}
	return true
}

// preferred orders versions by error cost, then dynamic precedence, then
// the actions taken at forks, earlier table entries first.
func (v *version) preferred(o *version) bool {
	if v.cost != o.cost {
		return v.cost < o.cost
	}
	if v.dynamic != o.dynamic {
		return v.dynamic > o.dynamic
	}
	return slices.Compare(v.path, o.path) < 0
}

// reduce pops the right-hand side of production prod and pushes the new
// node in the goto state. Extras on top of the stack are kept outside the
// node and pushed back after it.
func (p *Parser) reduce(v *version, prod uint16) {
	rule := p.lang.Productions[prod]

	top := len(v.stack)
	for top > 1 && v.stack[top-1].node.extra {
		top--
	}
	trailing := slices.Clone(v.stack[top:])

	start, count := top, 0
	for start > 1 && count < len(rule.RHS) {
		start--
		if !v.stack[start].node.extra {
			count++
		}
	}
	popped := make([]*subtree, 0, top-start)
	for _, e := range v.stack[start:top] {
		popped = append(popped, e.node)
	}
	v.stack = v.stack[:start]

	below := v.top()
	node := p.buildNode(rule, popped)
	node.state = below
	node.fragile = node.fragile || len(p.versions) > 1
	v.dynamic += rule.DynamicPrec

	target, ok := p.lang.Goto(below, rule.LHS)
	if !ok {
		// Only reachable after recovery rearranged the stack; the node is
		// kept as an error so nothing is lost.
		v.pushError(node)
		v.cost += errorCostPerSkip
	} else {
		v.push(target, node)
	}
	for _, e := range trailing {
		v.push(v.top(), e.node)
	}
}

// buildNode assembles the children of a reduction: aliases are applied,
// fields attached, and hidden nonterminals replaced by their children.
func (p *Parser) buildNode(rule language.Production, popped []*subtree) *subtree {
	children := make([]*subtree, 0, len(popped))
	fields := make([]language.FieldID, 0, len(popped))
	fragile := false
	i := 0
	for _, c := range popped {
		fragile = fragile || c.fragile
		if c.extra {
			children = append(children, c)
			fields = append(fields, 0)
			continue
		}
		var field language.FieldID
		if i < len(rule.Fields) {
			field = rule.Fields[i]
			if alias := rule.Aliases[i]; alias != 0 {
				c = c.withSymbol(alias)
				// Aliased nodes no longer match the table's gotos.
				c.fragile = true
			}
		}
		i++
		if p.spliced(c) {
			for j, gc := range c.children {
				f := c.fieldAt(j)
				if f == 0 && !gc.extra {
					f = field
				}
				children = append(children, gc)
				fields = append(fields, f)
			}
			continue
		}
		children = append(children, c)
		fields = append(fields, field)
	}
	n := newNode(rule.LHS, children, fields)
	n.fragile = fragile
	return n
}

// spliced reports whether a child is a hidden nonterminal whose children
// take its place in the parent.
func (p *Parser) spliced(s *subtree) bool {
	if s.isError() {
		return false
	}
	info := p.lang.Symbol(s.symbol)
	return info.Kind == language.KindNonterminal && !info.Visible
}

// buildRoot makes the root from the nodes left on a stack. A complete parse
// leaves the start symbol surrounded by extras; anything else is wrapped in
// an ERROR node under a start-symbol root.
func (p *Parser) buildRoot(nodes []*subtree) *subtree {
	var (
		main     *subtree
		mainIdx  int
		extraOff bool
	)
	for i, n := range nodes {
		if n.extra {
			continue
		}
		if main != nil || n.symbol != p.lang.Start {
			extraOff = true
			break
		}
		main, mainIdx = n, i
	}
	if main == nil || extraOff {
		if len(nodes) == 0 {
			return newNode(p.lang.Start, nil, nil)
		}
		if len(nodes) == 1 && nodes[0].isError() {
			return newNode(p.lang.Start, nodes, nil)
		}
		return newNode(p.lang.Start, []*subtree{newNode(language.SymbolError, nodes, nil)}, nil)
	}

	children := make([]*subtree, 0, len(nodes)+len(main.children))
	fields := make([]language.FieldID, 0, cap(children))
	for _, n := range nodes[:mainIdx] {
		children = append(children, n)
		fields = append(fields, 0)
	}
	for j, c := range main.children {
		children = append(children, c)
		fields = append(fields, main.fieldAt(j))
	}
	for _, n := range nodes[mainIdx+1:] {
		children = append(children, n)
		fields = append(fields, 0)
	}
	root := newNode(main.symbol, children, fields)
	root.state = main.state
	root.fragile = true
	return root
}
