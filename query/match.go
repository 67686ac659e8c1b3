package query

import (
	"iter"

	"github.com/dhamidi/vbsitter/parser"
)

// Capture is a node bound to a capture name.
type Capture struct {
	Name string
	Node *parser.Node
}

// Match is one successful match of a pattern.
type Match struct {
	Pattern  int
	Captures []Capture
}

// Captured returns the nodes bound to name.
func (m Match) Captured(name string) []*parser.Node {
	var out []*parser.Node
	for _, c := range m.Captures {
		if c.Name == name {
			out = append(out, c.Node)
		}
	}
	return out
}

// Matches returns every match in the subtree rooted at node, in pre-order of
// the matched nodes and pattern order for patterns matching the same node.
func (q *Query) Matches(node *parser.Node) []Match {
	var out []Match
	for m := range q.All(node) {
		out = append(out, m)
	}
	return out
}

// All iterates over matches lazily.
func (q *Query) All(node *parser.Node) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for n := range node.Walk() {
			for i, p := range q.patterns {
				b := &bindings{}
				if !q.matchStep(p.root, n, b) || !q.check(p, b) {
					continue
				}
				m := Match{Pattern: i}
				for _, c := range b.list {
					m.Captures = append(m.Captures, Capture{Name: q.captures[c.id], Node: c.node})
				}
				if !yield(m) {
					return
				}
			}
		}
	}
}

type binding struct {
	id   int
	node *parser.Node
}

type bindings struct {
	list []binding
}

func (b *bindings) mark() int { return len(b.list) }

func (b *bindings) reset(mark int) { b.list = b.list[:mark] }

func (b *bindings) first(id int) *parser.Node {
	for _, c := range b.list {
		if c.id == id {
			return c.node
		}
	}
	return nil
}

func (q *Query) matchStep(s *step, n *parser.Node, b *bindings) bool {
	switch s.kind {
	case kindWildcard:
		if s.named && !n.IsNamed() {
			return false
		}
	case kindLiteral:
		if n.IsNamed() || n.Type() != s.typ {
			return false
		}
	case kindNode:
		if !n.IsNamed() || n.Type() != s.typ {
			return false
		}
	}
	if s.field != "" && n.FieldName() != s.field {
		return false
	}

	mark := b.mark()
	for _, id := range s.captures {
		b.list = append(b.list, binding{id: id, node: n})
	}
	if len(s.children) > 0 && !q.matchChildren(s.children, n.Children(), b) {
		b.reset(mark)
		return false
	}
	return true
}

// matchChildren matches steps against an ordered subsequence of children,
// backtracking over the choice of child for each step.
func (q *Query) matchChildren(steps []*step, children []*parser.Node, b *bindings) bool {
	if len(steps) == 0 {
		return true
	}
	for i, c := range children {
		mark := b.mark()
		if q.matchStep(steps[0], c, b) && q.matchChildren(steps[1:], children[i+1:], b) {
			return true
		}
		b.reset(mark)
	}
	return false
}

func (q *Query) check(p *pattern, b *bindings) bool {
	for _, pred := range p.predicates {
		n := b.first(pred.capture)
		if n == nil {
			return false
		}
		text := n.Text()

		var ok bool
		switch pred.op {
		case "eq?", "not-eq?":
			want := pred.value
			if pred.other >= 0 {
				other := b.first(pred.other)
				if other == nil {
					return false
				}
				want = other.Text()
			}
			ok = text == want
		case "match?", "not-match?":
			ok = pred.re.MatchString(text)
		}
		if pred.op == "not-eq?" || pred.op == "not-match?" {
			ok = !ok
		}
		if !ok {
			return false
		}
	}
	return true
}
