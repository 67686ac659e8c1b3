// Package query matches S-expression patterns against syntax trees.
//
// A query is a list of patterns:
//
//	(method_declaration
//	  name: (identifier) @name
//	  (#match? @name "^Test"))
//
// A parenthesized pattern matches a named node of the given type whose
// children match the nested patterns in order, not necessarily adjacent.
// "_" matches any node and (_) any named node. A quoted string matches an
// anonymous node by its text, such as a keyword or an operator. A field
// prefix restricts the child to that field. @name captures the matched
// node. #eq? and #match? filter matches on captured text; #not-eq? and
// #not-match? invert them.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dhamidi/vbsitter/language"
)

var (
	ErrSyntax    = errors.New("invalid query syntax")
	ErrNodeType  = errors.New("unknown node type")
	ErrField     = errors.New("unknown field")
	ErrCapture   = errors.New("unknown capture")
	ErrPredicate = errors.New("invalid predicate")
)

// Error locates a compile error in the query source.
type Error struct {
	Offset int
	Msg    string
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("query offset %d: %s", e.Offset, e.Msg) }

func (e *Error) Unwrap() error { return e.Err }

// Query is a compiled list of patterns. It is safe for concurrent use.
type Query struct {
	lang     *language.Language
	patterns []*pattern
	captures []string
}

// CaptureNames lists the capture names in order of first appearance.
func (q *Query) CaptureNames() []string { return q.captures }

// PatternCount returns the number of top-level patterns.
func (q *Query) PatternCount() int { return len(q.patterns) }

type patternKind int

const (
	kindNode     patternKind = iota // (type ...)
	kindWildcard                    // _ or (_)
	kindLiteral                     // "text"
)

type step struct {
	kind  patternKind
	named bool
	typ   string
	field string

	children []*step
	captures []int
}

type pattern struct {
	root       *step
	predicates []predicate
}

type predicate struct {
	op      string
	capture int
	// Either other or value/re is set.
	other int
	value string
	re    *regexp.Regexp
}

// Compile parses src against the node types and fields of lang.
func Compile(lang *language.Language, src string) (*Query, error) {
	c := &compiler{lang: lang, src: src, captureIDs: make(map[string]int)}
	q, err := c.compile()
	if err != nil {
		return nil, err
	}
	return q, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(lang *language.Language, src string) *Query {
	q, err := Compile(lang, src)
	if err != nil {
		panic(err)
	}
	return q
}

type compiler struct {
	lang *language.Language
	src  string
	pos  int

	captureIDs map[string]int
	captures   []string
	preds      []predicate
}

func (c *compiler) errorf(err error, format string, args ...any) error {
	return &Error{Offset: c.pos, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (c *compiler) compile() (*Query, error) {
	q := &Query{lang: c.lang}
	for {
		c.skipSpace()
		if c.pos >= len(c.src) {
			break
		}
		c.preds = nil
		root, err := c.parseStep()
		if err != nil {
			return nil, err
		}
		q.patterns = append(q.patterns, &pattern{root: root, predicates: c.preds})
	}
	if len(q.patterns) == 0 {
		return nil, c.errorf(ErrSyntax, "empty query")
	}
	q.captures = c.captures
	return q, nil
}

func (c *compiler) skipSpace() {
	for c.pos < len(c.src) {
		switch ch := c.src[c.pos]; {
		case ch == ';':
			for c.pos < len(c.src) && c.src[c.pos] != '\n' {
				c.pos++
			}
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			c.pos++
		default:
			return
		}
	}
}

func isIdentByte(ch byte) bool {
	return ch == '_' || ch == '-' || ch == '.' || ch == '?' || ch == '!' ||
		ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

func (c *compiler) ident() string {
	start := c.pos
	for c.pos < len(c.src) && isIdentByte(c.src[c.pos]) {
		c.pos++
	}
	return c.src[start:c.pos]
}

func (c *compiler) peek() byte {
	if c.pos >= len(c.src) {
		return 0
	}
	return c.src[c.pos]
}

func (c *compiler) parseStep() (*step, error) {
	c.skipSpace()
	start := c.pos
	var s *step
	switch ch := c.peek(); {
	case ch == '(':
		node, err := c.parseNode()
		if err != nil {
			return nil, err
		}
		s = node
	case ch == '"':
		lit, err := c.parseString()
		if err != nil {
			return nil, err
		}
		if _, ok := c.lang.SymbolForName(lit, false); !ok {
			c.pos = start
			return nil, c.errorf(ErrNodeType, "unknown anonymous node %q", lit)
		}
		s = &step{kind: kindLiteral, typ: lit}
	case ch == '_' && (c.pos+1 >= len(c.src) || !isIdentByte(c.src[c.pos+1])):
		c.pos++
		s = &step{kind: kindWildcard}
	case isIdentByte(ch):
		name := c.ident()
		c.skipSpace()
		if c.peek() != ':' {
			c.pos = start
			return nil, c.errorf(ErrSyntax, "expected ':' after field name %q", name)
		}
		if _, ok := c.lang.FieldID(name); !ok {
			c.pos = start
			return nil, c.errorf(ErrField, "unknown field %q", name)
		}
		c.pos++
		child, err := c.parseStep()
		if err != nil {
			return nil, err
		}
		child.field = name
		return child, nil
	case ch == 0:
		return nil, c.errorf(ErrSyntax, "unexpected end of query")
	default:
		return nil, c.errorf(ErrSyntax, "unexpected %q", ch)
	}
	if err := c.parseCaptures(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *compiler) parseCaptures(s *step) error {
	for {
		c.skipSpace()
		if c.peek() != '@' {
			return nil
		}
		c.pos++
		name := c.ident()
		if name == "" {
			return c.errorf(ErrSyntax, "empty capture name")
		}
		s.captures = append(s.captures, c.capture(name))
	}
}

func (c *compiler) capture(name string) int {
	if id, ok := c.captureIDs[name]; ok {
		return id
	}
	id := len(c.captures)
	c.captureIDs[name] = id
	c.captures = append(c.captures, name)
	return id
}

// parseNode parses a parenthesized pattern. The opening paren is next.
func (c *compiler) parseNode() (*step, error) {
	c.pos++
	c.skipSpace()

	s := &step{kind: kindNode, named: true}
	switch ch := c.peek(); {
	case ch == '(' || ch == '"':
		// A group wraps one pattern so that predicates can follow it.
		inner, err := c.parseStep()
		if err != nil {
			return nil, err
		}
		if err := c.parseChildren(nil); err != nil {
			return nil, err
		}
		return inner, nil
	case ch == '_':
		c.pos++
		s.kind = kindWildcard
	case ch == '#':
		return nil, c.errorf(ErrPredicate, "predicate outside of a pattern")
	default:
		start := c.pos
		s.typ = c.ident()
		if s.typ == "" {
			return nil, c.errorf(ErrSyntax, "expected node type")
		}
		if _, ok := c.lang.SymbolForName(s.typ, true); !ok {
			c.pos = start
			return nil, c.errorf(ErrNodeType, "unknown node type %q", s.typ)
		}
	}
	if err := c.parseChildren(s); err != nil {
		return nil, err
	}
	return s, nil
}

// parseChildren reads child patterns and predicates up to the closing
// paren. A nil parent accepts predicates only.
func (c *compiler) parseChildren(parent *step) error {
	for {
		c.skipSpace()
		switch c.peek() {
		case ')':
			c.pos++
			return nil
		case 0:
			return c.errorf(ErrSyntax, "missing ')'")
		case '(':
			if c.pos+1 < len(c.src) && c.src[c.pos+1] == '#' {
				if err := c.parsePredicate(); err != nil {
					return err
				}
				continue
			}
		}
		if parent == nil {
			return c.errorf(ErrSyntax, "a group holds one pattern")
		}
		child, err := c.parseStep()
		if err != nil {
			return err
		}
		parent.children = append(parent.children, child)
	}
}

func (c *compiler) parseString() (string, error) {
	c.pos++
	var b strings.Builder
	for c.pos < len(c.src) {
		ch := c.src[c.pos]
		switch ch {
		case '"':
			c.pos++
			return b.String(), nil
		case '\\':
			c.pos++
			if c.pos >= len(c.src) {
				return "", c.errorf(ErrSyntax, "unterminated string")
			}
			switch esc := c.src[c.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(ch)
		}
		c.pos++
	}
	return "", c.errorf(ErrSyntax, "unterminated string")
}

func (c *compiler) captureRef() (int, error) {
	c.skipSpace()
	if c.peek() != '@' {
		return 0, c.errorf(ErrPredicate, "expected capture")
	}
	c.pos++
	name := c.ident()
	id, ok := c.captureIDs[name]
	if !ok {
		return 0, c.errorf(ErrCapture, "unknown capture @%s", name)
	}
	return id, nil
}

func (c *compiler) parsePredicate() error {
	c.pos += 2
	op := c.ident()
	switch op {
	case "eq?", "not-eq?", "match?", "not-match?":
	default:
		return c.errorf(ErrPredicate, "unknown predicate #%s", op)
	}
	p := predicate{op: op, other: -1}

	id, err := c.captureRef()
	if err != nil {
		return err
	}
	p.capture = id

	c.skipSpace()
	switch c.peek() {
	case '@':
		if strings.HasSuffix(op, "match?") {
			return c.errorf(ErrPredicate, "#%s needs a string", op)
		}
		if p.other, err = c.captureRef(); err != nil {
			return err
		}
	case '"':
		if p.value, err = c.parseString(); err != nil {
			return err
		}
		if strings.HasSuffix(op, "match?") {
			if p.re, err = regexp.Compile(p.value); err != nil {
				return c.errorf(ErrPredicate, "bad pattern: %v", err)
			}
		}
	default:
		return c.errorf(ErrPredicate, "#%s needs a capture or a string", op)
	}

	c.skipSpace()
	if c.peek() != ')' {
		return c.errorf(ErrPredicate, "#%s takes two arguments", op)
	}
	c.pos++
	c.preds = append(c.preds, p)
	return nil
}
