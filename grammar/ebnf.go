package grammar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

var ErrLexicalCycle = errors.New("lexical production refers to itself")

// LoadEBNF reads an EBNF grammar file. See FromEBNF.
func LoadEBNF(filename, start string) (*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()
	return FromEBNF(filename, f, start)
}

// FromEBNF converts a grammar written in Go's EBNF notation. Productions whose
// name starts with an uppercase letter are tokens; lowercase productions
// referenced from them are inlined. Lowercase productions reachable from
// start become syntactic rules. Whitespace between tokens is ignored.
func FromEBNF(filename string, src io.Reader, start string) (*Grammar, error) {
	prods, err := ebnf.Parse(filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	if _, ok := prods[start]; !ok {
		return nil, fmt.Errorf("%w: start production %q", ErrUndefinedSymbol, start)
	}

	c := &ebnfConverter{prods: prods, visiting: make(map[string]bool)}
	name := filename
	if name == "" {
		name = start
	}
	g := New(name)

	queue := []string{start}
	seen := map[string]bool{start: true}
	var names []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		names = append(names, n)
		if isTokenName(n) {
			continue
		}
		for _, ref := range c.references(prods[n].Expr) {
			if seen[ref] {
				continue
			}
			if _, ok := prods[ref]; !ok {
				return nil, fmt.Errorf("%w: %s (referenced from %s)", ErrUndefinedSymbol, ref, n)
			}
			seen[ref] = true
			queue = append(queue, ref)
		}
	}
	sort.Strings(names[1:])

	for _, n := range names {
		var r Rule
		if isTokenName(n) {
			body, err := c.lexical(n)
			if err != nil {
				return nil, err
			}
			r = Token(body)
		} else {
			r = c.syntactic(prods[n].Expr)
		}
		g.Define(n, r)
	}
	g.Extras = []Rule{Pattern(`\s+`)}
	return g, nil
}

func isTokenName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

type ebnfConverter struct {
	prods    ebnf.Grammar
	visiting map[string]bool
}

// references lists production names used outside of tokens, in source order.
func (c *ebnfConverter) references(expr ebnf.Expression) []string {
	var refs []string
	var visit func(ebnf.Expression)
	visit = func(expr ebnf.Expression) {
		switch e := expr.(type) {
		case *ebnf.Name:
			refs = append(refs, e.String)
		case ebnf.Sequence:
			for _, x := range e {
				visit(x)
			}
		case ebnf.Alternative:
			for _, x := range e {
				visit(x)
			}
		case *ebnf.Group:
			visit(e.Body)
		case *ebnf.Option:
			visit(e.Body)
		case *ebnf.Repetition:
			visit(e.Body)
		}
	}
	visit(expr)
	return refs
}

func (c *ebnfConverter) syntactic(expr ebnf.Expression) Rule {
	switch e := expr.(type) {
	case nil:
		return Blank()
	case *ebnf.Name:
		return Sym(e.String)
	case *ebnf.Token:
		return Str(e.String)
	case *ebnf.Range:
		return Pattern(rangePattern(e))
	case ebnf.Sequence:
		members := make([]Rule, len(e))
		for i, x := range e {
			members[i] = c.syntactic(x)
		}
		return Seq(members...)
	case ebnf.Alternative:
		members := make([]Rule, len(e))
		for i, x := range e {
			members[i] = c.syntactic(x)
		}
		return Choice(members...)
	case *ebnf.Group:
		return c.syntactic(e.Body)
	case *ebnf.Option:
		return Optional(c.syntactic(e.Body))
	case *ebnf.Repetition:
		return Repeat(c.syntactic(e.Body))
	}
	return Blank()
}

// lexical inlines the production name and everything it references.
func (c *ebnfConverter) lexical(name string) (Rule, error) {
	if c.visiting[name] {
		return nil, fmt.Errorf("%w: %s", ErrLexicalCycle, name)
	}
	prod, ok := c.prods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedSymbol, name)
	}
	c.visiting[name] = true
	defer delete(c.visiting, name)
	return c.lexicalExpr(prod.Expr)
}

func (c *ebnfConverter) lexicalExpr(expr ebnf.Expression) (Rule, error) {
	switch e := expr.(type) {
	case nil:
		return Blank(), nil
	case *ebnf.Name:
		return c.lexical(e.String)
	case *ebnf.Token:
		return Str(e.String), nil
	case *ebnf.Range:
		return Pattern(rangePattern(e)), nil
	case ebnf.Sequence, ebnf.Alternative:
		var list []ebnf.Expression
		if s, ok := e.(ebnf.Sequence); ok {
			list = s
		} else {
			list = e.(ebnf.Alternative)
		}
		members := make([]Rule, len(list))
		for i, x := range list {
			r, err := c.lexicalExpr(x)
			if err != nil {
				return nil, err
			}
			members[i] = r
		}
		if _, ok := e.(ebnf.Sequence); ok {
			return Seq(members...), nil
		}
		return Choice(members...), nil
	case *ebnf.Group:
		return c.lexicalExpr(e.Body)
	case *ebnf.Option:
		r, err := c.lexicalExpr(e.Body)
		if err != nil {
			return nil, err
		}
		return Optional(r), nil
	case *ebnf.Repetition:
		r, err := c.lexicalExpr(e.Body)
		if err != nil {
			return nil, err
		}
		return Repeat(r), nil
	}
	return Blank(), nil
}

func rangePattern(r *ebnf.Range) string {
	return "[" + regexp.QuoteMeta(r.Begin.String) + "-" + regexp.QuoteMeta(r.End.String) + "]"
}
