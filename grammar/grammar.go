package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUndefinedSymbol = errors.New("undefined symbol")
	ErrDuplicateRule   = errors.New("duplicate rule")
	ErrEmptyGrammar    = errors.New("grammar has no rules")
)

// Definition binds a rule name to its expression.
type Definition struct {
	Name string
	Rule Rule
}

// Grammar is an ordered set of named rules. The first rule is the start rule.
// Names starting with an underscore produce hidden nodes.
type Grammar struct {
	Name      string
	Rules     []Definition
	Extras    []Rule
	Externals []string
	// Conflicts lists groups of rules whose conflicts are expected. Unlisted
	// conflicts are still kept in the table but are reported by the builder.
	Conflicts [][]string

	index map[string]int
}

func New(name string) *Grammar {
	return &Grammar{Name: name, index: make(map[string]int)}
}

// Define appends a rule, replacing an existing rule of the same name in place.
func (g *Grammar) Define(name string, r Rule) *Grammar {
	if g.index == nil {
		g.reindex()
	}
	if i, ok := g.index[name]; ok {
		g.Rules[i].Rule = r
		return g
	}
	g.index[name] = len(g.Rules)
	g.Rules = append(g.Rules, Definition{Name: name, Rule: r})
	return g
}

// Rule returns the definition of name.
func (g *Grammar) Rule(name string) (Rule, bool) {
	if g.index == nil || len(g.index) != len(g.Rules) {
		g.reindex()
	}
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.Rules[i].Rule, true
}

// Start returns the name of the start rule.
func (g *Grammar) Start() string {
	if len(g.Rules) == 0 {
		return ""
	}
	return g.Rules[0].Name
}

// IsExternal reports whether name is produced by an external scanner.
func (g *Grammar) IsExternal(name string) bool {
	for _, e := range g.Externals {
		if e == name {
			return true
		}
	}
	return false
}

func (g *Grammar) reindex() {
	g.index = make(map[string]int, len(g.Rules))
	for i, d := range g.Rules {
		if _, ok := g.index[d.Name]; !ok {
			g.index[d.Name] = i
		}
	}
}

// Validate checks that every referenced symbol is defined and that rule
// names are unique.
func (g *Grammar) Validate() error {
	if len(g.Rules) == 0 {
		return ErrEmptyGrammar
	}
	var errs []error
	seen := make(map[string]bool, len(g.Rules))
	for _, d := range g.Rules {
		if seen[d.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateRule, d.Name))
		}
		seen[d.Name] = true
	}
	for _, name := range g.Externals {
		seen[name] = true
	}
	check := func(owner string, r Rule) {
		Walk(r, func(r Rule) {
			if s, ok := r.(SymbolRule); ok && !seen[s.Name] {
				errs = append(errs, fmt.Errorf("%w: %s (referenced from %s)", ErrUndefinedSymbol, s.Name, owner))
			}
		})
	}
	for _, d := range g.Rules {
		check(d.Name, d.Rule)
	}
	for _, e := range g.Extras {
		check("extras", e)
	}
	return errors.Join(errs...)
}

// Fingerprint identifies the grammar's content. Grammars with equal
// fingerprints compile to identical tables.
func (g *Grammar) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name=%s\n", g.Name)
	for _, d := range g.Rules {
		fmt.Fprintf(&b, "%s=%s\n", d.Name, d.Rule)
	}
	for _, e := range g.Extras {
		fmt.Fprintf(&b, "extra=%s\n", e)
	}
	fmt.Fprintf(&b, "externals=%s\n", strings.Join(g.Externals, ","))
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Walk calls fn for r and every rule nested in it, depth first.
func Walk(r Rule, fn func(Rule)) {
	fn(r)
	switch r := r.(type) {
	case SeqRule:
		for _, m := range r.Members {
			Walk(m, fn)
		}
	case ChoiceRule:
		for _, m := range r.Members {
			Walk(m, fn)
		}
	case RepeatRule:
		Walk(r.Content, fn)
	case FieldRule:
		Walk(r.Content, fn)
	case AliasRule:
		Walk(r.Content, fn)
	case TokenRule:
		Walk(r.Content, fn)
	case PrecRule:
		Walk(r.Content, fn)
	case DynamicPrecRule:
		Walk(r.Content, fn)
	}
}
