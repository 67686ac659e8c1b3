// Package grammar describes context-free grammars in the rule language the
// table builder consumes.
//
// Rules are built with small constructor functions that read like a grammar
// file:
//
//	g := grammar.New("basic")
//	g.Define("program", grammar.Repeat(grammar.Sym("line")))
//	g.Define("line", grammar.Seq(grammar.Sym("number"), grammar.Sym("word")))
//	g.Define("number", grammar.Pattern(`\d+`))
//	g.Define("word", grammar.Pattern(`[A-Z]+`))
//	g.Extras = []grammar.Rule{grammar.Pattern(`\s+`)}
package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule is a node of a grammar rule expression.
type Rule interface {
	fmt.Stringer
	isRule()
}

// Assoc is the associativity attached to a precedence.
type Assoc int

const (
	AssocNone Assoc = iota
	AssocLeft
	AssocRight
)

func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	}
	return "none"
}

type (
	// BlankRule matches the empty string.
	BlankRule struct{}

	// StringRule matches a literal. Fold makes the match case-insensitive.
	StringRule struct {
		Value string
		Fold  bool
	}

	// PatternRule matches an RE2 regular expression.
	PatternRule struct {
		Value string
	}

	// SymbolRule refers to another rule or external token by name.
	SymbolRule struct {
		Name string
	}

	SeqRule struct {
		Members []Rule
	}

	ChoiceRule struct {
		Members []Rule
	}

	// RepeatRule matches Content zero or more times, or one or more times
	// when AtLeastOne is set.
	RepeatRule struct {
		Content    Rule
		AtLeastOne bool
	}

	FieldRule struct {
		Name    string
		Content Rule
	}

	// AliasRule renames the node produced by Content.
	AliasRule struct {
		Content Rule
		Value   string
		Named   bool
	}

	// TokenRule collapses Content into a single lexical token.
	TokenRule struct {
		Content Rule
	}

	// PrecRule attaches a static precedence used to resolve shift/reduce
	// conflicts while the table is built.
	PrecRule struct {
		Value   int
		Assoc   Assoc
		Content Rule
	}

	// DynamicPrecRule attaches a precedence used at parse time to choose
	// between ambiguous parses.
	DynamicPrecRule struct {
		Value   int
		Content Rule
	}
)

func (BlankRule) isRule()       {}
func (StringRule) isRule()      {}
func (PatternRule) isRule()     {}
func (SymbolRule) isRule()      {}
func (SeqRule) isRule()         {}
func (ChoiceRule) isRule()      {}
func (RepeatRule) isRule()      {}
func (FieldRule) isRule()       {}
func (AliasRule) isRule()       {}
func (TokenRule) isRule()       {}
func (PrecRule) isRule()        {}
func (DynamicPrecRule) isRule() {}

func Blank() Rule { return BlankRule{} }

func Str(s string) Rule { return StringRule{Value: s} }

// StrFold is a case-insensitive literal.
func StrFold(s string) Rule { return StringRule{Value: s, Fold: true} }

func Pattern(re string) Rule { return PatternRule{Value: re} }

func Sym(name string) Rule { return SymbolRule{Name: name} }

func Seq(members ...Rule) Rule {
	if len(members) == 1 {
		return members[0]
	}
	return SeqRule{Members: members}
}

func Choice(members ...Rule) Rule {
	if len(members) == 1 {
		return members[0]
	}
	return ChoiceRule{Members: members}
}

func Optional(r Rule) Rule { return ChoiceRule{Members: []Rule{r, BlankRule{}}} }

func Repeat(r Rule) Rule { return RepeatRule{Content: r} }

func Repeat1(r Rule) Rule { return RepeatRule{Content: r, AtLeastOne: true} }

func Field(name string, r Rule) Rule { return FieldRule{Name: name, Content: r} }

func Alias(r Rule, value string, named bool) Rule {
	return AliasRule{Content: r, Value: value, Named: named}
}

func Token(r Rule) Rule { return TokenRule{Content: r} }

func Prec(value int, r Rule) Rule { return PrecRule{Value: value, Content: r} }

func PrecLeft(value int, r Rule) Rule {
	return PrecRule{Value: value, Assoc: AssocLeft, Content: r}
}

func PrecRight(value int, r Rule) Rule {
	return PrecRule{Value: value, Assoc: AssocRight, Content: r}
}

func PrecDynamic(value int, r Rule) Rule { return DynamicPrecRule{Value: value, Content: r} }

// Keyword is a case-insensitive keyword token. Its positive precedence makes
// it win ties against identifier-like patterns of the same length.
func Keyword(word string) Rule { return TokenRule{Content: PrecRule{Value: 1, Content: StrFold(word)}} }

// CommaSep1 matches one or more r separated by commas.
func CommaSep1(r Rule) Rule {
	return Seq(r, Repeat(Seq(Str(","), r)))
}

// CommaSep matches zero or more r separated by commas.
func CommaSep(r Rule) Rule { return Optional(CommaSep1(r)) }

func (BlankRule) String() string { return "blank" }

func (r StringRule) String() string {
	if r.Fold {
		return "ci" + strconv.Quote(r.Value)
	}
	return strconv.Quote(r.Value)
}

func (r PatternRule) String() string { return "/" + r.Value + "/" }

func (r SymbolRule) String() string { return r.Name }

func (r SeqRule) String() string { return "seq(" + joinRules(r.Members) + ")" }

func (r ChoiceRule) String() string { return "choice(" + joinRules(r.Members) + ")" }

func (r RepeatRule) String() string {
	if r.AtLeastOne {
		return "repeat1(" + r.Content.String() + ")"
	}
	return "repeat(" + r.Content.String() + ")"
}

func (r FieldRule) String() string { return "field(" + r.Name + ", " + r.Content.String() + ")" }

func (r AliasRule) String() string {
	return fmt.Sprintf("alias(%s, %s, %t)", r.Content, r.Value, r.Named)
}

func (r TokenRule) String() string { return "token(" + r.Content.String() + ")" }

func (r PrecRule) String() string {
	return fmt.Sprintf("prec(%d, %s, %s)", r.Value, r.Assoc, r.Content)
}

func (r DynamicPrecRule) String() string {
	return fmt.Sprintf("prec.dynamic(%d, %s)", r.Value, r.Content)
}

func joinRules(rules []Rule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
