package language

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dhamidi/vbsitter/grammar"
)

var (
	ErrSymbolInToken   = errors.New("token contains a symbol reference")
	ErrTooManySymbols  = errors.New("grammar has too many symbols")
	ErrRuleExplosion   = errors.New("rule expands to too many productions")
	ErrNonTokenExtra   = errors.New("extra is not a token")
	ErrEmptyToken      = errors.New("token matches the empty string")
	maxAlternativesPer = 4096
)

// item is one position of a flattened production.
type item struct {
	sym   Symbol
	field FieldID
	alias Symbol
}

// alternative is one flattened right-hand side.
type alternative struct {
	items   []item
	prec    int
	assoc   grammar.Assoc
	hasPrec bool
	dynamic int
}

// normalizer lowers grammar rules to symbols, terminal definitions and
// flat productions.
type normalizer struct {
	g    *grammar.Grammar
	lang *Language

	named   map[string]Symbol
	anon    map[string]Symbol
	aliases map[string]Symbol
	fields  map[string]FieldID
	aux     map[string]int
}

func newNormalizer(g *grammar.Grammar) *normalizer {
	return &normalizer{
		g: g,
		lang: &Language{
			Version:     Version,
			Name:        g.Name,
			Fingerprint: g.Fingerprint(),
			FieldNames:  []string{""},
		},
		named:   make(map[string]Symbol),
		anon:    make(map[string]Symbol),
		aliases: make(map[string]Symbol),
		fields:  make(map[string]FieldID),
		aux:     make(map[string]int),
	}
}

func (n *normalizer) addSymbol(info SymbolInfo) (Symbol, error) {
	if len(n.lang.Symbols) >= int(SymbolError) {
		return 0, ErrTooManySymbols
	}
	n.lang.Symbols = append(n.lang.Symbols, info)
	return Symbol(len(n.lang.Symbols) - 1), nil
}

func hidden(name string) bool { return strings.HasPrefix(name, "_") }

// isLexical reports whether a named rule defines a single token.
func isLexical(r grammar.Rule) bool {
	switch r := r.(type) {
	case grammar.StringRule, grammar.PatternRule, grammar.TokenRule:
		return true
	case grammar.PrecRule:
		return isLexical(r.Content)
	}
	return false
}

func (n *normalizer) run() error {
	if _, err := n.addSymbol(SymbolInfo{Name: "end", Kind: KindTerminal}); err != nil {
		return err
	}

	for _, name := range n.g.Externals {
		sym, err := n.addSymbol(SymbolInfo{Name: name, Kind: KindExternal, Named: true, Visible: !hidden(name)})
		if err != nil {
			return err
		}
		n.named[name] = sym
		n.lang.Externals = append(n.lang.Externals, sym)
	}

	// Named tokens first so that syntactic rules can refer to them.
	for _, d := range n.g.Rules {
		if !isLexical(d.Rule) {
			continue
		}
		sym, err := n.addSymbol(SymbolInfo{Name: d.Name, Kind: KindTerminal, Named: true, Visible: !hidden(d.Name)})
		if err != nil {
			return err
		}
		n.named[d.Name] = sym
		if err := n.defineTerminal(sym, d.Rule); err != nil {
			return fmt.Errorf("rule %s: %w", d.Name, err)
		}
	}

	var syntactic []grammar.Definition
	for _, d := range n.g.Rules {
		if isLexical(d.Rule) {
			continue
		}
		sym, err := n.addSymbol(SymbolInfo{Name: d.Name, Kind: KindNonterminal, Named: true, Visible: !hidden(d.Name)})
		if err != nil {
			return err
		}
		n.named[d.Name] = sym
		syntactic = append(syntactic, d)
	}
	if len(syntactic) == 0 {
		return fmt.Errorf("%w: no syntactic rules", grammar.ErrEmptyGrammar)
	}
	n.lang.Start = n.named[syntactic[0].Name]

	if err := n.markExtras(); err != nil {
		return err
	}

	// Production zero is the augmented start rule.
	augmented, err := n.addSymbol(SymbolInfo{Name: "_start", Kind: KindNonterminal})
	if err != nil {
		return err
	}
	n.lang.Productions = append(n.lang.Productions, Production{
		LHS:     augmented,
		RHS:     []Symbol{n.lang.Start},
		Fields:  []FieldID{0},
		Aliases: []Symbol{0},
	})

	for _, d := range syntactic {
		alts, err := n.expand(d.Name, d.Rule)
		if err != nil {
			return fmt.Errorf("rule %s: %w", d.Name, err)
		}
		n.addProductions(n.named[d.Name], alts)
	}
	return nil
}

func (n *normalizer) markExtras() error {
	for _, e := range n.g.Extras {
		switch r := e.(type) {
		case grammar.SymbolRule:
			sym, ok := n.named[r.Name]
			if !ok || !n.lang.Symbols[sym].IsTerminal() {
				return fmt.Errorf("%w: %s", ErrNonTokenExtra, r.Name)
			}
			info := &n.lang.Symbols[sym]
			info.Extra = true
			info.Skip = !info.Visible
		default:
			if !isLexical(e) {
				return fmt.Errorf("%w: %s", ErrNonTokenExtra, e)
			}
			sym, err := n.anonToken(e)
			if err != nil {
				return err
			}
			info := &n.lang.Symbols[sym]
			info.Extra = true
			info.Skip = true
		}
	}
	return nil
}

func (n *normalizer) addProductions(lhs Symbol, alts []alternative) {
	for _, a := range alts {
		p := Production{
			LHS:         lhs,
			RHS:         make([]Symbol, len(a.items)),
			Fields:      make([]FieldID, len(a.items)),
			Aliases:     make([]Symbol, len(a.items)),
			Prec:        a.prec,
			Assoc:       a.assoc,
			DynamicPrec: a.dynamic,
		}
		for i, it := range a.items {
			p.RHS[i] = it.sym
			p.Fields[i] = it.field
			p.Aliases[i] = it.alias
		}
		n.lang.Productions = append(n.lang.Productions, p)
	}
}

// expand flattens r into the alternatives it can derive.
func (n *normalizer) expand(owner string, r grammar.Rule) ([]alternative, error) {
	switch r := r.(type) {
	case grammar.BlankRule:
		return []alternative{{}}, nil

	case grammar.StringRule, grammar.PatternRule, grammar.TokenRule:
		sym, err := n.anonToken(r)
		if err != nil {
			return nil, err
		}
		return []alternative{{items: []item{{sym: sym}}}}, nil

	case grammar.SymbolRule:
		sym, ok := n.named[r.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", grammar.ErrUndefinedSymbol, r.Name)
		}
		return []alternative{{items: []item{{sym: sym}}}}, nil

	case grammar.SeqRule:
		result := []alternative{{}}
		for _, m := range r.Members {
			alts, err := n.expand(owner, m)
			if err != nil {
				return nil, err
			}
			if len(result)*len(alts) > maxAlternativesPer {
				return nil, fmt.Errorf("%w: %s", ErrRuleExplosion, owner)
			}
			next := make([]alternative, 0, len(result)*len(alts))
			for _, left := range result {
				for _, right := range alts {
					next = append(next, concat(left, right))
				}
			}
			result = next
		}
		return result, nil

	case grammar.ChoiceRule:
		var result []alternative
		for _, m := range r.Members {
			alts, err := n.expand(owner, m)
			if err != nil {
				return nil, err
			}
			result = append(result, alts...)
		}
		return result, nil

	case grammar.RepeatRule:
		sym, err := n.repeat(owner, r.Content)
		if err != nil {
			return nil, err
		}
		one := alternative{items: []item{{sym: sym}}}
		if r.AtLeastOne {
			return []alternative{one}, nil
		}
		return []alternative{one, {}}, nil

	case grammar.FieldRule:
		id := n.field(r.Name)
		alts, err := n.expand(owner, r.Content)
		if err != nil {
			return nil, err
		}
		for _, a := range alts {
			for i := range a.items {
				if a.items[i].field == 0 {
					a.items[i].field = id
				}
			}
		}
		return alts, nil

	case grammar.AliasRule:
		alts, err := n.expand(owner, r.Content)
		if err != nil {
			return nil, err
		}
		sym, err := n.alias(r.Value, r.Named)
		if err != nil {
			return nil, err
		}
		for _, a := range alts {
			for i := range a.items {
				a.items[i].alias = sym
			}
		}
		return alts, nil

	case grammar.PrecRule:
		alts, err := n.expand(owner, r.Content)
		if err != nil {
			return nil, err
		}
		for i := range alts {
			if !alts[i].hasPrec {
				alts[i].prec, alts[i].assoc, alts[i].hasPrec = r.Value, r.Assoc, true
			}
		}
		return alts, nil

	case grammar.DynamicPrecRule:
		alts, err := n.expand(owner, r.Content)
		if err != nil {
			return nil, err
		}
		for i := range alts {
			if alts[i].dynamic == 0 {
				alts[i].dynamic = r.Value
			}
		}
		return alts, nil
	}
	return nil, fmt.Errorf("unsupported rule %T", r)
}

func concat(a, b alternative) alternative {
	out := alternative{
		items:   make([]item, 0, len(a.items)+len(b.items)),
		prec:    a.prec,
		assoc:   a.assoc,
		hasPrec: a.hasPrec,
		dynamic: a.dynamic + b.dynamic,
	}
	out.items = append(out.items, a.items...)
	out.items = append(out.items, b.items...)
	if !out.hasPrec && b.hasPrec {
		out.prec, out.assoc, out.hasPrec = b.prec, b.assoc, true
	}
	return out
}

// repeat introduces a hidden left-recursive list symbol for content.
func (n *normalizer) repeat(owner string, content grammar.Rule) (Symbol, error) {
	n.aux[owner]++
	name := fmt.Sprintf("_%s_repeat%d", strings.TrimPrefix(owner, "_"), n.aux[owner])
	sym, err := n.addSymbol(SymbolInfo{Name: name, Kind: KindNonterminal})
	if err != nil {
		return 0, err
	}
	alts, err := n.expand(owner, content)
	if err != nil {
		return 0, err
	}
	var prods []alternative
	for _, a := range alts {
		prods = append(prods, concat(alternative{items: []item{{sym: sym}}}, a))
	}
	prods = append(prods, alts...)
	n.addProductions(sym, prods)
	return sym, nil
}

func (n *normalizer) field(name string) FieldID {
	if id, ok := n.fields[name]; ok {
		return id
	}
	id := FieldID(len(n.lang.FieldNames))
	n.lang.FieldNames = append(n.lang.FieldNames, name)
	n.fields[name] = id
	return id
}

func (n *normalizer) alias(value string, named bool) (Symbol, error) {
	if sym, ok := n.named[value]; ok && named {
		if info := n.lang.Symbols[sym]; info.Visible {
			return sym, nil
		}
	}
	key := fmt.Sprintf("%t:%s", named, value)
	if sym, ok := n.aliases[key]; ok {
		return sym, nil
	}
	sym, err := n.addSymbol(SymbolInfo{Name: value, Kind: KindAlias, Named: named, Visible: true})
	if err != nil {
		return 0, err
	}
	n.aliases[key] = sym
	return sym, nil
}

// anonToken returns the terminal for an inline token, creating it on first
// use. Equal tokens share a symbol.
func (n *normalizer) anonToken(r grammar.Rule) (Symbol, error) {
	key := r.String()
	if sym, ok := n.anon[key]; ok {
		return sym, nil
	}
	info := SymbolInfo{Kind: KindTerminal}
	if lit, ok := literalOf(r); ok {
		info.Name = lit.Value
		info.Visible = true
	} else {
		info.Name = key
	}
	sym, err := n.addSymbol(info)
	if err != nil {
		return 0, err
	}
	n.anon[key] = sym
	if err := n.defineTerminal(sym, r); err != nil {
		return 0, err
	}
	return sym, nil
}

// literalOf unwraps token and precedence wrappers around a single string.
func literalOf(r grammar.Rule) (grammar.StringRule, bool) {
	switch r := r.(type) {
	case grammar.StringRule:
		return r, true
	case grammar.TokenRule:
		return literalOf(r.Content)
	case grammar.PrecRule:
		return literalOf(r.Content)
	}
	return grammar.StringRule{}, false
}

func (n *normalizer) defineTerminal(sym Symbol, r grammar.Rule) error {
	t := TerminalRule{Symbol: sym, Prec: tokenPrec(r)}
	if lit, ok := literalOf(r); ok {
		if lit.Value == "" {
			return ErrEmptyToken
		}
		t.Literal, t.Fold = lit.Value, lit.Fold
	} else {
		pattern, err := tokenRegexp(r)
		if err != nil {
			return err
		}
		if pattern == "" {
			return ErrEmptyToken
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("compile token %s: %w", r, err)
		}
		t.Pattern = pattern
	}
	n.lang.Terminals = append(n.lang.Terminals, t)
	return nil
}

// tokenPrec is the precedence a token carries into lexical conflicts.
func tokenPrec(r grammar.Rule) int {
	switch r := r.(type) {
	case grammar.TokenRule:
		return tokenPrec(r.Content)
	case grammar.PrecRule:
		return r.Value
	case grammar.ChoiceRule:
		best := 0
		for _, m := range r.Members {
			if p := tokenPrec(m); p > best {
				best = p
			}
		}
		return best
	}
	return 0
}

// tokenRegexp translates a lexical rule into RE2 syntax.
func tokenRegexp(r grammar.Rule) (string, error) {
	switch r := r.(type) {
	case grammar.BlankRule:
		return "", nil
	case grammar.StringRule:
		if r.Fold {
			return "(?i:" + regexp.QuoteMeta(r.Value) + ")", nil
		}
		return regexp.QuoteMeta(r.Value), nil
	case grammar.PatternRule:
		return "(?:" + r.Value + ")", nil
	case grammar.SeqRule:
		var b strings.Builder
		for _, m := range r.Members {
			s, err := tokenRegexp(m)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	case grammar.ChoiceRule:
		parts := make([]string, len(r.Members))
		for i, m := range r.Members {
			s, err := tokenRegexp(m)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(?:" + strings.Join(parts, "|") + ")", nil
	case grammar.RepeatRule:
		s, err := tokenRegexp(r.Content)
		if err != nil {
			return "", err
		}
		if r.AtLeastOne {
			return "(?:" + s + ")+", nil
		}
		return "(?:" + s + ")*", nil
	case grammar.TokenRule:
		return tokenRegexp(r.Content)
	case grammar.PrecRule:
		return tokenRegexp(r.Content)
	case grammar.DynamicPrecRule:
		return tokenRegexp(r.Content)
	case grammar.FieldRule:
		return tokenRegexp(r.Content)
	case grammar.AliasRule:
		return tokenRegexp(r.Content)
	case grammar.SymbolRule:
		return "", fmt.Errorf("%w: %s", ErrSymbolInToken, r.Name)
	}
	return "", fmt.Errorf("unsupported token rule %T", r)
}
