// Package lexer turns bytes into terminals of a compiled language.
//
// Tokens are matched by longest match over the terminals a parse state
// accepts. Registered external scanners get the first chance at every
// position.
package lexer

import (
	"bytes"
	"regexp"
	"unicode/utf8"

	"github.com/dhamidi/vbsitter/language"
)

type matcher interface {
	// match returns the length of the token at the start of input, or -1.
	match(input []byte) int
}

type literalMatcher struct {
	text []byte
	fold bool
}

func (m literalMatcher) match(input []byte) int {
	if len(input) < len(m.text) {
		return -1
	}
	if m.fold {
		if bytes.EqualFold(input[:len(m.text)], m.text) {
			return len(m.text)
		}
		return -1
	}
	if bytes.HasPrefix(input, m.text) {
		return len(m.text)
	}
	return -1
}

type patternMatcher struct {
	re *regexp.Regexp
}

func (m patternMatcher) match(input []byte) int {
	loc := m.re.FindIndex(input)
	if loc == nil {
		return -1
	}
	return loc[1]
}

// Lexer is safe for concurrent use when its scanner is.
type Lexer struct {
	lang     *language.Language
	matchers []matcher
	rules    []language.TerminalRule
	extras   []language.Symbol
	scanner  ExternalScanner
	external map[language.Symbol]int
}

type Option func(*Lexer)

// WithExternalScanner registers the scanner for the language's external
// tokens.
func WithExternalScanner(s ExternalScanner) Option {
	return func(l *Lexer) { l.scanner = s }
}

// New compiles the terminal definitions of lang.
func New(lang *language.Language, opts ...Option) *Lexer {
	l := &Lexer{
		lang:     lang,
		matchers: make([]matcher, len(lang.Symbols)),
		rules:    make([]language.TerminalRule, len(lang.Symbols)),
		external: make(map[language.Symbol]int, len(lang.Externals)),
	}
	for _, t := range lang.Terminals {
		l.rules[t.Symbol] = t
		if t.IsLiteral() {
			l.matchers[t.Symbol] = literalMatcher{text: []byte(t.Literal), fold: t.Fold}
			continue
		}
		re := regexp.MustCompile(`^(?:` + t.Pattern + `)`)
		re.Longest()
		l.matchers[t.Symbol] = patternMatcher{re: re}
	}
	for i, s := range lang.Symbols {
		if s.Extra && s.Kind == language.KindTerminal {
			l.extras = append(l.extras, language.Symbol(i))
		}
	}
	for i, s := range lang.Externals {
		l.external[s] = i
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lexer) Language() *language.Language { return l.lang }

// Next lexes the token at offset using the terminals of lex mode mode.
// Skip extras are consumed first. When nothing matches it returns a
// zero-width error token and a *LexError.
func (l *Lexer) Next(input []byte, offset uint32, mode uint16) (Token, error) {
	if int(mode) >= len(l.lang.LexModes) {
		mode = 0
	}
	if int(offset) > len(input) {
		offset = uint32(len(input))
	}
	lm := l.lang.LexModes[mode]
	pos := offset
	for {
		if tok, ok := l.scanExternal(input, pos, lm.Externals); ok {
			tok.TriviaStart = offset
			return tok, nil
		}
		if int(pos) >= len(input) {
			end := uint32(len(input))
			return Token{Symbol: language.SymbolEnd, TriviaStart: offset, Start: end, End: end}, nil
		}
		sym, n := l.longest(input[pos:], lm.Terminals)
		if n <= 0 {
			return Token{Symbol: language.SymbolError, TriviaStart: offset, Start: pos, End: pos, Error: true},
				&LexError{Offset: pos, Byte: input[pos]}
		}
		info := l.lang.Symbols[sym]
		if info.Skip {
			pos += uint32(n)
			continue
		}
		return Token{Symbol: sym, TriviaStart: offset, Start: pos, End: pos + uint32(n), Extra: info.Extra}, nil
	}
}

// longest picks the best match among candidates and extras: the longest,
// then the highest precedence, then literals over patterns, then the lowest
// symbol.
func (l *Lexer) longest(input []byte, candidates []language.Symbol) (language.Symbol, int) {
	var (
		best    language.Symbol
		bestLen = -1
	)
	better := func(sym language.Symbol, n int) bool {
		if n != bestLen {
			return n > bestLen
		}
		a, b := l.rules[sym], l.rules[best]
		if a.Prec != b.Prec {
			return a.Prec > b.Prec
		}
		if a.IsLiteral() != b.IsLiteral() {
			return a.IsLiteral()
		}
		return sym < best
	}
	try := func(sym language.Symbol) {
		m := l.matchers[sym]
		if m == nil {
			return
		}
		n := m.match(input)
		if n <= 0 {
			return
		}
		if better(sym, n) {
			best, bestLen = sym, n
		}
	}
	for _, sym := range candidates {
		try(sym)
	}
	for _, sym := range l.extras {
		try(sym)
	}
	return best, bestLen
}

func (l *Lexer) scanExternal(input []byte, pos uint32, valid []language.Symbol) (Token, bool) {
	if l.scanner == nil || len(valid) == 0 {
		return Token{}, false
	}
	flags := make([]bool, len(l.lang.Externals))
	for _, s := range valid {
		flags[l.external[s]] = true
	}
	lx := newExternalLexer(input, int(pos))
	if !l.scanner.Scan(lx, flags) || !lx.hasResult {
		return Token{}, false
	}
	if lx.result < 0 || lx.result >= len(l.lang.Externals) || !flags[lx.result] {
		return Token{}, false
	}
	start, end := lx.span()
	if end <= start {
		return Token{}, false
	}
	return Token{Symbol: l.lang.Externals[lx.result], Start: uint32(start), End: uint32(end)}, true
}

// Tokenize lexes all of input in error mode, where every terminal is valid.
// Unrecognised runes become one-rune error tokens.
func (l *Lexer) Tokenize(input []byte) []Token {
	var tokens []Token
	var pos uint32
	for {
		tok, err := l.Next(input, pos, 0)
		if err != nil {
			_, size := utf8.DecodeRune(input[tok.Start:])
			tok.End = tok.Start + uint32(size)
		}
		tokens = append(tokens, tok)
		if tok.Symbol == language.SymbolEnd {
			return tokens
		}
		pos = tok.End
	}
}
