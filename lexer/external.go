package lexer

import "unicode/utf8"

// ExternalScanner produces tokens the table's regular definitions cannot
// describe. valid is indexed like the language's external token list. Scan
// reports whether it recognised a token and set a result.
type ExternalScanner interface {
	Scan(lx *ExternalLexer, valid []bool) bool
}

// ScanFunc adapts a function to ExternalScanner.
type ScanFunc func(lx *ExternalLexer, valid []bool) bool

func (f ScanFunc) Scan(lx *ExternalLexer, valid []bool) bool { return f(lx, valid) }

// ExternalLexer is the cursor handed to external scanners.
type ExternalLexer struct {
	input []byte

	start  int
	pos    int
	end    int
	marked bool
	column uint32

	result    int
	hasResult bool
}

func newExternalLexer(input []byte, pos int) *ExternalLexer {
	col := 0
	for i := pos - 1; i >= 0 && input[i] != '\n'; i-- {
		col++
	}
	return &ExternalLexer{input: input, start: pos, pos: pos, end: pos, column: uint32(col)}
}

// Lookahead returns the rune at the cursor, or 0 at end of input.
func (l *ExternalLexer) Lookahead() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.input[l.pos:])
	return r
}

func (l *ExternalLexer) EOF() bool { return l.pos >= len(l.input) }

// Advance consumes one rune. Skipped runes are excluded from the token.
func (l *ExternalLexer) Advance(skip bool) {
	if l.pos >= len(l.input) {
		return
	}
	r, size := utf8.DecodeRune(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.column = 0
	} else {
		l.column++
	}
	if skip {
		l.start = l.pos
		l.end = l.pos
	}
}

// MarkEnd fixes the token end at the cursor. Without it the token ends
// wherever the scanner stops.
func (l *ExternalLexer) MarkEnd() {
	l.end = l.pos
	l.marked = true
}

// SetResult selects the external token, by index, that Scan produced.
func (l *ExternalLexer) SetResult(index int) {
	l.result = index
	l.hasResult = true
}

// Column is the byte column of the cursor within its line.
func (l *ExternalLexer) Column() uint32 { return l.column }

func (l *ExternalLexer) span() (start, end int) {
	if l.marked {
		return l.start, l.end
	}
	return l.start, l.pos
}
