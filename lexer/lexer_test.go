package lexer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/vbsitter/grammar"
	"github.com/dhamidi/vbsitter/language"
)

func toyLanguage(t *testing.T) *language.Language {
	t.Helper()
	g := grammar.New("toy")
	g.Define("program", grammar.Repeat(grammar.Choice(
		grammar.Sym("line"),
		grammar.Sym("end_stmt"),
		grammar.Sym("heredoc"),
		grammar.Str("<"),
	)))
	g.Define("line", grammar.Seq(grammar.Sym("number"), grammar.Sym("word")))
	g.Define("end_stmt", grammar.Seq(grammar.Keyword("End"), grammar.Sym("identifier")))
	g.Define("number", grammar.Pattern(`\d+`))
	g.Define("word", grammar.Pattern(`[A-Z]+`))
	g.Define("identifier", grammar.Pattern(`[a-z]+`))
	g.Define("comment", grammar.Token(grammar.Seq(grammar.Str("'"), grammar.Pattern(`[^\n]*`))))
	g.Externals = []string{"heredoc"}
	g.Extras = []grammar.Rule{grammar.Sym("comment"), grammar.Pattern(`\s+`)}
	lang, err := language.Build(g)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	return lang
}

func symbol(t *testing.T, lang *language.Language, name string, named bool) language.Symbol {
	t.Helper()
	s, ok := lang.SymbolForName(name, named)
	if !ok {
		t.Fatalf("no symbol %q", name)
	}
	return s
}

type lexed struct {
	Name       string
	Start, End uint32
}

func names(lang *language.Language, tokens []Token) []lexed {
	out := make([]lexed, len(tokens))
	for i, tok := range tokens {
		out[i] = lexed{Name: lang.SymbolName(tok.Symbol), Start: tok.Start, End: tok.End}
	}
	return out
}

func TestTokenize(t *testing.T) {
	lang := toyLanguage(t)
	lx := New(lang)

	tests := []struct {
		input string
		want  []lexed
	}{
		{"10 PRINT", []lexed{{"number", 0, 2}, {"word", 3, 8}, {"end", 8, 8}}},
		{"END endx", []lexed{{"End", 0, 3}, {"identifier", 4, 8}, {"end", 8, 8}}},
		{"end end", []lexed{{"End", 0, 3}, {"End", 4, 7}, {"end", 7, 7}}},
		{"1 ' note\n2", []lexed{{"number", 0, 1}, {"comment", 2, 8}, {"number", 9, 10}, {"end", 10, 10}}},
		{"  ", []lexed{{"end", 2, 2}}},
		{"1 @ 2", []lexed{{"number", 0, 1}, {"ERROR", 2, 3}, {"number", 4, 5}, {"end", 5, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := names(lang, lx.Tokenize([]byte(tt.input)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestNextTrivia(t *testing.T) {
	lang := toyLanguage(t)
	tok, err := New(lang).Next([]byte("10   PRINT"), 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tok.TriviaStart != 2 || tok.Start != 5 || tok.End != 10 || tok.Padding() != 3 {
		t.Errorf("Next() = %+v", tok)
	}
}

func TestNextLexError(t *testing.T) {
	lang := toyLanguage(t)
	input := []byte("  @")
	tok, err := New(lang).Next(input, 0, 0)
	if !errors.Is(err, ErrLex) {
		t.Fatalf("Next() error = %v, want ErrLex", err)
	}
	var lexErr *LexError
	if !errors.As(err, &lexErr) || lexErr.Offset != 2 || lexErr.Byte != '@' {
		t.Errorf("LexError = %+v", lexErr)
	}
	if !tok.Error || tok.Start != 2 || tok.Len() != 0 || tok.Symbol != language.SymbolError {
		t.Errorf("error token = %+v, want zero-width error at 2", tok)
	}
}

func TestNextRespectsLexMode(t *testing.T) {
	lang := toyLanguage(t)
	number := symbol(t, lang, "number", true)
	shift, err := lang.Lookup(0, number)
	if err != nil || shift.Type != language.ActionShift {
		t.Fatalf("Lookup(0, number) = %v, %v", shift, err)
	}
	mode := lang.LexModeFor(shift.State)
	lx := New(lang)

	tok, err := lx.Next([]byte("10 PRINT"), 2, mode)
	if err != nil || lang.SymbolName(tok.Symbol) != "word" {
		t.Errorf("Next() after number = %v, %v; want word", tok, err)
	}
	if _, err := lx.Next([]byte("10 20"), 2, mode); !errors.Is(err, ErrLex) {
		t.Errorf("Next() of number where only word is valid = %v, want ErrLex", err)
	}
	tok, err = lx.Next([]byte("10 ' c"), 2, mode)
	if err != nil || !tok.Extra {
		t.Errorf("extras must be valid in every mode: %+v, %v", tok, err)
	}
}

// heredocScanner recognises <<...>>.
func heredocScanner(calls *int) ScanFunc {
	return func(lx *ExternalLexer, valid []bool) bool {
		*calls++
		if !valid[0] {
			return false
		}
		for lx.Lookahead() == ' ' {
			lx.Advance(true)
		}
		if lx.Lookahead() != '<' {
			return false
		}
		lx.Advance(false)
		if lx.Lookahead() != '<' {
			return false
		}
		for !lx.EOF() {
			r := lx.Lookahead()
			lx.Advance(false)
			if r == '>' && lx.Lookahead() == '>' {
				lx.Advance(false)
				lx.MarkEnd()
				lx.SetResult(0)
				return true
			}
		}
		return false
	}
}

func TestExternalScannerRunsFirst(t *testing.T) {
	lang := toyLanguage(t)
	var calls int
	lx := New(lang, WithExternalScanner(heredocScanner(&calls)))

	tok, err := lx.Next([]byte("  <<abc>> 1"), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if lang.SymbolName(tok.Symbol) != "heredoc" || tok.Start != 2 || tok.End != 9 || tok.TriviaStart != 0 {
		t.Errorf("Next() = %+v, want heredoc 2-9", tok)
	}
	if calls != 1 {
		t.Errorf("scanner called %d times, want 1", calls)
	}

	tok, err = lx.Next([]byte("< 1"), 0, 0)
	if err != nil || lang.SymbolName(tok.Symbol) != "<" {
		t.Errorf("Next() = %+v, %v; want internal < when the scanner declines", tok, err)
	}

	number := symbol(t, lang, "number", true)
	shift, _ := lang.Lookup(0, number)
	calls = 0
	if _, err := lx.Next([]byte("<<x>>"), 0, lang.LexModeFor(shift.State)); !errors.Is(err, ErrLex) {
		t.Errorf("heredoc outside its lex mode: %v", err)
	}
	if calls != 0 {
		t.Errorf("scanner called %d times for a mode without externals", calls)
	}
}
