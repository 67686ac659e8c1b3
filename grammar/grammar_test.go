package grammar

import (
	"errors"
	"strings"
	"testing"
)

func basic() *Grammar {
	g := New("basic")
	g.Define("program", Repeat(Sym("line")))
	g.Define("line", Seq(Sym("number"), Sym("word")))
	g.Define("number", Pattern(`\d+`))
	g.Define("word", Pattern(`[A-Z]+`))
	g.Extras = []Rule{Pattern(`\s+`)}
	return g
}

func TestValidate(t *testing.T) {
	if err := basic().Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	g := basic()
	g.Define("line", Seq(Sym("number"), Sym("verb")))
	err := g.Validate()
	if !errors.Is(err, ErrUndefinedSymbol) {
		t.Fatalf("Validate() = %v, want ErrUndefinedSymbol", err)
	}
	if !strings.Contains(err.Error(), "verb") {
		t.Errorf("error %q does not name the missing symbol", err)
	}

	if err := New("empty").Validate(); !errors.Is(err, ErrEmptyGrammar) {
		t.Errorf("Validate() on empty grammar = %v", err)
	}

	g = basic()
	g.Rules = append(g.Rules, Definition{Name: "word", Rule: Str("X")})
	if err := g.Validate(); !errors.Is(err, ErrDuplicateRule) {
		t.Errorf("Validate() = %v, want ErrDuplicateRule", err)
	}
}

func TestValidateExternals(t *testing.T) {
	g := basic()
	g.Define("line", Seq(Sym("number"), Sym("heredoc")))
	g.Externals = []string{"heredoc"}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if !g.IsExternal("heredoc") || g.IsExternal("word") {
		t.Error("IsExternal mismatch")
	}
}

func TestDefineReplaces(t *testing.T) {
	g := basic()
	g.Define("word", Pattern(`[a-z]+`))
	if len(g.Rules) != 4 {
		t.Fatalf("len(Rules) = %d, want 4", len(g.Rules))
	}
	r, ok := g.Rule("word")
	if !ok || r.String() != "/[a-z]+/" {
		t.Errorf("Rule(word) = %v, %v", r, ok)
	}
	if g.Start() != "program" {
		t.Errorf("Start() = %q", g.Start())
	}
}

func TestFingerprint(t *testing.T) {
	a, b := basic(), basic()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("equal grammars have different fingerprints")
	}
	b.Define("word", Pattern(`[A-Za-z]+`))
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("different grammars share a fingerprint")
	}
}

func TestRuleString(t *testing.T) {
	tests := []struct {
		rule Rule
		want string
	}{
		{Keyword("Sub"), `token(prec(1, none, ci"Sub"))`},
		{Optional(Sym("x")), "choice(x, blank)"},
		{Seq(Sym("x")), "x"},
		{CommaSep1(Sym("arg")), `seq(arg, repeat(seq(",", arg)))`},
		{Field("name", Sym("identifier")), "field(name, identifier)"},
		{PrecLeft(3, Sym("e")), "prec(3, left, e)"},
		{Alias(Sym("_t"), "blank_line", true), "alias(_t, blank_line, true)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.rule.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
