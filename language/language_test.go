package language

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	. "github.com/dhamidi/vbsitter/grammar"
)

func basicGrammar() *Grammar {
	g := New("basic")
	g.Define("program", Repeat(Sym("line")))
	g.Define("line", Seq(Sym("number"), Sym("word"), Optional(Str("\n"))))
	g.Define("number", Pattern(`\d+`))
	g.Define("word", Pattern(`[A-Z]+`))
	g.Extras = []Rule{Pattern(`[ \t]+`)}
	return g
}

func sumGrammar(rule func(int, Rule) Rule) *Grammar {
	g := New("sum")
	g.Define("expr", Choice(
		Sym("num"),
		rule(1, Seq(Field("left", Sym("expr")), Str("+"), Field("right", Sym("expr")))),
	))
	g.Define("num", Pattern(`\d+`))
	g.Extras = []Rule{Pattern(`\s+`)}
	return g
}

func mustBuild(t *testing.T, g *Grammar) *Language {
	t.Helper()
	lang, err := Build(g)
	if err != nil {
		t.Fatalf("Build(%s) = %v", g.Name, err)
	}
	return lang
}

func mustSymbol(t *testing.T, lang *Language, name string, named bool) Symbol {
	t.Helper()
	sym, ok := lang.SymbolForName(name, named)
	if !ok {
		t.Fatalf("symbol %q not found", name)
	}
	return sym
}

func TestBuildSymbols(t *testing.T) {
	lang := mustBuild(t, basicGrammar())

	if got := lang.SymbolName(lang.Start); got != "program" {
		t.Errorf("start symbol = %q, want program", got)
	}
	number := mustSymbol(t, lang, "number", true)
	if info := lang.Symbol(number); info.Kind != KindTerminal || !info.Visible {
		t.Errorf("number = %+v", info)
	}
	line := mustSymbol(t, lang, "line", true)
	if lang.Symbol(line).Kind != KindNonterminal {
		t.Errorf("line kind = %v", lang.Symbol(line).Kind)
	}
	if lang.SymbolName(SymbolError) != "ERROR" {
		t.Errorf("SymbolError name = %q", lang.SymbolName(SymbolError))
	}

	var skip int
	for _, s := range lang.Symbols {
		if s.Skip {
			skip++
			if !s.Extra {
				t.Errorf("skip symbol %q is not extra", s.Name)
			}
		}
	}
	if skip != 1 {
		t.Errorf("found %d skip symbols, want 1", skip)
	}
	if len(lang.Conflicts) != 0 {
		t.Errorf("unexpected conflicts: %v", lang.Conflicts)
	}
}

func TestLookup(t *testing.T) {
	lang := mustBuild(t, basicGrammar())
	number := mustSymbol(t, lang, "number", true)
	word := mustSymbol(t, lang, "word", true)

	a, err := lang.Lookup(0, number)
	if err != nil {
		t.Fatalf("Lookup(0, number) = %v", err)
	}
	if a.Type != ActionShift {
		t.Fatalf("Lookup(0, number) = %v, want shift", a)
	}

	next, err := lang.Lookup(a.State, word)
	if err != nil || next.Type != ActionShift {
		t.Errorf("Lookup(%d, word) = %v, %v", a.State, next, err)
	}

	a, err = lang.Lookup(0, word)
	if err != nil || a.Type != ActionError {
		t.Errorf("Lookup(0, word) = %v, %v; want error action", a, err)
	}

	a, err = lang.Lookup(0, SymbolEnd)
	if err != nil || a.Type != ActionReduce {
		t.Errorf("Lookup(0, end) = %v, %v; want reduce of empty program", a, err)
	}

	_, err = lang.Lookup(StateID(lang.StateCount), number)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Lookup past last state = %v, want ErrInvalidState", err)
	}
}

func TestConflictsKeptInTableOrder(t *testing.T) {
	lang := mustBuild(t, sumGrammar(Prec))
	plus := mustSymbol(t, lang, "+", false)

	var found bool
	for _, c := range lang.Conflicts {
		if c.Symbol != plus {
			continue
		}
		found = true
		acts := lang.Actions(c.State, plus)
		if len(acts) != 2 || acts[0].Type != ActionShift || acts[1].Type != ActionReduce {
			t.Errorf("actions = %v, want [shift, reduce]", acts)
		}
		first, _ := lang.Lookup(c.State, plus)
		if first != acts[0] {
			t.Errorf("Lookup() = %v, want first listed action %v", first, acts[0])
		}
	}
	if !found {
		t.Fatal("expected a shift/reduce conflict on +")
	}
}

func TestPrecedenceResolvesConflicts(t *testing.T) {
	tests := []struct {
		name string
		rule func(int, Rule) Rule
		want ActionType
	}{
		{"left", PrecLeft, ActionReduce},
		{"right", PrecRight, ActionShift},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang := mustBuild(t, sumGrammar(tt.rule))
			if len(lang.Conflicts) != 0 {
				t.Fatalf("conflicts = %v", lang.Conflicts)
			}
			plus := mustSymbol(t, lang, "+", false)
			expr := mustSymbol(t, lang, "expr", true)

			// expr + expr . +
			s, _ := lang.Goto(0, expr)
			a, _ := lang.Lookup(s, plus)
			s = a.State
			s, _ = lang.Goto(s, expr)
			a, _ = lang.Lookup(s, plus)
			if a.Type != tt.want {
				t.Errorf("action after expr + expr on + = %v, want %v", a, tt.want)
			}
		})
	}
}

func TestFieldsAndHiddenRepeat(t *testing.T) {
	lang := mustBuild(t, sumGrammar(PrecLeft))
	left, ok := lang.FieldID("left")
	if !ok || lang.FieldName(left) != "left" {
		t.Fatalf("FieldID(left) = %d, %v", left, ok)
	}
	if _, ok := lang.FieldID("middle"); ok {
		t.Error("FieldID(middle) found")
	}

	lang = mustBuild(t, basicGrammar())
	var repeats int
	for _, s := range lang.Symbols {
		if s.Kind == KindNonterminal && !s.Visible && s.Name != "_start" {
			repeats++
		}
	}
	if repeats != 1 {
		t.Errorf("hidden repeat symbols = %d, want 1", repeats)
	}
}

func TestKeywordBeatsPattern(t *testing.T) {
	g := New("kw")
	g.Define("stmt", Choice(Seq(Keyword("End"), Sym("identifier")), Sym("identifier")))
	g.Define("identifier", Pattern(`[A-Za-z]+`))
	lang := mustBuild(t, g)

	end := mustSymbol(t, lang, "End", false)
	for _, term := range lang.Terminals {
		if term.Symbol == end {
			if !term.IsLiteral() || !term.Fold || term.Prec != 1 {
				t.Errorf("End terminal = %+v", term)
			}
			return
		}
	}
	t.Fatal("End terminal not defined")
}

func TestEncodeDecode(t *testing.T) {
	lang := mustBuild(t, sumGrammar(PrecLeft))
	var buf bytes.Buffer
	if err := lang.Encode(&buf); err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if diff := cmp.Diff(lang.Symbols, got.Symbols); diff != "" {
		t.Errorf("symbols differ (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(lang.Table, got.Table); diff != "" {
		t.Errorf("table differs (-want +got):\n%s", diff)
	}
	if got.Fingerprint != lang.Fingerprint {
		t.Errorf("fingerprint = %q, want %q", got.Fingerprint, lang.Fingerprint)
	}

	lang.Version = Version + 1
	buf.Reset()
	if err := lang.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(&buf); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Decode() of newer table = %v, want ErrInvalidState", err)
	}
}

func TestValidateRejectsCorruptTable(t *testing.T) {
	lang := mustBuild(t, basicGrammar())
	lang.Entries = append(lang.Entries, []Action{{Type: ActionShift, State: StateID(lang.StateCount + 5)}})
	if err := lang.Validate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Validate() = %v, want ErrInvalidState", err)
	}
}

func TestBuildErrors(t *testing.T) {
	g := New("bad")
	g.Define("a", Token(Seq(Str("x"), Sym("b"))))
	g.Define("b", Seq(Str("y")))
	if _, err := Build(g); !errors.Is(err, ErrSymbolInToken) {
		t.Errorf("Build() = %v, want ErrSymbolInToken", err)
	}

	g = New("bad")
	g.Define("a", Seq(Sym("b"), Str("x")))
	g.Define("b", Str("y"))
	g.Extras = []Rule{Sym("a")}
	if _, err := Build(g); !errors.Is(err, ErrNonTokenExtra) {
		t.Errorf("Build() = %v, want ErrNonTokenExtra", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	a := mustBuild(t, basicGrammar())
	b := mustBuild(t, basicGrammar())
	if diff := cmp.Diff(a.Table, b.Table); diff != "" {
		t.Errorf("tables differ:\n%s", diff)
	}
	if diff := cmp.Diff(a.StateLexModes, b.StateLexModes); diff != "" {
		t.Errorf("lex modes differ:\n%s", diff)
	}
}
