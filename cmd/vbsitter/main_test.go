package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const listGrammar = `
list    = "(" [ items ] ")" .
items   = Ident { "," Ident } .
Ident   = letter { letter | digit } .
letter  = "a" … "z" .
digit   = "0" … "9" .
`

// run executes the CLI with a configuration whose table cache lives in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(dir, ".vbsitter.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := "cache:\n  path: " + filepath.Join(dir, "tables.db") + "\nlogging:\n  level: error\n"
		if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	cmd := newRootCmd(&app{})
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.vb", "Module M\nEnd Module\n")
	bad := writeFile(t, dir, "bad.vb", "Module M\n    Sub S(\nEnd Module\n")

	out, err := run(t, dir, "parse", good)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := "(source_file (type_declaration (module_block name: (identifier))))\n"; out != want {
		t.Errorf("parse output = %q, want %q", out, want)
	}

	out, err = run(t, dir, "parse", "--quiet", good, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files") {
		t.Errorf("parse of a broken file: err = %v", err)
	}
	if !strings.HasPrefix(out, bad+":") {
		t.Errorf("quiet output = %q, want errors for %s", out, bad)
	}

	out, err = run(t, dir, "parse", "--format", "json", good)
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if !strings.Contains(out, `"type": "source_file"`) {
		t.Errorf("json output = %s", out)
	}
}

func TestEditCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.vb", "Module M\nEnd Module\n")

	out, err := run(t, dir, "edit", path, "--start", "7", "--end", "8", "--text", "Renamed", "--verify")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if want := "(source_file (type_declaration (module_block name: (identifier))))\n"; out != want {
		t.Errorf("edit output = %q, want %q", out, want)
	}

	if _, err := run(t, dir, "edit", path, "--start", "9", "--end", "100"); err == nil {
		t.Error("edit past the end of the file should fail")
	}
}

func TestQueryAndSymbolsCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.vb", `Public Class Calculator
    Public Function Add(a As Integer, b As Integer) As Integer
        Return a + b
    End Function
End Class
`)

	out, err := run(t, dir, "query", "-e", "(method_declaration name: (identifier) @name)", path)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if want := path + `:2:21: pattern 0 @name identifier "Add"` + "\n"; out != want {
		t.Errorf("query output = %q, want %q", out, want)
	}

	if _, err := run(t, dir, "query", "-e", "(no_such_node)", path); err == nil {
		t.Error("query with an unknown node type should fail")
	}

	out, err = run(t, dir, "symbols", path)
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	want := path + ":\n  class Calculator 1:1\n    method Add 2:5\n"
	if out != want {
		t.Errorf("symbols output = %q, want %q", out, want)
	}
}

func TestTableCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "table", "info")
	if err != nil {
		t.Fatalf("table info: %v", err)
	}
	if !strings.Contains(out, "name:        vb_dotnet\n") {
		t.Errorf("table info output = %s", out)
	}

	out, err = run(t, dir, "table", "list")
	if err != nil {
		t.Fatalf("table list: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 || !strings.Contains(lines[1], "*") {
		t.Errorf("table list output = %q, want one current entry", out)
	}

	exported := filepath.Join(dir, "vb.table")
	if _, err := run(t, dir, "table", "export", exported); err != nil {
		t.Fatalf("table export: %v", err)
	}
	out, err = run(t, dir, "table", "info", exported)
	if err != nil {
		t.Fatalf("table info on export: %v", err)
	}
	if !strings.Contains(out, "vb_dotnet") {
		t.Errorf("exported table info = %s", out)
	}
}

func TestGrammarCommands(t *testing.T) {
	dir := t.TempDir()
	g := writeFile(t, dir, "list.ebnf", listGrammar)
	input := writeFile(t, dir, "input.txt", "(ab, c1)")

	out, err := run(t, dir, "grammar", "check", "--start", "list", g)
	if err != nil {
		t.Fatalf("grammar check: %v", err)
	}
	if !strings.HasPrefix(out, g+": ") {
		t.Errorf("grammar check output = %q", out)
	}

	out, err = run(t, dir, "grammar", "parse", "--start", "list", g, input)
	if err != nil {
		t.Fatalf("grammar parse: %v", err)
	}
	if !strings.HasPrefix(out, "(list") {
		t.Errorf("grammar parse output = %q", out)
	}

	if _, err := run(t, dir, "grammar", "check", "--start", "missing", g); err == nil {
		t.Error("grammar check with an unknown start production should fail")
	}
}
