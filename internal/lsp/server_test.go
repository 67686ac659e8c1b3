package lsp

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/vbsitter/internal/config"
	"github.com/dhamidi/vbsitter/internal/workspace"
	"github.com/dhamidi/vbsitter/vbnet"
)

type notification struct {
	method string
	params any
}

type recorder struct {
	sent []notification
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{Notify: func(method string, params any) {
		r.sent = append(r.sent, notification{method, params})
	}}
}

func (r *recorder) lastDiagnostics(t *testing.T) protocol.PublishDiagnosticsParams {
	t.Helper()
	if len(r.sent) == 0 {
		t.Fatal("nothing published")
	}
	n := r.sent[len(r.sent)-1]
	if n.method != protocol.ServerTextDocumentPublishDiagnostics {
		t.Fatalf("last notification %s, want %s", n.method, protocol.ServerTextDocumentPublishDiagnostics)
	}
	return n.params.(protocol.PublishDiagnosticsParams)
}

func newTestServer(t *testing.T) (*Server, *recorder, string) {
	t.Helper()
	root := t.TempDir()
	ls := NewServer(config.DefaultConfig(), vbnet.Language(), "test")
	rec := &recorder{}
	rootURI := pathToURI(root)
	if _, err := ls.initialize(rec.context(), &protocol.InitializeParams{RootURI: &rootURI}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return ls, rec, root
}

func TestDocumentLifecycle(t *testing.T) {
	ls, rec, root := newTestServer(t)
	uri := pathToURI(filepath.Join(root, "a.vb"))

	err := ls.textDocumentDidOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     uri,
			Version: 1,
			Text:    "Module M\n    Sub Main()\n    End Sub\nEnd Module\n",
		},
	})
	if err != nil {
		t.Fatalf("didOpen: %v", err)
	}
	if got := rec.lastDiagnostics(t); len(got.Diagnostics) != 0 || got.URI != uri {
		t.Fatalf("diagnostics after open = %+v", got)
	}

	// Break the Sub header by deleting its closing parenthesis.
	change := &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{
				Start: protocol.Position{Line: 1, Character: 13},
				End:   protocol.Position{Line: 1, Character: 14},
			},
			Text: "",
		}},
	}
	if err := ls.textDocumentDidChange(rec.context(), change); err != nil {
		t.Fatalf("didChange: %v", err)
	}
	got := rec.lastDiagnostics(t)
	if len(got.Diagnostics) == 0 {
		t.Fatal("no diagnostics for broken document")
	}
	if got.Version == nil || *got.Version != 2 {
		t.Errorf("diagnostics version = %v, want 2", got.Version)
	}

	symbols, err := ls.textDocumentDocumentSymbol(rec.context(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatalf("documentSymbol: %v", err)
	}
	if syms := symbols.([]protocol.DocumentSymbol); len(syms) == 0 || syms[0].Name != "M" || syms[0].Kind != protocol.SymbolKindModule {
		t.Errorf("symbols = %+v", syms)
	}

	if err := ls.textDocumentDidClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}); err != nil {
		t.Fatalf("didClose: %v", err)
	}
	if got := rec.lastDiagnostics(t); len(got.Diagnostics) != 0 {
		t.Errorf("diagnostics after close = %+v", got.Diagnostics)
	}
}

func TestTextChanges(t *testing.T) {
	events := []any{
		protocol.TextDocumentContentChangeEvent{
			Range: &protocol.Range{
				Start: protocol.Position{Line: 0, Character: 1},
				End:   protocol.Position{Line: 0, Character: 3},
			},
			Text: "x",
		},
		protocol.TextDocumentContentChangeEventWhole{Text: "all"},
	}
	want := []workspace.TextChange{
		{
			Range: &workspace.Range{
				Start: workspace.Position{Line: 0, Character: 1},
				End:   workspace.Position{Line: 0, Character: 3},
			},
			Text: "x",
		},
		{Text: "all"},
	}
	if diff := cmp.Diff(want, textChanges(events)); diff != "" {
		t.Errorf("textChanges mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentSymbols(t *testing.T) {
	in := []workspace.Symbol{{
		Name: "C",
		Kind: workspace.KindClass,
		Children: []workspace.Symbol{
			{Name: "New", Kind: workspace.KindConstructor},
			{Name: "S", Kind: workspace.KindStructure},
		},
	}}
	got := documentSymbols(in)
	if len(got) != 1 || got[0].Kind != protocol.SymbolKindClass {
		t.Fatalf("documentSymbols = %+v", got)
	}
	var kinds []protocol.SymbolKind
	for _, c := range got[0].Children {
		kinds = append(kinds, c.Kind)
	}
	if diff := cmp.Diff([]protocol.SymbolKind{protocol.SymbolKindConstructor, protocol.SymbolKindStruct}, kinds); diff != "" {
		t.Errorf("child kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestURIs(t *testing.T) {
	tests := []struct {
		uri  string
		path string
	}{
		{"file:///tmp/a.vb", "/tmp/a.vb"},
		{"file:///tmp/with%20space/b.vb", "/tmp/with space/b.vb"},
		{"untitled:1", "untitled:1"},
	}
	for _, tt := range tests {
		got, err := uriToPath(tt.uri)
		if err != nil {
			t.Fatalf("uriToPath(%q): %v", tt.uri, err)
		}
		if got != tt.path {
			t.Errorf("uriToPath(%q) = %q, want %q", tt.uri, got, tt.path)
		}
	}
	if got := pathToURI("/tmp/with space/b.vb"); got != "file:///tmp/with%20space/b.vb" {
		t.Errorf("pathToURI = %q", got)
	}
}
