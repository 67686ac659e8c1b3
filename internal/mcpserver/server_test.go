package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dhamidi/vbsitter/internal/config"
	"github.com/dhamidi/vbsitter/internal/workspace"
	"github.com/dhamidi/vbsitter/vbnet"
)

const calculator = `Public Class Calculator
    Public Function Add(a As Integer, b As Integer) As Integer
        Return a + b
    End Function

    Public Function Multiply(x As Double, y As Double) As Double
        Return x * y
    End Function
End Class
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(t.TempDir(), config.DefaultConfig(), vbnet.Language(), "test")
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("got %d content items, want 1", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", res.Content[0])
	}
	if out != nil && !res.IsError {
		if err := json.Unmarshal([]byte(text.Text), out); err != nil {
			t.Fatalf("decode %q: %v", text.Text, err)
		}
	}
	return res
}

func TestParseTool(t *testing.T) {
	s := newTestServer(t)

	var got ParseResult
	call(t, s.handleParse, map[string]any{"source": "Module M\nEnd Module\n"}, &got)
	want := ParseResult{
		Tree:   "(source_file (type_declaration (module_block name: (identifier))))",
		Length: 20,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parse_vb mismatch (-want +got):\n%s", diff)
	}

	if res := call(t, s.handleParse, map[string]any{}, nil); !res.IsError {
		t.Error("parse_vb without source or path should fail")
	}
}

func TestParseToolReadsWorkspaceFiles(t *testing.T) {
	s := newTestServer(t)
	if err := os.WriteFile(filepath.Join(s.workspace.Root(), "calc.vb"), []byte(calculator), 0o644); err != nil {
		t.Fatal(err)
	}

	var got ParseResult
	call(t, s.handleParse, map[string]any{"path": "calc.vb"}, &got)
	if got.HasError || got.Length != uint32(len(calculator)) {
		t.Errorf("parse_vb(path) = %+v", got)
	}
	if res := call(t, s.handleParse, map[string]any{"path": "missing.vb"}, nil); !res.IsError {
		t.Error("parse_vb on a missing file should fail")
	}
}

func TestEditTool(t *testing.T) {
	s := newTestServer(t)

	var got struct {
		ParseResult
		Source string `json:"source"`
	}
	call(t, s.handleEdit, map[string]any{
		"source": "Module M\nEnd Module\n",
		"start":  float64(7),
		"end":    float64(8),
		"text":   "Renamed",
	}, &got)
	if got.Source != "Module Renamed\nEnd Module\n" {
		t.Errorf("edited source = %q", got.Source)
	}
	if got.HasError || got.Tree != "(source_file (type_declaration (module_block name: (identifier))))" {
		t.Errorf("edited tree = %+v", got.ParseResult)
	}

	res := call(t, s.handleEdit, map[string]any{"source": "x", "start": float64(3), "end": float64(1)}, nil)
	if !res.IsError {
		t.Error("edit_vb with an invalid range should fail")
	}
}

func TestQueryTool(t *testing.T) {
	s := newTestServer(t)

	var got QueryResult
	call(t, s.handleQuery, map[string]any{
		"query":  `(method_declaration name: (identifier) @name)`,
		"source": calculator,
	}, &got)
	var names []string
	for _, m := range got.Matches {
		for _, c := range m {
			names = append(names, c.Text)
		}
	}
	if diff := cmp.Diff([]string{"Add", "Multiply"}, names); diff != "" {
		t.Errorf("captured names mismatch (-want +got):\n%s", diff)
	}
	if got.Truncated {
		t.Error("result truncated without a limit")
	}

	call(t, s.handleQuery, map[string]any{
		"query":  `(method_declaration name: (identifier) @name)`,
		"source": calculator,
		"limit":  float64(1),
	}, &got)
	if len(got.Matches) != 1 || !got.Truncated {
		t.Errorf("limit 1 gave %d matches, truncated %v", len(got.Matches), got.Truncated)
	}

	res := call(t, s.handleQuery, map[string]any{"query": "(no_such_node)", "source": calculator}, nil)
	if !res.IsError {
		t.Error("query_vb with an unknown node type should fail")
	}
}

func TestSymbolsTool(t *testing.T) {
	s := newTestServer(t)

	var got []workspace.Symbol
	call(t, s.handleSymbols, map[string]any{"source": calculator}, &got)
	if len(got) != 1 || got[0].Name != "Calculator" || got[0].Kind != workspace.KindClass {
		t.Fatalf("symbols = %+v", got)
	}
	var methods []string
	for _, c := range got[0].Children {
		methods = append(methods, c.Name)
	}
	if diff := cmp.Diff([]string{"Add", "Multiply"}, methods); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckTool(t *testing.T) {
	s := newTestServer(t)

	var diags []workspace.Diagnostic
	call(t, s.handleCheck, map[string]any{"source": calculator}, &diags)
	if len(diags) != 0 {
		t.Errorf("diagnostics for valid source: %+v", diags)
	}

	call(t, s.handleCheck, map[string]any{"source": "Class C\n    Sub M(\nEnd Class\n"}, &diags)
	if len(diags) == 0 {
		t.Error("no diagnostics for broken source")
	}
}
