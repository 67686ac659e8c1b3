// Package mcpserver exposes the VB.NET parser as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/vbsitter/internal/config"
	"github.com/dhamidi/vbsitter/internal/workspace"
	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/parser"
	"github.com/dhamidi/vbsitter/query"
)

var log = commonlog.GetLogger("vbsitter.mcp")

// Server implements the MCP server.
type Server struct {
	mcpServer *server.MCPServer
	config    *config.Config
	lang      *language.Language
	workspace *workspace.Workspace
}

// New creates a server whose relative paths resolve against root.
func New(root string, cfg *config.Config, lang *language.Language, version string) *Server {
	s := &Server{
		config: cfg,
		lang:   lang,
		workspace: workspace.New(root, lang, cfg.Workspace,
			workspace.WithMaxVersions(cfg.Parser.MaxVersions)),
	}

	mcpServer := server.NewMCPServer(
		"vbsitter",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	source := mcp.WithString("source", mcp.Description("VB.NET source text; takes precedence over path"))
	path := mcp.WithString("path", mcp.Description("File to read, relative to the workspace root"))

	mcpServer.AddTool(mcp.NewTool("parse_vb",
		mcp.WithDescription("Parse VB.NET source and return its syntax tree as an S-expression"),
		source, path,
		mcp.WithBoolean("positions", mcp.Description("Include line:column ranges for every node")),
	), s.handleParse)

	mcpServer.AddTool(mcp.NewTool("edit_vb",
		mcp.WithDescription("Replace the bytes [start, end) of VB.NET source and reparse incrementally"),
		mcp.WithString("source", mcp.Required(), mcp.Description("VB.NET source text")),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("First replaced byte")),
		mcp.WithNumber("end", mcp.Required(), mcp.Description("End of the replaced bytes, exclusive")),
		mcp.WithString("text", mcp.Description("Replacement text")),
	), s.handleEdit)

	mcpServer.AddTool(mcp.NewTool("query_vb",
		mcp.WithDescription("Run a tree query such as (method_declaration name: (identifier) @name) and return the captures"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query patterns")),
		source, path,
		mcp.WithNumber("limit", mcp.Description("Maximum matches returned")),
	), s.handleQuery)

	mcpServer.AddTool(mcp.NewTool("list_symbols",
		mcp.WithDescription("List the declarations of a VB.NET document as a hierarchy"),
		source, path,
	), s.handleSymbols)

	mcpServer.AddTool(mcp.NewTool("check_vb",
		mcp.WithDescription("Report the syntax errors of a VB.NET document"),
		source, path,
	), s.handleCheck)
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// document resolves the source or path arguments to a parsed document.
// Files are kept in the workspace so repeated calls reparse incrementally.
func (s *Server) document(req mcp.CallToolRequest) (*workspace.Document, error) {
	if src := req.GetString("source", ""); src != "" {
		content := []byte(src)
		return &workspace.Document{Content: content, Tree: s.newParser().Parse(content, nil)}, nil
	}
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("source or path is required")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.workspace.Root(), path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.workspace.UpdateFile(path, content), nil
}

func (s *Server) newParser() *parser.Parser {
	return parser.New(s.lang, parser.WithMaxVersions(s.config.Parser.MaxVersions))
}

// ParseResult is the result of parse_vb and edit_vb.
type ParseResult struct {
	Tree     string `json:"tree"`
	HasError bool   `json:"has_error"`
	Length   uint32 `json:"length"`
}

func treeResult(tree *parser.Tree, positions bool) ParseResult {
	res := ParseResult{HasError: tree.HasError(), Length: tree.Len()}
	if positions {
		res.Tree = tree.RootNode().StringWithPositions()
	} else {
		res.Tree = tree.String()
	}
	return res
}

func (s *Server) handleParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(treeResult(doc.Tree, req.GetBool("positions", false)))
}

func (s *Server) handleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, end := req.GetInt("start", -1), req.GetInt("end", -1)
	if start < 0 || end < start || end > len(src) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid range [%d, %d) for %d bytes", start, end, len(src))), nil
	}

	p := s.newParser()
	old := p.Parse([]byte(src), nil)
	edit, next := parser.NewEdit([]byte(src), uint32(start), uint32(end), []byte(req.GetString("text", "")))
	tree := p.Parse(next, old.Edit(edit))
	log.Debugf("%s: %s", edit, p.Stats())

	return jsonResult(struct {
		ParseResult
		Source string `json:"source"`
	}{treeResult(tree, false), string(next)})
}

// Capture is one captured node of a query match.
type Capture struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Text  string `json:"text"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// QueryResult is the result of query_vb.
type QueryResult struct {
	Matches   [][]Capture `json:"matches"`
	Truncated bool        `json:"truncated"`
}

func (s *Server) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q, err := query.Compile(s.lang, src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := req.GetInt("limit", s.config.MCP.MaxMatches)
	res := QueryResult{Matches: [][]Capture{}}
	for m := range q.All(doc.Tree.RootNode()) {
		if limit > 0 && len(res.Matches) == limit {
			res.Truncated = true
			break
		}
		captures := make([]Capture, 0, len(m.Captures))
		for _, c := range m.Captures {
			captures = append(captures, Capture{
				Name:  c.Name,
				Type:  c.Node.Type(),
				Text:  c.Node.Text(),
				Start: c.Node.StartPoint().String(),
				End:   c.Node.EndPoint().String(),
			})
		}
		res.Matches = append(res.Matches, captures)
	}
	return jsonResult(res)
}

func (s *Server) handleSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	symbols := workspace.DocumentSymbols(doc)
	if symbols == nil {
		symbols = []workspace.Symbol{}
	}
	return jsonResult(symbols)
}

func (s *Server) handleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.document(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	diags := workspace.DocumentDiagnostics(doc, s.config.LSP.MaxProblems)
	if diags == nil {
		diags = []workspace.Diagnostic{}
	}
	return jsonResult(diags)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
