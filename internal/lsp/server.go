// Package lsp serves parsed VB.NET documents over the Language Server
// Protocol: incremental text sync, document symbols and syntax diagnostics.
package lsp

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/vbsitter/internal/config"
	"github.com/dhamidi/vbsitter/internal/workspace"
	"github.com/dhamidi/vbsitter/language"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "vbsitter"

var log = commonlog.GetLogger("vbsitter.lsp")

type Server struct {
	cfg     *config.Config
	lang    *language.Language
	handler protocol.Handler
	server  *server.Server
	version string

	mu        sync.Mutex
	workspace *workspace.Workspace
	notify    glsp.NotifyFunc
	cancel    context.CancelFunc
}

func NewServer(cfg *config.Config, lang *language.Language, version string) *Server {
	ls := &Server{
		cfg:     cfg,
		lang:    lang,
		version: version,
	}

	ls.handler = protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentDidSave:        ls.textDocumentDidSave,
		TextDocumentDocumentSymbol: ls.textDocumentDocumentSymbol,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	} else if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	}

	ws := workspace.New(rootDir, ls.lang, ls.cfg.Workspace,
		workspace.WithMaxVersions(ls.cfg.Parser.MaxVersions),
		workspace.WithNotify(ls.publish),
	)

	ls.mu.Lock()
	ls.workspace = ws
	ls.notify = ctx.Notify
	ls.mu.Unlock()

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindIncremental),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	log.Infof("initialized for %s", rootDir)
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	watchCtx, cancel := context.WithCancel(context.Background())
	ls.mu.Lock()
	ls.cancel = cancel
	ws := ls.workspace
	ls.mu.Unlock()

	go func() {
		if err := ws.ScanAll(watchCtx); err != nil {
			log.Warningf("scan: %s", err)
			return
		}
		if err := ws.Watch(watchCtx); err != nil {
			log.Warningf("watch: %s", err)
		}
	}()
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.cancel != nil {
		ls.cancel()
		ls.cancel = nil
	}
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	doc := ls.workspace.Open(path, params.TextDocument.Version, []byte(params.TextDocument.Text))
	ls.publishDocument(ctx.Notify, params.TextDocument.URI, doc)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	doc, err := ls.workspace.Change(path, params.TextDocument.Version, textChanges(params.ContentChanges))
	if err != nil {
		log.Warningf("%s", err)
		return nil
	}
	ls.publishDocument(ctx.Notify, params.TextDocument.URI, doc)
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.workspace.Close(path)
	ls.publishDocument(ctx.Notify, params.TextDocument.URI, ls.workspace.Get(path))
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	doc := ls.workspace.Get(path)
	if doc == nil || params.Text == nil || *params.Text == string(doc.Content) {
		return nil
	}
	// The editor's buffer drifted from ours; resynchronize from the saved text.
	doc = ls.workspace.Open(path, doc.Version, []byte(*params.Text))
	ls.publishDocument(ctx.Notify, params.TextDocument.URI, doc)
	return nil
}

func (ls *Server) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	symbols, err := ls.workspace.Symbols(path)
	if err != nil {
		return nil, nil
	}
	return documentSymbols(symbols), nil
}

// publish reports diagnostics for a file changed on disk.
func (ls *Server) publish(path string) {
	ls.mu.Lock()
	notify := ls.notify
	ls.mu.Unlock()
	if notify == nil {
		return
	}
	ls.publishDocument(notify, pathToURI(path), ls.workspace.Get(path))
}

// publishDocument sends the diagnostics of doc, or clears them when doc is
// nil.
func (ls *Server) publishDocument(notify glsp.NotifyFunc, uri string, doc *workspace.Document) {
	if !ls.cfg.LSP.Diagnostics {
		return
	}
	params := protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	}
	if doc != nil {
		params.Diagnostics = diagnostics(workspace.DocumentDiagnostics(doc, ls.cfg.LSP.MaxProblems))
		if doc.Open {
			version := protocol.UInteger(doc.Version)
			params.Version = &version
		}
	}
	notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// textChanges converts content change events in the order received.
func textChanges(events []any) []workspace.TextChange {
	changes := make([]workspace.TextChange, 0, len(events))
	for _, ev := range events {
		switch ev := ev.(type) {
		case protocol.TextDocumentContentChangeEvent:
			c := workspace.TextChange{Text: ev.Text}
			if ev.Range != nil {
				r := fromProtocolRange(*ev.Range)
				c.Range = &r
			}
			changes = append(changes, c)
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, workspace.TextChange{Text: ev.Text})
		}
	}
	return changes
}

var symbolKinds = map[workspace.SymbolKind]protocol.SymbolKind{
	workspace.KindNamespace:   protocol.SymbolKindNamespace,
	workspace.KindClass:       protocol.SymbolKindClass,
	workspace.KindModule:      protocol.SymbolKindModule,
	workspace.KindStructure:   protocol.SymbolKindStruct,
	workspace.KindInterface:   protocol.SymbolKindInterface,
	workspace.KindEnum:        protocol.SymbolKindEnum,
	workspace.KindEnumMember:  protocol.SymbolKindEnumMember,
	workspace.KindDelegate:    protocol.SymbolKindFunction,
	workspace.KindMethod:      protocol.SymbolKindMethod,
	workspace.KindConstructor: protocol.SymbolKindConstructor,
	workspace.KindProperty:    protocol.SymbolKindProperty,
	workspace.KindEvent:       protocol.SymbolKindEvent,
	workspace.KindField:       protocol.SymbolKindField,
	workspace.KindConstant:    protocol.SymbolKindConstant,
}

func documentSymbols(symbols []workspace.Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(symbols))
	for _, s := range symbols {
		kind, ok := symbolKinds[s.Kind]
		if !ok {
			kind = protocol.SymbolKindObject
		}
		ds := protocol.DocumentSymbol{
			Name:           s.Name,
			Kind:           kind,
			Range:          toProtocolRange(s.Range),
			SelectionRange: toProtocolRange(s.SelectionRange),
		}
		if len(s.Children) > 0 {
			ds.Children = documentSymbols(s.Children)
		}
		out = append(out, ds)
	}
	return out
}

func diagnostics(diags []workspace.Diagnostic) []protocol.Diagnostic {
	source := lsName
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == workspace.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

func toProtocolRange(r workspace.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   protocol.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

func fromProtocolRange(r protocol.Range) workspace.Range {
	return workspace.Range{
		Start: workspace.Position{Line: r.Start.Line, Character: r.Start.Character},
		End:   workspace.Position{Line: r.End.Line, Character: r.End.Character},
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
