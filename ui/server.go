// Package ui serves a browser view of a parsed workspace: files with their
// syntax errors, declarations and trees, plus a playground for snippets.
package ui

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/vbsitter/internal/workspace"
	"github.com/dhamidi/vbsitter/parser"
)

//go:embed static all:templates
var embeddedFS embed.FS

const maxResults = 50

var log = commonlog.GetLogger("vbsitter.ui")

type Server struct {
	workspace  *workspace.Workspace
	maxVersion int
	staticFS   fs.FS
	mux        *http.ServeMux
	templateFS fs.FS
	funcMap    template.FuncMap
}

// NewServer serves ws. Templates and static files under ui/ in the working
// directory take precedence over the embedded copies.
func NewServer(ws *workspace.Workspace, maxVersions int) (*Server, error) {
	staticFS := overlayFS("ui/static", mustSub(embeddedFS, "static"))
	templateFS := overlayFS("ui/templates", mustSub(embeddedFS, "templates"))

	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"int": func(u uint32) int {
			return int(u)
		},
		"nested": func(path string, list []workspace.Symbol) map[string]any {
			return map[string]any{"Path": path, "List": list}
		},
		"rel": func(path string) string {
			return relPath(ws.Root(), path)
		},
		"symbolLink": func(path string, s workspace.Symbol) template.URL {
			return template.URL(fmt.Sprintf("/f/%s#L%d", relPath(ws.Root(), path), s.SelectionRange.Start.Line+1))
		},
		"lines": func(content []byte) []string {
			return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
		},
		"errorLines": func(diags []workspace.Diagnostic) map[int]bool {
			marked := make(map[int]bool)
			for _, d := range diags {
				for l := d.Range.Start.Line; l <= d.Range.End.Line; l++ {
					marked[int(l)] = true
				}
			}
			return marked
		},
	}

	if _, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "*.html"); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		workspace:  ws,
		maxVersion: maxVersions,
		staticFS:   staticFS,
		mux:        http.NewServeMux(),
		templateFS: templateFS,
		funcMap:    funcMap,
	}

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.mux.HandleFunc("GET /f/{path...}", s.handleFile)
	s.mux.HandleFunc("GET /sidebar", s.handleSidebar)
	s.mux.HandleFunc("POST /parse", s.handleParse)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, err := template.New("").Funcs(s.funcMap).ParseFS(s.templateFS, "*.html")
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Errorf("render %s: %s", name, err)
	}
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json"
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// FileEntry is one row of the file list.
type FileEntry struct {
	Path   string `json:"path"`
	Errors int    `json:"errors"`
}

func (s *Server) files(query string) (entries []FileEntry, total int) {
	query = strings.ToLower(query)
	for _, path := range s.workspace.Paths() {
		rel := relPath(s.workspace.Root(), path)
		if query != "" && !strings.Contains(strings.ToLower(rel), query) {
			continue
		}
		total++
		if len(entries) == maxResults {
			continue
		}
		doc := s.workspace.Get(path)
		if doc == nil {
			continue
		}
		entries = append(entries, FileEntry{Path: rel, Errors: len(doc.Tree.Errors())})
	}
	return entries, total
}

type sidebarData struct {
	Files        []FileEntry
	Active       string
	Query        string
	TotalMatches int
	HasMore      bool
}

func (s *Server) sidebar(query, active string) sidebarData {
	files, total := s.files(query)
	return sidebarData{
		Files:        files,
		Active:       active,
		Query:        query,
		TotalMatches: total,
		HasMore:      total > len(files),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.sidebar(r.URL.Query().Get("q"), "")
	if wantsJSON(r) {
		writeJSON(w, data.Files)
		return
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	s.render(w, "_sidebar.html", s.sidebar(r.URL.Query().Get("q"), r.URL.Query().Get("active")))
}

// FileViewData is rendered by file.html.
type FileViewData struct {
	Sidebar     sidebarData
	Doc         *workspace.Document
	Symbols     []workspace.Symbol
	Diagnostics []workspace.Diagnostic
	Tree        string
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")
	path := filepath.Join(s.workspace.Root(), filepath.FromSlash(rel))
	doc := s.workspace.Get(path)
	if doc == nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}

	data := FileViewData{
		Sidebar:     s.sidebar("", rel),
		Doc:         doc,
		Symbols:     workspace.DocumentSymbols(doc),
		Diagnostics: workspace.DocumentDiagnostics(doc, 0),
		Tree:        doc.Tree.RootNode().StringWithPositions(),
	}
	if wantsJSON(r) {
		writeJSON(w, struct {
			Path        string                 `json:"path"`
			Symbols     []workspace.Symbol     `json:"symbols"`
			Diagnostics []workspace.Diagnostic `json:"diagnostics"`
			Tree        *parser.Tree           `json:"tree"`
		}{rel, data.Symbols, data.Diagnostics, doc.Tree})
		return
	}
	s.render(w, "file.html", data)
}

// ParseViewData is rendered by parse.html.
type ParseViewData struct {
	Source      string
	Tree        string
	Diagnostics []workspace.Diagnostic
	Stats       parser.Stats
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data: "+err.Error(), http.StatusBadRequest)
		return
	}
	source := r.FormValue("source")

	p := parser.New(s.workspace.Language(), parser.WithMaxVersions(s.maxVersion))
	doc := &workspace.Document{Content: []byte(source)}
	doc.Tree = p.Parse(doc.Content, nil)

	if wantsJSON(r) {
		writeJSON(w, doc.Tree)
		return
	}
	s.render(w, "parse.html", ParseViewData{
		Source:      source,
		Tree:        doc.Tree.RootNode().StringWithPositions(),
		Diagnostics: workspace.DocumentDiagnostics(doc, 0),
		Stats:       p.Stats(),
	})
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

type overlayFSType struct {
	primary   fs.FS
	secondary fs.FS
}

func overlayFS(primaryPath string, secondary fs.FS) fs.FS {
	return &overlayFSType{
		primary:   os.DirFS(primaryPath),
		secondary: secondary,
	}
}

func (o *overlayFSType) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return o.secondary.Open(name)
}

func (o *overlayFSType) ReadDir(name string) ([]fs.DirEntry, error) {
	entries := make(map[string]fs.DirEntry)

	if rd, ok := o.secondary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	if rd, ok := o.primary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	result := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	return result, nil
}
