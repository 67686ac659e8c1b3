// Package workspace keeps parsed VB.NET documents for a directory tree and
// reparses them incrementally as editors or the file system change them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/vbsitter/internal/config"
	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/parser"
)

var ErrNotOpen = errors.New("document not found")

var log = commonlog.GetLogger("vbsitter.workspace")

// Document is one parsed file. Documents are replaced, never modified, so
// a Document obtained from the workspace stays consistent.
type Document struct {
	Path    string
	Version int32
	Content []byte
	Tree    *parser.Tree
	// Open is set while an editor owns the document; disk changes are
	// ignored until it is closed.
	Open bool
}

// TextChange replaces Range with Text. A nil Range replaces the whole
// document.
type TextChange struct {
	Range *Range
	Text  string
}

type Workspace struct {
	mu     sync.RWMutex
	root   string
	cfg    config.WorkspaceConfig
	lang   *language.Language
	parser *parser.Parser
	files  map[string]*Document

	maxVersions int
	notify      func(path string)
}

type Option func(*Workspace)

// WithMaxVersions limits the parser's stack versions.
func WithMaxVersions(n int) Option {
	return func(w *Workspace) { w.maxVersions = n }
}

// WithNotify registers a function called after a document changed on disk
// or was removed.
func WithNotify(fn func(path string)) Option {
	return func(w *Workspace) { w.notify = fn }
}

func New(root string, lang *language.Language, cfg config.WorkspaceConfig, opts ...Option) *Workspace {
	w := &Workspace{
		root:        root,
		cfg:         cfg,
		lang:        lang,
		files:       make(map[string]*Document),
		maxVersions: parser.DefaultMaxVersions,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.parser = w.newParser()
	return w
}

func (w *Workspace) newParser() *parser.Parser {
	return parser.New(w.lang, parser.WithMaxVersions(w.maxVersions))
}

func (w *Workspace) Root() string { return w.root }

func (w *Workspace) Language() *language.Language { return w.lang }

// Matches reports whether path names a file the workspace parses.
func (w *Workspace) Matches(path string) bool {
	name := filepath.Base(path)
	for _, pattern := range w.cfg.Include {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (w *Workspace) excluded(dir string) bool {
	return dir != w.root && slices.Contains(w.cfg.Exclude, filepath.Base(dir))
}

// Open parses content as the editor's copy of path.
func (w *Workspace) Open(path string, version int32, content []byte) *Document {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc := &Document{
		Path:    path,
		Version: version,
		Content: content,
		Tree:    w.parser.Parse(content, nil),
		Open:    true,
	}
	w.files[path] = doc
	return doc
}

// Change applies editor changes in order and reparses the result
// incrementally.
func (w *Workspace) Change(path string, version int32, changes []TextChange) (*Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc := w.files[path]
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, path)
	}

	content, old := doc.Content, doc.Tree
	for _, c := range changes {
		if c.Range == nil {
			content, old = []byte(c.Text), nil
			continue
		}
		start := Offset(content, c.Range.Start)
		end := Offset(content, c.Range.End)
		if end < start {
			start, end = end, start
		}
		var edit parser.Edit
		edit, content = parser.NewEdit(content, start, end, []byte(c.Text))
		if old != nil {
			old = old.Edit(edit)
		}
	}

	next := &Document{
		Path:    path,
		Version: version,
		Content: content,
		Tree:    w.parser.Parse(content, old),
		Open:    doc.Open,
	}
	w.files[path] = next
	log.Debugf("reparsed %s v%d: %s", path, version, w.parser.Stats())
	return next, nil
}

// Close hands path back to the file system. The disk copy replaces the
// editor's, or the document is dropped when the file does not exist.
func (w *Workspace) Close(path string) {
	content, err := os.ReadFile(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	doc := w.files[path]
	if doc == nil {
		return
	}
	if err != nil || !w.Matches(path) {
		delete(w.files, path)
		return
	}
	w.files[path] = w.reparseLocked(path, doc, content)
}

// Get returns the current document for path, or nil.
func (w *Workspace) Get(path string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[path]
}

// Paths returns the paths of all documents, sorted.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// ScanAll parses every matching file under the root in parallel.
func (w *Workspace) ScanAll(ctx context.Context) error {
	var paths []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warningf("skipping %s: %s", path, err)
			return nil
		}
		if d.IsDir() {
			if w.excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.Matches(path) {
			paths = append(paths, path)
		}
		return ctx.Err()
	})
	if err != nil {
		return err
	}

	workers := w.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers)
	for _, path := range paths {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.scan(path, w.newParser()); err != nil {
				log.Warningf("%s", err)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	log.Infof("scanned %d files under %s", len(paths), w.root)
	return nil
}

// ScanFile reads path from disk and reparses it.
func (w *Workspace) ScanFile(path string) error {
	return w.scan(path, nil)
}

// scan parses with p outside the lock when given one.
func (w *Workspace) scan(path string, p *parser.Parser) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if p != nil {
		w.mu.RLock()
		prev := w.files[path]
		w.mu.RUnlock()
		if prev == nil {
			tree := p.Parse(content, nil)
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.files[path] == nil {
				w.files[path] = &Document{Path: path, Content: content, Tree: tree}
			}
			return nil
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.files[path]
	if doc != nil && doc.Open {
		return nil
	}
	w.files[path] = w.reparseLocked(path, doc, content)
	return nil
}

// UpdateFile replaces the content of path, reusing the previous tree for
// the unchanged prefix and suffix.
func (w *Workspace) UpdateFile(path string, content []byte) *Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.reparseLocked(path, w.files[path], content)
	w.files[path] = doc
	return doc
}

func (w *Workspace) reparseLocked(path string, prev *Document, content []byte) *Document {
	doc := &Document{Path: path, Content: content}
	if prev == nil {
		doc.Tree = w.parser.Parse(content, nil)
		return doc
	}
	doc.Version = prev.Version
	edit, ok := diffEdit(prev.Content, content)
	if !ok {
		doc.Tree = prev.Tree
		return doc
	}
	doc.Tree = w.parser.Parse(content, prev.Tree.Edit(edit))
	return doc
}

// RemoveFile drops path unless an editor has it open.
func (w *Workspace) RemoveFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if doc := w.files[path]; doc != nil && !doc.Open {
		delete(w.files, path)
	}
}

// diffEdit describes the change from old to next as a single edit spanning
// everything between their common prefix and suffix. It reports false when
// the contents are equal.
func diffEdit(old, next []byte) (parser.Edit, bool) {
	prefix := 0
	for prefix < len(old) && prefix < len(next) && old[prefix] == next[prefix] {
		prefix++
	}
	if prefix == len(old) && prefix == len(next) {
		return parser.Edit{}, false
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(next)-prefix &&
		old[len(old)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}
	edit, _ := parser.NewEdit(old, uint32(prefix), uint32(len(old)-suffix), next[prefix:len(next)-suffix])
	return edit, true
}
