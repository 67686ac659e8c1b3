package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/vbsitter/internal/config"
	"github.com/dhamidi/vbsitter/vbnet"
)

const moduleSource = `Module TestModule
    Sub Main()
        Console.WriteLine("Hello World")
    End Sub

    Private Property Count As Integer
End Module

Public Class TestClass
    Private total As Integer

    Public Function Multiply(x As Double, y As Double) As Double
        Return x * y
    End Function
End Class
`

func newWorkspace(t *testing.T, root string, opts ...Option) *Workspace {
	t.Helper()
	cfg := config.DefaultConfig().Workspace
	cfg.Debounce = 10 * time.Millisecond
	return New(root, vbnet.Language(), cfg, opts...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPositions(t *testing.T) {
	content := []byte("ab\né\U0001F600x\r\nend")
	tests := []struct {
		pos    Position
		offset uint32
	}{
		{Position{0, 0}, 0},
		{Position{0, 2}, 2},
		{Position{1, 0}, 3},
		{Position{1, 1}, 5},  // after é, two bytes
		{Position{1, 3}, 9},  // after the emoji, two UTF-16 units
		{Position{1, 4}, 10}, // after x
		{Position{2, 3}, 15},
	}
	for _, tt := range tests {
		if got := Offset(content, tt.pos); got != tt.offset {
			t.Errorf("Offset(%v) = %d, want %d", tt.pos, got, tt.offset)
		}
		if got := PositionAt(content, tt.offset); got != tt.pos {
			t.Errorf("PositionAt(%d) = %v, want %v", tt.offset, got, tt.pos)
		}
	}

	if got := Offset(content, Position{1, 99}); got != 10 {
		t.Errorf("Offset past line end = %d, want 10", got)
	}
	if got := Offset(content, Position{9, 0}); got != uint32(len(content)) {
		t.Errorf("Offset past last line = %d, want %d", got, len(content))
	}
}

func TestChangeMatchesFreshParse(t *testing.T) {
	ws := newWorkspace(t, t.TempDir())
	path := filepath.Join(ws.Root(), "a.vb")
	ws.Open(path, 1, []byte(moduleSource))

	// Rename Main to Start and Multiply to Times in one notification.
	changes := []TextChange{
		{Range: &Range{Start: Position{1, 8}, End: Position{1, 12}}, Text: "Start"},
		{Range: &Range{Start: Position{11, 20}, End: Position{11, 28}}, Text: "Times"},
	}
	doc, err := ws.Change(path, 2, changes)
	if err != nil {
		t.Fatalf("Change: %v", err)
	}
	if doc.Version != 2 || !doc.Open {
		t.Errorf("document version %d open %v, want 2 true", doc.Version, doc.Open)
	}

	fresh := vbnet.Parse(doc.Content)
	if diff := cmp.Diff(fresh.String(), doc.Tree.String()); diff != "" {
		t.Errorf("incremental tree differs (-fresh +incremental):\n%s", diff)
	}

	var names []string
	for _, s := range DocumentSymbols(doc) {
		for _, c := range s.Children {
			names = append(names, c.Name)
		}
	}
	want := []string{"Start", "Count", "total", "Times"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("member names mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeWholeDocument(t *testing.T) {
	ws := newWorkspace(t, t.TempDir())
	path := filepath.Join(ws.Root(), "a.vb")
	ws.Open(path, 1, []byte(moduleSource))

	doc, err := ws.Change(path, 2, []TextChange{{Text: "Module M\nEnd Module\n"}})
	if err != nil {
		t.Fatalf("Change: %v", err)
	}
	if got, want := doc.Tree.String(), "(source_file (type_declaration (module_block name: (identifier))))"; got != want {
		t.Errorf("tree = %s, want %s", got, want)
	}
}

func TestChangeUnknownDocument(t *testing.T) {
	ws := newWorkspace(t, t.TempDir())
	if _, err := ws.Change("missing.vb", 1, nil); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Change error = %v, want ErrNotOpen", err)
	}
	if _, err := ws.Symbols("missing.vb"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Symbols error = %v, want ErrNotOpen", err)
	}
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.vb"), moduleSource)
	writeFile(t, filepath.Join(root, "sub", "b.vb"), "Module B\nEnd Module\n")
	writeFile(t, filepath.Join(root, "bin", "c.vb"), "Module C\nEnd Module\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "not vb")

	ws := newWorkspace(t, root)
	if err := ws.ScanAll(context.Background()); err != nil {
		t.Fatalf("ScanAll: %v", err)
	}

	want := []string{filepath.Join(root, "a.vb"), filepath.Join(root, "sub", "b.vb")}
	if diff := cmp.Diff(want, ws.Paths()); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}

	syms, err := ws.Symbols(filepath.Join(root, "a.vb"))
	if err != nil {
		t.Fatalf("Symbols: %v", err)
	}
	var top []string
	for _, s := range syms {
		top = append(top, s.String())
	}
	if diff := cmp.Diff([]string{"module TestModule 1:1", "class TestClass 9:1"}, top); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateFileReusesTree(t *testing.T) {
	ws := newWorkspace(t, t.TempDir())
	path := filepath.Join(ws.Root(), "a.vb")
	ws.UpdateFile(path, []byte(moduleSource))

	next := []byte(moduleSource[:len(moduleSource)-len("End Class\n")] + "End Class\n\nModule Extra\nEnd Module\n")
	doc := ws.UpdateFile(path, next)

	if diff := cmp.Diff(vbnet.Parse(next).String(), doc.Tree.String()); diff != "" {
		t.Errorf("tree differs from fresh parse (-fresh +got):\n%s", diff)
	}
	if doc.Path != path {
		t.Errorf("document path = %q, want %q", doc.Path, path)
	}
}

func TestDiagnostics(t *testing.T) {
	ws := newWorkspace(t, t.TempDir())
	path := filepath.Join(ws.Root(), "broken.vb")
	ws.Open(path, 1, []byte("Module M\n    Sub Main()\n        x = \n    End Sub\nEnd Module\n"))

	diags, err := ws.Diagnostics(path)
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if len(diags) == 0 {
		t.Fatal("no diagnostics for broken source")
	}
	for _, d := range diags {
		if d.Severity != SeverityError || d.Message == "" {
			t.Errorf("unexpected diagnostic %+v", d)
		}
	}

	ws.Open(path, 2, []byte("Module M\nEnd Module\n"))
	if diags, _ := ws.Diagnostics(path); len(diags) != 0 {
		t.Errorf("diagnostics for valid source: %+v", diags)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", "syntax error"},
		{"@", `unexpected "@"`},
		{"x = \nmore", `unexpected "x = "`},
		{"abcdefghijklmnopqrstuvwxyz0123456789", `unexpected "abcdefghijklmnopqrstuvwxyz012345"...`},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.text)); got != tt.want {
			t.Errorf("errorMessage(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestCloseRestoresDiskCopy(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.vb")
	writeFile(t, path, "Module Disk\nEnd Module\n")

	ws := newWorkspace(t, root)
	ws.Open(path, 1, []byte("Module Editor\nEnd Module\n"))
	if err := ws.ScanFile(path); err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	if got := string(ws.Get(path).Content); got != "Module Editor\nEnd Module\n" {
		t.Errorf("disk scan replaced an open document: %q", got)
	}

	ws.Close(path)
	doc := ws.Get(path)
	if doc == nil || doc.Open || string(doc.Content) != "Module Disk\nEnd Module\n" {
		t.Fatalf("after Close got %+v", doc)
	}

	os.Remove(path)
	ws.Open(path, 1, doc.Content)
	ws.Close(path)
	if ws.Get(path) != nil {
		t.Error("closing a document without a disk copy should drop it")
	}
}

func TestDiffEdit(t *testing.T) {
	tests := []struct {
		old, next            string
		start, oldEnd, newEnd uint32
		ok                   bool
	}{
		{"abc", "abc", 0, 0, 0, false},
		{"abc", "abXc", 2, 2, 3, true},
		{"abc", "ac", 1, 2, 1, true},
		{"aaa", "aaaa", 3, 3, 4, true},
		{"", "x", 0, 0, 1, true},
	}
	for _, tt := range tests {
		edit, ok := diffEdit([]byte(tt.old), []byte(tt.next))
		if ok != tt.ok {
			t.Errorf("diffEdit(%q, %q) ok = %v, want %v", tt.old, tt.next, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if edit.StartByte != tt.start || edit.OldEndByte != tt.oldEnd || edit.NewEndByte != tt.newEnd {
			t.Errorf("diffEdit(%q, %q) = %s, want [%d, %d) -> %d", tt.old, tt.next, edit, tt.start, tt.oldEnd, tt.newEnd)
		}
	}
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	updates := make(chan string, 16)
	ws := newWorkspace(t, root, WithNotify(func(path string) { updates <- path }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	path := filepath.Join(root, "w.vb")
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	// The watcher may not be registered yet; rewrite until an update arrives.
	for {
		select {
		case got := <-updates:
			if got != path {
				t.Fatalf("update for %q, want %q", got, path)
			}
			if doc := ws.Get(path); doc == nil || doc.Tree.HasError() {
				t.Fatalf("watched document not parsed: %+v", doc)
			}
			return
		case <-tick.C:
			writeFile(t, path, "Module W\nEnd Module\n")
		case <-deadline:
			t.Fatal("no update within 5s")
		}
	}
}
