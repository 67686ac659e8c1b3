package workspace

import (
	"fmt"
	"unicode/utf8"
)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

// Diagnostic reports a syntax error.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Diagnostics returns the syntax errors of path.
func (w *Workspace) Diagnostics(path string) ([]Diagnostic, error) {
	doc := w.Get(path)
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, path)
	}
	return DocumentDiagnostics(doc, 0), nil
}

// DocumentDiagnostics lists one diagnostic per ERROR node, at most limit
// when limit is positive.
func DocumentDiagnostics(doc *Document, limit int) []Diagnostic {
	var out []Diagnostic
	for _, n := range doc.Tree.Errors() {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, Diagnostic{
			Range:    nodeRange(doc.Content, n),
			Severity: SeverityError,
			Message:  errorMessage(doc.Content[n.StartByte():n.EndByte()]),
		})
	}
	return out
}

const maxQuoted = 32

func errorMessage(text []byte) string {
	for i, b := range text {
		if b == '\r' || b == '\n' {
			text = text[:i]
			break
		}
	}
	if len(text) == 0 {
		return "syntax error"
	}
	if utf8.RuneCount(text) > maxQuoted {
		runes := []rune(string(text))
		return fmt.Sprintf("unexpected %q...", string(runes[:maxQuoted]))
	}
	return fmt.Sprintf("unexpected %q", text)
}
