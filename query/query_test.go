package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/vbsitter/vbnet"
)

const source = `Module TestModule
    Sub Main()
        Console.WriteLine("Hello World")
    End Sub

    Function Add(a As Integer, b As Integer) As Integer
        Return a + b
    End Function
End Module

Public Class TestClass
    Public Function Multiply(x As Double, y As Double) As Double
        Dim result As Double
        result = x * y
        Return result
    End Function
End Class
`

func captured(t *testing.T, src, capture string) []string {
	t.Helper()
	q, err := Compile(vbnet.Language(), src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	tree := vbnet.Parse([]byte(source))
	var out []string
	for _, m := range q.Matches(tree.RootNode()) {
		for _, n := range m.Captured(capture) {
			out = append(out, n.Text())
		}
	}
	return out
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		capture string
		want    []string
	}{
		{
			name:    "field",
			query:   `(method_declaration name: (identifier) @name)`,
			capture: "name",
			want:    []string{"Main", "Add", "Multiply"},
		},
		{
			name:    "match predicate",
			query:   `(method_declaration name: (identifier) @name (#match? @name "^M"))`,
			capture: "name",
			want:    []string{"Main", "Multiply"},
		},
		{
			name:    "eq predicate",
			query:   `(method_declaration name: (identifier) @name (#eq? @name "Add"))`,
			capture: "name",
			want:    []string{"Add"},
		},
		{
			name:    "not-eq predicate",
			query:   `(method_declaration name: (identifier) @name (#not-eq? @name "Add"))`,
			capture: "name",
			want:    []string{"Main", "Multiply"},
		},
		{
			name:    "anonymous node",
			query:   `(binary_expression operator: "+" @op)`,
			capture: "op",
			want:    []string{"+"},
		},
		{
			name:    "group with predicate",
			query:   `((identifier) @id (#eq? @id "result"))`,
			capture: "id",
			want:    []string{"result", "result", "result"},
		},
		{
			name:    "wildcard",
			query:   `(class_block name: (_) @name)`,
			capture: "name",
			want:    []string{"TestClass"},
		},
		{
			name: "several patterns",
			query: `
				; types first
				(module_block name: (identifier) @type)
				(class_block name: (identifier) @type)`,
			capture: "type",
			want:    []string{"TestModule", "TestClass"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := captured(t, tt.query, tt.capture)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("captures mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		query string
		want  error
	}{
		{``, ErrSyntax},
		{`(identifier`, ErrSyntax},
		{`(no_such_node)`, ErrNodeType},
		{`"no such token"`, ErrNodeType},
		{`(method_declaration nope: (identifier))`, ErrField},
		{`((identifier) @a (#eq? @b "x"))`, ErrCapture},
		{`((identifier) @a (#frobnicate? @a "x"))`, ErrPredicate},
		{`((identifier) @a (#match? @a "("))`, ErrPredicate},
		{`(#eq? @a "x")`, ErrPredicate},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := Compile(vbnet.Language(), tt.query)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Compile error = %v, want %v", err, tt.want)
			}
			var qerr *Error
			if !errors.As(err, &qerr) {
				t.Fatalf("error %T is not a *Error", err)
			}
		})
	}
}

func TestCaptureNames(t *testing.T) {
	q := MustCompile(vbnet.Language(), `(method_declaration name: (identifier) @name parameters: (parameter_list) @params) @method`)
	want := []string{"name", "params", "method"}
	if diff := cmp.Diff(want, q.CaptureNames()); diff != "" {
		t.Errorf("capture names mismatch (-want +got):\n%s", diff)
	}
	if q.PatternCount() != 1 {
		t.Errorf("PatternCount = %d, want 1", q.PatternCount())
	}
}

func TestAllStopsEarly(t *testing.T) {
	q := MustCompile(vbnet.Language(), `(method_declaration name: (identifier) @name)`)
	tree := vbnet.Parse([]byte(source))

	var names []string
	for m := range q.All(tree.RootNode()) {
		names = append(names, m.Captured("name")[0].Text())
		if len(names) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]string{"Main", "Add"}, names); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
	if got := len(q.Matches(tree.RootNode())); got != 3 {
		t.Errorf("Matches() returned %d matches, want 3", got)
	}
}
