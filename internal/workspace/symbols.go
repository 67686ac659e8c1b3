package workspace

import (
	"fmt"

	"github.com/dhamidi/vbsitter/parser"
)

type SymbolKind string

const (
	KindNamespace   SymbolKind = "namespace"
	KindClass       SymbolKind = "class"
	KindModule      SymbolKind = "module"
	KindStructure   SymbolKind = "structure"
	KindInterface   SymbolKind = "interface"
	KindEnum        SymbolKind = "enum"
	KindEnumMember  SymbolKind = "enum_member"
	KindDelegate    SymbolKind = "delegate"
	KindMethod      SymbolKind = "method"
	KindConstructor SymbolKind = "constructor"
	KindProperty    SymbolKind = "property"
	KindEvent       SymbolKind = "event"
	KindField       SymbolKind = "field"
	KindConstant    SymbolKind = "constant"
)

var declarationKinds = map[string]SymbolKind{
	"namespace_block":         KindNamespace,
	"class_block":             KindClass,
	"module_block":            KindModule,
	"structure_block":         KindStructure,
	"interface_block":         KindInterface,
	"enum_block":              KindEnum,
	"enum_member":             KindEnumMember,
	"delegate_declaration":    KindDelegate,
	"method_declaration":      KindMethod,
	"constructor_declaration": KindConstructor,
	"property_declaration":    KindProperty,
	"event_declaration":       KindEvent,
}

// Symbol is a declaration in a document. Range covers the declaration and
// SelectionRange its name.
type Symbol struct {
	Name           string     `json:"name"`
	Kind           SymbolKind `json:"kind"`
	Range          Range      `json:"range"`
	SelectionRange Range      `json:"selectionRange"`
	Children       []Symbol   `json:"children,omitempty"`
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s %s %d:%d", s.Kind, s.Name, s.Range.Start.Line+1, s.Range.Start.Character+1)
}

// Symbols returns the declarations of path as a hierarchy.
func (w *Workspace) Symbols(path string) ([]Symbol, error) {
	doc := w.Get(path)
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, path)
	}
	return DocumentSymbols(doc), nil
}

func DocumentSymbols(doc *Document) []Symbol {
	return collectSymbols(doc.Content, doc.Tree.RootNode())
}

func collectSymbols(content []byte, n *parser.Node) []Symbol {
	var out []Symbol
	for _, c := range n.NamedChildren() {
		switch c.Type() {
		case "field_declaration":
			for _, v := range c.ChildrenOfKind("variable_declarator") {
				if name := v.ChildByFieldName("name"); name != nil {
					out = append(out, newSymbol(content, name.Text(), KindField, v, name))
				}
			}
			continue
		case "const_declaration":
			for _, name := range c.ChildrenByFieldName("name") {
				out = append(out, newSymbol(content, name.Text(), KindConstant, c, name))
			}
			continue
		}

		kind, ok := declarationKinds[c.Type()]
		if !ok {
			out = append(out, collectSymbols(content, c)...)
			continue
		}
		name := c.ChildByFieldName("name")
		label, selection := "", c
		switch {
		case name != nil:
			label, selection = name.Text(), name
		case kind == KindConstructor:
			label = "New"
		default:
			continue
		}
		s := newSymbol(content, label, kind, c, selection)
		s.Children = collectSymbols(content, c)
		out = append(out, s)
	}
	return out
}

func newSymbol(content []byte, name string, kind SymbolKind, decl, sel *parser.Node) Symbol {
	return Symbol{
		Name:           name,
		Kind:           kind,
		Range:          nodeRange(content, decl),
		SelectionRange: nodeRange(content, sel),
	}
}

func nodeRange(content []byte, n *parser.Node) Range {
	return Range{
		Start: PositionAt(content, n.StartByte()),
		End:   PositionAt(content, n.EndByte()),
	}
}
