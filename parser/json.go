package parser

import "encoding/json"

type jsonNode struct {
	Type     string      `json:"type"`
	Field    string      `json:"field,omitempty"`
	Named    bool        `json:"named,omitempty"`
	Span     jsonSpan    `json:"span"`
	Text     string      `json:"text,omitempty"`
	Error    bool        `json:"error,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonSpan struct {
	StartByte uint32       `json:"startByte"`
	EndByte   uint32       `json:"endByte"`
	Start     jsonPosition `json:"start"`
	End       jsonPosition `json:"end"`
}

type jsonPosition struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.RootNode().toJSON())
}

func (n *Node) toJSON() *jsonNode {
	start, end := n.StartPoint(), n.EndPoint()
	jn := &jsonNode{
		Type:  n.Type(),
		Field: n.FieldName(),
		Named: n.IsNamed(),
		Span: jsonSpan{
			StartByte: n.StartByte(),
			EndByte:   n.EndByte(),
			Start:     jsonPosition{Line: start.Row + 1, Column: start.Column + 1},
			End:       jsonPosition{Line: end.Row + 1, Column: end.Column + 1},
		},
		Error: n.IsError(),
	}

	if n.ChildCount() == 0 {
		jn.Text = n.Text()
	}

	for c := range n.children() {
		jn.Children = append(jn.Children, c.toJSON())
	}

	return jn
}
