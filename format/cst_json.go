package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/grammarls/ebnf/parse"
	"github.com/dhamidi/grammarls/ebnflex"
)

// CSTJSONEncoder writes a concrete syntax tree, or the syntax error that
// prevented one, as indented JSON.
type CSTJSONEncoder struct {
	w io.Writer
}

func NewCSTJSONEncoder(w io.Writer) *CSTJSONEncoder {
	return &CSTJSONEncoder{w: w}
}

func (e *CSTJSONEncoder) Encode(node *parse.Node) error {
	text, err := e.MarshalText(node)
	if err == nil {
		text = append(text, '\n')
	}
	return write(e.w, text, err)
}

func (e *CSTJSONEncoder) MarshalText(node *parse.Node) ([]byte, error) {
	return json.MarshalIndent(nodeToJSON(node), "", "  ")
}

// EncodeError writes perr in the shape of an error node.
func (e *CSTJSONEncoder) EncodeError(perr *parse.Error) error {
	text, err := json.MarshalIndent(&cstJSONNode{
		Kind:  "error",
		Span:  &cstJSONSpan{Start: positionToJSON(perr.Position), End: positionToJSON(perr.Position)},
		Error: perr.Message,
	}, "", "  ")
	if err == nil {
		text = append(text, '\n')
	}
	return write(e.w, text, err)
}

type cstJSONNode struct {
	Kind     string         `json:"kind"`
	Span     *cstJSONSpan   `json:"span,omitempty"`
	Token    *string        `json:"token,omitempty"`
	Error    string         `json:"error,omitempty"`
	Children []*cstJSONNode `json:"children,omitempty"`
}

type cstJSONSpan struct {
	Start cstJSONPosition `json:"start"`
	End   cstJSONPosition `json:"end"`
}

type cstJSONPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

func positionToJSON(p ebnflex.Position) cstJSONPosition {
	return cstJSONPosition{Line: p.Line, Column: p.Column, Offset: p.Offset}
}

func nodeToJSON(n *parse.Node) *cstJSONNode {
	jn := &cstJSONNode{Kind: n.Kind}

	// Positions are 1-based, so a zero line means the span was never set.
	if n.Span.Start.Line != 0 || n.Span.End.Line != 0 {
		jn.Span = &cstJSONSpan{
			Start: positionToJSON(n.Span.Start),
			End:   positionToJSON(n.Span.End),
		}
	}

	if n.Token != nil {
		lit := n.Token.Literal
		jn.Token = &lit
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*cstJSONNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = nodeToJSON(child)
		}
	}

	return jn
}
