// Package parse builds concrete syntax trees for input lexed with the
// token productions of an EBNF grammar.
package parse

import "github.com/dhamidi/grammarls/ebnflex"

// Span is the source range [Start, End) covered by a node.
type Span struct {
	Start ebnflex.Position
	End   ebnflex.Position
}

// Node is a node of a concrete syntax tree. Leaves carry the token they
// were built from; every other node is named after its production.
type Node struct {
	Kind     string
	Children []*Node
	Token    *ebnflex.Token
	Span     Span
}

// IsTerminal reports whether n is a leaf.
func (n *Node) IsTerminal() bool { return n.Token != nil }

// Text returns the literal of a leaf and "" for other nodes.
func (n *Node) Text() string {
	if n.IsTerminal() {
		return n.Token.Literal
	}
	return ""
}

func leaf(tok ebnflex.Token) *Node {
	return &Node{
		Kind:  tok.Kind,
		Token: &tok,
		Span:  Span{tok.Position, tok.EndPosition()},
	}
}

// branch returns a production node over children. A node without
// children gets the empty span at.
func branch(kind string, children []*Node, at ebnflex.Position) *Node {
	n := &Node{Kind: kind, Children: make([]*Node, 0, len(children))}
	n.Span = Span{at, at}
	for i, c := range children {
		if i == 0 {
			n.Span.Start = c.Span.Start
		}
		n.Span.End = c.Span.End
		n.Children = append(n.Children, c)
	}
	return n
}
