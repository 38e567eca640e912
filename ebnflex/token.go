// Package ebnflex provides lexical scanning based on EBNF grammars.
//
// Productions whose name starts with an uppercase letter are tokens. A
// lexer can additionally be given literal strings (the keywords and
// punctuation a grammar uses); a literal is reported with its quoted form
// as the token kind.
package ebnflex

import (
	"fmt"
	"slices"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// Kinds reported for the end of input and for input no token matches.
const (
	KindEOF   = "EOF"
	KindError = "ERROR"
)

// Position is a location in the input. Line and Column are 1-based;
// Column counts bytes.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// after returns the position reached by reading text from p.
func (p Position) after(text []byte) Position {
	for _, b := range text {
		if b == '\n' {
			p.Line, p.Column = p.Line+1, 1
			continue
		}
		p.Column++
	}
	p.Offset += len(text)
	return p
}

// Token is a lexeme and where it starts.
type Token struct {
	Kind     string
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

// End returns the offset just past the token.
func (t Token) End() int {
	return t.Position.Offset + len(t.Literal)
}

// IsToken reports whether name is the name of a token production.
func IsToken(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// TokenProductions returns the names of the token productions of grammar
// in the order they are declared.
func TokenProductions(grammar ebnf.Grammar) []string {
	names := make([]string, 0, len(grammar))
	for name, prod := range grammar {
		if IsToken(name) && prod.Expr != nil {
			names = append(names, name)
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		return grammar[a].Pos().Offset - grammar[b].Pos().Offset
	})
	return names
}

// EndPosition returns the position just past the token.
func (t Token) EndPosition() Position {
	return t.Position.after([]byte(t.Literal))
}
