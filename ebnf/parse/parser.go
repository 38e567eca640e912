package parse

import (
	"fmt"

	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/grammarls/ebnflex"
)

// ParseTokens is a convenience function to parse tokens with a grammar using Earley parsing.
func ParseTokens(g ebnf.Grammar, tokens []ebnflex.Token, start string, skip ...string) (*Node, error) {
	parser := NewEarleyParser(g, tokens)
	if len(skip) > 0 {
		parser.SetSkipKinds(skip...)
	}
	return parser.Parse(start)
}

// ParseFile lexes input with the token productions of g and the given
// literals, then parses it from start.
func ParseFile(g ebnf.Grammar, literals []string, input []byte, filename, start string, skip ...string) (*Node, error) {
	lexer := ebnflex.NewLexer(g, input, filename, ebnflex.WithLiterals(literals), ebnflex.WithSkip(skip...))
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	for _, tok := range tokens {
		if tok.Kind == ebnflex.KindError {
			return nil, &Error{Position: tok.Position, Message: fmt.Sprintf("invalid input %q", tok.Literal)}
		}
	}
	return ParseTokens(g, tokens, start, skip...)
}
