package grammar

import (
	"github.com/dhamidi/grammarls/atn"
	"github.com/dhamidi/grammarls/ebnflex"
)

// Lexer produces the tokens of a grammar for some input.
type Lexer struct {
	g     *Grammar
	input string
}

// CreateLexer returns a lexer over input.
func (g *Grammar) CreateLexer(input string) atn.Lexer {
	return &Lexer{g: g, input: input}
}

// Tokens lexes the whole input. Skipped kinds are dropped; the last token
// is EOF.
func (l *Lexer) Tokens() ([]atn.Token, error) {
	raw, err := l.Raw("")
	if err != nil {
		return nil, err
	}
	tokens := make([]atn.Token, 0, len(raw))
	for _, tok := range raw {
		t, ok := l.g.TokenType(tok.Kind)
		if !ok {
			// a token production no parser rule uses still has a type;
			// anything else is unknown to the grammar
			t = atn.Invalid
		}
		tokens = append(tokens, atn.Token{
			Type:  t,
			Text:  tok.Literal,
			Start: tok.Position.Offset,
			End:   tok.End(),
		})
	}
	return tokens, nil
}

// Raw lexes the whole input and returns the tokens with their kinds and
// line/column positions.
func (l *Lexer) Raw(filename string) ([]ebnflex.Token, error) {
	lx := ebnflex.NewLexer(l.g.source, []byte(l.input), filename,
		ebnflex.WithLiterals(l.g.literals),
		ebnflex.WithSkip(l.g.opts.skip...),
	)
	return lx.Tokenize()
}
