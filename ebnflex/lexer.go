package ebnflex

import (
	"errors"
	"io"
	"strconv"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// Lexer splits input into the tokens of an EBNF grammar.
type Lexer struct {
	match    *matcher
	kinds    []string
	literals []string
	skip     map[string]bool
	at       Position
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithLiterals makes the lexer recognize literals. On equal length a
// literal wins over a token production.
func WithLiterals(literals []string) Option {
	return func(l *Lexer) { l.literals = literals }
}

// WithSkip drops tokens of the given kinds from Tokenize.
func WithSkip(kinds ...string) Option {
	return func(l *Lexer) {
		for _, k := range kinds {
			l.skip[k] = true
		}
	}
}

// NewLexer returns a lexer reading input with the token productions of
// grammar. filename is only used in positions.
func NewLexer(grammar ebnf.Grammar, input []byte, filename string, opts ...Option) *Lexer {
	l := &Lexer{
		match: newMatcher(grammar, input),
		kinds: TokenProductions(grammar),
		skip:  make(map[string]bool),
		at:    Position{Filename: filename, Line: 1, Column: 1},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NextToken returns the token at the current position and moves past it.
// The longest match among literals and token productions wins; on equal
// length literals come first, then productions in declaration order.
// Input nothing matches comes back one rune at a time as KindError. At
// the end of input NextToken returns a KindEOF token and io.EOF.
func (l *Lexer) NextToken() (Token, error) {
	input := l.match.input
	start := l.at
	if start.Offset >= len(input) {
		return Token{Kind: KindEOF, Position: start}, io.EOF
	}

	kind, n := l.longest(start.Offset)
	if n <= 0 {
		kind = KindError
		_, n = utf8.DecodeRune(input[start.Offset:])
	}
	text := input[start.Offset : start.Offset+n]
	l.at = start.after(text)
	return Token{Kind: kind, Literal: string(text), Position: start}, nil
}

func (l *Lexer) longest(at int) (kind string, n int) {
	l.match.reset()
	for _, lit := range l.literals {
		if m := l.match.literal(lit, at); m > n {
			kind, n = strconv.Quote(lit), m
		}
	}
	for _, name := range l.kinds {
		if m := l.match.name(name, at); m > n {
			kind, n = name, m
		}
	}
	return kind, n
}

// Tokenize reads all tokens from input, dropping skipped kinds. The last
// token is always EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		switch {
		case errors.Is(err, io.EOF):
			return append(tokens, tok), nil
		case err != nil:
			return tokens, err
		case !l.skip[tok.Kind]:
			tokens = append(tokens, tok)
		}
	}
}
