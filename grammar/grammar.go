// Package grammar compiles EBNF grammars into parser automata and provides
// the lexer and prefix parser a completion engine drives.
//
// Productions whose name starts with an uppercase letter are tokens and
// are recognized by the lexer. Lowercase productions reachable from the
// start production through lowercase names are parser rules; string
// literals in parser rules become tokens of their own (keywords and
// punctuation).
package grammar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/tliron/commonlog"
	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/grammarls/atn"
	"github.com/dhamidi/grammarls/ebnflex"
)

var log = commonlog.GetLogger("grammarls.grammar")

// ErrGrammar is returned when a grammar cannot be compiled.
var ErrGrammar = errors.New("invalid grammar")

// DefaultSkip are the token kinds dropped before parsing unless WithSkip
// says otherwise.
var DefaultSkip = []string{"WhiteSpace", "Comment"}

// DefaultMaxNodes bounds the configurations a prefix parser explores.
const DefaultMaxNodes = 1 << 20

type options struct {
	start       string
	skip        []string
	typedPrefix bool
	maxNodes    int
}

// Option configures how a grammar is compiled and parsed.
type Option func(*options)

// WithStart sets the start production. By default the first lowercase
// production in the source is used.
func WithStart(name string) Option {
	return func(o *options) {
		o.start = name
	}
}

// WithSkip sets the token kinds dropped before parsing.
func WithSkip(kinds ...string) Option {
	return func(o *options) {
		o.skip = kinds
	}
}

// WithTypedPrefix makes parsers leave the word the caret is in or right
// after unconsumed and report it as State.Prefix.
func WithTypedPrefix(enabled bool) Option {
	return func(o *options) {
		o.typedPrefix = enabled
	}
}

// WithMaxNodes bounds the work of a prefix parser.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		o.maxNodes = n
	}
}

// Grammar is a compiled grammar. It is immutable and safe for concurrent
// use; it implements atn.GrammarAdapter.
type Grammar struct {
	source   ebnf.Grammar
	graph    *atn.Graph
	opts     options
	tokens   []string       // token productions, declaration order
	literals []string       // unquoted literals used by parser rules
	types    map[string]int // token kind -> token type
	names    []string       // token type -> kind, index 0 unused
}

var _ atn.GrammarAdapter = (*Grammar)(nil)

// Load reads and compiles the grammar in filename.
func Load(filename string, opts ...Option) (*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()
	return Parse(filename, f, opts...)
}

// Parse reads and compiles a grammar.
func Parse(filename string, r io.Reader, opts ...Option) (*Grammar, error) {
	source, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", filename, ErrGrammar, err)
	}
	return Compile(source, opts...)
}

// Compile builds the automaton for source. Every problem found is
// reported; the returned error wraps ErrGrammar.
func Compile(source ebnf.Grammar, opts ...Option) (*Grammar, error) {
	o := options{skip: DefaultSkip, maxNodes: DefaultMaxNodes}
	for _, opt := range opts {
		opt(&o)
	}
	if o.start == "" {
		o.start = firstRule(source)
	}

	g := &Grammar{
		source: source,
		opts:   o,
		tokens: ebnflex.TokenProductions(source),
		types:  make(map[string]int),
		names:  []string{""},
	}
	for _, name := range g.tokens {
		g.addType(name)
	}

	c := newCompiler(g)
	if err := c.compile(); err != nil {
		return nil, err
	}
	g.graph = c.graph
	if err := atn.Validate(g.graph); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGrammar, err)
	}
	log.Debugf("compiled grammar: %d rules, %d states, %d token types",
		g.graph.NumRules(), g.graph.NumStates(), len(g.names)-1)
	return g, nil
}

// firstRule returns the first declared lowercase production.
func firstRule(source ebnf.Grammar) string {
	var names []string
	for name, prod := range source {
		if prod.Expr != nil && !ebnflex.IsToken(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Slice(names, func(i, j int) bool {
		return source[names[i]].Pos().Offset < source[names[j]].Pos().Offset
	})
	return names[0]
}

func (g *Grammar) addType(kind string) int {
	if t, ok := g.types[kind]; ok {
		return t
	}
	t := len(g.names)
	g.types[kind] = t
	g.names = append(g.names, kind)
	return t
}

// Source returns the parsed EBNF.
func (g *Grammar) Source() ebnf.Grammar {
	return g.source
}

// Start returns the name of the start production.
func (g *Grammar) Start() string {
	return g.opts.start
}

// Skip returns the token kinds dropped before parsing.
func (g *Grammar) Skip() []string {
	return g.opts.skip
}

// Literals returns the literals used by parser rules, in first-use order.
func (g *Grammar) Literals() []string {
	return g.literals
}

// TokenType returns the type of a token kind: a token production name or
// a quoted literal.
func (g *Grammar) TokenType(kind string) (int, bool) {
	switch kind {
	case ebnflex.KindEOF:
		return atn.EOF, true
	case ebnflex.KindError:
		return atn.Invalid, true
	}
	t, ok := g.types[kind]
	return t, ok
}

// IsLiteral reports whether tokenType stands for a literal.
func (g *Grammar) IsLiteral(tokenType int) bool {
	if tokenType <= 0 || tokenType >= len(g.names) {
		return false
	}
	return g.names[tokenType][0] == '"'
}

// LiteralText returns the unquoted text of a literal token type.
func (g *Grammar) LiteralText(tokenType int) (string, bool) {
	if !g.IsLiteral(tokenType) {
		return "", false
	}
	s, err := strconv.Unquote(g.names[tokenType])
	return s, err == nil
}

// Vocabulary returns every token kind, indexed by token type minus one.
func (g *Grammar) Vocabulary() []string {
	return g.names[1:]
}

// Automaton returns the compiled automaton.
func (g *Grammar) Automaton() atn.Automaton {
	return g.graph
}

// Graph returns the compiled automaton with its construction details.
func (g *Grammar) Graph() *atn.Graph {
	return g.graph
}

// Dump writes the vocabulary and the automaton to w.
func (g *Grammar) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "start %s\n", g.opts.start); err != nil {
		return err
	}
	for t, name := range g.Vocabulary() {
		if _, err := fmt.Fprintf(w, "token %d %s\n", t+1, name); err != nil {
			return err
		}
	}
	return atn.Dump(w, g.graph)
}
