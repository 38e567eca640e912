package completion

import (
	"fmt"

	"github.com/dhamidi/grammarls/atn"
	"github.com/dhamidi/grammarls/document"
)

// Completer answers completion queries for documents of one language.
type Completer struct {
	adapter atn.GrammarAdapter
	engine  *Engine
}

// NewCompleter creates a completer for the language adapter implements.
func NewCompleter(adapter atn.GrammarAdapter, opts ...Option) (*Completer, error) {
	engine, err := New(adapter.Automaton(), opts...)
	if err != nil {
		return nil, err
	}
	return &Completer{adapter: adapter, engine: engine}, nil
}

func (c *Completer) Engine() *Engine {
	return c.engine
}

// Complete returns the candidates at pos. The document is read from a
// snapshot, so edits made meanwhile do not affect the result.
func (c *Completer) Complete(doc *document.Document, pos document.Position) (*Candidates, error) {
	snap := doc.Snapshot()
	offset, err := snap.Offset(pos)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.URI(), err)
	}
	return c.CompleteAt(snap.Content().String(), offset)
}

// CompleteAt returns the candidates at offset in input.
func (c *Completer) CompleteAt(input string, offset int) (*Candidates, error) {
	if offset < 0 || offset > len(input) {
		return nil, fmt.Errorf("offset %d (length %d): %w", offset, len(input), document.ErrOutOfRange)
	}
	tokens, err := c.adapter.CreateLexer(input).Tokens()
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	return c.engine.CollectCandidates(c.adapter.CreateParser(tokens), offset)
}
