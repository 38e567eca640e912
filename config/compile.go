package config

import (
	"fmt"
	"strconv"

	"go.uber.org/multierr"

	"github.com/dhamidi/grammarls/completion"
	"github.com/dhamidi/grammarls/grammar"
)

// Compiled is a language whose grammar is loaded and whose completer is
// ready for queries.
type Compiled struct {
	Language  *Language
	Grammar   *grammar.Grammar
	Completer *completion.Completer
}

// GrammarOptions returns the options the grammar of l is compiled with.
func (l *Language) GrammarOptions() []grammar.Option {
	opts := []grammar.Option{grammar.WithTypedPrefix(l.TypedPrefix)}
	if l.Start != "" {
		opts = append(opts, grammar.WithStart(l.Start))
	}
	if l.Skip != nil {
		opts = append(opts, grammar.WithSkip(l.Skip...))
	}
	return opts
}

// Compile loads the grammar of l and resolves the token and rule names
// of its completion settings.
func (l *Language) Compile() (*Compiled, error) {
	g, err := grammar.Load(l.Grammar, l.GrammarOptions()...)
	if err != nil {
		return nil, fmt.Errorf("language %s: %w", l.ID, err)
	}
	opts, err := l.CompletionOptions(g)
	if err != nil {
		return nil, fmt.Errorf("language %s: %w", l.ID, err)
	}
	c, err := completion.NewCompleter(g, opts...)
	if err != nil {
		return nil, fmt.Errorf("language %s: %w", l.ID, err)
	}
	log.Debugf("compiled %s from %s: %d tokens, %d rules",
		l.ID, l.Grammar, len(g.Vocabulary()), g.Automaton().NumRules())
	return &Compiled{Language: l, Grammar: g, Completer: c}, nil
}

// CompletionOptions translates the completion settings of l for g.
// Every unknown name is reported.
func (l *Language) CompletionOptions(g *grammar.Grammar) ([]completion.Option, error) {
	var errs error

	ignored := make([]int, 0, len(l.IgnoredTokens))
	for _, name := range l.IgnoredTokens {
		t, ok := tokenType(g, name)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: ignored token %s not in grammar", ErrInvalid, name))
			continue
		}
		ignored = append(ignored, t)
	}

	preferred := make([]int, 0, len(l.PreferredRules))
	for _, name := range l.PreferredRules {
		r, ok := g.Graph().Rule(name)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: preferred rule %s not reachable from %s", ErrInvalid, name, g.Start()))
			continue
		}
		preferred = append(preferred, r)
	}

	if errs != nil {
		return nil, errs
	}
	return []completion.Option{
		completion.WithMaxDepth(l.MaxDepth),
		completion.WithMaxVisits(l.MaxVisits),
		completion.WithIgnoredTokens(ignored...),
		completion.WithPreferredRules(preferred...),
		completion.WithFallbackToStart(l.FallbackToStart),
	}, nil
}

func tokenType(g *grammar.Grammar, name string) (int, bool) {
	if t, ok := g.TokenType(name); ok {
		return t, true
	}
	return g.TokenType(strconv.Quote(name))
}

// CompileAll compiles every language. Languages that fail are left out
// and their errors combined.
func (c *Config) CompileAll() (map[string]*Compiled, error) {
	out := make(map[string]*Compiled, len(c.Languages))
	var errs error
	for _, lang := range c.Languages {
		compiled, err := lang.Compile()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out[lang.ID] = compiled
	}
	return out, errs
}
