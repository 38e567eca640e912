package grammar

import (
	"fmt"
	"strconv"

	"go.uber.org/multierr"
	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/grammarls/atn"
	"github.com/dhamidi/grammarls/ebnflex"
)

// compiler turns parser rules into an automaton, one start and one stop
// state per rule, with the rule bodies built by Thompson construction.
type compiler struct {
	g     *Grammar
	graph *atn.Graph
	rules map[string]int
	order []string
	errs  error
}

func newCompiler(g *Grammar) *compiler {
	return &compiler{
		g:     g,
		graph: atn.NewGraph(),
		rules: make(map[string]int),
	}
}

// errorf records a problem; each one wraps ErrGrammar on its own so the
// combined error can be split with multierr.Errors.
func (c *compiler) errorf(format string, args ...any) {
	c.errs = multierr.Append(c.errs, fmt.Errorf("%w: %s", ErrGrammar, fmt.Sprintf(format, args...)))
}

func (c *compiler) compile() error {
	source := c.g.source
	start := c.g.opts.start
	switch prod, ok := source[start]; {
	case start == "":
		c.errorf("no parser rules")
		return c.errs
	case !ok:
		c.errorf("start production %q not found", start)
		return c.errs
	case ebnflex.IsToken(start):
		c.errorf("%s: start production %q is a token", prod.Pos(), start)
		return c.errs
	}

	c.declare(start)
	for i := 0; i < len(c.order); i++ {
		name := c.order[i]
		c.discover(name, source[name].Expr)
	}
	if c.errs != nil {
		return c.errs
	}

	for _, name := range c.order {
		rule := c.rules[name]
		end := c.build(rule, name, source[name].Expr, c.graph.RuleStart(rule))
		c.graph.Epsilon(end, c.graph.RuleStop(rule))
	}
	if c.errs != nil {
		return c.errs
	}

	for t, kind := range c.g.names {
		if t > 0 {
			c.graph.SetTokenName(t, kind)
		}
	}
	c.graph.SetStartRule(c.rules[start])
	return nil
}

func (c *compiler) declare(name string) {
	if _, ok := c.rules[name]; ok {
		return
	}
	rule, _, _ := c.graph.AddRule(name)
	c.rules[name] = rule
	c.order = append(c.order, name)
}

// discover declares the rules expr refers to and reports names that do
// not resolve.
func (c *compiler) discover(rule string, expr ebnf.Expression) {
	switch e := expr.(type) {
	case ebnf.Sequence:
		for _, item := range e {
			c.discover(rule, item)
		}
	case ebnf.Alternative:
		for _, alt := range e {
			c.discover(rule, alt)
		}
	case *ebnf.Group:
		c.discover(rule, e.Body)
	case *ebnf.Option:
		c.discover(rule, e.Body)
	case *ebnf.Repetition:
		c.discover(rule, e.Body)
	case *ebnf.Range:
		c.errorf("%s: character range in parser rule %s", e.Pos(), rule)
	case *ebnf.Name:
		prod, ok := c.g.source[e.String]
		switch {
		case !ok:
			c.errorf("%s: undefined: %s", e.Pos(), e.String)
		case ebnflex.IsToken(e.String):
			if prod.Expr == nil {
				c.errorf("%s: token %s matches nothing", e.Pos(), e.String)
			}
		default:
			c.declare(e.String)
		}
	}
}

// build adds the states for expr, starting at from, and returns the state
// it ends in.
func (c *compiler) build(rule int, name string, expr ebnf.Expression, from int) int {
	switch e := expr.(type) {
	case nil:
		return from

	case *ebnf.Token:
		if e.String == "" {
			return from
		}
		to := c.graph.AddState(rule)
		c.graph.Match(from, to, c.literal(e.String))
		return to

	case *ebnf.Name:
		to := c.graph.AddState(rule)
		if ebnflex.IsToken(e.String) {
			c.graph.Match(from, to, c.g.types[e.String])
		} else {
			c.graph.Call(from, c.rules[e.String], to)
		}
		return to

	case ebnf.Sequence:
		at := from
		for _, item := range e {
			at = c.build(rule, name, item, at)
		}
		return at

	case ebnf.Alternative:
		end := c.graph.AddState(rule)
		for _, alt := range e {
			branch := c.graph.AddState(rule)
			c.graph.Epsilon(from, branch)
			c.graph.Epsilon(c.build(rule, name, alt, branch), end)
		}
		return end

	case *ebnf.Group:
		return c.build(rule, name, e.Body, from)

	case *ebnf.Option:
		body := c.graph.AddState(rule)
		end := c.graph.AddState(rule)
		c.graph.Epsilon(from, body)
		c.graph.Epsilon(from, end)
		c.graph.Epsilon(c.build(rule, name, e.Body, body), end)
		return end

	case *ebnf.Repetition:
		loop := c.graph.AddState(rule)
		exit := c.graph.AddState(rule)
		c.graph.Epsilon(from, loop)
		c.graph.Epsilon(c.build(rule, name, e.Body, loop), loop)
		c.graph.Epsilon(loop, exit)
		return exit

	default:
		c.errorf("%s: unsupported expression %T in parser rule %s", expr.Pos(), expr, name)
		return from
	}
}

// literal returns the token type of a literal, registering it on first use.
func (c *compiler) literal(s string) int {
	kind := strconv.Quote(s)
	if _, ok := c.g.types[kind]; !ok {
		c.g.literals = append(c.g.literals, s)
	}
	return c.g.addType(kind)
}
