// Package completion computes the tokens that can follow the input before
// a caret by walking a parser's automaton from the state the parser is in.
package completion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/grammarls/atn"
)

var log = commonlog.GetLogger("grammarls.completion")

const (
	DefaultMaxDepth  = 64
	DefaultMaxVisits = 100000
)

// Engine collects completion candidates for one automaton. It is
// immutable and safe for concurrent use.
type Engine struct {
	a         atn.Automaton
	maxDepth  int
	maxVisits int
	ignored   map[int]bool
	preferred map[int]bool
	fallback  bool
}

type Option func(*Engine)

// WithMaxDepth bounds the number of rules the walk enters below the
// parser's own rule stack.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithMaxVisits bounds the number of states visited by one query.
func WithMaxVisits(n int) Option {
	return func(e *Engine) {
		e.maxVisits = n
	}
}

// WithIgnoredTokens excludes token types from the candidates.
func WithIgnoredTokens(types ...int) Option {
	return func(e *Engine) {
		for _, t := range types {
			e.ignored[t] = true
		}
	}
}

// WithPreferredRules reports the given rules as rule candidates instead of
// the tokens they start with.
func WithPreferredRules(rules ...int) Option {
	return func(e *Engine) {
		for _, r := range rules {
			e.preferred[r] = true
		}
	}
}

// WithFallbackToStart makes a query whose input does not fit the grammar
// report the candidates at the start of the start rule instead of none.
func WithFallbackToStart(enabled bool) Option {
	return func(e *Engine) {
		e.fallback = enabled
	}
}

// New creates an engine for a. A misconfigured automaton is rejected here
// rather than on every query.
func New(a atn.Automaton, opts ...Option) (*Engine, error) {
	if err := atn.Validate(a); err != nil {
		return nil, err
	}
	e := &Engine{
		a:         a,
		maxDepth:  DefaultMaxDepth,
		maxVisits: DefaultMaxVisits,
		ignored:   make(map[int]bool),
		preferred: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	for r := range e.preferred {
		if r < 0 || r >= a.NumRules() {
			return nil, fmt.Errorf("preferred rule %d of %d: %w", r, a.NumRules(), atn.ErrMisconfigured)
		}
	}
	return e, nil
}

// Automaton returns the automaton the engine walks.
func (e *Engine) Automaton() atn.Automaton {
	return e.a
}

// CollectCandidates advances p to caret and collects the candidates for
// the state it ends in.
func (e *Engine) CollectCandidates(p atn.Parser, caret int) (*Candidates, error) {
	if err := p.AdvanceTo(caret); err != nil {
		return nil, err
	}
	return e.Collect(p.CurrentState()), nil
}

// frame is an entry of the walk's rule stack. Frames taken over from the
// parser's configuration are not local: returning into them leaves the
// rules the parser was in, and they are not subject to the recursion
// guard.
type frame struct {
	parent int
	ret    int
	local  bool
}

type node struct {
	state int
	frame int
	depth int // local frames on the stack
}

type walk struct {
	e        *Engine
	frames   []frame
	interned map[frame]int
	visited  map[[2]int]bool
	queue    []node
	out      *Candidates
	tokens   map[int]int // token type -> index in out.Tokens
	contexts []map[string]bool
	rules    map[string]bool
}

// Collect walks from every configuration of state and returns the token
// types that can come next.
func (e *Engine) Collect(state atn.State) *Candidates {
	w := &walk{
		e:        e,
		frames:   []frame{{parent: -1, ret: -1}},
		interned: make(map[frame]int),
		visited:  make(map[[2]int]bool),
		out:      &Candidates{Prefix: state.Prefix, Failed: state.Failed},
		tokens:   make(map[int]int),
		rules:    make(map[string]bool),
	}

	configs := state.Configs
	if state.Failed && e.fallback {
		configs = []atn.Config{{State: e.a.RuleStart(e.a.StartRule())}}
	}
	for _, c := range configs {
		id := 0
		for _, ret := range c.Stack {
			id = w.intern(frame{parent: id, ret: ret})
		}
		w.push(node{state: c.State, frame: id})
	}
	w.run()

	log.Debugf("collected %d token and %d rule candidate(s) from %d configuration(s), %d visit(s)",
		len(w.out.Tokens), len(w.out.Rules), len(configs), w.out.Visited)
	return w.out
}

func (w *walk) intern(f frame) int {
	if id, ok := w.interned[f]; ok {
		return id
	}
	id := len(w.frames)
	w.frames = append(w.frames, f)
	w.interned[f] = id
	return id
}

func (w *walk) push(n node) {
	key := [2]int{n.state, n.frame}
	if w.visited[key] {
		return
	}
	w.visited[key] = true
	w.queue = append(w.queue, n)
}

func (w *walk) run() {
	a := w.e.a
	for len(w.queue) > 0 {
		if w.out.Visited >= w.e.maxVisits {
			w.out.Truncated = true
			log.Warningf("completion stopped after %d visits", w.out.Visited)
			return
		}
		n := w.queue[0]
		w.queue = w.queue[1:]
		w.out.Visited++

		for _, t := range a.Transitions(n.state) {
			switch t.Kind {
			case atn.Epsilon:
				w.push(node{state: t.Target, frame: n.frame, depth: n.depth})

			case atn.Terminal:
				if !w.e.ignored[t.Label] {
					w.addToken(t.Label, n)
				}

			case atn.RuleCall:
				if w.e.preferred[t.Label] {
					w.addRule(t.Label, n)
					continue
				}
				if n.depth >= w.e.maxDepth || w.onLocalStack(n.frame, t.Follow) {
					continue
				}
				f := w.intern(frame{parent: n.frame, ret: t.Follow, local: true})
				w.push(node{state: t.Target, frame: f, depth: n.depth + 1})

			case atn.RuleReturn:
				if n.frame == 0 {
					// past the outermost rule; no virtual EOF
					continue
				}
				f := w.frames[n.frame]
				depth := n.depth
				if f.local {
					depth--
				}
				w.push(node{state: f.ret, frame: f.parent, depth: depth})
			}
		}
	}
}

// onLocalStack reports whether a rule entered by the walk itself will
// return to ret: entering it again would only repeat the same walk.
func (w *walk) onLocalStack(id, ret int) bool {
	for ; id != 0 && w.frames[id].local; id = w.frames[id].parent {
		if w.frames[id].ret == ret {
			return true
		}
	}
	return false
}

// path returns the rules n is inside of, outermost first.
func (w *walk) path(n node) []int {
	var rules []int
	for id := n.frame; id != 0; id = w.frames[id].parent {
		rules = append(rules, w.e.a.RuleOf(w.frames[id].ret))
	}
	for i, j := 0, len(rules)-1; i < j; i, j = i+1, j-1 {
		rules[i], rules[j] = rules[j], rules[i]
	}
	return append(rules, w.e.a.RuleOf(n.state))
}

func (w *walk) addToken(tokenType int, n node) {
	i, ok := w.tokens[tokenType]
	if !ok {
		i = len(w.out.Tokens)
		w.tokens[tokenType] = i
		w.out.Tokens = append(w.out.Tokens, TokenCandidate{
			Type: tokenType,
			Name: w.e.a.TokenName(tokenType),
		})
		w.contexts = append(w.contexts, make(map[string]bool))
	}
	path := w.path(n)
	key := pathKey(path)
	if w.contexts[i][key] {
		return
	}
	w.contexts[i][key] = true
	w.out.Tokens[i].Contexts = append(w.out.Tokens[i].Contexts, path)
}

func (w *walk) addRule(rule int, n node) {
	path := w.path(n)
	key := strconv.Itoa(rule) + "/" + pathKey(path)
	if w.rules[key] {
		return
	}
	w.rules[key] = true
	w.out.Rules = append(w.out.Rules, RuleCandidate{
		Rule: rule,
		Name: w.e.a.RuleName(rule),
		Path: path,
	})
}

func pathKey(path []int) string {
	parts := make([]string, len(path))
	for i, r := range path {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, " ")
}
