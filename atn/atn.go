// Package atn describes parser automata: the transition graph a grammar
// compiles to, the configurations a parser can be in after consuming a
// prefix of its input, and the interfaces a language plugs in to offer
// completion.
package atn

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMisconfigured is returned when an automaton refers to states or rules
// it does not have.
var ErrMisconfigured = errors.New("misconfigured automaton")

// Reserved token types. Grammar token types start at 1.
const (
	EOF     = -1
	Invalid = 0
)

type TransitionKind int

const (
	Epsilon TransitionKind = iota
	RuleCall
	RuleReturn
	Terminal
)

func (k TransitionKind) String() string {
	switch k {
	case Epsilon:
		return "epsilon"
	case RuleCall:
		return "call"
	case RuleReturn:
		return "return"
	case Terminal:
		return "token"
	}
	return fmt.Sprintf("TransitionKind(%d)", int(k))
}

// Transition is an edge of the automaton.
//
// For Terminal, Label is the token type. For RuleCall, Label is the called
// rule, Target its start state and Follow the state parsing resumes at
// once the rule returns. RuleReturn leaves Target unset: the next state
// comes from the rule-invocation stack.
type Transition struct {
	Kind   TransitionKind
	Label  int
	Target int
	Follow int
}

// Automaton is the transition graph of a grammar. States are numbered
// 0..NumStates()-1 and rules 0..NumRules()-1.
type Automaton interface {
	NumStates() int
	NumRules() int
	Transitions(state int) []Transition
	// RuleOf returns the rule a state belongs to.
	RuleOf(state int) int
	RuleStart(rule int) int
	RuleName(rule int) string
	TokenName(tokenType int) string
	StartRule() int
}

// Config is one configuration of a parser: the state it is in and the
// return states of the rules it is inside of, innermost last.
type Config struct {
	State int
	Stack []int
}

func (c Config) String() string {
	parts := make([]string, len(c.Stack))
	for i, s := range c.Stack {
		parts[i] = fmt.Sprint(s)
	}
	return fmt.Sprintf("%d[%s]", c.State, strings.Join(parts, " "))
}

// State is where a parser stands after a prefix of its input. A parser
// for an ambiguous grammar can be in several configurations at once.
// Failed is set when the prefix does not fit the grammar; such a state has
// no configurations.
type State struct {
	Configs []Config
	Failed  bool
	// Prefix is the part of a word the caret is in that was not consumed.
	Prefix string
}

// Token is a lexed token. Start and End are byte offsets into the input.
type Token struct {
	Type  int
	Text  string
	Start int
	End   int
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%q@%d", t.Type, t.Text, t.Start)
}

type Lexer interface {
	Tokens() ([]Token, error)
}

type Parser interface {
	Automaton() Automaton
	// AdvanceTo consumes the tokens before offset.
	AdvanceTo(offset int) error
	CurrentState() State
}

// GrammarAdapter creates lexers and parsers for one language.
type GrammarAdapter interface {
	Automaton() Automaton
	CreateLexer(input string) Lexer
	CreateParser(tokens []Token) Parser
}

// Validate checks that every transition of a stays inside it: targets are
// existing states, called rules exist and are entered at their start
// state, and every rule start belongs to its rule.
func Validate(a Automaton) error {
	states, rules := a.NumStates(), a.NumRules()
	if rules == 0 {
		return fmt.Errorf("no rules: %w", ErrMisconfigured)
	}
	if start := a.StartRule(); start < 0 || start >= rules {
		return fmt.Errorf("start rule %d of %d: %w", start, rules, ErrMisconfigured)
	}
	for r := 0; r < rules; r++ {
		s := a.RuleStart(r)
		if s < 0 || s >= states {
			return fmt.Errorf("rule %s starts at state %d of %d: %w", a.RuleName(r), s, states, ErrMisconfigured)
		}
		if a.RuleOf(s) != r {
			return fmt.Errorf("rule %s starts at state %d of rule %d: %w", a.RuleName(r), s, a.RuleOf(s), ErrMisconfigured)
		}
	}
	for s := 0; s < states; s++ {
		for _, t := range a.Transitions(s) {
			switch t.Kind {
			case RuleReturn:
				continue
			case RuleCall:
				if t.Label < 0 || t.Label >= rules {
					return fmt.Errorf("state %d calls rule %d of %d: %w", s, t.Label, rules, ErrMisconfigured)
				}
				if a.RuleStart(t.Label) != t.Target {
					return fmt.Errorf("state %d enters rule %s at state %d, not its start %d: %w",
						s, a.RuleName(t.Label), t.Target, a.RuleStart(t.Label), ErrMisconfigured)
				}
				if t.Follow < 0 || t.Follow >= states {
					return fmt.Errorf("state %d returns to state %d of %d: %w", s, t.Follow, states, ErrMisconfigured)
				}
			case Terminal:
				if t.Label == EOF || t.Label == Invalid {
					return fmt.Errorf("state %d matches reserved token type %d: %w", s, t.Label, ErrMisconfigured)
				}
			}
			if t.Target < 0 || t.Target >= states {
				return fmt.Errorf("state %d has %s transition to state %d of %d: %w", s, t.Kind, t.Target, states, ErrMisconfigured)
			}
		}
	}
	return nil
}
