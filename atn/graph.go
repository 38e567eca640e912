package atn

import (
	"fmt"
	"io"
)

// Graph is an Automaton built state by state.
type Graph struct {
	trans      [][]Transition
	ruleOf     []int
	ruleStart  []int
	ruleStop   []int
	ruleNames  []string
	tokenNames map[int]string
	start      int
}

func NewGraph() *Graph {
	return &Graph{tokenNames: make(map[int]string)}
}

// AddRule creates a rule with a start state and a stop state. The stop
// state carries the rule's only RuleReturn transition.
func (g *Graph) AddRule(name string) (rule, start, stop int) {
	rule = len(g.ruleNames)
	g.ruleNames = append(g.ruleNames, name)
	start = g.AddState(rule)
	stop = g.AddState(rule)
	g.ruleStart = append(g.ruleStart, start)
	g.ruleStop = append(g.ruleStop, stop)
	g.trans[stop] = append(g.trans[stop], Transition{Kind: RuleReturn, Target: -1})
	return rule, start, stop
}

// AddState adds a state belonging to rule.
func (g *Graph) AddState(rule int) int {
	g.trans = append(g.trans, nil)
	g.ruleOf = append(g.ruleOf, rule)
	return len(g.trans) - 1
}

func (g *Graph) Epsilon(from, to int) {
	g.trans[from] = append(g.trans[from], Transition{Kind: Epsilon, Target: to})
}

func (g *Graph) Match(from, to, tokenType int) {
	g.trans[from] = append(g.trans[from], Transition{Kind: Terminal, Label: tokenType, Target: to})
}

// Call adds a transition from from that enters rule and resumes at follow.
func (g *Graph) Call(from, rule, follow int) {
	g.trans[from] = append(g.trans[from], Transition{Kind: RuleCall, Label: rule, Target: g.ruleStart[rule], Follow: follow})
}

// SetTokenName names a token type for display.
func (g *Graph) SetTokenName(tokenType int, name string) {
	g.tokenNames[tokenType] = name
}

func (g *Graph) SetStartRule(rule int) {
	g.start = rule
}

// RuleStop returns the stop state of rule.
func (g *Graph) RuleStop(rule int) int {
	return g.ruleStop[rule]
}

// Rule returns the index of the rule called name.
func (g *Graph) Rule(name string) (int, bool) {
	for i, n := range g.ruleNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

func (g *Graph) NumStates() int { return len(g.trans) }
func (g *Graph) NumRules() int  { return len(g.ruleNames) }
func (g *Graph) StartRule() int { return g.start }

func (g *Graph) Transitions(state int) []Transition {
	return g.trans[state]
}

func (g *Graph) RuleOf(state int) int {
	return g.ruleOf[state]
}

func (g *Graph) RuleStart(rule int) int {
	return g.ruleStart[rule]
}

func (g *Graph) RuleName(rule int) string {
	if rule < 0 || rule >= len(g.ruleNames) {
		return fmt.Sprintf("rule%d", rule)
	}
	return g.ruleNames[rule]
}

func (g *Graph) TokenName(tokenType int) string {
	switch tokenType {
	case EOF:
		return "EOF"
	case Invalid:
		return "<invalid>"
	}
	if name, ok := g.tokenNames[tokenType]; ok {
		return name
	}
	return fmt.Sprintf("T%d", tokenType)
}

// Dump writes a listing of every rule and state of a to w.
func Dump(w io.Writer, a Automaton) error {
	for r := 0; r < a.NumRules(); r++ {
		marker := ""
		if r == a.StartRule() {
			marker = " (start)"
		}
		if _, err := fmt.Fprintf(w, "rule %s%s: start %d\n", a.RuleName(r), marker, a.RuleStart(r)); err != nil {
			return err
		}
		for s := 0; s < a.NumStates(); s++ {
			if a.RuleOf(s) != r {
				continue
			}
			for _, t := range a.Transitions(s) {
				if _, err := fmt.Fprintf(w, "  %s\n", describe(a, s, t)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func describe(a Automaton, from int, t Transition) string {
	switch t.Kind {
	case Terminal:
		return fmt.Sprintf("%d -%s-> %d", from, a.TokenName(t.Label), t.Target)
	case RuleCall:
		return fmt.Sprintf("%d -%s-> %d (return %d)", from, a.RuleName(t.Label), t.Target, t.Follow)
	case RuleReturn:
		return fmt.Sprintf("%d -return->", from)
	}
	return fmt.Sprintf("%d -> %d", from, t.Target)
}
