package completion

import "sort"

// TokenCandidate is a token type that can come next. Contexts lists the
// distinct rule paths (outermost rule first) it was reached through.
type TokenCandidate struct {
	Type     int
	Name     string
	Contexts [][]int
}

// RuleCandidate is a preferred rule that can start next, with the rules
// it would be called from.
type RuleCandidate struct {
	Rule int
	Name string
	Path []int
}

// Candidates is the result of a query. Tokens and Rules are in discovery
// order.
type Candidates struct {
	Tokens []TokenCandidate
	Rules  []RuleCandidate

	// Prefix is the unconsumed word at the caret, if the parser keeps one.
	Prefix string
	// Failed is set when the input before the caret does not fit the grammar.
	Failed    bool
	Visited   int
	Truncated bool
}

// Has reports whether tokenType is a candidate.
func (c *Candidates) Has(tokenType int) bool {
	for _, t := range c.Tokens {
		if t.Type == tokenType {
			return true
		}
	}
	return false
}

// Types returns the candidate token types in ascending order.
func (c *Candidates) Types() []int {
	types := make([]int, len(c.Tokens))
	for i, t := range c.Tokens {
		types[i] = t.Type
	}
	sort.Ints(types)
	return types
}

// Names returns the candidate token names in ascending order.
func (c *Candidates) Names() []string {
	names := make([]string, len(c.Tokens))
	for i, t := range c.Tokens {
		names[i] = t.Name
	}
	sort.Strings(names)
	return names
}

// Len returns the number of token candidates.
func (c *Candidates) Len() int {
	return len(c.Tokens)
}
