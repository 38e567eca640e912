package ebnflex

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// noMatch is the result of a failed match; 0 is a successful empty match.
const noMatch = -1

type site struct {
	name string
	at   int
}

// matcher measures how many bytes of input an expression consumes at an
// offset. Lengths of named productions are cached until reset.
type matcher struct {
	grammar ebnf.Grammar
	input   []byte
	lengths map[site]int
	active  map[site]bool
}

func newMatcher(g ebnf.Grammar, input []byte) *matcher {
	return &matcher{
		grammar: g,
		input:   input,
		lengths: make(map[site]int),
		active:  make(map[site]bool),
	}
}

// reset drops cached lengths; they are only valid for one token start.
func (m *matcher) reset() {
	clear(m.lengths)
	clear(m.active)
}

func (m *matcher) expr(x ebnf.Expression, at int) int {
	switch x := x.(type) {
	case nil:
		return 0
	case *ebnf.Token:
		return m.literal(x.String, at)
	case *ebnf.Range:
		lo, _ := utf8.DecodeRuneInString(x.Begin.String)
		hi, _ := utf8.DecodeRuneInString(x.End.String)
		return m.runeIn(lo, hi, at)
	case *ebnf.Name:
		return m.name(x.String, at)
	case *ebnf.Group:
		return m.expr(x.Body, at)
	case *ebnf.Option:
		return max(m.expr(x.Body, at), 0)
	case *ebnf.Repetition:
		n := 0
		for {
			step := m.expr(x.Body, at+n)
			if step <= 0 {
				return n
			}
			n += step
		}
	case ebnf.Sequence:
		n := 0
		for _, item := range x {
			step := m.expr(item, at+n)
			if step == noMatch {
				return noMatch
			}
			n += step
		}
		return n
	case ebnf.Alternative:
		longest := noMatch
		for _, alt := range x {
			longest = max(longest, m.expr(alt, at))
		}
		return longest
	}
	return noMatch
}

// name matches a production. A production reentered at the same offset
// fails, which cuts left recursion.
func (m *matcher) name(name string, at int) int {
	s := site{name, at}
	if n, ok := m.lengths[s]; ok {
		return n
	}
	if m.active[s] {
		return noMatch
	}
	prod, ok := m.grammar[name]
	if !ok {
		m.lengths[s] = noMatch
		return noMatch
	}
	m.active[s] = true
	n := m.expr(prod.Expr, at)
	delete(m.active, s)
	m.lengths[s] = n
	return n
}

func (m *matcher) literal(s string, at int) int {
	if at > len(m.input) || !bytes.HasPrefix(m.input[at:], []byte(s)) {
		return noMatch
	}
	return len(s)
}

func (m *matcher) runeIn(lo, hi rune, at int) int {
	if at >= len(m.input) {
		return noMatch
	}
	r, size := utf8.DecodeRune(m.input[at:])
	if r == utf8.RuneError && size <= 1 || r < lo || r > hi {
		return noMatch
	}
	return size
}
