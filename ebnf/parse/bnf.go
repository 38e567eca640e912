package parse

import (
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/grammarls/ebnflex"
)

// symbol is a terminal or a nonterminal of a BNF production.
type symbol struct {
	terminal bool
	name     string // nonterminal name, token kind or quoted literal
	literal  string // unquoted literal text, for literals
	lo, hi   rune   // character range, when hi != 0
}

func (s symbol) String() string {
	return s.name
}

// matches reports whether tok can be the terminal s. A literal also
// matches a token of another kind with the same text, so input lexed
// without the grammar's literals still parses.
func (s symbol) matches(tok ebnflex.Token) bool {
	switch {
	case s.hi != 0:
		r, size := utf8.DecodeRuneInString(tok.Literal)
		return size == len(tok.Literal) && r >= s.lo && r <= s.hi
	case s.literal != "":
		return tok.Kind == s.name || tok.Literal == s.literal
	}
	return tok.Kind == s.name
}

// production is a BNF production. Synthetic productions stand for groups,
// options and repetitions of the EBNF source and are flattened away when
// building the tree.
type production struct {
	name      string
	synthetic bool
	alts      [][]symbol
}

// bnf is an EBNF grammar rewritten into plain alternatives of symbol
// sequences.
type bnf struct {
	prods    []*production
	index    map[string]int
	nullable []bool
}

func newBNF(g ebnf.Grammar) *bnf {
	b := &bnf{index: make(map[string]int)}
	for _, name := range sortedRules(g) {
		b.add(&production{name: name})
	}
	for _, name := range sortedRules(g) {
		p := b.prods[b.index[name]]
		p.alts = b.alternatives(name, g[name].Expr)
	}
	b.computeNullable()
	return b
}

// sortedRules returns the nonterminal productions of g in declaration order.
func sortedRules(g ebnf.Grammar) []string {
	var names []string
	for name := range g {
		if !ebnflex.IsToken(name) {
			names = append(names, name)
		}
	}
	sortByPos(g, names)
	return names
}

func sortByPos(g ebnf.Grammar, names []string) {
	sort.Slice(names, func(i, j int) bool {
		return g[names[i]].Pos().Offset < g[names[j]].Pos().Offset
	})
}

func (b *bnf) add(p *production) int {
	i := len(b.prods)
	b.prods = append(b.prods, p)
	b.index[p.name] = i
	return i
}

func (b *bnf) synthetic(parent string, alts func(name string) [][]symbol) symbol {
	name := fmt.Sprintf("%s#%d", parent, len(b.prods))
	p := &production{name: name, synthetic: true}
	b.add(p)
	p.alts = alts(name)
	return symbol{name: name}
}

func (b *bnf) alternatives(rule string, expr ebnf.Expression) [][]symbol {
	switch e := expr.(type) {
	case nil:
		return [][]symbol{{}}
	case ebnf.Alternative:
		var alts [][]symbol
		for _, alt := range e {
			alts = append(alts, b.alternatives(rule, alt)...)
		}
		return alts
	case ebnf.Sequence:
		seq := make([]symbol, 0, len(e))
		for _, item := range e {
			seq = append(seq, b.symbols(rule, item)...)
		}
		return [][]symbol{seq}
	case *ebnf.Group:
		return b.alternatives(rule, e.Body)
	}
	return [][]symbol{b.symbols(rule, expr)}
}

// symbols returns the symbols expr stands for inside a sequence.
func (b *bnf) symbols(rule string, expr ebnf.Expression) []symbol {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ebnf.Name:
		if ebnflex.IsToken(e.String) {
			return []symbol{{terminal: true, name: e.String}}
		}
		return []symbol{{name: e.String}}
	case *ebnf.Token:
		if e.String == "" {
			return nil
		}
		return []symbol{{terminal: true, name: strconv.Quote(e.String), literal: e.String}}
	case *ebnf.Range:
		lo, _ := utf8.DecodeRuneInString(e.Begin.String)
		hi, _ := utf8.DecodeRuneInString(e.End.String)
		return []symbol{{terminal: true, name: strconv.Quote(e.Begin.String) + "…" + strconv.Quote(e.End.String), lo: lo, hi: hi}}
	case ebnf.Sequence:
		var seq []symbol
		for _, item := range e {
			seq = append(seq, b.symbols(rule, item)...)
		}
		return seq
	case *ebnf.Group:
		if seq, ok := e.Body.(ebnf.Sequence); ok {
			return b.symbols(rule, seq)
		}
		return []symbol{b.synthetic(rule, func(string) [][]symbol {
			return b.alternatives(rule, e.Body)
		})}
	case ebnf.Alternative:
		return []symbol{b.synthetic(rule, func(string) [][]symbol {
			return b.alternatives(rule, e)
		})}
	case *ebnf.Option:
		return []symbol{b.synthetic(rule, func(string) [][]symbol {
			return append([][]symbol{{}}, b.alternatives(rule, e.Body)...)
		})}
	case *ebnf.Repetition:
		// R = ε | body R
		return []symbol{b.synthetic(rule, func(name string) [][]symbol {
			alts := [][]symbol{{}}
			for _, alt := range b.alternatives(rule, e.Body) {
				alts = append(alts, append(alt, symbol{name: name}))
			}
			return alts
		})}
	}
	return nil
}

func (b *bnf) computeNullable() {
	b.nullable = make([]bool, len(b.prods))
	for changed := true; changed; {
		changed = false
		for i, p := range b.prods {
			if b.nullable[i] {
				continue
			}
			for _, alt := range p.alts {
				if b.nullableSeq(alt) {
					b.nullable[i] = true
					changed = true
					break
				}
			}
		}
	}
}

func (b *bnf) nullableSeq(seq []symbol) bool {
	for _, s := range seq {
		if s.terminal {
			return false
		}
		i, ok := b.index[s.name]
		if !ok || !b.nullable[i] {
			return false
		}
	}
	return true
}

func (b *bnf) production(name string) (*production, int, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, 0, false
	}
	return b.prods[i], i, true
}
