package parse

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/grammarls/ebnflex"
)

// EarleyParser implements Earley parsing for EBNF grammars. The grammar is
// rewritten to BNF first; ambiguous input yields one of its trees.
type EarleyParser struct {
	grammar   *bnf
	tokens    []ebnflex.Token
	skipKinds map[string]bool

	chart    []*ItemSet
	filtered []ebnflex.Token // tokens without skipped kinds
	building map[span]bool
}

// Item represents an Earley item: an alternative of a production with a
// dot position and origin.
type Item struct {
	Name   string // Production name
	prod   int
	alt    int
	Dot    int // Symbols of the alternative before the dot
	Origin int // Chart position where this item started
}

type itemKey struct {
	prod, alt, dot, origin int
}

func (item *Item) key() itemKey {
	return itemKey{item.prod, item.alt, item.Dot, item.Origin}
}

func (item *Item) String() string {
	return fmt.Sprintf("[%s/%d → •%d, %d]", item.Name, item.alt, item.Dot, item.Origin)
}

// ItemSet holds the distinct items of one chart column in insertion order.
type ItemSet struct {
	items []*Item
	seen  map[itemKey]struct{}
	at    int
}

func newItemSet(at int) *ItemSet {
	return &ItemSet{seen: make(map[itemKey]struct{}), at: at}
}

// Add reports whether item was new to the set.
func (s *ItemSet) Add(item *Item) bool {
	k := item.key()
	if _, dup := s.seen[k]; dup {
		return false
	}
	s.seen[k] = struct{}{}
	s.items = append(s.items, item)
	return true
}

func (s *ItemSet) has(k itemKey) bool {
	_, ok := s.seen[k]
	return ok
}

// Items returns the items in the order they were added.
func (s *ItemSet) Items() []*Item {
	return s.items
}

// NewEarleyParser returns a parser for tokens. WhiteSpace and Comment
// tokens are ignored unless SetSkipKinds says otherwise.
func NewEarleyParser(g ebnf.Grammar, tokens []ebnflex.Token) *EarleyParser {
	p := &EarleyParser{grammar: newBNF(g), tokens: tokens}
	p.SetSkipKinds("WhiteSpace", "Comment")
	return p
}

// SetSkipKinds replaces the set of token kinds the parser ignores.
func (p *EarleyParser) SetSkipKinds(kinds ...string) {
	p.skipKinds = make(map[string]bool, len(kinds))
	for _, kind := range kinds {
		p.skipKinds[kind] = true
	}
}

// Chart returns the item sets of the last parse.
func (p *EarleyParser) Chart() []*ItemSet {
	return p.chart
}

// recognize fills the chart from startProduction and returns the number
// of tokens it covers.
func (p *EarleyParser) recognize(startProduction string) (int, error) {
	prod, index, ok := p.grammar.production(startProduction)
	if !ok || prod.synthetic {
		return 0, fmt.Errorf("production %q not found in grammar", startProduction)
	}

	p.filtered = slices.DeleteFunc(slices.Clone(p.tokens), func(tok ebnflex.Token) bool {
		return tok.Kind == ebnflex.KindEOF || p.skipKinds[tok.Kind]
	})
	n := len(p.filtered)
	p.chart = make([]*ItemSet, n+1)
	for col := range p.chart {
		p.chart[col] = newItemSet(col)
	}
	p.addAlternatives(0, index)

	// Columns grow while they are processed.
	for col, set := range p.chart {
		for k := 0; k < len(set.items); k++ {
			item := set.items[k]
			if sym, ok := p.nextSymbol(item); !ok {
				p.complete(col, item)
			} else if sym.terminal {
				p.scan(col, item, sym)
			} else {
				p.predict(col, item, sym)
			}
		}
	}
	return n, nil
}

func (p *EarleyParser) alternative(item *Item) []symbol {
	return p.grammar.prods[item.prod].alts[item.alt]
}

// nextSymbol returns the symbol after the dot; ok is false for a complete item.
func (p *EarleyParser) nextSymbol(item *Item) (symbol, bool) {
	alt := p.alternative(item)
	if item.Dot >= len(alt) {
		return symbol{}, false
	}
	return alt[item.Dot], true
}

func (p *EarleyParser) addAlternatives(pos, prod int) {
	pr := p.grammar.prods[prod]
	for alt := range pr.alts {
		p.chart[pos].Add(&Item{Name: pr.name, prod: prod, alt: alt, Dot: 0, Origin: pos})
	}
}

func advanced(item *Item) *Item {
	next := *item
	next.Dot++
	return &next
}

// predict adds the alternatives of a nonterminal. A nullable nonterminal
// is also skipped right away, since its empty completion happens in the
// same item set and would be missed by items added after it.
func (p *EarleyParser) predict(pos int, item *Item, next symbol) {
	prod, ok := p.grammar.index[next.name]
	if !ok {
		return
	}
	p.addAlternatives(pos, prod)
	if p.grammar.nullable[prod] {
		p.chart[pos].Add(advanced(item))
	}
}

// scan moves item over the token at pos when it matches next.
func (p *EarleyParser) scan(pos int, item *Item, next symbol) {
	if pos >= len(p.filtered) {
		return
	}
	if next.matches(p.filtered[pos]) {
		p.chart[pos+1].Add(advanced(item))
	}
}

// complete advances the items at the origin that were waiting for the
// completed production.
func (p *EarleyParser) complete(pos int, completed *Item) {
	origin := p.chart[completed.Origin]
	for j := 0; j < len(origin.items); j++ {
		item := origin.items[j]
		sym, ok := p.nextSymbol(item)
		if ok && !sym.terminal && sym.name == completed.Name {
			p.chart[pos].Add(advanced(item))
		}
	}
}

// Parse parses starting from the given production and returns the
// concrete syntax tree.
func (p *EarleyParser) Parse(startProduction string) (*Node, error) {
	n, err := p.recognize(startProduction)
	if err != nil {
		return nil, err
	}

	_, start, _ := p.grammar.production(startProduction)
	if !p.hasComplete(start, 0, n) {
		return nil, p.parseError()
	}

	p.building = make(map[span]bool)
	children, ok := p.build(start, 0, n)
	if !ok {
		return nil, fmt.Errorf("parse error: no derivation for %s", startProduction)
	}
	var at ebnflex.Position
	if len(p.tokens) > 0 {
		at = p.tokens[len(p.tokens)-1].Position
	}
	return branch(startProduction, children, at), nil
}

func (p *EarleyParser) parseError() error {
	furthest := 0
	for col, set := range p.chart {
		if len(set.items) > 0 {
			furthest = col
		}
	}
	if furthest < len(p.filtered) {
		tok := p.filtered[furthest]
		return &Error{
			Position: tok.Position,
			Message:  fmt.Sprintf("unexpected %q, expected %s", tok.Literal, strings.Join(p.expected(furthest), ", ")),
		}
	}
	var pos ebnflex.Position
	if len(p.tokens) > 0 {
		pos = p.tokens[len(p.tokens)-1].Position
	}
	return &Error{
		Position: pos,
		Message:  fmt.Sprintf("unexpected end of input, expected %s", strings.Join(p.expected(furthest), ", ")),
	}
}

// expected lists the terminals the items at pos wait for.
func (p *EarleyParser) expected(pos int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range p.chart[pos].items {
		sym, ok := p.nextSymbol(item)
		if ok && sym.terminal && !seen[sym.name] {
			seen[sym.name] = true
			out = append(out, sym.name)
		}
	}
	return out
}

func (p *EarleyParser) hasComplete(prod, start, end int) bool {
	set := p.chart[end]
	for alt, syms := range p.grammar.prods[prod].alts {
		if set.has(itemKey{prod, alt, len(syms), start}) {
			return true
		}
	}
	return false
}

type span struct {
	prod, start, end int
}

// build returns the children of a derivation of prod over the filtered
// tokens [start, end). Synthetic productions are flattened into their
// parent.
func (p *EarleyParser) build(prod, start, end int) ([]*Node, bool) {
	key := span{prod, start, end}
	if p.building[key] {
		return nil, false
	}
	p.building[key] = true
	defer delete(p.building, key)

	set := p.chart[end]
	for alt, syms := range p.grammar.prods[prod].alts {
		if !set.has(itemKey{prod, alt, len(syms), start}) {
			continue
		}
		if children, ok := p.buildSymbols(prod, alt, len(syms), start, end); ok {
			return children, true
		}
	}
	return nil, false
}

// buildSymbols matches the first dot symbols of an alternative against
// [start, end), right to left.
func (p *EarleyParser) buildSymbols(prod, alt, dot, start, end int) ([]*Node, bool) {
	if dot == 0 {
		return nil, start == end
	}
	sym := p.grammar.prods[prod].alts[alt][dot-1]

	if sym.terminal {
		if end == start || !sym.matches(p.filtered[end-1]) {
			return nil, false
		}
		if !p.chart[end-1].has(itemKey{prod, alt, dot - 1, start}) {
			return nil, false
		}
		left, ok := p.buildSymbols(prod, alt, dot-1, start, end-1)
		if !ok {
			return nil, false
		}
		return append(left, leaf(p.filtered[end-1])), true
	}

	child, ok := p.grammar.index[sym.name]
	if !ok {
		return nil, false
	}
	for mid := end; mid >= start; mid-- {
		if !p.chart[mid].has(itemKey{prod, alt, dot - 1, start}) || !p.hasComplete(child, mid, end) {
			continue
		}
		right, ok := p.build(child, mid, end)
		if !ok {
			continue
		}
		left, ok := p.buildSymbols(prod, alt, dot-1, start, mid)
		if !ok {
			continue
		}
		if p.grammar.prods[child].synthetic {
			return append(left, right...), true
		}
		return append(left, branch(sym.name, right, p.emptyAt(mid))), true
	}
	return nil, false
}

// emptyAt is where an empty node before the token at pos sits.
func (p *EarleyParser) emptyAt(pos int) ebnflex.Position {
	switch {
	case pos < len(p.filtered):
		return p.filtered[pos].Position
	case len(p.filtered) > 0:
		return p.filtered[len(p.filtered)-1].EndPosition()
	}
	return ebnflex.Position{}
}

// Error is a syntax error at a position.
type Error struct {
	Position ebnflex.Position
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Position, e.Message)
}
