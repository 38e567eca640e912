package grammar

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dhamidi/grammarls/atn"
)

// frame is a node of the graph-structured rule-invocation stack: the
// state to return to and the position (token index) at which the rule
// was entered. There is one frame per (ret, pos); calls that meet at the
// same frame add a parent instead of a copy, so left recursion closes a
// cycle rather than nesting deeper.
type frame struct {
	ret     int
	parents []int
}

type frameKey struct {
	ret, pos int
}

// conf is a parser configuration; frame 0 is the empty stack.
type conf struct {
	state int
	frame int
}

// Parser consumes a prefix of the token stream, tracking every
// configuration the grammar allows after it.
type Parser struct {
	g      *Grammar
	tokens []atn.Token

	frames []frame
	byKey  map[frameKey]int

	kernel []conf
	next   int // index of the next token to consume
	offset int
	failed bool
	prefix string
}

// CreateParser returns a parser over tokens, positioned before the first.
func (g *Grammar) CreateParser(tokens []atn.Token) atn.Parser {
	p := &Parser{g: g}
	for _, tok := range tokens {
		if tok.Type != atn.EOF {
			p.tokens = append(p.tokens, tok)
		}
	}
	p.reset()
	return p
}

func (p *Parser) reset() {
	p.frames = []frame{{ret: -1}}
	p.byKey = make(map[frameKey]int)
	p.kernel = []conf{{state: p.g.graph.RuleStart(p.g.graph.StartRule())}}
	p.next = 0
	p.offset = 0
	p.failed = false
	p.prefix = ""
}

func (p *Parser) Automaton() atn.Automaton {
	return p.g.graph
}

// AdvanceTo consumes the tokens that start before offset. With a typed
// prefix, a word the caret is inside of or right after is left
// unconsumed. Advancing to an earlier offset starts over.
func (p *Parser) AdvanceTo(offset int) error {
	if offset < 0 {
		return fmt.Errorf("advance to negative offset %d", offset)
	}
	if offset < p.offset || p.prefix != "" {
		p.reset()
	}
	p.offset = offset

	n := 0
	for n < len(p.tokens) && p.tokens[n].Start < offset {
		n++
	}
	if p.g.opts.typedPrefix && n > 0 && n > p.next {
		if last := p.tokens[n-1]; last.End >= offset && isWord(last.Text) {
			p.prefix = last.Text[:offset-last.Start]
			n--
		}
	}

	for p.next < n && !p.failed {
		p.step(p.tokens[p.next])
	}
	return nil
}

// step consumes tok.
func (p *Parser) step(tok atn.Token) {
	var next []conf
	seen := make(map[conf]bool)
	for _, c := range p.closure() {
		for _, t := range p.g.graph.Transitions(c.state) {
			if t.Kind != atn.Terminal || t.Label != tok.Type {
				continue
			}
			nc := conf{state: t.Target, frame: c.frame}
			if !seen[nc] {
				seen[nc] = true
				next = append(next, nc)
			}
		}
	}
	if len(next) == 0 {
		log.Debugf("no configuration accepts %s at offset %d", p.g.graph.TokenName(tok.Type), tok.Start)
		p.fail()
		return
	}
	p.kernel = next
	p.next++
}

func (p *Parser) fail() {
	p.failed = true
	p.kernel = nil
}

// closure returns every configuration reachable from the kernel without
// consuming a token. Frames pushed here all carry the current position,
// and only here can they gain parents; a frame that already returned
// replays the return into each parent added later.
func (p *Parser) closure() []conf {
	visited := make(map[conf]bool)
	returned := make(map[int]bool)
	work := slices.Clone(p.kernel)
	var out []conf
	push := func(c conf) {
		if !visited[c] {
			work = append(work, c)
		}
	}
	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]
		if visited[c] {
			continue
		}
		visited[c] = true
		out = append(out, c)

		if len(out) > p.g.opts.maxNodes {
			log.Warningf("prefix parse exceeded %d nodes at token %d", p.g.opts.maxNodes, p.next)
			p.fail()
			return nil
		}

		for _, t := range p.g.graph.Transitions(c.state) {
			switch t.Kind {
			case atn.Epsilon:
				push(conf{state: t.Target, frame: c.frame})
			case atn.RuleCall:
				id, added := p.call(t.Follow, c.frame)
				if added && returned[id] {
					push(conf{state: t.Follow, frame: c.frame})
				}
				push(conf{state: t.Target, frame: id})
			case atn.RuleReturn:
				if c.frame == 0 {
					continue
				}
				returned[c.frame] = true
				for _, parent := range p.frames[c.frame].parents {
					push(conf{state: p.frames[c.frame].ret, frame: parent})
				}
			}
		}
	}
	return out
}

// call returns the frame for a rule entered at the current position that
// returns to ret, adding parent to it. added reports whether parent is
// new to the frame.
func (p *Parser) call(ret, parent int) (id int, added bool) {
	key := frameKey{ret: ret, pos: p.next}
	id, ok := p.byKey[key]
	if !ok {
		id = len(p.frames)
		p.frames = append(p.frames, frame{ret: ret})
		p.byKey[key] = id
	}
	if slices.Contains(p.frames[id].parents, parent) {
		return id, false
	}
	p.frames[id].parents = append(p.frames[id].parents, parent)
	return id, true
}

// stacks calls emit with the return states of every path from frame id
// to the empty stack, innermost last. A frame appears at most twice on a
// path: going around a cycle again only repeats return states already
// seen. emit returns false to stop.
func (p *Parser) stacks(id int, emit func([]int) bool) {
	onPath := make(map[int]int)
	var rets []int
	var walk func(id int) bool
	walk = func(id int) bool {
		if id == 0 {
			s := slices.Clone(rets)
			slices.Reverse(s)
			return emit(s)
		}
		if onPath[id] == 2 {
			return true
		}
		onPath[id]++
		rets = append(rets, p.frames[id].ret)
		for _, parent := range p.frames[id].parents {
			if !walk(parent) {
				return false
			}
		}
		rets = rets[:len(rets)-1]
		onPath[id]--
		return true
	}
	walk(id)
}

// CurrentState returns the configurations after the consumed tokens.
func (p *Parser) CurrentState() atn.State {
	state := atn.State{Failed: p.failed, Prefix: p.prefix}
	seen := make(map[string]bool)
	paths := 0
	for _, c := range p.kernel {
		p.stacks(c.frame, func(stack []int) bool {
			cfg := atn.Config{State: c.state, Stack: stack}
			if key := stackKey(cfg); !seen[key] {
				seen[key] = true
				state.Configs = append(state.Configs, cfg)
			}
			paths++
			return paths < p.g.opts.maxNodes
		})
		if paths >= p.g.opts.maxNodes {
			log.Warningf("current state cut off after %d stacks", paths)
			break
		}
	}
	return state
}

// Consumed returns the number of tokens consumed so far.
func (p *Parser) Consumed() int {
	return p.next
}

func stackKey(c atn.Config) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(c.State))
	for _, s := range c.Stack {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}

func isWord(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}
