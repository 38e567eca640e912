package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/grammarls/atn"
	"github.com/dhamidi/grammarls/completion"
)

// LineEncoder writes one tab separated line per candidate:
//
//	token	<name>	<context>;<context>
//	rule	<name>	<path>
//
// Contexts and paths are rule names joined by "/", or "-" when empty.
// Trailing lines report the typed prefix and whether the query failed or
// was truncated.
type LineEncoder struct {
	w io.Writer
	a atn.Automaton
}

func NewLineEncoder(w io.Writer, a atn.Automaton) *LineEncoder {
	return &LineEncoder{w: w, a: a}
}

func (e *LineEncoder) Encode(c *completion.Candidates) error {
	text, err := e.MarshalText(c)
	return write(e.w, text, err)
}

func (e *LineEncoder) MarshalText(c *completion.Candidates) ([]byte, error) {
	var sb strings.Builder

	for _, t := range c.Tokens {
		contexts := make([]string, len(t.Contexts))
		for i, ctx := range t.Contexts {
			contexts[i] = e.path(ctx)
		}
		ctx := strings.Join(contexts, ";")
		if ctx == "" {
			ctx = "-"
		}
		fmt.Fprintf(&sb, "token\t%s\t%s\n", t.Name, ctx)
	}

	for _, r := range c.Rules {
		fmt.Fprintf(&sb, "rule\t%s\t%s\n", r.Name, e.path(r.Path))
	}

	if c.Prefix != "" {
		fmt.Fprintf(&sb, "prefix\t%s\n", c.Prefix)
	}
	if c.Failed {
		sb.WriteString("failed\n")
	}
	if c.Truncated {
		fmt.Fprintf(&sb, "truncated\t%d\n", c.Visited)
	}

	return []byte(sb.String()), nil
}

func (e *LineEncoder) path(rules []int) string {
	if len(rules) == 0 {
		return "-"
	}
	return strings.Join(ruleNames(e.a, rules), "/")
}
