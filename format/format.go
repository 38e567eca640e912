// Package format renders completion results and syntax trees for the
// command line.
package format

import (
	"fmt"
	"io"

	"github.com/dhamidi/grammarls/atn"
	"github.com/dhamidi/grammarls/completion"
)

// Encoder writes a set of completion candidates.
type Encoder interface {
	Encode(c *completion.Candidates) error
	MarshalText(c *completion.Candidates) ([]byte, error)
}

// Names lists the formats NewEncoder accepts.
var Names = []string{"line", "json"}

// NewEncoder returns the encoder called name. Rule indexes in the
// candidates are resolved to names through a.
func NewEncoder(name string, w io.Writer, a atn.Automaton) (Encoder, error) {
	switch name {
	case "line", "":
		return NewLineEncoder(w, a), nil
	case "json":
		return NewJSONEncoder(w, a), nil
	}
	return nil, fmt.Errorf("unknown format %q (want one of %v)", name, Names)
}

func ruleNames(a atn.Automaton, rules []int) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = a.RuleName(r)
	}
	return names
}

func write(w io.Writer, text []byte, err error) error {
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
