package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/grammarls/atn"
	"github.com/dhamidi/grammarls/completion"
)

type JSONEncoder struct {
	w io.Writer
	a atn.Automaton
}

func NewJSONEncoder(w io.Writer, a atn.Automaton) *JSONEncoder {
	return &JSONEncoder{w: w, a: a}
}

func (e *JSONEncoder) Encode(c *completion.Candidates) error {
	text, err := e.MarshalText(c)
	if err == nil {
		text = append(text, '\n')
	}
	return write(e.w, text, err)
}

func (e *JSONEncoder) MarshalText(c *completion.Candidates) ([]byte, error) {
	return json.MarshalIndent(e.toJSON(c), "", "  ")
}

type jsonCandidates struct {
	Tokens    []jsonToken `json:"tokens"`
	Rules     []jsonRule  `json:"rules,omitempty"`
	Prefix    string      `json:"prefix,omitempty"`
	Failed    bool        `json:"failed,omitempty"`
	Visited   int         `json:"visited"`
	Truncated bool        `json:"truncated,omitempty"`
}

type jsonToken struct {
	Type     int        `json:"type"`
	Name     string     `json:"name"`
	Contexts [][]string `json:"contexts,omitempty"`
}

type jsonRule struct {
	Rule int      `json:"rule"`
	Name string   `json:"name"`
	Path []string `json:"path"`
}

func (e *JSONEncoder) toJSON(c *completion.Candidates) jsonCandidates {
	out := jsonCandidates{
		Tokens:    make([]jsonToken, 0, len(c.Tokens)),
		Prefix:    c.Prefix,
		Failed:    c.Failed,
		Visited:   c.Visited,
		Truncated: c.Truncated,
	}
	for _, t := range c.Tokens {
		jt := jsonToken{Type: t.Type, Name: t.Name}
		for _, ctx := range t.Contexts {
			jt.Contexts = append(jt.Contexts, ruleNames(e.a, ctx))
		}
		out.Tokens = append(out.Tokens, jt)
	}
	for _, r := range c.Rules {
		out.Rules = append(out.Rules, jsonRule{Rule: r.Rule, Name: r.Name, Path: ruleNames(e.a, r.Path)})
	}
	return out
}
