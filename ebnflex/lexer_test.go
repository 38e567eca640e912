package ebnflex

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/ebnf"
)

const testGrammar = `
WhiteSpace = ( " " | "\t" | "\n" | "\r" ) { " " | "\t" | "\n" | "\r" } .
Ident      = letter { letter | digit } .
Number     = digit { digit } .
Arrow      = "->" .
letter     = "a" … "z" | "A" … "Z" | "_" | "α" … "ω" .
digit      = "0" … "9" .
`

func parseGrammar(t *testing.T, src string) ebnf.Grammar {
	t.Helper()
	g, err := ebnf.Parse("test.ebnf", strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse grammar: %v", err)
	}
	return g
}

func kinds(tokens []Token) []string {
	var out []string
	for _, tok := range tokens {
		out = append(out, tok.Kind+":"+tok.Literal)
	}
	return out
}

func TestTokenize(t *testing.T) {
	g := parseGrammar(t, testGrammar)

	tests := []struct {
		name  string
		input string
		opts  []Option
		want  []string
	}{
		{
			name:  "single letter identifier",
			input: "a",
			want:  []string{"Ident:a", "EOF:"},
		},
		{
			name:  "skip whitespace",
			input: "x1 -> 42",
			opts:  []Option{WithSkip("WhiteSpace")},
			want:  []string{"Ident:x1", "Arrow:->", "Number:42", "EOF:"},
		},
		{
			name:  "keywords beat identifiers of equal length",
			input: "state stateX",
			opts:  []Option{WithSkip("WhiteSpace"), WithLiterals([]string{"state", "{"})},
			want:  []string{`"state":state`, "Ident:stateX", "EOF:"},
		},
		{
			name:  "unmatched input becomes one rune error tokens",
			input: "a€b",
			want:  []string{"Ident:a", "ERROR:€", "Ident:b", "EOF:"},
		},
		{
			name:  "ranges match runes",
			input: "αβ",
			want:  []string{"Ident:αβ", "EOF:"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{"EOF:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lx := NewLexer(g, []byte(tt.input), "test", tt.opts...)
			tokens, err := lx.Tokenize()
			if err != nil {
				t.Fatalf("Tokenize: %v", err)
			}
			if diff := cmp.Diff(tt.want, kinds(tokens)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTokenPositions(t *testing.T) {
	g := parseGrammar(t, testGrammar)
	lx := NewLexer(g, []byte("ab\n  cd"), "f.txt", WithSkip("WhiteSpace"))
	tokens, err := lx.Tokenize()
	if err != nil {
		t.Fatal(err)
	}

	want := []Position{
		{Filename: "f.txt", Offset: 0, Line: 1, Column: 1},
		{Filename: "f.txt", Offset: 5, Line: 2, Column: 3},
		{Filename: "f.txt", Offset: 7, Line: 2, Column: 5},
	}
	var got []Position
	for _, tok := range tokens {
		got = append(got, tok.Position)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if end := tokens[1].End(); end != 7 {
		t.Errorf("End() = %d, want 7", end)
	}
}

func TestDeclarationOrderBreaksTies(t *testing.T) {
	g := parseGrammar(t, `
Keyword = "if" | "do" .
Ident   = ( "a" … "z" ) { "a" … "z" } .
`)
	for i := 0; i < 20; i++ {
		tokens, err := NewLexer(g, []byte("if"), "").Tokenize()
		if err != nil {
			t.Fatal(err)
		}
		if tokens[0].Kind != "Keyword" {
			t.Fatalf("run %d: kind = %q, want Keyword", i, tokens[0].Kind)
		}
	}
}

func TestTokenProductions(t *testing.T) {
	g := parseGrammar(t, testGrammar)
	want := []string{"WhiteSpace", "Ident", "Number", "Arrow"}
	if diff := cmp.Diff(want, TokenProductions(g)); diff != "" {
		t.Errorf("TokenProductions mismatch (-want +got):\n%s", diff)
	}
}
