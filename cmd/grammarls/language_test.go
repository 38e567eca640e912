package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/dhamidi/grammarls/completion"
	"github.com/dhamidi/grammarls/document"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    document.Position
		wantErr string
	}{
		{in: "1:1", want: document.Position{}},
		{in: "3:12", want: document.Position{Line: 2, Column: 11}},
		{in: "3", wantErr: "want line:column"},
		{in: "0:1", wantErr: "invalid line"},
		{in: "1:x", wantErr: "invalid column"},
	}
	for _, tt := range tests {
		got, err := parsePosition(tt.in)
		if tt.wantErr != "" {
			assert.ErrorContains(t, err, tt.wantErr, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLanguageFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "grammarls.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
languages:
  - id: sm
    extensions: [".sm"]
    grammar: sm.ebnf
`), 0o644))

	flags := languageFlags{grammar: "g.ebnf", start: "doc", typedPrefix: true}
	lang, err := flags.language("x.sm")
	require.NoError(t, err)
	assert.Equal(t, "g.ebnf", lang.Grammar)
	assert.Equal(t, "doc", lang.Start)
	assert.True(t, lang.TypedPrefix)
	assert.Equal(t, completion.DefaultMaxVisits, lang.MaxVisits)

	flags = languageFlags{configFile: cfgPath}
	lang, err = flags.language("x.sm")
	require.NoError(t, err)
	assert.Equal(t, "sm", lang.ID)
	assert.Equal(t, filepath.Join(dir, "sm.ebnf"), lang.Grammar)

	_, err = flags.language("x.txt")
	assert.ErrorContains(t, err, "no language")

	_, err = (&languageFlags{}).language("x.sm")
	assert.ErrorContains(t, err, "--grammar or --config")
}

func TestPrintErrors(t *testing.T) {
	var buf bytes.Buffer
	printErrors(&buf, multierr.Combine(errors.New("one"), errors.New("two")))
	assert.Equal(t, "one\ntwo\n", buf.String())
}
