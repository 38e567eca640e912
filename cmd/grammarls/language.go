package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/dhamidi/grammarls/config"
	"github.com/dhamidi/grammarls/document"
)

// languageFlags select the language of the input files: either a grammar
// given directly or a language from a configuration file.
type languageFlags struct {
	configFile  string
	languageID  string
	grammar     string
	start       string
	typedPrefix bool
	fallback    bool
}

func (f *languageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.grammar, "grammar", "g", "", "EBNF grammar file")
	cmd.Flags().StringVar(&f.start, "start", "", "start production (default: first parser rule)")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "language configuration file, used when --grammar is not set")
	cmd.Flags().StringVarP(&f.languageID, "language", "l", "", "language id in the configuration (default: by file extension)")
	cmd.Flags().BoolVar(&f.typedPrefix, "typed-prefix", false, "treat the word at the caret as a typed prefix")
	cmd.Flags().BoolVar(&f.fallback, "fallback", false, "complete from the start rule when the input does not fit the grammar")
}

// language returns the language for the file at path.
func (f *languageFlags) language(path string) (*config.Language, error) {
	if f.grammar != "" {
		lang := &config.Language{
			ID:              "cli",
			Grammar:         f.grammar,
			Start:           f.start,
			TypedPrefix:     f.typedPrefix,
			FallbackToStart: f.fallback,
		}
		lang.SetDefaults()
		return lang, nil
	}
	if f.configFile == "" {
		return nil, errors.New("one of --grammar or --config is required")
	}
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	lang, ok := cfg.Find(f.languageID, path)
	if !ok {
		return nil, fmt.Errorf("%s: no language in %s", path, f.configFile)
	}
	return lang, nil
}

// parsePosition parses a 1-based "line:column" argument; the column counts
// bytes.
func parsePosition(s string) (document.Position, error) {
	lineStr, colStr, ok := strings.Cut(s, ":")
	if !ok {
		return document.Position{}, fmt.Errorf("position %q: want line:column", s)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return document.Position{}, fmt.Errorf("position %q: invalid line", s)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return document.Position{}, fmt.Errorf("position %q: invalid column", s)
	}
	return document.Position{Line: line - 1, Column: col - 1}, nil
}

// printErrors writes each error combined in err on its own line.
func printErrors(w io.Writer, err error) {
	for _, e := range multierr.Errors(err) {
		fmt.Fprintln(w, e)
	}
}
