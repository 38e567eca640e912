package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/grammarls/config"
	"github.com/dhamidi/grammarls/ebnf/parse"
	"github.com/dhamidi/grammarls/format"
	"github.com/dhamidi/grammarls/grammar"
)

func newParseCmd() *cobra.Command {
	var flags languageFlags

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a file and print its concrete syntax tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			lang, err := flags.language(filename)
			if err != nil {
				return err
			}
			g, err := loadGrammar(lang)
			if err != nil {
				return err
			}

			enc := format.NewCSTJSONEncoder(os.Stdout)
			node, err := parseFile(g, filename)
			var perr *parse.Error
			if errors.As(err, &perr) {
				if encErr := enc.EncodeError(perr); encErr != nil {
					return fmt.Errorf("encode json: %w", encErr)
				}
				return err
			}
			if err != nil {
				return err
			}
			if err := enc.Encode(node); err != nil {
				return fmt.Errorf("encode json: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

// parseFile parses the whole file with the Earley parser of g.
func parseFile(g *grammar.Grammar, filename string) (*parse.Node, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parse.ParseFile(g.Source(), g.Literals(), data, filename, g.Start(), g.Skip()...)
}

// loadGrammar loads the grammar of lang without compiling a completer.
func loadGrammar(lang *config.Language) (*grammar.Grammar, error) {
	return grammar.Load(lang.Grammar, lang.GrammarOptions()...)
}
