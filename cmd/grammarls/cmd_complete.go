package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/grammarls/document"
	"github.com/dhamidi/grammarls/format"
)

func newCompleteCmd() *cobra.Command {
	var flags languageFlags
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "complete <file> <line:column>",
		Short: "Print the completion candidates at a position of a file",
		Long: `Print the tokens and preferred rules that can follow the text before
the given position. Lines and columns start at 1; columns count bytes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			pos, err := parsePosition(args[1])
			if err != nil {
				return err
			}

			lang, err := flags.language(filename)
			if err != nil {
				return err
			}
			compiled, err := lang.Compile()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			doc := document.New(filename, lang.ID, 0, string(data))

			candidates, err := compiled.Completer.Complete(doc, pos)
			if err != nil {
				return err
			}

			enc, err := format.NewEncoder(outputFormat, os.Stdout, compiled.Grammar.Automaton())
			if err != nil {
				return err
			}
			if err := enc.Encode(candidates); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "line", "output format ("+strings.Join(format.Names, ", ")+")")

	return cmd
}
