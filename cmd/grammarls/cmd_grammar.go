package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/grammarls/grammar"
)

func newGrammarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "EBNF grammar tools",
	}

	cmd.AddCommand(newGrammarCheckCmd())
	cmd.AddCommand(newGrammarDumpCmd())

	return cmd
}

func newGrammarCheckCmd() *cobra.Command {
	var startProduction string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Compile a grammar and report every problem in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := grammar.Load(args[0], grammar.WithStart(startProduction))
			if err != nil {
				printErrors(cmd.OutOrStdout(), err)
				return fmt.Errorf("%s: grammar has errors", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: start %s, %d rules, %d token types\n",
				args[0], g.Start(), g.Automaton().NumRules(), len(g.Vocabulary()))
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production (default: first parser rule)")

	return cmd
}

func newGrammarDumpCmd() *cobra.Command {
	var startProduction string

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the token types and automaton of a grammar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := grammar.Load(args[0], grammar.WithStart(startProduction))
			if err != nil {
				return err
			}
			return g.Dump(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production (default: first parser rule)")

	return cmd
}
