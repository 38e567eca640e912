package main

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/grammarls/ebnf/parse"
	"github.com/dhamidi/grammarls/grammar"
)

func newCheckCmd() *cobra.Command {
	var flags languageFlags
	var jobs int

	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Check that files parse with their grammar",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs < 1 {
				return fmt.Errorf("--jobs must be at least 1, got %d", jobs)
			}
			grammars := make([]*grammar.Grammar, len(args))
			loaded := make(map[string]*grammar.Grammar)
			for i, filename := range args {
				lang, err := flags.language(filename)
				if err != nil {
					return err
				}
				g, ok := loaded[lang.Grammar]
				if !ok {
					if g, err = loadGrammar(lang); err != nil {
						return err
					}
					loaded[lang.Grammar] = g
				}
				grammars[i] = g
			}

			results := make([]error, len(args))
			var eg errgroup.Group
			eg.SetLimit(jobs)
			for i, filename := range args {
				eg.Go(func() error {
					_, err := parseFile(grammars[i], filename)
					var perr *parse.Error
					if err != nil && !errors.As(err, &perr) {
						return fmt.Errorf("%s: %w", filename, err)
					}
					results[i] = err
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for i, err := range results {
				if err != nil {
					failed++
					fmt.Fprintln(out, err)
					continue
				}
				fmt.Fprintf(out, "%s: ok\n", args[i])
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to parse", failed, len(args))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "files parsed at the same time")

	return cmd
}
