package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/grammarls/config"
	"github.com/dhamidi/grammarls/lsp"
	"github.com/dhamidi/grammarls/session"
)

func newLSPCmd() *cobra.Command {
	var configFile string
	var tcpAddr string
	var wsAddr string
	var watch bool
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tcpAddr != "" && wsAddr != "" {
				return errors.New("--tcp and --websocket are exclusive")
			}

			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			server, err := lsp.NewServer(cfg, version)
			if err != nil {
				return err
			}

			if watch {
				watcher := lsp.NewGrammarWatcher(server, pollInterval)
				watcher.Start()
				defer watcher.Stop()
			}

			defer reportStats(cmd.ErrOrStderr(), server.Documents())
			switch {
			case tcpAddr != "":
				return server.RunTCP(tcpAddr)
			case wsAddr != "":
				return server.RunWebSocket(wsAddr)
			}
			return server.RunStdio()
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "grammarls.yaml", "language configuration file")
	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "listen on this TCP address instead of stdio")
	cmd.Flags().StringVar(&wsAddr, "websocket", "", "listen for websocket connections on this address instead of stdio")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload grammars when their files change")
	cmd.Flags().DurationVar(&pollInterval, "poll", time.Second, "how often --watch checks the grammar files")

	return cmd
}

// reportStats prints the document counters of a finished session.
func reportStats(w io.Writer, docs *session.Tracker) {
	fmt.Fprintf(w, "documents: %s\n", docs.Stats())
}
