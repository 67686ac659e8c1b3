package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/internal/lsp"
)

func newLSPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := lsp.NewServer(a.cfg, a.language(cmd.Context()), version)
			return server.RunStdio()
		},
	}
}
