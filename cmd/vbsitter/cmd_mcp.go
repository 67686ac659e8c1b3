package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/internal/mcpserver"
)

func newMCPCmd(a *app) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mcpserver.New(root, a.cfg, a.language(cmd.Context()), version)
			return server.ServeStdio()
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "directory relative paths resolve against")

	return cmd
}
