package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/internal/workspace"
	"github.com/dhamidi/vbsitter/ui"
)

func newUICmd(a *app) *cobra.Command {
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "ui [<dir>]",
		Short: "Start the web UI server for a directory of VB.NET files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			ctx := cmd.Context()

			ws := workspace.New(root, a.language(ctx), a.cfg.Workspace,
				workspace.WithMaxVersions(a.cfg.Parser.MaxVersions))
			if err := ws.ScanAll(ctx); err != nil {
				return err
			}
			if watch {
				go func() {
					if err := ws.Watch(ctx); err != nil {
						log.Warningf("watch: %s", err)
					}
				}()
			}

			server, err := ui.NewServer(ws, a.cfg.Parser.MaxVersions)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			displayAddr := addr
			if strings.HasPrefix(addr, ":") {
				displayAddr = "localhost" + addr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Starting server at http://%s\n", displayAddr)
			return http.ListenAndServe(addr, server)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "address to listen on")
	cmd.Flags().BoolVarP(&watch, "watch", "w", true, "reparse files as they change on disk")

	return cmd
}
