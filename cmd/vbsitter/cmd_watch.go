package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/internal/workspace"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [<dir>]",
		Short: "Parse a directory and report syntax errors as files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var ws *workspace.Workspace
			ws = workspace.New(root, a.language(ctx), a.cfg.Workspace,
				workspace.WithMaxVersions(a.cfg.Parser.MaxVersions),
				workspace.WithNotify(func(path string) { report(out, ws, path) }),
			)

			if err := ws.ScanAll(ctx); err != nil {
				return err
			}
			for _, path := range ws.Paths() {
				report(out, ws, path)
			}
			fmt.Fprintf(out, "watching %d files under %s\n", len(ws.Paths()), root)

			return ws.Watch(ctx)
		},
	}

	return cmd
}

// report prints the syntax errors of path, or ok when there are none.
func report(w io.Writer, ws *workspace.Workspace, path string) {
	diags, err := ws.Diagnostics(path)
	if err != nil {
		fmt.Fprintf(w, "%s: removed\n", path)
		return
	}
	if len(diags) == 0 {
		fmt.Fprintf(w, "%s: ok\n", path)
		return
	}
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%d:%d: %s\n", path, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
	}
}
