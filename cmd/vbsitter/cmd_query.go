package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/parser"
	"github.com/dhamidi/vbsitter/query"
)

func newQueryCmd(a *app) *cobra.Command {
	var expr string

	cmd := &cobra.Command{
		Use:   "query [<query-file>] <file>...",
		Short: "Run tree queries over VB.NET files",
		Example: `  vbsitter query -e '(method_declaration name: (identifier) @name)' Program.vb
  vbsitter query methods.scm src/*.vb`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if expr == "" {
				if len(args) < 2 {
					return fmt.Errorf("need a query file and at least one input file")
				}
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read query: %w", err)
				}
				expr, args = string(data), args[1:]
			}

			lang := a.language(cmd.Context())
			q, err := query.Compile(lang, expr)
			if err != nil {
				return err
			}

			p := parser.New(lang, parser.WithMaxVersions(a.cfg.Parser.MaxVersions))
			out := cmd.OutOrStdout()
			for _, filename := range args {
				data, err := readInput(cmd.InOrStdin(), filename)
				if err != nil {
					return err
				}
				tree := p.Parse(data, nil)
				for m := range q.All(tree.RootNode()) {
					for _, c := range m.Captures {
						start := c.Node.StartPoint()
						fmt.Fprintf(out, "%s:%d:%d: pattern %d @%s %s %q\n",
							filename, start.Row+1, start.Column+1, m.Pattern, c.Name, c.Node.Type(), c.Node.Text())
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&expr, "expr", "e", "", "query patterns given inline instead of a query file")

	return cmd
}
