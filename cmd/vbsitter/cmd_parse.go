package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/parser"
)

func newParseCmd(a *app) *cobra.Command {
	var outputFormat string
	var includePositions bool
	var quiet bool
	var showStats bool

	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse VB.NET files and print their syntax trees",
		Long:  "Parse VB.NET files and print their syntax trees. Use - to read standard input.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := parser.New(a.language(cmd.Context()), parser.WithMaxVersions(a.cfg.Parser.MaxVersions))
			out := cmd.OutOrStdout()

			failed := 0
			for _, filename := range args {
				data, err := readInput(cmd.InOrStdin(), filename)
				if err != nil {
					return err
				}
				tree := p.Parse(data, nil)
				if tree.HasError() {
					failed++
				}

				if quiet {
					for _, n := range tree.Errors() {
						start := n.StartPoint()
						fmt.Fprintf(out, "%s:%d:%d: syntax error\n", filename, start.Row+1, start.Column+1)
					}
				} else if err := printTree(out, tree, outputFormat, includePositions); err != nil {
					return err
				}
				if showStats {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", filename, p.Stats())
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files have syntax errors", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "sexp", "output format (sexp, json)")
	cmd.Flags().BoolVar(&includePositions, "positions", false, "include node positions in S-expression output")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only report syntax errors")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print parser statistics to stderr")

	return cmd
}

func readInput(stdin io.Reader, filename string) ([]byte, error) {
	if filename == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return data, nil
}

func printTree(w io.Writer, tree *parser.Tree, outputFormat string, positions bool) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case "sexp":
		if positions {
			fmt.Fprintln(w, tree.RootNode().StringWithPositions())
		} else {
			fmt.Fprintln(w, tree.String())
		}
	default:
		return fmt.Errorf("unknown format: %s", outputFormat)
	}
	return nil
}
