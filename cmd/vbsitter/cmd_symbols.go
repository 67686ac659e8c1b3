package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/internal/workspace"
	"github.com/dhamidi/vbsitter/parser"
)

func newSymbolsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "symbols <file>...",
		Short: "List the declarations of VB.NET files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := parser.New(a.language(cmd.Context()), parser.WithMaxVersions(a.cfg.Parser.MaxVersions))
			out := cmd.OutOrStdout()

			for _, filename := range args {
				data, err := readInput(cmd.InOrStdin(), filename)
				if err != nil {
					return err
				}
				doc := &workspace.Document{Path: filename, Content: data, Tree: p.Parse(data, nil)}
				symbols := workspace.DocumentSymbols(doc)

				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(symbols); err != nil {
						return fmt.Errorf("encode json: %w", err)
					}
					continue
				}
				fmt.Fprintf(out, "%s:\n", filename)
				printSymbols(out, symbols, 1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print symbols as JSON")

	return cmd
}

func printSymbols(w io.Writer, symbols []workspace.Symbol, depth int) {
	for _, s := range symbols {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), s)
		printSymbols(w, s.Children, depth+1)
	}
}
