package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/parser"
)

func newEditCmd(a *app) *cobra.Command {
	var start, end uint32
	var text string
	var outputFormat string
	var verify bool

	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Apply a byte-range edit and reparse incrementally",
		Long: `Parse <file>, replace the bytes [start, end) with text, and reparse the
result reusing the unchanged parts of the first tree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if end < start || int(end) > len(data) {
				return fmt.Errorf("invalid range [%d, %d) for %d bytes", start, end, len(data))
			}

			lang := a.language(cmd.Context())
			p := parser.New(lang, parser.WithMaxVersions(a.cfg.Parser.MaxVersions))
			old := p.Parse(data, nil)
			edit, next := parser.NewEdit(data, start, end, []byte(text))
			tree := p.Parse(next, old.Edit(edit))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", edit, p.Stats())

			if verify {
				fresh := parser.New(lang, parser.WithMaxVersions(a.cfg.Parser.MaxVersions)).Parse(next, nil)
				if got, want := tree.RootNode().StringWithPositions(), fresh.RootNode().StringWithPositions(); got != want {
					return fmt.Errorf("incremental parse differs from a fresh parse:\nincremental: %s\nfresh:       %s", got, want)
				}
			}
			return printTree(cmd.OutOrStdout(), tree, outputFormat, false)
		},
	}

	cmd.Flags().Uint32Var(&start, "start", 0, "first replaced byte")
	cmd.Flags().Uint32Var(&end, "end", 0, "end of the replaced bytes, exclusive")
	cmd.Flags().StringVarP(&text, "text", "t", "", "replacement text")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "sexp", "output format (sexp, json)")
	cmd.Flags().BoolVar(&verify, "verify", false, "check the result against a fresh parse")

	return cmd
}
