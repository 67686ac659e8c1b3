package main

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/grammar"
	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/parser"
)

func newGrammarCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Compile and try out EBNF grammars",
	}

	cmd.AddCommand(newGrammarCheckCmd(a))
	cmd.AddCommand(newGrammarParseCmd(a))

	return cmd
}

func newGrammarCheckCmd(a *app) *cobra.Command {
	var startProduction string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Verify an EBNF grammar file and build its parse table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := loadEBNF(cmd.ErrOrStderr(), args[0], startProduction)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d symbols, %d states, %d conflicts\n",
				args[0], len(lang.Symbols), lang.StateCount, len(lang.Conflicts))
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production (required)")
	cmd.MarkFlagRequired("start")

	return cmd
}

func newGrammarParseCmd(a *app) *cobra.Command {
	var startProduction string
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "parse <grammar> <input>",
		Short: "Parse input with an EBNF grammar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := loadEBNF(cmd.ErrOrStderr(), args[0], startProduction)
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			tree := parser.New(lang, parser.WithMaxVersions(a.cfg.Parser.MaxVersions)).Parse(data, nil)
			if err := printTree(cmd.OutOrStdout(), tree, outputFormat, false); err != nil {
				return err
			}
			if tree.HasError() {
				return fmt.Errorf("%s: syntax errors", args[1])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production (required)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "sexp", "output format (sexp, json)")
	cmd.MarkFlagRequired("start")

	return cmd
}

func loadEBNF(stderr io.Writer, filename, start string) (*language.Language, error) {
	g, err := grammar.LoadEBNF(filename, start)
	if err != nil {
		printErrors(stderr, err)
		return nil, fmt.Errorf("invalid grammar %s", filename)
	}
	lang, err := language.Build(g)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", filename, err)
	}
	return lang, nil
}

// printErrors prints one line per error when err wraps an error list.
func printErrors(w io.Writer, err error) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		v := reflect.ValueOf(e)
		if v.Kind() == reflect.Slice {
			for i := 0; i < v.Len(); i++ {
				fmt.Fprintln(w, v.Index(i).Interface())
			}
			return
		}
	}
	fmt.Fprintln(w, err)
}
