package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhamidi/vbsitter/internal/tablecache"
	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/vbnet"
)

func newTableCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Inspect and manage compiled parse tables",
	}

	cmd.AddCommand(newTableInfoCmd(a))
	cmd.AddCommand(newTableExportCmd(a))
	cmd.AddCommand(newTableListCmd(a))
	cmd.AddCommand(newTableDeleteCmd(a))
	cmd.AddCommand(newTablePruneCmd(a))

	return cmd
}

func newTableInfoCmd(a *app) *cobra.Command {
	var showConflicts bool

	cmd := &cobra.Command{
		Use:   "info [<table-file>]",
		Short: "Describe the VB.NET table or a saved table file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var lang *language.Language
			if len(args) == 1 {
				var err error
				if lang, err = language.Load(args[0]); err != nil {
					return err
				}
			} else {
				lang = a.language(cmd.Context())
			}

			out := cmd.OutOrStdout()
			terminals := 0
			for _, s := range lang.Symbols {
				if s.IsTerminal() {
					terminals++
				}
			}
			fmt.Fprintf(out, "name:        %s\n", lang.Name)
			fmt.Fprintf(out, "version:     %d\n", lang.Version)
			fmt.Fprintf(out, "fingerprint: %s\n", lang.Fingerprint)
			fmt.Fprintf(out, "symbols:     %d (%d terminals)\n", len(lang.Symbols), terminals)
			fmt.Fprintf(out, "productions: %d\n", len(lang.Productions))
			fmt.Fprintf(out, "states:      %d\n", lang.StateCount)
			fmt.Fprintf(out, "lex modes:   %d\n", len(lang.LexModes))
			fmt.Fprintf(out, "conflicts:   %d\n", len(lang.Conflicts))
			if showConflicts {
				for _, c := range lang.Conflicts {
					fmt.Fprintf(out, "  state %d on %s:", c.State, lang.SymbolName(c.Symbol))
					for _, act := range c.Actions {
						fmt.Fprintf(out, " %s", act)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showConflicts, "conflicts", false, "list the GLR conflicts")

	return cmd
}

func newTableExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Save the compiled VB.NET table to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.language(cmd.Context()).Save(args[0])
		},
	}
}

func newTableListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := tablecache.Open(a.cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer cache.Close()

			entries, err := cache.List(cmd.Context())
			if err != nil {
				return err
			}
			current := vbnet.NewGrammar().Fingerprint()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FINGERPRINT\tNAME\tVERSION\tSIZE\tCREATED\t")
			for _, e := range entries {
				mark := ""
				if e.Fingerprint == current {
					mark = "*"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%d\t%d\t%s\t\n",
					e.Fingerprint, mark, e.Name, e.Version, e.Size, e.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newTableDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <fingerprint>",
		Short: "Remove a cached table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := tablecache.Open(a.cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer cache.Close()
			return cache.Delete(cmd.Context(), args[0])
		},
	}
}

func newTablePruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove cached tables built by older table versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := tablecache.Open(a.cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer cache.Close()

			n, err := cache.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d tables\n", n)
			return nil
		},
	}
}
