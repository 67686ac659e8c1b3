package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/vbsitter/internal/config"
	"github.com/dhamidi/vbsitter/internal/tablecache"
	"github.com/dhamidi/vbsitter/language"
	"github.com/dhamidi/vbsitter/vbnet"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("vbsitter")

// app carries the state shared by all commands.
type app struct {
	configPath string
	verbose    int
	cfg        *config.Config
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vbsitter",
		Short:         "Incremental VB.NET parser and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.Path("."), "configuration file")
	rootCmd.PersistentFlags().CountVarP(&a.verbose, "verbose", "v", "increase log verbosity (repeatable)")

	rootCmd.AddCommand(newParseCmd(a))
	rootCmd.AddCommand(newEditCmd(a))
	rootCmd.AddCommand(newQueryCmd(a))
	rootCmd.AddCommand(newSymbolsCmd(a))
	rootCmd.AddCommand(newTableCmd(a))
	rootCmd.AddCommand(newGrammarCmd(a))
	rootCmd.AddCommand(newLSPCmd(a))
	rootCmd.AddCommand(newMCPCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	rootCmd.AddCommand(newUICmd(a))

	return rootCmd
}

// setup loads the configuration and configures logging.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	a.cfg = cfg

	var path *string
	if cfg.Logging.File != "" {
		path = &cfg.Logging.File
	}
	commonlog.Configure(cfg.Logging.Verbosity()+a.verbose, path)
	return nil
}

// language returns the VB.NET tables, from the cache when it is enabled.
// A cache failure falls back to compiling the grammar in process.
func (a *app) language(ctx context.Context) *language.Language {
	if !a.cfg.Cache.Enabled {
		return vbnet.Language()
	}
	cache, err := tablecache.Open(a.cfg.Cache.Path)
	if err != nil {
		log.Warningf("table cache unavailable: %s", err)
		return vbnet.Language()
	}
	defer cache.Close()

	lang, err := cache.Load(ctx, vbnet.NewGrammar())
	if err != nil {
		log.Warningf("table cache unavailable: %s", err)
		return vbnet.Language()
	}
	return lang
}
