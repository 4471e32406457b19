// CLAUDE:SUMMARY cleaner CLI root: loads config and the global logger, and builds the shared normalizer service.
package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/api"
	"github.com/hazyhaar/touchstone-cleaner/pkg/config"
	"github.com/hazyhaar/touchstone-cleaner/pkg/country"
	"github.com/hazyhaar/touchstone-cleaner/pkg/legalform"
	"github.com/hazyhaar/touchstone-cleaner/pkg/names"
)

var version = "dev"

var (
	cfg     *config.Config
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:     "cleaner",
	Short:   "Company name, country and banking id cleaner",
	Long:    "Normalizes company names against per-country legal-form dictionaries, resolves countries, validates LEI/ISIN/SEDOL codes and cleans whole CSV/Excel files. Serves the same operations over HTTP and MCP.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the configured legal-form resources, or the embedded ones.
func openStore() (*legalform.Store, error) {
	store, err := legalform.OpenDir(cfg.LegalForms.Dir)
	if err != nil {
		return nil, eris.Wrapf(err, "open legal forms %q", cfg.LegalForms.Dir)
	}
	return store, nil
}

// newService builds the normalizer and resolver shared by serve and mcp.
func newService(store *legalform.Store) (*api.Service, error) {
	nc, err := cfg.Names.Normalizer()
	if err != nil {
		return nil, err
	}
	n, err := names.New(store, nc)
	if err != nil {
		return nil, err
	}
	return &api.Service{
		Normalizer: n,
		Resolver:   country.Resolver{},
		MaxBatch:   cfg.Server.MaxBatch,
	}, nil
}
