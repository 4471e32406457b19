package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/batch"
)

var cleanFlags struct {
	settings string
	in       string
	out      string
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean a CSV or Excel file as a settings file describes",
	Long:  "Reads --in, selects and renames columns, resolves countries, validates ids and normalizes company names per the settings file, then writes --out. Prints a JSON report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := batch.LoadSettings(cleanFlags.settings)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		rep, err := batch.Run(cmd.Context(), s, cleanFlags.in, cleanFlags.out, batch.Deps{
			Store:       store,
			Logger:      zap.L(),
			Concurrency: cfg.Batch.Concurrency,
		})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

func init() {
	f := cleanCmd.Flags()
	f.StringVar(&cleanFlags.settings, "settings", "", "settings file (.json, .yaml or .yml)")
	f.StringVar(&cleanFlags.in, "in", "", "input file (.csv, .xlsx)")
	f.StringVar(&cleanFlags.out, "out", "", "output file (.csv, .xlsx)")
	_ = cleanCmd.MarkFlagRequired("settings")
	_ = cleanCmd.MarkFlagRequired("in")
	_ = cleanCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(cleanCmd)
}
