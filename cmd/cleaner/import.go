// CLAUDE:SUMMARY import and sources subcommands: build legal-form resources from upstream registries and track their URLs.
package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/importer"
)

var importFlags struct {
	source    string
	all       bool
	outputDir string
}

func openSourceDB() (*importer.SourceDB, error) {
	sdb, err := importer.OpenSourceDB(cfg.Import.SourcesDB)
	if err != nil {
		return nil, err
	}
	if err := sdb.Seed(importer.All()); err != nil {
		sdb.Close()
		return nil, err
	}
	return sdb, nil
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Download an upstream legal-form list and write legal-form resources",
	Long:  "Without --source or --all, lists the known sources. The written directory can be served by pointing legal_forms.dir at it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdb, err := openSourceDB()
		if err != nil {
			return err
		}
		defer sdb.Close()

		out := cmd.OutOrStdout()
		if !importFlags.all && importFlags.source == "" {
			if err := listSources(out, sdb); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nUsage: cleaner import --source <id> [--output-dir <dir>]  |  cleaner import --all")
			return nil
		}

		outputDir := importFlags.outputDir
		if outputDir == "" {
			outputDir = cfg.Import.OutputDir
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Hour)
		defer cancel()

		var adapters []importer.Adapter
		if importFlags.all {
			adapters = importer.All()
		} else {
			a, err := importer.Get(importFlags.source)
			if err != nil {
				return err
			}
			adapters = []importer.Adapter{a}
		}

		var failed int
		for _, a := range adapters {
			if err := runImport(ctx, sdb, a, outputDir); err != nil {
				zap.L().Error("import failed", zap.String("source", a.ID()), zap.Error(err))
				failed++
				continue
			}
			fmt.Fprintf(out, "[%s] OK -> %s\n", a.ID(), outputDir)
		}
		if failed > 0 {
			return eris.Errorf("%d of %d imports failed", failed, len(adapters))
		}
		return nil
	},
}

func runImport(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, outputDir string) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return err
	}
	zap.L().Info("import started", zap.String("source", a.ID()), zap.String("url", url))
	res, err := a.Import(ctx, url, outputDir)
	if err != nil {
		return err
	}
	zap.L().Info("import complete",
		zap.String("source", a.ID()),
		zap.Int("countries", res.Countries),
		zap.Int("languages", res.Languages),
		zap.Int("terms", res.Terms))
	return sdb.RecordImport(a.ID(), res)
}

func listSources(w io.Writer, sdb *importer.SourceDB) error {
	sources, err := sdb.ListSources()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tLICENSE\tSTATUS\tLAST IMPORT\tURL")
	for _, src := range sources {
		status, imported := "-", "-"
		if src.LastStatus != nil {
			status = fmt.Sprint(*src.LastStatus)
		}
		if src.LastImport != nil {
			imported = time.Unix(*src.LastImport, 0).UTC().Format(time.RFC3339)
			if src.LastTerms != nil {
				imported += fmt.Sprintf(" (%d terms)", *src.LastTerms)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", src.AdapterID, src.License, status, imported, src.SourceURL)
	}
	return tw.Flush()
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage import source URLs",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import sources with their last check and import",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdb, err := openSourceDB()
		if err != nil {
			return err
		}
		defer sdb.Close()
		return listSources(cmd.OutOrStdout(), sdb)
	},
}

var sourcesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "HEAD every source URL once and record the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		sdb, err := openSourceDB()
		if err != nil {
			return err
		}
		defer sdb.Close()
		importer.NewChecker(sdb, zap.L(), time.Hour).CheckAll(cmd.Context())
		return listSources(cmd.OutOrStdout(), sdb)
	},
}

var sourcesSetURLCmd = &cobra.Command{
	Use:   "set-url <source> <url>",
	Short: "Override the download URL of a source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sdb, err := openSourceDB()
		if err != nil {
			return err
		}
		defer sdb.Close()
		return sdb.SetURL(args[0], args[1])
	},
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importFlags.source, "source", "", "source id to import (e.g. gleif-elf)")
	f.BoolVar(&importFlags.all, "all", false, "import every known source")
	f.StringVar(&importFlags.outputDir, "output-dir", "", "resource directory to write (default from config)")
	rootCmd.AddCommand(importCmd)

	sourcesCmd.AddCommand(sourcesListCmd, sourcesCheckCmd, sourcesSetURLCmd)
	rootCmd.AddCommand(sourcesCmd)
}
