package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
	"github.com/hazyhaar/touchstone-cleaner/pkg/names"
)

var nameFlags struct {
	country       string
	language      string
	merge         bool
	letterCase    string
	location      string
	strict        bool
	removeAccents bool
	removeUnicode bool
	rules         []string
	postRules     []string
}

var nameCmd = &cobra.Command{
	Use:   "name [names...]",
	Short: "Normalize company names",
	Long:  "Normalizes each argument, or each line of stdin when no argument is given, and prints one cleaned name per line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		nc, err := cfg.Names.Normalizer()
		if err != nil {
			return err
		}
		if err := applyNameFlags(cmd, &nc); err != nil {
			return err
		}
		n, err := names.New(store, nc)
		if err != nil {
			return err
		}
		if nameFlags.country != "" {
			if err := n.SetLegalForms(nameFlags.country, nameFlags.language, nameFlags.merge); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			for _, a := range args {
				fmt.Fprintln(out, n.Clean(a))
			}
			return nil
		}
		return cleanLines(cmd.InOrStdin(), out, n)
	},
}

func applyNameFlags(cmd *cobra.Command, nc *names.Config) error {
	f := cmd.Flags()
	if f.Changed("case") {
		lc, err := cleaning.ParseLetterCase(nameFlags.letterCase)
		if err != nil {
			return err
		}
		nc.LetterCase = lc
	}
	if f.Changed("location") {
		loc, err := names.ParseLocation(nameFlags.location)
		if err != nil {
			return err
		}
		nc.Location = loc
	}
	if f.Changed("strict") && nameFlags.strict {
		nc.Mode = cleaning.Strict
	}
	if f.Changed("remove-accents") {
		nc.RemoveAccents = nameFlags.removeAccents
	}
	if f.Changed("remove-unicode") {
		nc.RemoveUnicode = nameFlags.removeUnicode
	}
	if f.Changed("rules") {
		nc.PreRules = nameFlags.rules
	}
	if f.Changed("post-rules") {
		nc.PostRules = nameFlags.postRules
	}
	return nil
}

func cleanLines(r io.Reader, w io.Writer, n *names.Normalizer) error {
	sc := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	for sc.Scan() {
		fmt.Fprintln(bw, n.Clean(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return eris.Wrap(err, "read names")
	}
	return bw.Flush()
}

func init() {
	f := nameCmd.Flags()
	f.StringVar(&nameFlags.country, "country", "", "alpha-2 code of the legal-form dictionary (default us)")
	f.StringVar(&nameFlags.language, "language", "", "dictionary language; all languages of the country when empty")
	f.BoolVar(&nameFlags.merge, "merge", false, "also use the default legal forms the country lacks")
	f.StringVar(&nameFlags.letterCase, "case", "lower", "output letter case: lower, upper or title")
	f.StringVar(&nameFlags.location, "location", "at_end", "where legal terms are replaced: at_end or anywhere")
	f.BoolVar(&nameFlags.strict, "strict", false, "fail on invalid input instead of skipping it")
	f.BoolVar(&nameFlags.removeAccents, "remove-accents", false, "transliterate accented letters to ASCII")
	f.BoolVar(&nameFlags.removeUnicode, "remove-unicode", false, "drop non-ASCII characters before cleaning")
	f.StringSliceVar(&nameFlags.rules, "rules", nil, "pre-processing rule names, in order")
	f.StringSliceVar(&nameFlags.postRules, "post-rules", nil, "post-processing rule names, in order")
	rootCmd.AddCommand(nameCmd)
}
