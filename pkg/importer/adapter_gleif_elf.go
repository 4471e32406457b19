// CLAUDE:SUMMARY Import adapter for the GLEIF ISO 20275 Entity Legal Forms code list, extending the embedded legal-form resources.
package importer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/country"
	"github.com/hazyhaar/touchstone-cleaner/pkg/legalform"
	"github.com/hazyhaar/touchstone-cleaner/pkg/table"
)

func init() {
	Register(&gleifELFAdapter{})
}

type gleifELFAdapter struct{}

func (a *gleifELFAdapter) ID() string { return "gleif-elf" }
func (a *gleifELFAdapter) Description() string {
	return "GLEIF ISO 20275 Entity Legal Forms code list"
}
func (a *gleifELFAdapter) DefaultURL() string {
	return "https://www.gleif.org/lei-data/code-lists/iso-20275-entity-legal-forms-code-list/2023-09-28-elf-code-list-v1.5.csv"
}
func (a *gleifELFAdapter) License() string { return "CC0" }

func (a *gleifELFAdapter) Import(ctx context.Context, sourceURL, outputDir string) (*Result, error) {
	dlDir := filepath.Join(outputDir, "_download")
	defer os.RemoveAll(dlDir)

	zap.L().Info("downloading legal forms", zap.String("source", a.ID()), zap.String("url", sourceURL))
	csvPath, err := fetchCSV(ctx, sourceURL, dlDir)
	if err != nil {
		return nil, err
	}

	elf, err := parseELF(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "parse")
	}
	base, err := legalform.Open(legalform.Embedded())
	if err != nil {
		return nil, err
	}
	byCountry, res, err := extendResources(base, elf)
	if err != nil {
		return nil, err
	}
	if err := legalform.WriteDir(outputDir, byCountry); err != nil {
		return nil, err
	}
	// The written directory must load as a store before it is reported as done.
	if _, err := legalform.OpenDir(outputDir); err != nil {
		return nil, eris.Wrap(err, "verify output")
	}
	zap.L().Info("legal forms imported",
		zap.String("source", a.ID()),
		zap.String("dir", outputDir),
		zap.Int("countries", res.Countries),
		zap.Int("languages", res.Languages),
		zap.Int("terms", res.Terms),
	)
	return res, nil
}

// elfColumns locates the code-list columns by header prefix, so minor
// renames between code-list versions still parse.
type elfColumns struct {
	country, language, local, translit, abbrLocal, abbrTranslit, status string
}

func findELFColumns(headers []string) (elfColumns, error) {
	var c elfColumns
	find := func(prefix string) string {
		for _, h := range headers {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(h)), prefix) {
				return h
			}
		}
		return ""
	}
	c.country = find("country code")
	c.language = find("language code")
	c.local = find("entity legal form name local")
	c.translit = find("entity legal form name transliterated")
	c.abbrLocal = find("abbreviations local")
	c.abbrTranslit = find("abbreviations transliterated")
	c.status = find("elf status")
	if c.country == "" || c.language == "" || c.local == "" || c.abbrLocal == "" {
		return c, eris.Errorf("ELF header lacks a required column: %v", headers)
	}
	return c, nil
}

// elfRows maps country -> language -> dictionary built from the code list.
type elfRows map[string]map[string][]legalform.Term

// parseELF keeps active rows of assigned countries that carry at least one
// abbreviation. Canonical names are lower-cased local names; variants are the
// abbreviations and the transliterated name.
func parseELF(path string) (elfRows, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	tbl, err := table.ReadCSV(f, table.CSVOptions{})
	if err != nil {
		return nil, err
	}
	cols, err := findELFColumns(tbl.Columns())
	if err != nil {
		return nil, err
	}

	out := make(elfRows)
	var skipped int
	for row := 0; row < tbl.Len(); row++ {
		cell := func(col string) string {
			if col == "" {
				return ""
			}
			return strings.TrimSpace(table.Format(tbl.Value(row, col)))
		}
		if st := cell(cols.status); st != "" && !strings.EqualFold(st, "ACTV") {
			skipped++
			continue
		}
		cc := strings.ToLower(cell(cols.country))
		lang := strings.ToLower(cell(cols.language))
		canonical := strings.ToLower(cell(cols.local))
		if !country.IsAlpha2(cc) || lang == "" || canonical == "" {
			skipped++
			continue
		}
		variants := elfVariants(canonical, cell(cols.abbrLocal), cell(cols.abbrTranslit), cell(cols.translit))
		if len(variants) == 0 {
			skipped++
			continue
		}
		if out[cc] == nil {
			out[cc] = make(map[string][]legalform.Term)
		}
		out[cc][lang] = append(out[cc][lang], legalform.Term{Canonical: canonical, Variants: variants})
	}
	zap.L().Debug("ELF code list parsed", zap.Int("countries", len(out)), zap.Int("skipped", skipped))
	return out, nil
}

func elfVariants(canonical string, abbrLocal, abbrTranslit, translit string) []string {
	seen := map[string]bool{canonical: true}
	var out []string
	add := func(v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}
	for _, list := range []string{abbrLocal, abbrTranslit} {
		for _, v := range strings.Split(list, ";") {
			add(v)
		}
	}
	add(translit)
	return out
}

// sortTerms puts terms with longer variants first so that a long abbreviation
// is substituted before a shorter one it ends with.
func sortTerms(terms []legalform.Term) {
	longest := func(t legalform.Term) int {
		n := 0
		for _, v := range t.Variants {
			if len(v) > n {
				n = len(v)
			}
		}
		return n
	}
	sort.SliceStable(terms, func(i, j int) bool {
		li, lj := longest(terms[i]), longest(terms[j])
		if li != lj {
			return li > lj
		}
		return terms[i].Canonical < terms[j].Canonical
	})
}

// extendResources appends code-list terms to the base resources. Curated
// terms keep their variants and positions; new languages and countries follow.
func extendResources(base *legalform.Store, elf elfRows) (map[string][]*legalform.Dictionary, *Result, error) {
	out := make(map[string][]*legalform.Dictionary)
	for _, cc := range base.Countries() {
		dicts, err := base.Load(cc)
		if err != nil {
			return nil, nil, err
		}
		out[cc] = dicts
	}

	for cc, langs := range elf {
		known := make(map[string]int, len(out[cc]))
		for i, d := range out[cc] {
			known[d.Language] = i
		}
		names := make([]string, 0, len(langs))
		for lang := range langs {
			names = append(names, lang)
		}
		sort.Strings(names)
		for _, lang := range names {
			terms := langs[lang]
			sortTerms(terms)
			d := legalform.NewDictionary(cc, lang, terms...)
			if i, ok := known[lang]; ok {
				out[cc][i] = out[cc][i].Extend(d)
				continue
			}
			out[cc] = append(out[cc], d)
		}
	}

	res := &Result{Countries: len(out)}
	for _, dicts := range out {
		res.Languages += len(dicts)
		for _, d := range dicts {
			res.Terms += d.Len()
		}
	}
	return out, res, nil
}
