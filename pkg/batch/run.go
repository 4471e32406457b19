package batch

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hazyhaar/touchstone-cleaner/pkg/country"
	"github.com/hazyhaar/touchstone-cleaner/pkg/ids"
	"github.com/hazyhaar/touchstone-cleaner/pkg/legalform"
	"github.com/hazyhaar/touchstone-cleaner/pkg/names"
	"github.com/hazyhaar/touchstone-cleaner/pkg/table"
)

// Deps are the shared services a run needs. Nil fields get defaults.
type Deps struct {
	Store       *legalform.Store
	Logger      *zap.Logger
	Concurrency int
}

// Report summarizes a finished run.
type Report struct {
	Input   string        `json:"input"`
	Output  string        `json:"output"`
	Rows    int           `json:"rows"`
	Columns []string      `json:"columns"`
	Steps   []string      `json:"steps"`
	Elapsed time.Duration `json:"elapsed"`
}

// Run reads input, cleans it as the settings describe and writes output.
// Countries are cleaned first so the name step can group on their alpha-2
// codes, then ids, then names.
func Run(ctx context.Context, s *Settings, input, output string, deps Deps) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	log := deps.Logger
	if log == nil {
		log = zap.L()
	}
	start := time.Now()
	opts := table.CSVOptions{Delimiter: s.File.Separator, Encoding: s.File.Encoding}

	tbl, err := table.ReadFile(input, opts)
	if err != nil {
		return nil, err
	}
	log.Info("batch input loaded", zap.String("path", input), zap.Int("rows", tbl.Len()))

	rep := &Report{Input: input, Output: output, Rows: tbl.Len()}
	if tbl, err = s.Clean(ctx, tbl, deps, rep); err != nil {
		return nil, err
	}
	if err := table.WriteFile(output, tbl, opts); err != nil {
		return nil, err
	}
	rep.Columns = tbl.Columns()
	rep.Elapsed = time.Since(start)
	log.Info("batch run complete",
		zap.String("output", output),
		zap.Int("rows", rep.Rows),
		zap.Strings("steps", rep.Steps),
		zap.Duration("elapsed", rep.Elapsed))
	return rep, nil
}

// Clean applies every configured step to tbl in memory. rep may be nil.
func (s *Settings) Clean(ctx context.Context, tbl *table.Table, deps Deps, rep *Report) (*table.Table, error) {
	if rep == nil {
		rep = &Report{}
	}
	var err error
	if len(s.Attributes) > 0 {
		if tbl, err = selectColumns(tbl, s.Attributes); err != nil {
			return nil, err
		}
		rep.Steps = append(rep.Steps, "attributes")
	}
	if s.Country != nil {
		if tbl, err = s.cleanCountries(tbl); err != nil {
			return nil, err
		}
		rep.Steps = append(rep.Steps, "country")
	}
	if s.IDs != nil {
		if tbl, err = s.cleanIDs(tbl); err != nil {
			return nil, err
		}
		rep.Steps = append(rep.Steps, "id")
	}
	if s.Name != nil {
		if tbl, err = s.cleanNames(ctx, tbl, deps); err != nil {
			return nil, err
		}
		rep.Steps = append(rep.Steps, "text")
	}
	return tbl, nil
}

// selectColumns keeps the mapped columns, in mapping order, under their new names.
func selectColumns(tbl *table.Table, m ColumnMap) (*table.Table, error) {
	cols := make([][]any, len(m))
	headers := make([]string, len(m))
	for i, p := range m {
		values, err := tbl.Column(p.Key)
		if err != nil {
			return nil, err
		}
		cols[i] = values
		headers[i] = p.Value
		if headers[i] == "" {
			headers[i] = p.Key
		}
	}
	out := table.New(headers...)
	row := make([]any, len(cols))
	for r := 0; r < tbl.Len(); r++ {
		for i := range cols {
			row[i] = cols[i][r]
		}
		out.AppendRow(row...)
	}
	return out, nil
}

func (s *Settings) cleanCountries(tbl *table.Table) (*table.Table, error) {
	c := s.Country
	r := country.Resolver{LetterCase: c.LetterCase}
	for _, col := range c.Columns {
		outs := country.Outputs{
			Name:   suffixed(col, c.NameSuffix, "name"),
			Alpha2: suffixed(col, c.Alpha2Suffix, "alpha2"),
			Alpha3: suffixed(col, c.Alpha3Suffix, "alpha3"),
		}
		var err error
		if tbl, err = r.CleanColumn(tbl, col, outs); err != nil {
			return nil, eris.Wrapf(err, "country column %s", col)
		}
	}
	return tbl, nil
}

func (s *Settings) cleanIDs(tbl *table.Table) (*table.Table, error) {
	d := s.IDs
	for _, p := range d.Columns {
		typ, err := ids.ParseType(p.Value)
		if err != nil {
			return nil, err
		}
		c := ids.Cleaner{Type: typ, LetterCase: d.LetterCase, InvalidAsNull: bool(d.InvalidAsNull)}
		tbl, err = c.CleanColumn(tbl, p.Key, suffixed(p.Key, d.CleanSuffix, "clean"), suffixed(p.Key, d.ValidSuffix, "valid"))
		if err != nil {
			return nil, eris.Wrapf(err, "id column %s", p.Key)
		}
	}
	return tbl, nil
}

func (s *Settings) cleanNames(ctx context.Context, tbl *table.Table, deps Deps) (*table.Table, error) {
	n := s.Name
	store := deps.Store
	if store == nil {
		var err error
		if store, err = legalform.Open(legalform.Embedded()); err != nil {
			return nil, err
		}
	}
	cfg := names.DefaultConfig()
	cfg.NormalizeLegalTerms = bool(n.NormalizeLegalTerms)
	cfg.LetterCase = n.LetterCase
	cfg.Location = n.Location
	cfg.RemoveUnicode = bool(n.RemoveUnicode)
	cfg.RemoveAccents = bool(n.RemoveAccents)
	if n.PreRules != nil {
		cfg.PreRules = n.PreRules
	}
	cfg.PostRules = n.PostRules
	norm, err := names.New(store, cfg)
	if err != nil {
		return nil, err
	}
	return norm.NormalizeColumn(ctx, tbl, names.ColumnOptions{
		NameColumn:      n.InputName,
		OutputColumn:    n.outputColumn(),
		CountryColumn:   n.countryColumn(s.Country),
		MergeLegalTerms: bool(n.MergeLegalTerms),
		Concurrency:     deps.Concurrency,
		Logger:          deps.Logger,
	})
}
