package names

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/touchstone-cleaner/pkg/legalform"
	"github.com/hazyhaar/touchstone-cleaner/pkg/table"
)

// ColumnOptions configures NormalizeColumn.
type ColumnOptions struct {
	NameColumn   string
	OutputColumn string // defaults to NameColumn + "_clean"
	// CountryColumn, when set, selects a legal-form dictionary per row group.
	CountryColumn   string
	MergeLegalTerms bool
	// Concurrency bounds the groups cleaned in parallel. Zero means GOMAXPROCS.
	Concurrency int
	Logger      *zap.Logger
}

// NormalizeColumn cleans every name in a copy of tbl and writes the results to
// the output column. Without a country column the active dictionary is used.
// With one, rows are grouped by lower-cased country; supported countries get
// their own dictionary (all languages), anything else, null included, gets
// the store default. The caller's table and the active dictionary are left
// untouched.
func (n *Normalizer) NormalizeColumn(ctx context.Context, tbl *table.Table, opts ColumnOptions) (*table.Table, error) {
	cols := []string{opts.NameColumn}
	if opts.CountryColumn != "" {
		cols = append(cols, opts.CountryColumn)
	}
	if err := tbl.Require(cols...); err != nil {
		return nil, err
	}
	if opts.OutputColumn == "" {
		opts.OutputColumn = opts.NameColumn + "_clean"
	}
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	set, active := n.snapshot()
	groups, err := n.groups(tbl, opts, active)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := make([]any, tbl.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, grp := range groups {
		g.Go(func() error {
			for _, row := range grp.rows {
				if err := ctx.Err(); err != nil {
					return err
				}
				raw := tbl.Value(row, opts.NameColumn)
				clean, ok, err := set.cleanValue(grp.dict, raw)
				if err != nil {
					return &table.RowError{Row: row, Column: opts.NameColumn, Value: raw, Err: err}
				}
				if ok {
					out[row] = clean
				}
			}
			log.Debug("name group cleaned",
				zap.String("country", grp.label),
				zap.String("dictionary", grp.dict.Country+"/"+grp.dict.Language),
				zap.Int("rows", len(grp.rows)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := tbl.Clone()
	if err := result.SetColumn(opts.OutputColumn, out); err != nil {
		return nil, err
	}
	log.Info("name column cleaned",
		zap.String("column", opts.NameColumn),
		zap.String("output", opts.OutputColumn),
		zap.Int("rows", tbl.Len()),
		zap.Int("groups", len(groups)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

type rowGroup struct {
	label string
	dict  *legalform.Dictionary
	rows  []int
}

func (n *Normalizer) groups(tbl *table.Table, opts ColumnOptions, active *legalform.Dictionary) ([]rowGroup, error) {
	if opts.CountryColumn == "" {
		rows := make([]int, tbl.Len())
		for i := range rows {
			rows[i] = i
		}
		return []rowGroup{{label: "active", dict: active, rows: rows}}, nil
	}

	byCountry, err := tbl.GroupBy(opts.CountryColumn, countryKey)
	if err != nil {
		return nil, err
	}
	groups := make([]rowGroup, 0, len(byCountry))
	for _, bc := range byCountry {
		grp := rowGroup{label: "null", dict: n.store.Default(), rows: bc.Rows}
		if cc, ok := bc.Key.(string); ok {
			grp.label = cc
			if n.store.Supports(cc) {
				d, err := n.store.Select(cc, "", opts.MergeLegalTerms)
				if err != nil {
					return nil, err
				}
				grp.dict = d
			}
		}
		groups = append(groups, grp)
	}
	return groups, nil
}

// countryKey lower-cases a country cell; nulls share the nil key.
func countryKey(v any) any {
	if table.IsNull(v) {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return strings.ToLower(strings.TrimSpace(s))
}
