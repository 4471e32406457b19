package country

import (
	"github.com/hazyhaar/touchstone-cleaner/pkg/table"
)

// Outputs names the columns written by CleanColumn.
type Outputs struct {
	Name, Alpha2, Alpha3 string
}

// DefaultOutputs suffixes column with _name, _alpha2 and _alpha3.
func DefaultOutputs(column string) Outputs {
	return Outputs{Name: column + "_name", Alpha2: column + "_alpha2", Alpha3: column + "_alpha3"}
}

// CleanColumn resolves every value of column into a copy of tbl, adding the
// name, alpha-2 and alpha-3 columns. Unresolved values are null in lenient
// mode; in strict mode the first failure is returned as a *table.RowError.
func (r Resolver) CleanColumn(tbl *table.Table, column string, outputs Outputs) (*table.Table, error) {
	values, err := tbl.Column(column)
	if err != nil {
		return nil, err
	}
	names := make([]any, len(values))
	alpha2 := make([]any, len(values))
	alpha3 := make([]any, len(values))
	for row, v := range values {
		if table.IsNull(v) {
			continue
		}
		info, err := r.Resolve(v)
		if err != nil {
			return nil, &table.RowError{Row: row, Column: column, Value: v, Err: err}
		}
		if info == nil {
			continue
		}
		names[row], alpha2[row], alpha3[row] = info.Name, info.Alpha2, info.Alpha3
	}

	out := tbl.Clone()
	for _, c := range []struct {
		name   string
		values []any
	}{{outputs.Name, names}, {outputs.Alpha2, alpha2}, {outputs.Alpha3, alpha3}} {
		if err := out.SetColumn(c.name, c.values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
