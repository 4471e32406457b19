// CLAUDE:SUMMARY In-memory table of named columns with nullable cells, the unit the cleaners read and write.
package table

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrColumnNotFound is returned when an operation names a column the table lacks.
var ErrColumnNotFound = eris.New("column not found")

// RowError reports a strict-mode failure on a single cell.
type RowError struct {
	Row    int
	Column string
	Value  any
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d column %q value %v: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Table is a row-major grid. A nil cell is a null value.
// Tables are not safe for concurrent mutation.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

func (t *Table) addColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], nil)
	}
	return len(t.columns) - 1
}

// AppendRow adds a row. Missing trailing cells are null, extra cells are dropped.
func (t *Table) AppendRow(values ...any) {
	row := make([]any, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether name is a column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Require returns ErrColumnNotFound for the first missing column.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return eris.Wrapf(ErrColumnNotFound, "column %q (have %v)", n, t.columns)
		}
	}
	return nil
}

// Value returns a cell. Out-of-range rows and unknown columns are null.
func (t *Table) Value(row int, column string) any {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return nil
	}
	return t.rows[row][i]
}

// Set writes a cell, adding the column if needed.
func (t *Table) Set(row int, column string, v any) {
	i := t.addColumn(column)
	t.rows[row][i] = v
}

// Column returns a copy of a column's values.
func (t *Table) Column(name string) ([]any, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, eris.Wrapf(ErrColumnNotFound, "column %q", name)
	}
	out := make([]any, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// SetColumn adds or replaces a column. values must have one entry per row.
func (t *Table) SetColumn(name string, values []any) error {
	if len(values) != len(t.rows) {
		return eris.Errorf("column %q: %d values for %d rows", name, len(values), len(t.rows))
	}
	i := t.addColumn(name)
	for r, v := range values {
		t.rows[r][i] = v
	}
	return nil
}

// Clone returns a deep copy of the grid. Cell values are copied by assignment.
func (t *Table) Clone() *Table {
	c := New(t.columns...)
	c.rows = make([][]any, len(t.rows))
	for r, row := range t.rows {
		c.rows[r] = append([]any(nil), row...)
	}
	return c
}

// GroupBy partitions row indices by key(value). Groups keep first-seen order
// and rows keep table order within a group.
func (t *Table) GroupBy(column string, key func(v any) any) ([]Group, error) {
	i, ok := t.index[column]
	if !ok {
		return nil, eris.Wrapf(ErrColumnNotFound, "column %q", column)
	}
	pos := make(map[any]int)
	var groups []Group
	for r, row := range t.rows {
		k := key(row[i])
		g, seen := pos[k]
		if !seen {
			g = len(groups)
			pos[k] = g
			groups = append(groups, Group{Key: k, Value: row[i]})
		}
		groups[g].Rows = append(groups[g].Rows, r)
	}
	return groups, nil
}

// Group is a set of rows sharing a key. Value is the first raw cell seen.
type Group struct {
	Key   any
	Value any
	Rows  []int
}

// IsNull reports whether a cell is null.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && f != f {
		return true
	}
	return false
}
