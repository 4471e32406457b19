package ids

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
	"github.com/hazyhaar/touchstone-cleaner/pkg/table"
)

var (
	ErrNotAString         = eris.New("banking id is not a string")
	ErrEmptyAfterCleaning = eris.New("banking id is empty after cleaning")
)

// Result is a cleaned identifier. ID is empty when the cleaner drops invalid ids.
type Result struct {
	ID    string `json:"id,omitempty"`
	Valid bool   `json:"valid"`
}

// Cleaner strips and validates identifiers of one type.
type Cleaner struct {
	Type       Type
	Mode       cleaning.Mode
	LetterCase cleaning.LetterCase
	// InvalidAsNull drops the cleaned value of ids that fail validation.
	InvalidAsNull bool
}

// NewCleaner returns a lenient upper-case cleaner for t.
func NewCleaner(t Type) Cleaner {
	return Cleaner{Type: t, LetterCase: cleaning.Upper}
}

// Clean removes non-ASCII characters and every space, validates, then applies
// the letter case. Null input yields nil. Non-string and empty input are
// errors in strict mode and nil otherwise.
func (c Cleaner) Clean(v any) (*Result, error) {
	if table.IsNull(v) {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, c.fail(eris.Wrapf(ErrNotAString, "got %T %v", v, v))
	}
	id := cleaning.RemoveSpaces(cleaning.RemoveNonASCII(s))
	if strings.TrimSpace(id) == "" {
		return nil, c.fail(eris.Wrapf(ErrEmptyAfterCleaning, "%q", s))
	}

	res := &Result{Valid: Validate(c.Type, id)}
	if res.Valid || !c.InvalidAsNull {
		res.ID = cleaning.ApplyCase(id, c.LetterCase)
	}
	return res, nil
}

func (c Cleaner) fail(err error) error {
	if c.Mode == cleaning.Strict {
		return err
	}
	return nil
}

// CleanColumn writes the cleaned id and its validity into a copy of tbl.
// Rows that cannot be cleaned get nulls in both columns.
func (c Cleaner) CleanColumn(tbl *table.Table, column, cleanedColumn, validColumn string) (*table.Table, error) {
	values, err := tbl.Column(column)
	if err != nil {
		return nil, err
	}
	cleaned := make([]any, len(values))
	valid := make([]any, len(values))
	for row, v := range values {
		res, err := c.Clean(v)
		if err != nil {
			return nil, &table.RowError{Row: row, Column: column, Value: v, Err: err}
		}
		if res == nil {
			continue
		}
		valid[row] = res.Valid
		if res.ID != "" {
			cleaned[row] = res.ID
		}
	}

	out := tbl.Clone()
	if err := out.SetColumn(cleanedColumn, cleaned); err != nil {
		return nil, err
	}
	if err := out.SetColumn(validColumn, valid); err != nil {
		return nil, err
	}
	return out, nil
}
