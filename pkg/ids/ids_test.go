package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
	"github.com/hazyhaar/touchstone-cleaner/pkg/table"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		typ  Type
		id   string
		want bool
	}{
		{ISIN, "US0378331005", true},
		{ISIN, "us0378331005", true},
		{ISIN, "GB00B1YW4409", true},
		{ISIN, "AU0000XVGZA3", true},
		{ISIN, "US0378331006", false},
		{ISIN, "AB0378331005", false},
		{ISIN, "US037833100", false},
		{LEI, "5493001KJTIIGC8Y1R12", true},
		{LEI, "HWUPKR0MPOU8FGXBT394", true},
		{LEI, "5493001KJTIIGC8Y1R17", false},
		{LEI, "5493001KJTIIGC8Y1R1", false},
		{SEDOL, "B0YBKJ7", true},
		{SEDOL, "0263494", true},
		{SEDOL, "B1YW440", true},
		{SEDOL, "B0YBKJ6", false},
		{SEDOL, "A0YBKJ7", false},
		{SEDOL, "0B1YW44", false},
		{Type(99), "US0378331005", false},
	}
	for _, tt := range tests {
		if got := Validate(tt.typ, tt.id); got != tt.want {
			t.Errorf("Validate(%s, %q) = %v, want %v", tt.typ, tt.id, got, tt.want)
		}
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range Types {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseType("cusip")
	assert.ErrorIs(t, err, ErrTypeNotSupported)
}

func TestCleanerClean(t *testing.T) {
	c := NewCleaner(ISIN)

	res, err := c.Clean(" us 0378 331005 ")
	require.NoError(t, err)
	assert.Equal(t, &Result{ID: "US0378331005", Valid: true}, res)

	res, err = c.Clean("US0378331006")
	require.NoError(t, err)
	assert.Equal(t, &Result{ID: "US0378331006", Valid: false}, res)

	c.InvalidAsNull = true
	res, err = c.Clean("US0378331006")
	require.NoError(t, err)
	assert.Equal(t, &Result{Valid: false}, res)

	c.LetterCase = cleaning.Lower
	res, err = c.Clean("US0378331005")
	require.NoError(t, err)
	assert.Equal(t, "us0378331005", res.ID)
}

func TestCleanerModes(t *testing.T) {
	lenient := NewCleaner(LEI)
	strict := NewCleaner(LEI)
	strict.Mode = cleaning.Strict

	for _, v := range []any{12, "   ", "é", nil} {
		res, err := lenient.Clean(v)
		assert.NoError(t, err)
		assert.Nil(t, res)
	}

	_, err := strict.Clean(12)
	assert.ErrorIs(t, err, ErrNotAString)
	_, err = strict.Clean(" \t")
	assert.ErrorIs(t, err, ErrEmptyAfterCleaning)
	res, err := strict.Clean(nil)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestCleanColumn(t *testing.T) {
	tbl := table.New("isin")
	tbl.AppendRow("US0378331005")
	tbl.AppendRow("bad")
	tbl.AppendRow(nil)

	out, err := NewCleaner(ISIN).CleanColumn(tbl, "isin", "isin_clean", "isin_valid")
	require.NoError(t, err)
	assert.Equal(t, []string{"isin", "isin_clean", "isin_valid"}, out.Columns())
	assert.Equal(t, true, out.Value(0, "isin_valid"))
	assert.Equal(t, "BAD", out.Value(1, "isin_clean"))
	assert.Equal(t, false, out.Value(1, "isin_valid"))
	assert.Nil(t, out.Value(2, "isin_valid"))

	_, err = NewCleaner(ISIN).CleanColumn(tbl, "nope", "a", "b")
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}
