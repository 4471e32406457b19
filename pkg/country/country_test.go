package country

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
	"github.com/hazyhaar/touchstone-cleaner/pkg/table"
)

func TestResolveCodes(t *testing.T) {
	r := Resolver{}
	tests := []struct {
		in             string
		alpha2, alpha3 string
		numeric        int
	}{
		{"pt", "pt", "prt", 620},
		{"US", "us", "usa", 840},
		{" fra ", "fr", "fra", 250},
		{"DEU", "de", "deu", 276},
		{"Portugal", "pt", "prt", 620},
		{"germany", "de", "deu", 276},
		{"Portugall", "pt", "prt", 620},
		{"Brazl", "br", "bra", 76},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			info, err := r.Resolve(tt.in)
			require.NoError(t, err)
			require.NotNil(t, info)
			assert.Equal(t, tt.alpha2, info.Alpha2)
			assert.Equal(t, tt.alpha3, info.Alpha3)
			assert.Equal(t, tt.numeric, info.Numeric)
		})
	}
}

func TestResolveLetterCase(t *testing.T) {
	info, err := Resolver{LetterCase: cleaning.Upper}.Resolve("pt")
	require.NoError(t, err)
	assert.Equal(t, "PT", info.Alpha2)
	assert.Equal(t, "PORTUGAL", info.Name)
	assert.Equal(t, "EUR", info.Currency)
}

func TestResolveFailures(t *testing.T) {
	lenient := Resolver{}
	strict := Resolver{Mode: cleaning.Strict}

	for _, in := range []any{42, nil, "x", "", "zq", "qqq", "not a country at all"} {
		info, err := lenient.Resolve(in)
		assert.NoError(t, err, "%v", in)
		assert.Nil(t, info, "%v", in)
	}

	_, err := strict.Resolve(42)
	assert.ErrorIs(t, err, ErrNotAString)
	_, err = strict.Resolve(" x ")
	assert.ErrorIs(t, err, ErrInputTooShort)
	_, err = strict.Resolve("qqq")
	assert.ErrorIs(t, err, ErrCountryNotFound)
	_, err = strict.Resolve("not a country at all")
	assert.ErrorIs(t, err, ErrCountryNotFound)
}

func TestCleanColumn(t *testing.T) {
	tbl := table.New("cc")
	tbl.AppendRow("us")
	tbl.AppendRow(nil)
	tbl.AppendRow("atlantis")

	out, err := Resolver{}.CleanColumn(tbl, "cc", DefaultOutputs("cc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cc", "cc_name", "cc_alpha2", "cc_alpha3"}, out.Columns())
	assert.Equal(t, "usa", out.Value(0, "cc_alpha3"))
	assert.Nil(t, out.Value(1, "cc_alpha2"))
	assert.Nil(t, out.Value(2, "cc_name"))

	_, err = Resolver{Mode: cleaning.Strict}.CleanColumn(tbl, "cc", DefaultOutputs("cc"))
	var rowErr *table.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
	assert.ErrorIs(t, err, ErrCountryNotFound)

	_, err = Resolver{}.CleanColumn(tbl, "missing", DefaultOutputs("missing"))
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}
