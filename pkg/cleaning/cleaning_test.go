package cleaning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	c, err := ParseLetterCase("TITLE")
	require.NoError(t, err)
	assert.Equal(t, Title, c)

	_, err = ParseLetterCase("camel")
	assert.ErrorIs(t, err, ErrUnknownOption)

	m, err := ParseMode("exception")
	require.NoError(t, err)
	assert.Equal(t, Strict, m)

	var lc LetterCase
	require.NoError(t, lc.UnmarshalText([]byte("upper")))
	assert.Equal(t, Upper, lc)
	assert.Error(t, lc.UnmarshalText([]byte("sideways")))
}

func TestApplyCase(t *testing.T) {
	assert.Equal(t, "acme widget", ApplyCase("Acme WIDGET", Lower))
	assert.Equal(t, "ACME WIDGET", ApplyCase("acme widget", Upper))
	assert.Equal(t, "Acme Widget Company", ApplyCase("acme widget company", Title))
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "socit gnrale", RemoveNonASCII("société générale"))
	assert.Equal(t, "societe generale", Transliterate("société générale"))
	assert.Equal(t, "US0378331005", RemoveSpaces(" US 0378\t331005 "))
	assert.Equal(t, "a b c", CollapseSpaces("  a \t b\n\nc "))
	assert.Equal(t, "é", NFC("é"))
}
