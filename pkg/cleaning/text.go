package cleaning

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ApplyCase converts s to the requested letter case. Title capitalizes each word.
func ApplyCase(s string, c LetterCase) string {
	switch c {
	case Upper:
		return strings.ToUpper(s)
	case Title:
		// A Caser is stateful and not safe for concurrent use.
		return cases.Title(language.Und).String(s)
	}
	return strings.ToLower(s)
}

// RemoveNonASCII drops every rune outside the ASCII range.
func RemoveNonASCII(s string) string {
	if isASCII(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RemoveSpaces drops every Unicode white-space rune.
func RemoveSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Transliterate replaces accented and non-Latin letters with ASCII approximations.
func Transliterate(s string) string {
	if isASCII(s) {
		return s
	}
	return unidecode.Unidecode(s)
}

// CollapseSpaces trims s and joins its words with single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NFC returns s in canonical composed form.
func NFC(s string) string {
	return norm.NFC.String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
