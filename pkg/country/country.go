// CLAUDE:SUMMARY Resolves free-text country values (alpha-2, alpha-3, names, misspelled names) to ISO 3166 records.
package country

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/biter777/countries"
	"github.com/rotisserie/eris"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
)

var (
	ErrNotAString      = eris.New("country value is not a string")
	ErrInputTooShort   = eris.New("country value is shorter than two characters")
	ErrCountryNotFound = eris.New("country not found")
)

// MinSimilarity is the lowest Levenshtein similarity accepted by the fuzzy name search.
const MinSimilarity = 0.8

// Info is the resolved ISO 3166 record. Text fields follow the resolver's letter case.
type Info struct {
	Name     string `json:"name"`
	Alpha2   string `json:"alpha2"`
	Alpha3   string `json:"alpha3"`
	Numeric  int    `json:"numeric"`
	Region   string `json:"region,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type entry struct {
	code countries.CountryCode
	name string // lower-cased English name
}

// index is built once from the ISO table.
var index = buildIndex()

type lookup struct {
	alpha2 map[string]countries.CountryCode
	alpha3 map[string]countries.CountryCode
	names  []entry
}

func buildIndex() *lookup {
	l := &lookup{
		alpha2: make(map[string]countries.CountryCode),
		alpha3: make(map[string]countries.CountryCode),
	}
	for _, c := range countries.All() {
		if !c.IsValid() {
			continue
		}
		l.alpha2[c.Alpha2()] = c
		l.alpha3[c.Alpha3()] = c
		l.names = append(l.names, entry{code: c, name: strings.ToLower(c.String())})
	}
	sort.Slice(l.names, func(i, j int) bool { return l.names[i].name < l.names[j].name })
	return l
}

// Resolver finds countries. The zero value is lenient with lower-case output.
type Resolver struct {
	Mode       cleaning.Mode
	LetterCase cleaning.LetterCase
}

// Resolve looks a value up: two letters as alpha-2, three as alpha-3,
// anything longer as a name, exactly first and then by similarity.
// In lenient mode failures return nil without an error.
func (r Resolver) Resolve(v any) (*Info, error) {
	s, ok := v.(string)
	if !ok {
		return nil, r.fail(eris.Wrapf(ErrNotAString, "got %T %v", v, v))
	}
	s = cleaning.CollapseSpaces(cleaning.RemoveNonASCII(cleaning.NFC(s)))
	if len(s) < 2 {
		return nil, r.fail(eris.Wrapf(ErrInputTooShort, "%q", s))
	}

	code, found := find(s)
	if !found {
		return nil, r.fail(eris.Wrapf(ErrCountryNotFound, "%q", s))
	}
	return r.info(code), nil
}

func (r Resolver) fail(err error) error {
	if r.Mode == cleaning.Strict {
		return err
	}
	return nil
}

func find(s string) (countries.CountryCode, bool) {
	switch len(s) {
	case 2:
		c, ok := index.alpha2[strings.ToUpper(s)]
		return c, ok
	case 3:
		c, ok := index.alpha3[strings.ToUpper(s)]
		return c, ok
	}
	if c := countries.ByName(s); c != countries.Unknown && c.IsValid() {
		return c, true
	}
	return fuzzy(strings.ToLower(s))
}

// fuzzy returns the best name by Levenshtein similarity. A name that starts
// with the query counts as a match, so partial names resolve.
func fuzzy(q string) (countries.CountryCode, bool) {
	var (
		best      countries.CountryCode
		bestScore float64
	)
	for _, e := range index.names {
		score := levenshtein.Similarity(q, e.name, nil)
		if strings.HasPrefix(e.name, q) && score < MinSimilarity {
			score = MinSimilarity
		}
		if score > bestScore {
			best, bestScore = e.code, score
		}
	}
	if bestScore < MinSimilarity {
		return countries.Unknown, false
	}
	return best, true
}

func (r Resolver) info(c countries.CountryCode) *Info {
	info := &Info{
		Name:    cleaning.ApplyCase(c.String(), r.LetterCase),
		Alpha2:  cleaning.ApplyCase(c.Alpha2(), r.LetterCase),
		Alpha3:  cleaning.ApplyCase(c.Alpha3(), r.LetterCase),
		Numeric: int(c),
	}
	if reg := c.Region(); reg != countries.RegionUnknown {
		info.Region = cleaning.ApplyCase(reg.String(), r.LetterCase)
	}
	if cur := c.Currency(); cur != countries.CurrencyUnknown {
		info.Currency = cur.Alpha()
	}
	return info
}

// IsAlpha2 reports whether code is an assigned ISO 3166 alpha-2 code. Case-insensitive.
func IsAlpha2(code string) bool {
	_, ok := index.alpha2[strings.ToUpper(code)]
	return ok
}
