package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hazyhaar/touchstone-cleaner/pkg/legalform"
)

// variant is one legal-form spelling, matched as literal text. A variant
// without a dot must sit on word boundaries; a dotted one matches anywhere.
type variant struct {
	text    string
	bounded bool
}

type legalTerm struct {
	replacement string
	variants    []variant
}

// legalTerms is a dictionary prepared for substitution at one location.
type legalTerms struct {
	atEnd bool
	terms []legalTerm
}

// termsKey keys the prepared form of a dictionary at one location.
type termsKey struct{ loc Location }

func prepare(d *legalform.Dictionary, loc Location) *legalTerms {
	return d.Prepared(termsKey{loc}, func() any { return buildTerms(d, loc) }).(*legalTerms)
}

func buildTerms(d *legalform.Dictionary, loc Location) *legalTerms {
	lt := &legalTerms{atEnd: loc == AtEnd}
	d.Each(func(canonical string, variants []string) {
		t := legalTerm{replacement: " " + strings.ToLower(canonical) + " "}
		for _, v := range variants {
			v = strings.ToLower(v)
			if v == "" {
				continue
			}
			t.variants = append(t.variants, variant{text: v, bounded: !strings.Contains(v, ".")})
		}
		lt.terms = append(lt.terms, t)
	})
	return lt
}

// apply substitutes every variant in dictionary order. Each substitution sees
// the output of the previous one, so earlier terms win on overlaps.
func (lt *legalTerms) apply(s string) string {
	s = strings.TrimSpace(s)
	for _, t := range lt.terms {
		for _, v := range t.variants {
			if lt.atEnd {
				s = v.replaceSuffix(s, t.replacement)
			} else {
				s = v.replaceAll(s, t.replacement)
			}
		}
	}
	return s
}

func (v variant) matchesAt(s string, start, end int) bool {
	if !v.bounded {
		return true
	}
	return isBoundary(s, start) && isBoundary(s, end)
}

func (v variant) replaceSuffix(s, repl string) string {
	start := len(s) - len(v.text)
	if start < 0 || s[start:] != v.text || !v.matchesAt(s, start, len(s)) {
		return s
	}
	return s[:start] + repl
}

func (v variant) replaceAll(s, repl string) string {
	var b strings.Builder
	last, i := 0, 0
	for i <= len(s) {
		j := strings.Index(s[i:], v.text)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(v.text)
		if !v.matchesAt(s, start, end) {
			_, size := utf8.DecodeRuneInString(s[start:])
			i = start + size
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(repl)
		last, i = end, end
	}
	if last == 0 && b.Len() == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// isBoundary reports whether a word boundary sits at byte offset i: exactly
// one of the runes around it is a word character.
func isBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
