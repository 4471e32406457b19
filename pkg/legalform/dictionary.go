// CLAUDE:SUMMARY Ordered legal-form dictionary: canonical term to variant spellings, scoped by country and language.
package legalform

import (
	"strings"
	"sync"
)

// Term is a canonical legal form and the variant spellings that normalize to it.
type Term struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
}

// Dictionary is an ordered set of terms. Order is the resource's key order and
// decides which term wins when two terms could match the same text.
// A Dictionary returned by the store is never mutated.
type Dictionary struct {
	Country  string `json:"country"`
	Language string `json:"language,omitempty"`
	Merged   bool   `json:"merged"`

	terms []Term
	index map[string]int

	prepared sync.Map
}

// NewDictionary builds a dictionary from terms in the given order.
// A repeated canonical term replaces the earlier variants in place.
func NewDictionary(country, language string, terms ...Term) *Dictionary {
	d := &Dictionary{
		Country:  strings.ToLower(country),
		Language: language,
		index:    make(map[string]int, len(terms)),
	}
	for _, t := range terms {
		d.put(t.Canonical, t.Variants)
	}
	return d
}

// put inserts or updates a term. An existing key keeps its position.
func (d *Dictionary) put(canonical string, variants []string) {
	v := append([]string(nil), variants...)
	if i, ok := d.index[canonical]; ok {
		d.terms[i].Variants = v
		return
	}
	d.index[canonical] = len(d.terms)
	d.terms = append(d.terms, Term{Canonical: canonical, Variants: v})
}

// update overlays other onto d, last write wins.
func (d *Dictionary) update(other *Dictionary) {
	for _, t := range other.terms {
		d.put(t.Canonical, t.Variants)
	}
}

// fill adds terms from other that d does not have, leaving existing ones alone.
func (d *Dictionary) fill(other *Dictionary) {
	for _, t := range other.terms {
		if _, ok := d.index[t.Canonical]; !ok {
			d.put(t.Canonical, t.Variants)
		}
	}
}

func (d *Dictionary) clone() *Dictionary {
	c := &Dictionary{
		Country:  d.Country,
		Language: d.Language,
		Merged:   d.Merged,
		terms:    make([]Term, 0, len(d.terms)),
		index:    make(map[string]int, len(d.terms)),
	}
	c.update(d)
	return c
}

// Prepared returns the value cached on d under key, calling build on first
// use. The cache is released with the dictionary.
func (d *Dictionary) Prepared(key any, build func() any) any {
	if v, ok := d.prepared.Load(key); ok {
		return v
	}
	v, _ := d.prepared.LoadOrStore(key, build())
	return v
}

// Len returns the number of canonical terms.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.terms)
}

// Terms returns a copy of the terms in dictionary order.
func (d *Dictionary) Terms() []Term {
	if d == nil {
		return nil
	}
	out := make([]Term, len(d.terms))
	for i, t := range d.terms {
		out[i] = Term{Canonical: t.Canonical, Variants: append([]string(nil), t.Variants...)}
	}
	return out
}

// Lookup returns the variants of a canonical term.
func (d *Dictionary) Lookup(canonical string) ([]string, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[canonical]
	if !ok {
		return nil, false
	}
	return append([]string(nil), d.terms[i].Variants...), true
}

// Each calls fn for every term in order without copying.
// fn must not retain or modify the variants slice.
func (d *Dictionary) Each(fn func(canonical string, variants []string)) {
	if d == nil {
		return
	}
	for _, t := range d.terms {
		fn(t.Canonical, t.Variants)
	}
}

// Extend returns a copy of d with the terms of other that d lacks appended
// in other's order. Neither input is modified.
func (d *Dictionary) Extend(other *Dictionary) *Dictionary {
	c := d.clone()
	if other != nil {
		c.fill(other)
	}
	return c
}
