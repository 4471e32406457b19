// CLAUDE:SUMMARY Named regex substitution rules, the builtin rule dictionary, and the default company-name rule list.
package rules

import (
	"sort"

	"github.com/rotisserie/eris"
)

var (
	// ErrRuleNotFound is returned when a rule list names a rule absent from the dictionary.
	ErrRuleNotFound = eris.New("cleaning rule not found in the dictionary")
	// ErrReferenceChain is returned when a referenced rule is itself a reference.
	// Only one level of indirection is resolved.
	ErrReferenceChain = eris.New("rule reference points to another reference")
)

// Pattern is either a regular expression or a reference to another rule.
// Exactly one of the two fields is set.
type Pattern struct {
	Regex string
	Ref   string
}

// Regex builds a literal regular-expression pattern.
func Regex(expr string) Pattern { return Pattern{Regex: expr} }

// Ref builds a pattern that reuses another rule's replacement and regex.
func Ref(rule string) Pattern { return Pattern{Ref: rule} }

// IsRef reports whether the pattern points at another rule.
func (p Pattern) IsRef() bool { return p.Ref != "" }

// Rule is a named substitution. Replacement is literal text.
//
// When MoveToFront is set the matched text is removed and then reinserted,
// lower-cased, at the start of the result.
type Rule struct {
	Name        string
	Replacement string
	Pattern     Pattern
	MoveToFront bool
}

// Dictionary maps rule names to rules. It is never mutated after construction.
type Dictionary struct {
	rules map[string]Rule
}

// NewDictionary builds a dictionary from rules. A later rule with the same
// name replaces an earlier one.
func NewDictionary(rules ...Rule) *Dictionary {
	d := &Dictionary{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		d.rules[r.Name] = r
	}
	return d
}

// Get returns the rule registered under name.
func (d *Dictionary) Get(name string) (Rule, bool) {
	r, ok := d.rules[name]
	return r, ok
}

// Names returns every rule name, sorted.
func (d *Dictionary) Names() []string {
	names := make([]string, 0, len(d.rules))
	for name := range d.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every name exists. It reports the first unknown name.
func (d *Dictionary) Validate(names []string) error {
	for _, name := range names {
		if _, ok := d.rules[name]; !ok {
			return eris.Wrapf(ErrRuleNotFound, "rule %q", name)
		}
	}
	return nil
}

// Word characters follow the Unicode definition: letters, marks, digits, underscore.
const word = `[\p{L}\p{M}\p{N}_]`

var builtin = NewDictionary(
	Rule{Name: "remove_email", Replacement: " ", Pattern: Regex(`\S*@\S*\s?`)},
	Rule{Name: "remove_url", Replacement: " ", Pattern: Regex(`https*\S+`)},
	Rule{Name: "remove_word_the_from_the_end", Replacement: " ", Pattern: Regex(`(?:^|\s)the$`)},
	Rule{Name: "place_word_the_at_the_beginning", Replacement: " ", Pattern: Regex(`(?:^|\s)the$`), MoveToFront: true},
	Rule{Name: "remove_www_address", Replacement: " ", Pattern: Regex(`https?://[.\w]{3,}|www\.[.\w]{3,}`)},
	Rule{Name: "enforce_single_space_between_words", Replacement: " ", Pattern: Regex(`\s+`)},
	Rule{Name: "replace_amperstand_by_AND", Replacement: " and ", Pattern: Regex(`&`)},
	Rule{Name: "add_space_between_amperstand", Replacement: " & ", Pattern: Regex(`&`)},
	Rule{Name: "replace_amperstand_between_space_by_AND", Replacement: " and ", Pattern: Regex(`\s+&\s+`)},
	Rule{Name: "replace_hyphen_by_space", Replacement: " ", Pattern: Regex(`-`)},
	Rule{Name: "replace_hyphen_between_spaces_by_single_space", Replacement: " ", Pattern: Regex(`\s+-\s+`)},
	Rule{Name: "replace_underscore_by_space", Replacement: " ", Pattern: Regex(`_`)},
	Rule{Name: "replace_underscore_between_spaces_by_single_space", Replacement: " ", Pattern: Regex(`\s+_\s+`)},
	Rule{Name: "remove_all_punctuation", Replacement: " ", Pattern: Regex(`[^\p{L}\p{M}\p{N}_\s]`)},
	Rule{Name: "remove_all_letters", Replacement: "", Pattern: Regex(`[a-zA-Z]+`)},
	Rule{Name: "remove_spaces", Replacement: "", Pattern: Regex(`\s`)},
	Rule{Name: "remove_punctuation_except_dot", Replacement: " ", Pattern: Regex(`[^\p{L}\p{M}\p{N}_\s.]`)},
	Rule{Name: "remove_mentions", Replacement: " ", Pattern: Regex(`@+`)},
	Rule{Name: "remove_hashtags", Replacement: " ", Pattern: Regex(`#+`)},
	Rule{Name: "remove_asterisk", Replacement: " ", Pattern: Regex(`\*+`)},
	Rule{Name: "remove_numbers", Replacement: " ", Pattern: Regex(word + `*\p{Nd}+` + word + `*`)},
	Rule{Name: "remove_text_puctuation", Replacement: " ", Pattern: Regex(`[;:,.?!"/|]`)},
	Rule{Name: "remove_text_puctuation_except_dot", Replacement: " ", Pattern: Regex(`[;:,?!"/|]`)},
	Rule{Name: "remove_math_symbols", Replacement: " ", Pattern: Regex(`[+\-*><=%]`)},
	Rule{Name: "remove_math_symbols_except_dash", Replacement: " ", Pattern: Regex(`[+*><=%]`)},
	Rule{Name: "remove_parentheses", Replacement: " ", Pattern: Regex(`[()]`)},
	Rule{Name: "remove_brackets", Replacement: " ", Pattern: Regex(`[\[\]]`)},
	Rule{Name: "remove_curly_brackets", Replacement: " ", Pattern: Regex(`[{}]`)},
	Rule{Name: "remove_single_quote_next_character", Replacement: " ", Pattern: Regex(`'` + word + `+`)},
	Rule{Name: "remove_single_quote", Replacement: " ", Pattern: Regex(`'`)},
	Rule{Name: "remove_double_quote", Replacement: " ", Pattern: Regex(`"`)},
	Rule{Name: "remove_words_in_parentheses", Replacement: " ", Pattern: Regex(`\([^()]*\)*`)},
	Rule{Name: "remove_words_in_asterisk", Replacement: " ", Pattern: Regex(`\*[^()]*\*`)},
	Rule{Name: "remove_question_marks_in_parentheses", Replacement: " ", Pattern: Regex(`\([?*^()]*\)`)},
	Rule{Name: "repeat_remove_words_in_parentheses", Pattern: Ref("remove_words_in_parentheses")},
)

// Builtin returns the rule dictionary shipped with the cleaner.
func Builtin() *Dictionary { return builtin }

// DefaultCompanyRules is the pre-processing rule list applied to company names.
var DefaultCompanyRules = []string{
	"place_word_the_at_the_beginning",
	"remove_words_in_parentheses",
	"repeat_remove_words_in_parentheses",
	"remove_words_in_asterisk",
	"add_space_between_amperstand",
	"replace_amperstand_between_space_by_AND",
	"replace_hyphen_by_space",
	"replace_underscore_by_space",
	"remove_text_puctuation_except_dot",
	"remove_math_symbols",
	"remove_parentheses",
	"remove_brackets",
	"remove_curly_brackets",
	"remove_single_quote_next_character",
	"remove_double_quote",
	"enforce_single_space_between_words",
}

// DefaultRules returns a copy of DefaultCompanyRules.
func DefaultRules() []string {
	return append([]string(nil), DefaultCompanyRules...)
}
