package rules

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// step is a resolved, compiled rule.
type step struct {
	name        string
	replacement string
	re          *regexp.Regexp
	moveToFront bool
}

func (s step) apply(text string) string {
	if !s.moveToFront {
		return s.re.ReplaceAllLiteralString(text, s.replacement)
	}
	m := s.re.FindString(text)
	if m == "" {
		return text
	}
	text = s.re.ReplaceAllLiteralString(text, s.replacement)
	return strings.ToLower(strings.TrimSpace(m)) + " " + text
}

// Pipeline is an ordered list of compiled rules. It is safe for concurrent use.
type Pipeline struct {
	steps []step
}

// Compile resolves names against dict and compiles their regexes.
// A reference is followed once: the referenced rule's replacement and regex
// are used under the referencing rule's name.
func Compile(dict *Dictionary, names []string) (*Pipeline, error) {
	p := &Pipeline{steps: make([]step, 0, len(names))}
	for _, name := range names {
		r, ok := dict.Get(name)
		if !ok {
			return nil, eris.Wrapf(ErrRuleNotFound, "rule %q", name)
		}
		if r.Pattern.IsRef() {
			target, ok := dict.Get(r.Pattern.Ref)
			if !ok {
				return nil, eris.Wrapf(ErrRuleNotFound, "rule %q referenced by %q", r.Pattern.Ref, name)
			}
			if target.Pattern.IsRef() {
				return nil, eris.Wrapf(ErrReferenceChain, "rule %q -> %q -> %q", name, target.Name, target.Pattern.Ref)
			}
			r = Rule{
				Name:        name,
				Replacement: target.Replacement,
				Pattern:     target.Pattern,
				MoveToFront: target.MoveToFront,
			}
		}
		re, err := regexp.Compile(r.Pattern.Regex)
		if err != nil {
			return nil, eris.Wrapf(err, "compile rule %q", name)
		}
		p.steps = append(p.steps, step{
			name:        name,
			replacement: r.Replacement,
			re:          re,
			moveToFront: r.MoveToFront,
		})
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. Intended for package-level
// pipelines built from the builtin dictionary.
func MustCompile(dict *Dictionary, names []string) *Pipeline {
	p, err := Compile(dict, names)
	if err != nil {
		panic(err)
	}
	return p
}

// Apply runs every rule in order, each on the output of the previous one.
func (p *Pipeline) Apply(text string) string {
	if p == nil {
		return text
	}
	for _, s := range p.steps {
		text = s.apply(text)
	}
	return text
}

// Names returns the rule names in application order.
func (p *Pipeline) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

// Len returns the number of rules.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.steps)
}
