// CLAUDE:SUMMARY Company-name normalizer: rule pipelines, legal-form substitution, accent folding and output casing.
package names

import (
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
	"github.com/hazyhaar/touchstone-cleaner/pkg/legalform"
	"github.com/hazyhaar/touchstone-cleaner/pkg/rules"
)

// ErrNotAString is returned in strict mode when a value to clean is not text.
var ErrNotAString = eris.New("company name is not a string")

// Config holds the normalizer options.
type Config struct {
	NormalizeLegalTerms bool
	LetterCase          cleaning.LetterCase
	Location            Location
	RemoveUnicode       bool
	RemoveAccents       bool
	PreRules            []string
	PostRules           []string
	Mode                cleaning.Mode

	// Rules resolves rule names. Nil means rules.Builtin().
	Rules *rules.Dictionary
}

// DefaultConfig returns the company-name defaults: legal terms normalized at
// the end of the name, lower case, default company rules, lenient mode.
func DefaultConfig() Config {
	return Config{
		NormalizeLegalTerms: true,
		LetterCase:          cleaning.Lower,
		Location:            AtEnd,
		PreRules:            rules.DefaultRules(),
	}
}

// Selection identifies the active legal-form dictionary.
type Selection struct {
	Country  string `json:"country"`
	Language string `json:"language,omitempty"`
	Merge    bool   `json:"merge"`
}

var defaultSelection = Selection{Country: legalform.DefaultCountry, Language: legalform.DefaultLanguage}

// settings is an immutable snapshot used by one cleaning call.
type settings struct {
	cfg  Config
	pre  *rules.Pipeline
	post *rules.Pipeline
}

// Normalizer cleans company names. The active dictionary and options may be
// changed at any time; each call works on a consistent snapshot.
type Normalizer struct {
	store *legalform.Store

	mu     sync.RWMutex
	set    *settings
	active *legalform.Dictionary
	sel    Selection
	// req is the selection as asked for, replayed by Refresh.
	req Selection
}

// New builds a normalizer whose active dictionary is the store default.
// Unknown rule names are rejected here, never during cleaning.
func New(store *legalform.Store, cfg Config) (*Normalizer, error) {
	if store == nil {
		return nil, eris.New("names: nil legal-form store")
	}
	set, err := compileSettings(cfg)
	if err != nil {
		return nil, err
	}
	return &Normalizer{
		store:  store,
		set:    set,
		active: store.Default(),
		sel:    defaultSelection,
		req:    defaultSelection,
	}, nil
}

func compileSettings(cfg Config) (*settings, error) {
	if cfg.Rules == nil {
		cfg.Rules = rules.Builtin()
	}
	pre, err := rules.Compile(cfg.Rules, cfg.PreRules)
	if err != nil {
		return nil, eris.Wrap(err, "pre-processing rules")
	}
	post, err := rules.Compile(cfg.Rules, cfg.PostRules)
	if err != nil {
		return nil, eris.Wrap(err, "post-processing rules")
	}
	cfg.PreRules = pre.Names()
	cfg.PostRules = post.Names()
	return &settings{cfg: cfg, pre: pre, post: post}, nil
}

func (n *Normalizer) snapshot() (*settings, *legalform.Dictionary) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.set, n.active
}

// update recompiles settings after fn edits a copy of the config. Nothing
// changes when compilation fails.
func (n *Normalizer) update(fn func(*Config)) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	cfg := n.set.cfg
	cfg.PreRules = append([]string(nil), cfg.PreRules...)
	cfg.PostRules = append([]string(nil), cfg.PostRules...)
	fn(&cfg)
	set, err := compileSettings(cfg)
	if err != nil {
		return err
	}
	n.set = set
	return nil
}

// Config returns a copy of the current options.
func (n *Normalizer) Config() Config {
	set, _ := n.snapshot()
	cfg := set.cfg
	cfg.PreRules = append([]string(nil), cfg.PreRules...)
	cfg.PostRules = append([]string(nil), cfg.PostRules...)
	return cfg
}

// Store returns the legal-form store the normalizer selects from.
func (n *Normalizer) Store() *legalform.Store { return n.store }

// SetPreRules replaces the pre-processing rule list. The whole list is
// rejected when any name is unknown.
func (n *Normalizer) SetPreRules(names []string) error {
	return n.update(func(c *Config) { c.PreRules = append([]string(nil), names...) })
}

// SetPostRules replaces the post-processing rule list, atomically like SetPreRules.
func (n *Normalizer) SetPostRules(names []string) error {
	return n.update(func(c *Config) { c.PostRules = append([]string(nil), names...) })
}

// The setters below cannot fail: they leave the rule lists alone, and those
// were compiled when the normalizer was built or last changed.

// SetLetterCase sets the output casing.
func (n *Normalizer) SetLetterCase(c cleaning.LetterCase) {
	n.mustUpdate(func(cfg *Config) { cfg.LetterCase = c })
}

// SetLocation sets where legal-form variants may match.
func (n *Normalizer) SetLocation(l Location) {
	n.mustUpdate(func(cfg *Config) { cfg.Location = l })
}

// SetMode sets how non-string values are handled.
func (n *Normalizer) SetMode(m cleaning.Mode) {
	n.mustUpdate(func(cfg *Config) { cfg.Mode = m })
}

// SetNormalizeLegalTerms turns legal-form substitution on or off.
func (n *Normalizer) SetNormalizeLegalTerms(on bool) {
	n.mustUpdate(func(cfg *Config) { cfg.NormalizeLegalTerms = on })
}

// SetRemoveUnicode turns removal of non-ASCII characters on or off.
func (n *Normalizer) SetRemoveUnicode(on bool) {
	n.mustUpdate(func(cfg *Config) { cfg.RemoveUnicode = on })
}

// SetRemoveAccents turns accent folding on or off.
func (n *Normalizer) SetRemoveAccents(on bool) {
	n.mustUpdate(func(cfg *Config) { cfg.RemoveAccents = on })
}

func (n *Normalizer) mustUpdate(fn func(*Config)) {
	if err := n.update(fn); err != nil {
		panic(eris.Wrap(err, "names: recompiling validated rules"))
	}
}

// SetLegalForms makes the selected dictionary active. On error the active
// dictionary is unchanged.
func (n *Normalizer) SetLegalForms(country, language string, merge bool) error {
	d, err := n.store.Select(country, language, merge)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.active = d
	n.sel = Selection{Country: d.Country, Language: d.Language, Merge: merge}
	n.req = Selection{Country: country, Language: language, Merge: merge}
	n.mu.Unlock()
	return nil
}

// Refresh selects the active dictionary again from the store, as SetLegalForms
// was last asked to. Call it after Store.Reload. When the selection no longer
// exists the store default becomes active and the error is returned.
func (n *Normalizer) Refresh() error {
	n.mu.RLock()
	req := n.req
	n.mu.RUnlock()
	err := n.SetLegalForms(req.Country, req.Language, req.Merge)
	if err == nil {
		return nil
	}
	n.mu.Lock()
	n.active = n.store.Default()
	n.sel = defaultSelection
	n.req = defaultSelection
	n.mu.Unlock()
	return eris.Wrap(err, "refresh legal forms")
}

// ActiveLegalForms returns the active dictionary and how it was selected.
func (n *Normalizer) ActiveLegalForms() (*legalform.Dictionary, Selection) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active, n.sel
}

// Clean normalizes a name with the active dictionary.
func (n *Normalizer) Clean(name string) string {
	set, dict := n.snapshot()
	return set.clean(dict, name)
}

// CleanValue normalizes any value with the active dictionary. See CleanWith.
func (n *Normalizer) CleanValue(v any) (string, bool, error) {
	set, dict := n.snapshot()
	return set.cleanValue(dict, v)
}

// CleanWith normalizes v with an explicit dictionary and leaves the active
// one alone. It returns ok=false for a non-string in lenient mode and
// ErrNotAString in strict mode. A nil dict skips legal-term substitution.
func (n *Normalizer) CleanWith(dict *legalform.Dictionary, v any) (string, bool, error) {
	set, _ := n.snapshot()
	return set.cleanValue(dict, v)
}

func (s *settings) cleanValue(dict *legalform.Dictionary, v any) (string, bool, error) {
	name, ok := v.(string)
	if !ok {
		if s.cfg.Mode == cleaning.Strict {
			return "", false, eris.Wrapf(ErrNotAString, "got %T %v", v, v)
		}
		return "", false, nil
	}
	return s.clean(dict, name), true, nil
}

func (s *settings) clean(dict *legalform.Dictionary, name string) string {
	name = cleaning.NFC(name)
	if s.cfg.RemoveUnicode {
		name = cleaning.RemoveNonASCII(name)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	name = s.pre.Apply(name)
	if s.cfg.NormalizeLegalTerms && dict != nil {
		name = prepare(dict, s.cfg.Location).apply(name)
	}
	if s.cfg.RemoveAccents {
		name = cleaning.Transliterate(name)
	}
	name = s.post.Apply(name)
	if s.cfg.LetterCase != cleaning.Lower {
		name = cleaning.ApplyCase(name, s.cfg.LetterCase)
	}
	return cleaning.CollapseSpaces(name)
}
