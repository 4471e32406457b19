package legalform

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	ErrCountryNotSupported  = eris.New("no legal-form dictionary for this country")
	ErrLanguageNotSupported = eris.New("no legal-form dictionary for this language")
	ErrResourceMissing      = eris.New("legal-form resource file not found")
	ErrResourceMalformed    = eris.New("legal-form resource file is malformed")
)

// Default scope used when nothing else is selected.
const (
	DefaultCountry  = "us"
	DefaultLanguage = "en"
)

//go:embed data/*.json
var embedded embed.FS

// Embedded returns the resources compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

type selection struct {
	country, language string
	merge             bool
}

// Store holds every legal-form dictionary listed in the manifest.
// Resources are read once by Open and Reload; selection never does I/O.
type Store struct {
	fsys fs.FS

	mu        sync.RWMutex
	manifest  *Manifest
	resources map[string][]*Dictionary
	def       *Dictionary
	selected  map[selection]*Dictionary
}

// Open reads the manifest and every resource it lists from fsys.
func Open(fsys fs.FS) (*Store, error) {
	s := &Store{fsys: fsys}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDir opens a store over a directory of resources, or the embedded
// resources when dir is empty.
func OpenDir(dir string) (*Store, error) {
	if dir == "" {
		return Open(Embedded())
	}
	return Open(os.DirFS(dir))
}

// Reload re-reads every resource and swaps them in atomically.
func (s *Store) Reload() error {
	manifest, err := readManifest(s.fsys)
	if err != nil {
		return err
	}
	resources := make(map[string][]*Dictionary, len(manifest.LegalForms))
	for cc := range manifest.LegalForms {
		dicts, err := readCountry(s.fsys, cc)
		if err != nil {
			return err
		}
		resources[cc] = dicts
	}

	def, err := selectFrom(manifest, resources, DefaultCountry, DefaultLanguage, false, nil)
	if err != nil {
		return eris.Wrap(err, "default legal-form dictionary")
	}

	s.mu.Lock()
	s.manifest = manifest
	s.resources = resources
	s.def = def
	s.selected = make(map[selection]*Dictionary)
	s.mu.Unlock()

	zap.L().Debug("legal-form store loaded",
		zap.Int("countries", len(resources)),
		zap.Int("default_terms", def.Len()),
	)
	return nil
}

// Default returns the us/en dictionary, unmerged.
func (s *Store) Default() *Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.def
}

// Countries returns the supported country codes, sorted.
func (s *Store) Countries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.manifest.LegalForms))
	for cc := range s.manifest.LegalForms {
		out = append(out, cc)
	}
	sort.Strings(out)
	return out
}

// Manifest returns a copy of the country to languages listing.
func (s *Store) Manifest() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.manifest.LegalForms))
	for cc, langs := range s.manifest.LegalForms {
		out[cc] = append([]string(nil), langs...)
	}
	return out
}

// Supports reports whether the country has a dictionary. Case-insensitive.
func (s *Store) Supports(country string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.manifest.LegalForms[normCode(country)]
	return ok
}

// Languages returns the languages of a country's resource in file order.
func (s *Store) Languages(country string) ([]string, error) {
	dicts, err := s.Load(country)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(dicts))
	for i, d := range dicts {
		out[i] = d.Language
	}
	return out, nil
}

// Load returns the per-language dictionaries of a country in file order.
func (s *Store) Load(country string) ([]*Dictionary, error) {
	cc := normCode(country)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.manifest.LegalForms[cc]; !ok {
		return nil, eris.Wrapf(ErrCountryNotSupported, "country %q", country)
	}
	dicts, ok := s.resources[cc]
	if !ok {
		return nil, eris.Wrapf(ErrResourceMissing, "country %q", country)
	}
	out := make([]*Dictionary, len(dicts))
	copy(out, dicts)
	return out, nil
}

// Select builds the dictionary for a country. An empty language concatenates
// every language in file order, a later language overriding an earlier one
// for the same canonical term. With merge, default terms absent from the
// selection are appended. The result is cached and must not be modified.
func (s *Store) Select(country, language string, merge bool) (*Dictionary, error) {
	key := selection{country: normCode(country), language: normCode(language), merge: merge}

	s.mu.RLock()
	d, ok := s.selected[key]
	s.mu.RUnlock()
	if ok {
		return d, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.selected[key]; ok {
		return d, nil
	}
	d, err := selectFrom(s.manifest, s.resources, key.country, key.language, key.merge, s.def)
	if err != nil {
		return nil, err
	}
	s.selected[key] = d
	return d, nil
}

func selectFrom(m *Manifest, resources map[string][]*Dictionary, country, language string, merge bool, def *Dictionary) (*Dictionary, error) {
	country, language = normCode(country), normCode(language)
	if _, ok := m.LegalForms[country]; !ok {
		return nil, eris.Wrapf(ErrCountryNotSupported, "country %q", country)
	}
	dicts := resources[country]

	var out *Dictionary
	if language != "" {
		for _, d := range dicts {
			if d.Language == language {
				out = d.clone()
				break
			}
		}
		if out == nil {
			return nil, eris.Wrapf(ErrLanguageNotSupported, "country %q language %q", country, language)
		}
	} else {
		out = NewDictionary(country, "")
		for _, d := range dicts {
			out.update(d)
		}
	}

	if merge && def != nil {
		out.fill(def)
		out.Merged = true
	}
	return out, nil
}

func normCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
