package legalform

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	// ManifestFile lists the supported countries and their languages.
	ManifestFile = "available_legal_forms.json"
	// rootKey is the top-level entry of every resource file.
	rootKey = "legal_forms"
)

// ResourceFile returns the resource file name for a country code.
func ResourceFile(country string) string {
	return strings.ToLower(country) + "_legal_forms.json"
}

// Manifest maps country codes to the languages published for them.
type Manifest struct {
	LegalForms map[string][]string `yaml:"legal_forms" json:"legal_forms"`
}

func readManifest(fsys fs.FS) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrResourceMissing, "manifest %s", ManifestFile)
		}
		return nil, eris.Wrapf(err, "read manifest %s", ManifestFile)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(ErrResourceMalformed, "manifest %s: %v", ManifestFile, err)
	}
	if m.LegalForms == nil {
		return nil, eris.Wrapf(ErrResourceMalformed, "manifest %s: no %q entry", ManifestFile, rootKey)
	}
	normalized := make(map[string][]string, len(m.LegalForms))
	for cc, langs := range m.LegalForms {
		normalized[strings.ToLower(cc)] = langs
	}
	m.LegalForms = normalized
	return &m, nil
}

// readCountry decodes <cc>_legal_forms.json into per-language dictionaries,
// keeping the file's language and term order. JSON is decoded through the
// YAML node tree because it is a YAML subset and nodes preserve key order.
func readCountry(fsys fs.FS, country string) ([]*Dictionary, error) {
	name := ResourceFile(country)
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrResourceMissing, "country %q: %s", country, name)
		}
		return nil, eris.Wrapf(err, "read %s", name)
	}
	return decodeCountry(country, data)
}

func decodeCountry(country string, data []byte) ([]*Dictionary, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, eris.Wrapf(ErrResourceMalformed, "country %q: %v", country, err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	forms := mappingValue(doc, rootKey)
	if forms == nil {
		return nil, eris.Wrapf(ErrResourceMalformed, "country %q: no %q entry", country, rootKey)
	}
	if forms.Kind != yaml.MappingNode {
		return nil, eris.Wrapf(ErrResourceMalformed, "country %q: %q is not an object", country, rootKey)
	}

	var dicts []*Dictionary
	for i := 0; i+1 < len(forms.Content); i += 2 {
		lang := strings.ToLower(forms.Content[i].Value)
		terms := forms.Content[i+1]
		if terms.Kind != yaml.MappingNode {
			return nil, eris.Wrapf(ErrResourceMalformed, "country %q language %q: terms are not an object", country, lang)
		}
		d := NewDictionary(country, lang)
		for j := 0; j+1 < len(terms.Content); j += 2 {
			canonical := terms.Content[j].Value
			var variants []string
			if err := terms.Content[j+1].Decode(&variants); err != nil {
				return nil, eris.Wrapf(ErrResourceMalformed, "country %q language %q term %q: %v", country, lang, canonical, err)
			}
			d.put(canonical, variants)
		}
		dicts = append(dicts, d)
	}
	return dicts, nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
