package legalform

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
)

// EncodeCountry writes dictionaries of one country in the resource layout,
// languages and terms in slice order.
func EncodeCountry(w io.Writer, dicts []*Dictionary) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("{\n  " + quote(rootKey) + ": {")
	for i, d := range dicts {
		if i > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n    " + quote(d.Language) + ": {")
		for j, t := range d.Terms() {
			if j > 0 {
				bw.WriteString(",")
			}
			bw.WriteString("\n      " + quote(t.Canonical) + ": " + quoteList(t.Variants))
		}
		if d.Len() > 0 {
			bw.WriteString("\n    ")
		}
		bw.WriteString("}")
	}
	if len(dicts) > 0 {
		bw.WriteString("\n  ")
	}
	bw.WriteString("}\n}\n")
	return eris.Wrap(bw.Flush(), "write legal forms")
}

// EncodeManifest writes the manifest with countries in alphabetical order.
func EncodeManifest(w io.Writer, m *Manifest) error {
	countries := make([]string, 0, len(m.LegalForms))
	for cc := range m.LegalForms {
		countries = append(countries, cc)
	}
	sort.Strings(countries)

	bw := bufio.NewWriter(w)
	bw.WriteString("{\n  " + quote(rootKey) + ": {")
	for i, cc := range countries {
		if i > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n    " + quote(cc) + ": " + quoteList(m.LegalForms[cc]))
	}
	if len(countries) > 0 {
		bw.WriteString("\n  ")
	}
	bw.WriteString("}\n}\n")
	return eris.Wrap(bw.Flush(), "write manifest")
}

// WriteDir writes a manifest and one resource file per country into dir.
// The result opens with OpenDir.
func WriteDir(dir string, byCountry map[string][]*Dictionary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create %s", dir)
	}
	m := &Manifest{LegalForms: make(map[string][]string, len(byCountry))}
	for cc, dicts := range byCountry {
		cc = normCode(cc)
		langs := make([]string, len(dicts))
		for i, d := range dicts {
			langs[i] = d.Language
		}
		m.LegalForms[cc] = langs
		if err := writeFile(filepath.Join(dir, ResourceFile(cc)), func(w io.Writer) error {
			return EncodeCountry(w, dicts)
		}); err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(dir, ManifestFile), func(w io.Writer) error {
		return EncodeManifest(w, m)
	})
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func quoteList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	out := "["
	for i, s := range list {
		if i > 0 {
			out += ", "
		}
		out += quote(s)
	}
	return out + "]"
}
