// CLAUDE:SUMMARY Settings file for the tabular auto cleaner: file options, column renames and the name, country and id steps.
package batch

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
	"github.com/hazyhaar/touchstone-cleaner/pkg/ids"
	"github.com/hazyhaar/touchstone-cleaner/pkg/names"
)

var (
	ErrSettingsMissing    = eris.New("settings file not found")
	ErrSettingsInvalid    = eris.New("settings file is invalid")
	ErrFormatNotSupported = eris.New("settings format not supported")
	ErrNothingToClean     = eris.New("settings enable no cleaning step")
)

// Settings drive Run. Keys are those of the auto-cleaner settings files, so
// JSON written for earlier tools loads unchanged. Column names keep their case.
type Settings struct {
	File       FileSettings     `yaml:"file_processing"`
	Attributes ColumnMap        `yaml:"attribute_processing"`
	Name       *NameSettings    `yaml:"text"`
	Country    *CountrySettings `yaml:"country"`
	IDs        *IDSettings      `yaml:"id"`
}

type FileSettings struct {
	Separator string `yaml:"csv_file_sep"`
	Encoding  string `yaml:"csv_file_encoding"`
}

// NameSettings configure the company-name step.
type NameSettings struct {
	NormalizeLegalTerms Flag                `yaml:"normalize_legal_terms"`
	LetterCase          cleaning.LetterCase `yaml:"output_letter_case"`
	Location            names.Location      `yaml:"legal_term_location"`
	RemoveUnicode       Flag                `yaml:"remove_unicode_chars"`
	RemoveAccents       Flag                `yaml:"remove_accents"`
	PreRules            []string            `yaml:"cleaning_rules"`
	PostRules           []string            `yaml:"post_cleaning_rules"`
	// UseCleanCountry reads the country from the alpha-2 column written by the
	// country step instead of InputCountry itself.
	UseCleanCountry Flag   `yaml:"use_clean_country"`
	InputCountry    string `yaml:"input_country"`
	InputName       string `yaml:"input_company_name"`
	OutputName      string `yaml:"output_company_name"`
	MergeLegalTerms Flag   `yaml:"merge_legal_terms"`
}

// CountrySettings configure the country step. Output columns are the input
// column joined to each suffix with an underscore.
type CountrySettings struct {
	LetterCase   cleaning.LetterCase `yaml:"output_letter_case"`
	Columns      []string            `yaml:"input_countries"`
	NameSuffix   string              `yaml:"name_suffix_clean"`
	Alpha2Suffix string              `yaml:"alpha2_suffix_clean"`
	Alpha3Suffix string              `yaml:"alpha3_suffix_clean"`
}

// IDSettings configure the banking id step. Columns maps a column to an id type.
type IDSettings struct {
	LetterCase    cleaning.LetterCase `yaml:"output_letter_case"`
	Columns       ColumnMap           `yaml:"input_ids"`
	CleanSuffix   string              `yaml:"id_suffix_clean"`
	ValidSuffix   string              `yaml:"id_suffix_valid"`
	InvalidAsNull Flag                `yaml:"set_null_for_invalid_ids"`
}

// ColumnPair is one entry of an ordered column mapping.
type ColumnPair struct {
	Key, Value string
}

// ColumnMap is a mapping that keeps file order.
type ColumnMap []ColumnPair

func (m *ColumnMap) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return eris.Wrapf(ErrSettingsInvalid, "line %d: expected a mapping", n.Line)
	}
	out := make(ColumnMap, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return eris.Wrapf(ErrSettingsInvalid, "line %d: value of %q is not a string", v.Line, k.Value)
		}
		out = append(out, ColumnPair{Key: k.Value, Value: v.Value})
	}
	*m = out
	return nil
}

// Flag is a boolean that also accepts "true", "True", "1" and the like.
type Flag bool

func (f *Flag) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return eris.Wrapf(ErrSettingsInvalid, "line %d: expected a boolean", n.Line)
	}
	b, err := strconv.ParseBool(strings.TrimSpace(n.Value))
	if err != nil {
		return eris.Wrapf(ErrSettingsInvalid, "line %d: %q is not a boolean", n.Line, n.Value)
	}
	*f = Flag(b)
	return nil
}

// LoadSettings reads a .json, .yaml or .yml settings file.
func LoadSettings(path string) (*Settings, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
	default:
		return nil, eris.Wrapf(ErrFormatNotSupported, "%s", path)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrSettingsMissing, "%s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return ParseSettings(data)
}

// ParseSettings decodes settings from JSON or YAML and validates them.
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		if eris.Is(err, ErrSettingsInvalid) {
			return nil, err
		}
		return nil, eris.Wrapf(ErrSettingsInvalid, "%v", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the fields each enabled step needs.
func (s *Settings) Validate() error {
	if s.Name == nil && s.Country == nil && s.IDs == nil {
		return eris.Wrap(ErrNothingToClean, "need one of text, country, id")
	}
	if n := s.Name; n != nil {
		if n.InputName == "" {
			return eris.Wrap(ErrSettingsInvalid, "text.input_company_name is required")
		}
		if n.UseCleanCountry {
			if n.InputCountry == "" {
				return eris.Wrap(ErrSettingsInvalid, "text.use_clean_country needs text.input_country")
			}
			if s.Country == nil || !contains(s.Country.Columns, n.InputCountry) {
				return eris.Wrapf(ErrSettingsInvalid, "text.use_clean_country needs %q in country.input_countries", n.InputCountry)
			}
		}
	}
	if c := s.Country; c != nil && len(c.Columns) == 0 {
		return eris.Wrap(ErrSettingsInvalid, "country.input_countries is empty")
	}
	if d := s.IDs; d != nil {
		if len(d.Columns) == 0 {
			return eris.Wrap(ErrSettingsInvalid, "id.input_ids is empty")
		}
		for _, p := range d.Columns {
			if _, err := ids.ParseType(p.Value); err != nil {
				return eris.Wrapf(ErrSettingsInvalid, "id.input_ids[%s]: %v", p.Key, err)
			}
		}
	}
	return nil
}

func (n *NameSettings) outputColumn() string {
	if n.OutputName != "" {
		return n.OutputName
	}
	return n.InputName + "_clean"
}

func (n *NameSettings) countryColumn(c *CountrySettings) string {
	if n.UseCleanCountry && c != nil {
		return suffixed(n.InputCountry, c.Alpha2Suffix, "alpha2")
	}
	return n.InputCountry
}

func suffixed(column, suffix, fallback string) string {
	if suffix == "" {
		suffix = fallback
	}
	return column + "_" + suffix
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
