// CLAUDE:SUMMARY Options shared by every cleaner: failure mode and output letter case.
package cleaning

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnknownOption is returned by the Parse functions for unrecognized text.
var ErrUnknownOption = eris.New("unknown option value")

// LetterCase is the output case applied after every other step.
type LetterCase int

const (
	Lower LetterCase = iota
	Upper
	Title
)

func (c LetterCase) String() string {
	switch c {
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	case Title:
		return "title"
	}
	return "unknown"
}

// ParseLetterCase accepts lower, upper or title, case-insensitively.
// The empty string is Lower.
func ParseLetterCase(s string) (LetterCase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lower":
		return Lower, nil
	case "upper":
		return Upper, nil
	case "title":
		return Title, nil
	}
	return Lower, eris.Wrapf(ErrUnknownOption, "letter case %q", s)
}

func (c LetterCase) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *LetterCase) UnmarshalText(b []byte) error {
	v, err := ParseLetterCase(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Mode decides what happens to bad input values.
// Lenient yields a null result, Strict returns an error.
type Mode int

const (
	Lenient Mode = iota
	Strict
)

func (m Mode) String() string {
	switch m {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	}
	return "unknown"
}

// ParseMode accepts lenient (alias silent) or strict (alias exception).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient", "silent":
		return Lenient, nil
	case "strict", "exception":
		return Strict, nil
	}
	return Lenient, eris.Wrapf(ErrUnknownOption, "mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
