package names

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hazyhaar/touchstone-cleaner/pkg/cleaning"
)

// Location controls where legal-form variants may match.
type Location int

const (
	AtEnd Location = iota
	Anywhere
)

func (l Location) String() string {
	switch l {
	case AtEnd:
		return "at_end"
	case Anywhere:
		return "anywhere"
	}
	return "unknown"
}

// ParseLocation accepts at_end or anywhere. The empty string is AtEnd.
func ParseLocation(s string) (Location, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "at_end", "at_the_end", "end":
		return AtEnd, nil
	case "anywhere":
		return Anywhere, nil
	}
	return AtEnd, eris.Wrapf(cleaning.ErrUnknownOption, "legal term location %q", s)
}

func (l Location) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Location) UnmarshalText(b []byte) error {
	v, err := ParseLocation(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
