package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// CSVOptions controls CSV decoding. The first record is always the header.
type CSVOptions struct {
	Delimiter string // single character, default ","
	Encoding  string // WHATWG label, default utf-8
}

func (o CSVOptions) comma() rune {
	if o.Delimiter == "" {
		return ','
	}
	if o.Delimiter == `\t` {
		return '\t'
	}
	return []rune(o.Delimiter)[0]
}

func isUTF8(enc string) bool {
	switch strings.ToLower(strings.ReplaceAll(enc, "-", "")) {
	case "", "utf8":
		return true
	}
	return false
}

// ReadCSV decodes a CSV stream. Empty cells become null.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	if !isUTF8(opts.Encoding) {
		e, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, eris.Wrapf(err, "unsupported encoding %q", opts.Encoding)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.comma()
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	t := New(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read row %d", t.Len()+1)
		}
		row := make([]any, len(record))
		for i, cell := range record {
			if cell != "" {
				row[i] = cell
			}
		}
		t.AppendRow(row...)
	}
	return t, nil
}

// WriteCSV encodes a table as UTF-8 CSV with a header. Nulls are empty cells.
func WriteCSV(w io.Writer, t *Table, opts CSVOptions) error {
	cw := csv.NewWriter(w)
	cw.Comma = opts.comma()
	if err := cw.Write(t.columns); err != nil {
		return eris.Wrap(err, "write header")
	}
	record := make([]string, len(t.columns))
	for _, row := range t.rows {
		for i, v := range row {
			record[i] = Format(v)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "flush csv")
}

// Format renders a cell as text. Null renders as the empty string.
func Format(v any) string {
	if IsNull(v) {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
