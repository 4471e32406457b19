package table

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrFormatNotSupported is returned for file extensions other than csv, tsv, txt and xlsx.
var ErrFormatNotSupported = eris.New("table file format not supported")

// ReadFile loads a table from path, choosing the codec from the extension.
func ReadFile(path string, opts CSVOptions) (*Table, error) {
	switch ext(path) {
	case ".csv", ".txt":
		return readCSVFile(path, opts)
	case ".tsv":
		if opts.Delimiter == "" {
			opts.Delimiter = "\t"
		}
		return readCSVFile(path, opts)
	case ".xlsx":
		return ReadXLSX(path, "")
	}
	return nil, eris.Wrapf(ErrFormatNotSupported, "read %s", path)
}

// WriteFile stores a table at path, choosing the codec from the extension.
func WriteFile(path string, t *Table, opts CSVOptions) error {
	switch ext(path) {
	case ".csv", ".txt":
		return writeCSVFile(path, t, opts)
	case ".tsv":
		if opts.Delimiter == "" {
			opts.Delimiter = "\t"
		}
		return writeCSVFile(path, t, opts)
	case ".xlsx":
		return WriteXLSX(path, t)
	}
	return eris.Wrapf(ErrFormatNotSupported, "write %s", path)
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func readCSVFile(path string, opts CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

func writeCSVFile(path string, t *Table, opts CSVOptions) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := WriteCSV(f, t, opts); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}
