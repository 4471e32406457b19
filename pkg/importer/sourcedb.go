package importer

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

var ErrSourceNotFound = eris.New("import source not found")

const sourcesSchema = `CREATE TABLE IF NOT EXISTS import_sources (
	adapter_id   TEXT PRIMARY KEY,
	description  TEXT NOT NULL,
	source_url   TEXT NOT NULL,
	license      TEXT NOT NULL DEFAULT '',
	last_check   INTEGER,
	last_status  INTEGER,
	last_error   TEXT,
	last_import  INTEGER,
	last_terms   INTEGER,
	updated_at   INTEGER NOT NULL
)`

const sourceColumns = `adapter_id, description, source_url, license,
	last_check, last_status, last_error, last_import, last_terms, updated_at`

// Source is one import_sources row. Nil pointers mean never checked or
// never imported.
type Source struct {
	AdapterID   string
	Description string
	SourceURL   string
	License     string
	LastCheck   *int64
	LastStatus  *int
	LastError   *string
	LastImport  *int64
	LastTerms   *int
	UpdatedAt   int64
}

// SourceDB keeps the download URL and last check/import state of every
// adapter, so URL overrides survive restarts.
type SourceDB struct {
	db *sql.DB
}

func OpenSourceDB(path string) (*SourceDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, eris.Wrap(err, "open source db")
	}
	if _, err := db.Exec(sourcesSchema); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "create import_sources table")
	}
	return &SourceDB{db: db}, nil
}

func (s *SourceDB) Close() error {
	return s.db.Close()
}

// Seed adds a row for every adapter not yet known. Existing rows are kept.
func (s *SourceDB) Seed(adapters []Adapter) error {
	now := time.Now().Unix()
	for _, a := range adapters {
		_, err := s.db.Exec(`INSERT OR IGNORE INTO import_sources
			(adapter_id, description, source_url, license, updated_at) VALUES (?, ?, ?, ?, ?)`,
			a.ID(), a.Description(), a.DefaultURL(), a.License(), now)
		if err != nil {
			return eris.Wrapf(err, "seed %s", a.ID())
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (Source, error) {
	var src Source
	err := row.Scan(&src.AdapterID, &src.Description, &src.SourceURL, &src.License,
		&src.LastCheck, &src.LastStatus, &src.LastError, &src.LastImport, &src.LastTerms, &src.UpdatedAt)
	return src, err
}

// Get returns the row of one adapter.
func (s *SourceDB) Get(adapterID string) (Source, error) {
	src, err := scanSource(s.db.QueryRow(`SELECT `+sourceColumns+` FROM import_sources WHERE adapter_id = ?`, adapterID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Source{}, eris.Wrapf(ErrSourceNotFound, "%s", adapterID)
	case err != nil:
		return Source{}, eris.Wrapf(err, "get source %s", adapterID)
	}
	return src, nil
}

// GetURL returns the URL the adapter downloads from.
func (s *SourceDB) GetURL(adapterID string) (string, error) {
	src, err := s.Get(adapterID)
	if err != nil {
		return "", err
	}
	return src.SourceURL, nil
}

// ListSources returns every row ordered by adapter id.
func (s *SourceDB) ListSources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT ` + sourceColumns + ` FROM import_sources ORDER BY adapter_id`)
	if err != nil {
		return nil, eris.Wrap(err, "list sources")
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan source")
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// update runs an UPDATE keyed by adapter id and reports unknown ids.
func (s *SourceDB) update(adapterID, op, set string, args ...any) error {
	res, err := s.db.Exec(`UPDATE import_sources SET `+set+` WHERE adapter_id = ?`, append(args, adapterID)...)
	if err != nil {
		return eris.Wrapf(err, "%s for %s", op, adapterID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrSourceNotFound, "%s", adapterID)
	}
	return nil
}

// SetURL overrides the download URL of an adapter.
func (s *SourceDB) SetURL(adapterID, url string) error {
	return s.update(adapterID, "set url", `source_url = ?, updated_at = ?`, url, time.Now().Unix())
}

// UpdateCheck stores the outcome of a reachability probe. An empty checkErr
// clears the previous error.
func (s *SourceDB) UpdateCheck(adapterID string, status int, checkErr string) error {
	lastErr := sql.NullString{String: checkErr, Valid: checkErr != ""}
	return s.update(adapterID, "update check", `last_check = ?, last_status = ?, last_error = ?`,
		time.Now().Unix(), status, lastErr)
}

// RecordImport stores the time and term count of a successful import.
func (s *SourceDB) RecordImport(adapterID string, res *Result) error {
	return s.update(adapterID, "record import", `last_import = ?, last_terms = ?`, time.Now().Unix(), res.Terms)
}
