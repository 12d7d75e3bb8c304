// Package sqlitestore is the reference C8 persistent-store implementation,
// built on modernc.org/sqlite (the teacher's pure-Go sqlite driver, used
// there for a single Plex-registration row; reused here for four
// JSON-blob-per-record series tables plus a version table).
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
	"github.com/jpdictsync/jpdictsync/internal/store"
)

var allSeries = []dictmodel.Series{
	dictmodel.SeriesWords, dictmodel.SeriesKanji, dictmodel.SeriesNames, dictmodel.SeriesRadicals,
}

// Store is a sqlite-backed store.Store. One table per series holds the
// record as a JSON blob keyed by id; one shared table holds the per-series
// version row, also as a JSON blob.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// New returns a Store backed by the sqlite file at path. Call Open before use.
func New(path string) *Store {
	return &Store{path: path}
}

// Open is idempotent; concurrent Open calls on the same Store are safe.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("sqlitestore: open %s: %w", s.path, err)
	}
	// modernc.org/sqlite serialises writers at the file level regardless;
	// pinning to one connection avoids spurious SQLITE_BUSY under our own
	// concurrent series updates rather than relying on busy-retry.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return fmt.Errorf("sqlitestore: set WAL mode: %w", err)
	}

	for _, series := range allSeries {
		idType := "INTEGER"
		if series == dictmodel.SeriesRadicals {
			idType = "TEXT"
		}
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id %s PRIMARY KEY, data TEXT NOT NULL)`, tableName(series), idType)
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("sqlitestore: create table %s: %w", series, err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS data_version (series TEXT PRIMARY KEY, row TEXT NOT NULL)`); err != nil {
		db.Close()
		return fmt.Errorf("sqlitestore: create data_version table: %w", err)
	}

	s.db = db
	return nil
}

func tableName(series dictmodel.Series) string { return string(series) }

// ClearSeries empties series' records and version row in one transaction.
func (s *Store) ClearSeries(series dictmodel.Series) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return classifyErr(err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, tableName(series))); err != nil {
		tx.Rollback()
		return classifyErr(err)
	}
	if _, err := tx.Exec(`DELETE FROM data_version WHERE series = ?`, string(series)); err != nil {
		tx.Rollback()
		return classifyErr(err)
	}
	return classifyErr(tx.Commit())
}

// UpdateSeries applies updates atomically within a single transaction.
func (s *Store) UpdateSeries(series dictmodel.Series, updates []store.Update) error {
	if len(updates) == 0 {
		return nil
	}
	db, err := s.conn()
	if err != nil {
		return err
	}
	table := tableName(series)

	tx, err := db.Begin()
	if err != nil {
		return classifyErr(err)
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data`, table)
	del := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table)

	for _, u := range updates {
		switch u.Mode {
		case dictmodel.ModeAdd, dictmodel.ModeChange:
			id, err := extractID(series, u.Record)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("sqlitestore: %w", err)
			}
			if _, err := tx.Exec(upsert, id, string(u.Record)); err != nil {
				tx.Rollback()
				return classifyErr(err)
			}
		case dictmodel.ModeDelete:
			id, err := decodeID(series, u.ID)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("sqlitestore: %w", err)
			}
			if _, err := tx.Exec(del, id); err != nil {
				tx.Rollback()
				return classifyErr(err)
			}
		default:
			tx.Rollback()
			return fmt.Errorf("sqlitestore: unknown update mode %q", u.Mode)
		}
	}

	return classifyErr(tx.Commit())
}

// versionRowDTO is the JSON shape stored in the data_version table; kept
// separate from dictmodel.DataVersionRow so the data model package stays
// free of serialization tags.
type versionRowDTO struct {
	Major           int    `json:"major"`
	Minor           int    `json:"minor"`
	Patch           int    `json:"patch"`
	Part            *int   `json:"part,omitempty"`
	Parts           *int   `json:"parts,omitempty"`
	Lang            string `json:"lang"`
	DatabaseVersion string `json:"databaseVersion,omitempty"`
	DateOfCreation  string `json:"dateOfCreation"`
}

func toDTO(row dictmodel.DataVersionRow) versionRowDTO {
	dto := versionRowDTO{
		Major: row.Version.Major, Minor: row.Version.Minor, Patch: row.Version.Patch,
		Lang: row.Lang, DatabaseVersion: row.DatabaseVersion, DateOfCreation: row.DateOfCreation,
	}
	if row.PartInfo != nil {
		dto.Part = &row.PartInfo.Part
		dto.Parts = &row.PartInfo.Parts
	}
	return dto
}

func fromDTO(dto versionRowDTO) dictmodel.DataVersionRow {
	row := dictmodel.DataVersionRow{
		Version:         dictmodel.Version{Major: dto.Major, Minor: dto.Minor, Patch: dto.Patch},
		Lang:            dto.Lang,
		DatabaseVersion: dto.DatabaseVersion,
		DateOfCreation:  dto.DateOfCreation,
	}
	if dto.Part != nil && dto.Parts != nil {
		row.PartInfo = &dictmodel.PartInfo{Part: *dto.Part, Parts: *dto.Parts}
	}
	return row
}

// UpdateDataVersion upserts the version row for series.
func (s *Store) UpdateDataVersion(series dictmodel.Series, row dictmodel.DataVersionRow) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	data, err := json.Marshal(toDTO(row))
	if err != nil {
		return fmt.Errorf("sqlitestore: marshal version row: %w", err)
	}
	_, err = db.Exec(`INSERT INTO data_version (series, row) VALUES (?, ?) ON CONFLICT(series) DO UPDATE SET row = excluded.row`,
		string(series), string(data))
	return classifyErr(err)
}

// GetDataVersion reads the version row for series, or ok == false if absent.
func (s *Store) GetDataVersion(series dictmodel.Series) (dictmodel.DataVersionRow, bool, error) {
	db, err := s.conn()
	if err != nil {
		return dictmodel.DataVersionRow{}, false, err
	}
	var raw string
	err = db.QueryRow(`SELECT row FROM data_version WHERE series = ?`, string(series)).Scan(&raw)
	if err == sql.ErrNoRows {
		return dictmodel.DataVersionRow{}, false, nil
	}
	if err != nil {
		return dictmodel.DataVersionRow{}, false, classifyErr(err)
	}
	var dto versionRowDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return dictmodel.DataVersionRow{}, false, fmt.Errorf("sqlitestore: unmarshal version row: %w", err)
	}
	return fromDTO(dto), true, nil
}

// Destroy closes the database and deletes its file (plus WAL/SHM siblings).
func (s *Store) Destroy() error {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.mu.Unlock()

	if db != nil {
		if err := db.Close(); err != nil {
			return fmt.Errorf("sqlitestore: close: %w", err)
		}
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("sqlitestore: remove %s%s: %w", s.path, suffix, err)
		}
	}
	return nil
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("sqlitestore: store not open")
	}
	return s.db, nil
}

// extractID pulls the identifier field out of a full add/change record so it
// can be used as the table's primary key.
func extractID(series dictmodel.Series, record json.RawMessage) (any, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(record, &obj); err != nil {
		return nil, fmt.Errorf("record is not a JSON object: %w", err)
	}
	raw, ok := obj["id"]
	if !ok {
		return nil, fmt.Errorf("record missing id field")
	}
	return decodeID(series, raw)
}

func decodeID(series dictmodel.Series, raw json.RawMessage) (any, error) {
	if series == dictmodel.SeriesRadicals {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("radical id is not a string: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("id is not a number: %w", err)
	}
	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("id is not an integer: %w", err)
	}
	return i, nil
}

// classifyErr maps sqlite's generic disk-full error text to QuotaExceeded;
// there is no storage-estimate API to query server-side (the spec's
// browser-storage-estimate mechanism has no analogue here), so the driver's
// error text is the only available signal.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "sqlite_full") || strings.Contains(msg, "disk is full") || strings.Contains(msg, "database or disk is full") {
		return dictmodel.NewError(dictmodel.ErrQuotaExceeded, err)
	}
	return err
}
