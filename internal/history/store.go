// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists completed acquisitions in SQLite so that content
// already fetched is not downloaded again.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

// DefaultFile is the history database name used when only a directory is known.
const DefaultFile = "libgen-fetch.db"

const defaultListLimit = 50

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the acquisition history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path and its schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS acquisitions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			md5 TEXT,
			path TEXT NOT NULL,
			source_url TEXT,
			transfer_url TEXT,
			title TEXT,
			extension TEXT,
			size INTEGER,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_acquisitions_md5 ON acquisitions(md5) WHERE md5 <> ''`,
		`CREATE INDEX IF NOT EXISTS idx_acquisitions_fetched_at ON acquisitions(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores rec. A record with the same content hash replaces the
// previous one.
func (s *Store) Record(ctx context.Context, rec types.AcquisitionRecord) error {
	if rec.Path == "" {
		return fmt.Errorf("recording acquisition: path is empty")
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
	}
	md5 := strings.ToLower(strings.TrimSpace(rec.MD5))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if md5 != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM acquisitions WHERE md5 = ?`, md5); err != nil {
			return fmt.Errorf("replacing record: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO acquisitions (md5, path, source_url, transfer_url, title, extension, size, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		md5, rec.Path, rec.SourceURL, rec.TransferURL, rec.Title, rec.Extension, rec.Size,
		rec.FetchedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return tx.Commit()
}

// Lookup returns the record for a content hash, or nil when none exists.
func (s *Store) Lookup(ctx context.Context, md5 string) (*types.AcquisitionRecord, error) {
	md5 = strings.ToLower(strings.TrimSpace(md5))
	if md5 == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE md5 = ?`, md5)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", md5, err)
	}
	return rec, nil
}

// Fetched reports whether md5 was acquired before and its file still
// exists on disk. The record is returned when it does.
func (s *Store) Fetched(ctx context.Context, md5 string) (*types.AcquisitionRecord, bool, error) {
	rec, err := s.Lookup(ctx, md5)
	if err != nil || rec == nil {
		return nil, false, err
	}
	if _, err := os.Stat(rec.Path); err != nil {
		return rec, false, nil
	}
	return rec, true, nil
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]types.AcquisitionRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY fetched_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []types.AcquisitionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Prune deletes records whose files no longer exist and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rowid, path FROM acquisitions`)
	if err != nil {
		return 0, fmt.Errorf("listing history: %w", err)
	}
	var stale []int64
	for rows.Next() {
		var (
			id   int64
			path string
		)
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning history row: %w", err)
		}
		if _, err := os.Stat(path); err != nil {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for i, id := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM acquisitions WHERE rowid = ?`, id); err != nil {
			return i, fmt.Errorf("pruning record %d: %w", id, err)
		}
	}
	return len(stale), nil
}

// ExportYAML writes the most recent records to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	recs, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the most recent records to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) error {
	recs, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []types.AcquisitionRecord{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

const selectColumns = `SELECT md5, path, source_url, transfer_url, title, extension, size, fetched_at FROM acquisitions`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*types.AcquisitionRecord, error) {
	var (
		rec       types.AcquisitionRecord
		md5       sql.NullString
		sourceURL sql.NullString
		transfer  sql.NullString
		title     sql.NullString
		ext       sql.NullString
		size      sql.NullInt64
		fetchedAt string
	)
	if err := sc.Scan(&md5, &rec.Path, &sourceURL, &transfer, &title, &ext, &size, &fetchedAt); err != nil {
		return nil, err
	}
	rec.MD5 = md5.String
	rec.SourceURL = sourceURL.String
	rec.TransferURL = transfer.String
	rec.Title = title.String
	rec.Extension = ext.String
	rec.Size = size.Int64
	if t, err := time.Parse(timeLayout, fetchedAt); err == nil {
		rec.FetchedAt = t
	}
	return &rec, nil
}
