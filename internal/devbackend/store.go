// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package devbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS record_sections (
	resource   TEXT NOT NULL,
	record_id  TEXT NOT NULL,
	section    TEXT NOT NULL,
	body       TEXT NOT NULL,
	request_id TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL,
	PRIMARY KEY (resource, record_id, section)
);

CREATE TABLE IF NOT EXISTS updates (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	resource    TEXT NOT NULL,
	record_id   TEXT NOT NULL,
	section     TEXT NOT NULL,
	request_id  TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL,
	received_at TEXT NOT NULL
);
`

// Update is one accepted section write.
type Update struct {
	ID         int64  `db:"id" json:"id"`
	Resource   string `db:"resource" json:"resource"`
	RecordID   string `db:"record_id" json:"record_id"`
	Section    string `db:"section" json:"section"`
	RequestID  string `db:"request_id" json:"request_id"`
	Body       string `db:"body" json:"body"`
	ReceivedAt string `db:"received_at" json:"received_at"`
}

type sectionRow struct {
	Section string `db:"section"`
	Body    string `db:"body"`
}

// Store persists records section by section in SQLite.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenStore opens or creates the database at path. ":memory:" is accepted.
func OpenStore(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = path
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Patch replaces the given sections of a record and leaves the rest alone.
func (s *Store) Patch(ctx context.Context, resource, recordID, requestID string, sections map[string]json.RawMessage) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ts := s.now().UTC().Format(time.RFC3339Nano)
	for section, body := range sections {
		u := Update{
			Resource:   resource,
			RecordID:   recordID,
			Section:    section,
			RequestID:  requestID,
			Body:       string(body),
			ReceivedAt: ts,
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO record_sections (resource, record_id, section, body, request_id, updated_at)
			VALUES (:resource, :record_id, :section, :body, :request_id, :received_at)
			ON CONFLICT(resource, record_id, section) DO UPDATE SET
				body = excluded.body,
				request_id = excluded.request_id,
				updated_at = excluded.updated_at`, u); err != nil {
			return fmt.Errorf("upsert %s: %w", section, err)
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO updates (resource, record_id, section, request_id, body, received_at)
			VALUES (:resource, :record_id, :section, :request_id, :body, :received_at)`, u); err != nil {
			return fmt.Errorf("record update %s: %w", section, err)
		}
	}
	return tx.Commit()
}

// Get returns every stored section of a record. A record never written
// returns an empty map.
func (s *Store) Get(ctx context.Context, resource, recordID string) (map[string]json.RawMessage, error) {
	var rows []sectionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT section, body FROM record_sections WHERE resource = ? AND record_id = ? ORDER BY section`,
		resource, recordID); err != nil {
		return nil, fmt.Errorf("select record: %w", err)
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, r := range rows {
		out[r.Section] = json.RawMessage(r.Body)
	}
	return out, nil
}

// History returns accepted updates of a record, oldest first.
func (s *Store) History(ctx context.Context, resource, recordID string) ([]Update, error) {
	var out []Update
	if err := s.db.SelectContext(ctx, &out,
		`SELECT id, resource, record_id, section, request_id, body, received_at
		 FROM updates WHERE resource = ? AND record_id = ? ORDER BY id`,
		resource, recordID); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return out, nil
}
