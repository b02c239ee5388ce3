// Package sqlite keeps family documents in a local SQLite file. It is the
// single-device backend used when no PostgreSQL URL is configured.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/retry"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

var _ document.Store = (*DocumentStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	family_id  TEXT NOT NULL,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (family_id, collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_family ON documents(family_id);
`

// DocumentStore implements document.Store on database/sql.
type DocumentStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the database file and ensures the schema.
func Open(cfg config.SQLiteConfig) (*DocumentStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	// one writer; readers share the WAL
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &DocumentStore{db: db, clock: timeutil.SystemClock()}, nil
}

func (s *DocumentStore) Close() error { return s.db.Close() }

func (s *DocumentStore) Save(ctx context.Context, doc document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	at := doc.UpdatedAt
	if at.IsZero() {
		at = s.clock()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (family_id, collection, id, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (family_id, collection, id)
		DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		doc.FamilyID, string(doc.Collection), doc.ID, string(doc.Body), at.UTC().Format(time.RFC3339Nano))
	return classify("Save", err)
}

// Update reads, merges and writes back inside one transaction. The JSON1
// json_patch function drops null members, so the merge happens here.
func (s *DocumentStore) Update(ctx context.Context, ref document.Ref, fields map[string]any) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("Update", err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE family_id = ? AND collection = ? AND id = ?`,
		ref.FamilyID, string(ref.Collection), ref.ID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return shared.WrapError("sqlite", "Update", shared.ErrNotFound, ref.String(), shared.ErrDocumentNotFound)
	}
	if err != nil {
		return classify("Update", err)
	}

	merged, err := document.MergePatch([]byte(body), fields)
	if err != nil {
		return shared.WrapError("sqlite", "Update", shared.ErrInvalidInput, ref.String(), err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE family_id = ? AND collection = ? AND id = ?`,
		string(merged), s.clock().UTC().Format(time.RFC3339Nano), ref.FamilyID, string(ref.Collection), ref.ID); err != nil {
		return classify("Update", err)
	}
	return classify("Update", tx.Commit())
}

func (s *DocumentStore) Delete(ctx context.Context, ref document.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE family_id = ? AND collection = ? AND id = ?`,
		ref.FamilyID, string(ref.Collection), ref.ID)
	return classify("Delete", err)
}

func (s *DocumentStore) LoadFamily(ctx context.Context, familyID string) ([]document.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT collection, id, body, updated_at FROM documents WHERE family_id = ?`, familyID)
	if err != nil {
		return nil, classify("LoadFamily", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		var coll, id, body, at string
		if err := rows.Scan(&coll, &id, &body, &at); err != nil {
			return nil, fmt.Errorf("sqlite: scan document: %w", err)
		}
		updated, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %s/%s updated_at: %w", coll, id, err)
		}
		docs = append(docs, document.Document{
			Ref:       document.Ref{Collection: document.Collection(coll), ID: id, FamilyID: familyID},
			Body:      []byte(body),
			UpdatedAt: updated,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("LoadFamily", err)
	}
	document.Sort(docs)
	return docs, nil
}

// classify marks busy and locked databases as retryable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && (sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked) {
		return retry.Retryable(shared.WrapError("sqlite", op, shared.ErrServiceUnavailable, "database busy", err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return retry.Retryable(shared.WrapError("sqlite", op, shared.ErrTimeout, "timed out", err))
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return shared.WrapError("sqlite", op, shared.ErrExternalService, "query failed", err)
}
