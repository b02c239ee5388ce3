package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/shared"
	"github.com/champtrack/champtrack-hub/pkg/logger"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

var (
	_ document.Store      = (*DocumentRepository)(nil)
	_ document.Subscriber = (*DocumentRepository)(nil)
)

// DocumentRepository implements the document store on the documents table.
type DocumentRepository struct {
	conn  *Connection
	clock timeutil.Clock
	log   *logger.Logger
}

// NewDocumentRepository creates a repository on conn.
func NewDocumentRepository(conn *Connection, log *logger.Logger) *DocumentRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentRepository{conn: conn, clock: timeutil.SystemClock(), log: log.Named("postgres")}
}

const upsertDocument = `
	INSERT INTO documents (family_id, collection, id, body, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (family_id, collection, id)
	DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`

// Save writes the whole document, replacing any stored body.
func (r *DocumentRepository) Save(ctx context.Context, doc document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	at := doc.UpdatedAt
	if at.IsZero() {
		at = r.clock()
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()
	_, err := r.conn.Exec(ctx, upsertDocument, doc.FamilyID, string(doc.Collection), doc.ID, []byte(doc.Body), at)
	return classify("Save", err)
}

// Update merges top-level fields into the stored body with jsonb ||.
func (r *DocumentRepository) Update(ctx context.Context, ref document.Ref, fields map[string]any) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return shared.WrapError("postgres", "Update", shared.ErrInvalidInput, ref.String(), err)
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()
	tag, err := r.conn.Exec(ctx, `
		UPDATE documents SET body = body || $4::jsonb, updated_at = $5
		WHERE family_id = $1 AND collection = $2 AND id = $3`,
		ref.FamilyID, string(ref.Collection), ref.ID, patch, r.clock())
	if err != nil {
		return classify("Update", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.WrapError("postgres", "Update", shared.ErrNotFound, ref.String(), shared.ErrDocumentNotFound)
	}
	return nil
}

// Delete removes the document; a missing one is not an error.
func (r *DocumentRepository) Delete(ctx context.Context, ref document.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()
	_, err := r.conn.Exec(ctx,
		`DELETE FROM documents WHERE family_id = $1 AND collection = $2 AND id = $3`,
		ref.FamilyID, string(ref.Collection), ref.ID)
	return classify("Delete", err)
}

// LoadFamily reads every document of the family.
func (r *DocumentRepository) LoadFamily(ctx context.Context, familyID string) ([]document.Document, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()
	return r.load(ctx, r.conn, familyID)
}

func (r *DocumentRepository) load(ctx context.Context, q Querier, familyID string) ([]document.Document, error) {
	rows, err := q.Query(ctx,
		`SELECT collection, id, body, updated_at FROM documents WHERE family_id = $1`, familyID)
	if err != nil {
		return nil, classify("LoadFamily", err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (document.Document, error) {
		var (
			coll string
			d    document.Document
			body []byte
		)
		if err := row.Scan(&coll, &d.ID, &body, &d.UpdatedAt); err != nil {
			return d, err
		}
		d.Collection = document.Collection(coll)
		d.FamilyID = familyID
		d.Body = body
		return d, nil
	})
	if err != nil {
		return nil, classify("LoadFamily", err)
	}
	document.Sort(docs)
	return docs, nil
}

// SaveAll writes docs in one transaction.
func (r *DocumentRepository) SaveAll(ctx context.Context, docs []document.Document) error {
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	now := r.clock()
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, d := range docs {
			at := d.UpdatedAt
			if at.IsZero() {
				at = now
			}
			batch.Queue(upsertDocument, d.FamilyID, string(d.Collection), d.ID, []byte(d.Body), at)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	return classify("SaveAll", err)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Subscribe holds one pooled connection listening on the notify channel and
// reloads the family whenever one of its documents changes. The current
// snapshot is delivered first; a slow reader only sees the latest one.
func (r *DocumentRepository) Subscribe(ctx context.Context, familyID string) (<-chan []document.Document, error) {
	if familyID == "" {
		return nil, shared.ErrMissingFamilyID
	}
	pool := r.conn.Pool()
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, classify("Subscribe", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		conn.Release()
		return nil, classify("Subscribe", err)
	}

	out := make(chan []document.Document, 1)
	log := r.log.With(logger.FamilyID(familyID))

	go func() {
		defer close(out)
		defer func() {
			// the session still listens; drop it rather than return it to the pool
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}()

		push := func() bool {
			docs, err := r.load(ctx, conn, familyID)
			if err != nil {
				log.Warn("reload family", logger.Err(err))
				return ctx.Err() == nil
			}
			select {
			case <-out:
			default:
			}
			out <- docs
			return true
		}

		if !push() {
			return
		}
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error("listen stopped", logger.Err(err))
				}
				return
			}
			if n.Payload != familyID {
				continue
			}
			if !push() {
				return
			}
		}
	}()
	return out, nil
}

// Count returns the number of stored documents per collection for a family.
func (r *DocumentRepository) Count(ctx context.Context, familyID string) (map[document.Collection]int, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT collection, count(*) FROM documents WHERE family_id = $1 GROUP BY collection`, familyID)
	if err != nil {
		return nil, classify("Count", err)
	}
	defer rows.Close()

	out := make(map[document.Collection]int)
	for rows.Next() {
		var coll string
		var n int
		if err := rows.Scan(&coll, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[document.Collection(coll)] = n
	}
	return out, rows.Err()
}
