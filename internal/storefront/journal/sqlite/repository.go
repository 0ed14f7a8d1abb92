// Package sqlite provides a SQLite-backed implementation of journal.Repository.
//
// WAL mode is enabled on Open so that the dispatcher can append while the
// gateway reads an order's history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/storefront-orders/internal/storefront/journal"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS command_journal (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id        TEXT        NOT NULL,
    command         TEXT        NOT NULL,
    operation       TEXT        NOT NULL DEFAULT '',
    outcome         TEXT        NOT NULL,
    error_kind      TEXT        NOT NULL DEFAULT '',
    message         TEXT        NOT NULL DEFAULT '',
    idempotency_key TEXT        NOT NULL DEFAULT '',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    recorded_at     TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_command_journal_order ON command_journal(order_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_command_journal_trace ON command_journal(trace_id);
`

// Repository is the SQLite implementation of journal.Repository.
type Repository struct {
	db *sql.DB
}

var (
	_ journal.Repository = (*Repository)(nil)
	_ journal.Reader     = (*Repository)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/journal.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends an entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, e *journal.Entry) error {
	const q = `
		INSERT INTO command_journal
			(order_id, command, operation, outcome, error_kind, message, idempotency_key, trace_id, span_id, recorded_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		e.OrderID,
		e.Command,
		e.Operation,
		string(e.Outcome),
		e.ErrorKind,
		e.Message,
		e.IdempotencyKey,
		e.TraceID,
		e.SpanID,
		formatTime(e.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save journal entry for %q: %w", e.OrderID, err)
	}
	return nil
}

// ListByOrder returns the entries of one order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID string) ([]journal.Entry, error) {
	const q = `
		SELECT order_id, command, operation, outcome, error_kind, message,
		       idempotency_key, trace_id, span_id, recorded_at
		FROM   command_journal
		WHERE  order_id = ?
		ORDER  BY recorded_at, id`

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list journal for %q: %w", orderID, err)
	}
	defer rows.Close()

	var out []journal.Entry
	for rows.Next() {
		var e journal.Entry
		var recordedAt string
		if err := rows.Scan(
			&e.OrderID,
			&e.Command,
			&e.Operation,
			&e.Outcome,
			&e.ErrorKind,
			&e.Message,
			&e.IdempotencyKey,
			&e.TraceID,
			&e.SpanID,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan journal row: %w", err)
		}
		if e.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list journal for %q: %w", orderID, err)
	}
	return out, nil
}
