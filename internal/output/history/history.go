// Package history keeps a queryable record of delivered envelopes in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/crimson-sun/runlog/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS envelopes (
	id            TEXT PRIMARY KEY,
	spec          TEXT NOT NULL,
	test          TEXT NOT NULL,
	state         TEXT NOT NULL DEFAULT '',
	level         INTEGER NOT NULL DEFAULT 0,
	is_hook       INTEGER NOT NULL DEFAULT 0,
	continuous    INTEGER NOT NULL DEFAULT 0,
	file_messages TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS envelopes_spec_created ON envelopes (spec, created_at);
`

// Row is one stored envelope.
type Row struct {
	ID           string
	Spec         string
	Test         string
	State        model.State
	Level        int
	IsHook       bool
	Continuous   bool
	FileMessages []model.LogEntry
	CreatedAt    time.Time
}

// Output stores each envelope's file messages as a row.
type Output struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the history database at path.
func Open(ctx context.Context, path string) (*Output, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Output{db: db, now: time.Now}, nil
}

// Write inserts env.
func (o *Output) Write(ctx context.Context, env model.Envelope) error {
	msgs, err := json.Marshal(env.FileMessages)
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	_, err = o.db.ExecContext(ctx,
		`INSERT INTO envelopes (id, spec, test, state, level, is_hook, continuous, file_messages, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), env.Spec, env.Test, string(env.State), env.Level,
		env.IsHook, env.Continuous, string(msgs), o.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit rows for spec, newest first. An empty spec
// matches every spec.
func (o *Output) Recent(ctx context.Context, spec string, limit int) ([]Row, error) {
	rows, err := o.db.QueryContext(ctx,
		`SELECT id, spec, test, state, level, is_hook, continuous, file_messages, created_at
		 FROM envelopes
		 WHERE (? = '' OR spec = ?)
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		spec, spec, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			state   string
			msgs    string
			created string
		)
		if err := rows.Scan(&r.ID, &r.Spec, &r.Test, &state, &r.Level, &r.IsHook, &r.Continuous, &msgs, &created); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.State = model.State(state)
		if err := json.Unmarshal([]byte(msgs), &r.FileMessages); err != nil {
			return nil, fmt.Errorf("history: decode messages: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("history: parse time: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (o *Output) Close() error {
	return o.db.Close()
}
