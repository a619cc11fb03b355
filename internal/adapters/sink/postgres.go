package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	createSnapshotsTable = `CREATE TABLE IF NOT EXISTS dashboard_snapshots (
	run_id       UUID PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	document     JSONB NOT NULL
)`
	insertSnapshot = `INSERT INTO dashboard_snapshots (run_id, generated_at, document)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (run_id) DO UPDATE SET generated_at = EXCLUDED.generated_at, document = EXCLUDED.document`
)

// Execer is the part of a pgx pool or connection the sink uses.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres appends every document to a jsonb history table.
type Postgres struct {
	db Execer
}

// NewPostgres creates a Postgres sink.
func NewPostgres(db Execer) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the snapshot table when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("create dashboard_snapshots: %w", err)
	}
	return nil
}

// Name identifies the sink in logs and metrics.
func (p *Postgres) Name() string { return "postgres" }

// Write stores the document keyed by run id.
func (p *Postgres) Write(ctx context.Context, doc []byte, meta Meta) error {
	if _, err := p.db.Exec(ctx, insertSnapshot, meta.RunID, meta.GeneratedAt.UTC(), string(doc)); err != nil {
		return fmt.Errorf("%w: postgres: %w", ErrWrite, err)
	}
	return nil
}
