package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/civic-atlas/atlas-cli/internal/directory"
	"github.com/civic-atlas/atlas-cli/pkg/feedback"
)

// Pool is the subset of pgxpool.Pool the Postgres driver uses. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	places    JSONB NOT NULL,
	tags      JSONB NOT NULL,
	loaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS preferences (
	name       TEXT PRIMARY KEY,
	value      DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS feedback_outbox (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	comment    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_feedback_outbox_status ON feedback_outbox(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, places []directory.Place, tags []directory.TagDefinition) error {
	placesJSON, err := json.Marshal(places)
	if err != nil {
		return eris.Wrap(err, "postgres: encode places")
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return eris.Wrap(err, "postgres: encode tags")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO snapshots (id, places, tags, loaded_at) VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET places = EXCLUDED.places, tags = EXCLUDED.tags, loaded_at = EXCLUDED.loaded_at`,
		placesJSON, tagsJSON, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: save snapshot")
}

func (s *PostgresStore) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		placesJSON []byte
		tagsJSON   []byte
		loadedAt   time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT places, tags, loaded_at FROM snapshots WHERE id = 1`,
	).Scan(&placesJSON, &tagsJSON, &loadedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, eris.Wrap(err, "postgres: load snapshot")
	}

	snap := &Snapshot{LoadedAt: loadedAt}
	if err := json.Unmarshal(placesJSON, &snap.Places); err != nil {
		return nil, eris.Wrap(err, "postgres: decode places")
	}
	if err := json.Unmarshal(tagsJSON, &snap.Tags); err != nil {
		return nil, eris.Wrap(err, "postgres: decode tags")
	}
	return snap, nil
}

func (s *PostgresStore) GetPreference(ctx context.Context, name string) (float64, bool, error) {
	var value float64
	err := s.pool.QueryRow(ctx, `SELECT value FROM preferences WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, eris.Wrap(err, "postgres: get preference")
	}
	return value, true, nil
}

func (s *PostgresStore) SetPreference(ctx context.Context, name string, value float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO preferences (name, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		name, value, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: set preference")
}

func (s *PostgresStore) EnqueueFeedback(ctx context.Context, rec feedback.Record) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback_outbox (id, category, name, email, comment, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, rec.Category, rec.Name, rec.Email, rec.Comment, string(OutboxPending), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: enqueue feedback")
	}
	return id, nil
}

func (s *PostgresStore) ListPendingFeedback(ctx context.Context, limit int) ([]OutboxItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, category, name, email, comment, status, created_at
		FROM feedback_outbox WHERE status = $1 ORDER BY created_at LIMIT $2`,
		string(OutboxPending), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pending feedback")
	}
	defer rows.Close()

	var items []OutboxItem
	for rows.Next() {
		var item OutboxItem
		var status string
		if err := rows.Scan(
			&item.ID, &item.Record.Category, &item.Record.Name,
			&item.Record.Email, &item.Record.Comment, &status, &item.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outbox row")
		}
		item.Status = OutboxStatus(status)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate outbox rows")
	}
	return items, nil
}

func (s *PostgresStore) MarkFeedbackForwarded(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE feedback_outbox SET status = $1 WHERE id = $2`,
		string(OutboxForwarded), id,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: mark feedback forwarded")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: outbox item %s not found", id)
	}
	return nil
}
