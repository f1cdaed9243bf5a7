package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/civic-atlas/atlas-cli/internal/directory"
	"github.com/civic-atlas/atlas-cli/pkg/feedback"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	places    TEXT NOT NULL,
	tags      TEXT NOT NULL,
	loaded_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS preferences (
	name       TEXT PRIMARY KEY,
	value      REAL NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS feedback_outbox (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	comment    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_feedback_outbox_status ON feedback_outbox(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the single dataset snapshot.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, places []directory.Place, tags []directory.TagDefinition) error {
	placesJSON, err := json.Marshal(places)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode places")
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode tags")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, places, tags, loaded_at) VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET places = excluded.places, tags = excluded.tags, loaded_at = excluded.loaded_at`,
		string(placesJSON), string(tagsJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save snapshot")
}

// LoadSnapshot returns the saved dataset, or ErrNoSnapshot.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		placesJSON string
		tagsJSON   string
		loadedAt   time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT places, tags, loaded_at FROM snapshots WHERE id = 1`,
	).Scan(&placesJSON, &tagsJSON, &loadedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, eris.Wrap(err, "sqlite: load snapshot")
	}

	snap := &Snapshot{LoadedAt: loadedAt}
	if err := json.Unmarshal([]byte(placesJSON), &snap.Places); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode places")
	}
	if err := json.Unmarshal([]byte(tagsJSON), &snap.Tags); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode tags")
	}
	return snap, nil
}

func (s *SQLiteStore) GetPreference(ctx context.Context, name string) (float64, bool, error) {
	var value float64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE name = ?`, name).Scan(&value)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, eris.Wrap(err, "sqlite: get preference")
	}
	return value, true, nil
}

func (s *SQLiteStore) SetPreference(ctx context.Context, name string, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: set preference")
}

func (s *SQLiteStore) EnqueueFeedback(ctx context.Context, rec feedback.Record) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_outbox (id, category, name, email, comment, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Category, rec.Name, rec.Email, rec.Comment, string(OutboxPending), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: enqueue feedback")
	}
	return id, nil
}

func (s *SQLiteStore) ListPendingFeedback(ctx context.Context, limit int) ([]OutboxItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, name, email, comment, status, created_at
		FROM feedback_outbox WHERE status = ? ORDER BY created_at LIMIT ?`,
		string(OutboxPending), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pending feedback")
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
			return nil, eris.Wrap(err, "sqlite: scan outbox row")
		}
		item.Status = OutboxStatus(status)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate outbox rows")
	}
	return items, nil
}

func (s *SQLiteStore) MarkFeedbackForwarded(ctx context.Context, id string) error {
	tag, err := s.db.ExecContext(ctx,
		`UPDATE feedback_outbox SET status = ? WHERE id = ?`,
		string(OutboxForwarded), id,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: mark feedback forwarded")
	}
	if n, err := tag.RowsAffected(); err == nil && n == 0 {
		return eris.Errorf("sqlite: outbox item %s not found", id)
	}
	return nil
}
