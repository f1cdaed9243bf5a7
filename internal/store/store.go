// Package store persists the three things the directory keeps beyond a
// render: dataset snapshots, UI preferences, and a feedback outbox for
// submissions that could not be forwarded.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/civic-atlas/atlas-cli/internal/directory"
	"github.com/civic-atlas/atlas-cli/pkg/feedback"
)

// OutboxStatus tracks a parked feedback record.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxForwarded OutboxStatus = "forwarded"
)

// OutboxItem is one parked feedback submission.
type OutboxItem struct {
	ID        string          `json:"id"`
	Record    feedback.Record `json:"record"`
	Status    OutboxStatus    `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot is a persisted copy of the loaded dataset, so the CLI can query
// without re-fetching the sources.
type Snapshot struct {
	Places   []directory.Place         `json:"places"`
	Tags     []directory.TagDefinition `json:"tags"`
	LoadedAt time.Time                 `json:"loaded_at"`
}

// Store is the persistence interface. It is satisfied by the SQLite and
// Postgres drivers, selected via config.
type Store interface {
	// Snapshot
	SaveSnapshot(ctx context.Context, places []directory.Place, tags []directory.TagDefinition) error
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	// Preferences
	GetPreference(ctx context.Context, name string) (float64, bool, error)
	SetPreference(ctx context.Context, name string, value float64) error

	// Feedback outbox
	EnqueueFeedback(ctx context.Context, rec feedback.Record) (string, error)
	ListPendingFeedback(ctx context.Context, limit int) ([]OutboxItem, error)
	MarkFeedbackForwarded(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been saved yet.
var ErrNoSnapshot = eris.New("store: no snapshot")

// Compile-time driver checks.
var (
	_ Store                     = (*SQLiteStore)(nil)
	_ Store                     = (*PostgresStore)(nil)
	_ directory.PreferenceStore = (*SQLiteStore)(nil)
	_ directory.PreferenceStore = (*PostgresStore)(nil)
)
