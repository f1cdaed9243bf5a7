package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-atlas/atlas-cli/internal/directory"
	"github.com/civic-atlas/atlas-cli/pkg/feedback"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func ptr(f float64) *float64 { return &f }

func testSnapshotData() ([]directory.Place, []directory.TagDefinition) {
	places := []directory.Place{
		{
			Organization: "Boston Public Library",
			Office:       "Central Branch",
			Address:      "700 Boylston St",
			Latitude:     ptr(42.3493), Longitude: ptr(-71.0781),
			Category:    "Library",
			ServiceTags: []string{"esol_classes"},
		},
		{Organization: "Community Fridge", Address: "5 Oak St"},
	}
	tags := []directory.TagDefinition{
		{ID: "esol_classes", DisplayName: "ESOL Classes"},
	}
	return places, tags
}

func TestSQLite_SnapshotRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	places, tags := testSnapshotData()
	require.NoError(t, s.SaveSnapshot(ctx, places, tags))

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, places, snap.Places)
	assert.Equal(t, tags, snap.Tags)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestSQLite_SaveSnapshotReplaces(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	places, tags := testSnapshotData()
	require.NoError(t, s.SaveSnapshot(ctx, places, tags))
	require.NoError(t, s.SaveSnapshot(ctx, places[:1], tags))

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Places, 1)
}

func TestSQLite_LoadSnapshotEmpty(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.LoadSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSQLite_Preferences(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, found, err := s.GetPreference(ctx, directory.SidebarWidthPref)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetPreference(ctx, directory.SidebarWidthPref, 420))
	v, found, err := s.GetPreference(ctx, directory.SidebarWidthPref)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 420.0, v)

	// Upsert.
	require.NoError(t, s.SetPreference(ctx, directory.SidebarWidthPref, 300))
	v, _, err = s.GetPreference(ctx, directory.SidebarWidthPref)
	require.NoError(t, err)
	assert.Equal(t, 300.0, v)
}

func TestSQLite_FeedbackOutbox(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rec := feedback.Record{
		Category: feedback.CategoryCorrection,
		Name:     "Alex",
		Email:    "alex@example.org",
		Comment:  "The library closes at 5 on Saturdays now.",
	}
	id, err := s.EnqueueFeedback(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	items, err := s.ListPendingFeedback(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, rec, items[0].Record)
	assert.Equal(t, OutboxPending, items[0].Status)
	assert.False(t, items[0].CreatedAt.IsZero())

	require.NoError(t, s.MarkFeedbackForwarded(ctx, id))
	items, err = s.ListPendingFeedback(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSQLite_MarkFeedbackForwardedUnknownID(t *testing.T) {
	s := newTestSQLite(t)
	assert.Error(t, s.MarkFeedbackForwarded(context.Background(), "missing"))
}

func TestSQLite_ListPendingFeedbackDefaultLimit(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.EnqueueFeedback(ctx, feedback.Record{
			Category: feedback.CategoryOther,
			Name:     "N",
			Email:    "n@example.org",
			Comment:  "c",
		})
		require.NoError(t, err)
	}

	items, err := s.ListPendingFeedback(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = s.ListPendingFeedback(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
