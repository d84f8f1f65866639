package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iD01t/CryptoPulse/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndRecallAlerts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := s.SaveAlert(ctx, models.AlertEvent{
			Kind:       models.AlertPriceDrop,
			Message:    "BTC dropped",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	events, err := s.RecentAlerts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.AlertPriceDrop, events[0].Kind)
	assert.True(t, events[0].OccurredAt.After(events[1].OccurredAt), "newest first")
}

func TestRecentAlertsEmptyArchive(t *testing.T) {
	s := newTestStore(t)
	events, err := s.RecentAlerts(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSaveStatsSnapshot(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveStatsSnapshot(context.Background(), StatsSnapshot{
		TotalAttempts: 10,
		Successes:     8,
		Failures:      1,
		Debounced:     5,
		Forced:        2,
		TakenAt:       time.Now(),
	})
	assert.NoError(t, err)
}

func TestLatestStatsSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveStatsSnapshot(ctx, StatsSnapshot{
		TotalAttempts: 5, Successes: 5, TakenAt: base,
	}))
	require.NoError(t, s.SaveStatsSnapshot(ctx, StatsSnapshot{
		TotalAttempts: 12, Successes: 9, Failures: 3, TakenAt: base.Add(time.Hour),
	}))

	snap, err := s.LatestStatsSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(12), snap.TotalAttempts, "most recent snapshot wins")
	assert.Equal(t, uint64(3), snap.Failures)
}

func TestLatestStatsSnapshotEmpty(t *testing.T) {
	s := newTestStore(t)
	snap, err := s.LatestStatsSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}
