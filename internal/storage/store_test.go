package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civitrack/fieldops/internal/api"
	"github.com/civitrack/fieldops/internal/task"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sample(id string, status task.Status) *task.Task {
	return &task.Task{
		ID:                id,
		ReportID:          "REP-" + id,
		Title:             "Pothole on Elm Street",
		Status:            status,
		AssignedOfficerID: "OFF-204",
		AssignedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.SaveSnapshot(sample("RPT-1", task.StatusAssigned)))

	got, err := s.LoadSnapshot("RPT-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "RPT-1", got.ID)
	assert.Equal(t, task.StatusAssigned, got.Status)
	assert.Equal(t, "OFF-204", got.AssignedOfficerID)
}

func TestLoadSnapshotAbsent(t *testing.T) {
	s := newStore(t)
	got, err := s.LoadSnapshot("RPT-404")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveSnapshotReplaces(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SaveSnapshot(sample("RPT-1", task.StatusAssigned)))
	require.NoError(t, s.SaveSnapshot(sample("RPT-1", task.StatusInProgress)))

	got, err := s.LoadSnapshot("RPT-1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, got.Status)

	all, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteSnapshot(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SaveSnapshot(sample("RPT-1", task.StatusAssigned)))
	require.NoError(t, s.SaveHistory("RPT-1", []api.HistoryEntry{
		{Status: task.StatusAssigned, CreatedAt: time.Now()},
	}))

	require.NoError(t, s.DeleteSnapshot("RPT-1"))

	got, err := s.LoadSnapshot("RPT-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	hist, err := s.LoadHistory("RPT-1")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestHistoryRoundTrip(t *testing.T) {
	s := newStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	entries := []api.HistoryEntry{
		{Status: task.StatusAssigned, ChangedBy: "dispatcher", CreatedAt: now.Add(-time.Hour)},
		{Status: task.StatusAcknowledged, ChangedBy: "officer", CreatedAt: now},
		{Status: task.StatusInProgress, Note: "started digging", ChangedBy: "officer", CreatedAt: now},
	}
	require.NoError(t, s.SaveHistory("RPT-1", entries))

	got, err := s.LoadHistory("RPT-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, task.StatusAssigned, got[0].Status)
	assert.Equal(t, "started digging", got[2].Note)
	assert.True(t, got[1].CreatedAt.Equal(now))

	// Saving again replaces, never appends.
	require.NoError(t, s.SaveHistory("RPT-1", entries[:1]))
	got, err = s.LoadHistory("RPT-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRefreshSavesSnapshot(t *testing.T) {
	s := newStore(t)
	fetched := sample("RPT-1", task.StatusAcknowledged)

	got, err := s.Refresh(context.Background(), "RPT-1", func(ctx context.Context, id string) (*task.Task, error) {
		return fetched, nil
	})
	require.NoError(t, err)
	assert.Equal(t, task.StatusAcknowledged, got.Status)

	cached, err := s.LoadSnapshot("RPT-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, task.StatusAcknowledged, cached.Status)
}

func TestRefreshErrorLeavesCacheAlone(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SaveSnapshot(sample("RPT-1", task.StatusAssigned)))

	_, err := s.Refresh(context.Background(), "RPT-1", func(ctx context.Context, id string) (*task.Task, error) {
		return nil, errors.New("backend unreachable")
	})
	require.Error(t, err)

	cached, err := s.LoadSnapshot("RPT-1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusAssigned, cached.Status)
}

func TestRefreshDeduplicatesConcurrentFetches(t *testing.T) {
	s := newStore(t)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context, id string) (*task.Task, error) {
		calls.Add(1)
		<-release
		return sample(id, task.StatusInProgress), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Refresh(context.Background(), "RPT-1", fetch)
			assert.NoError(t, err)
		}()
	}
	// Let the goroutines pile onto the singleflight group.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent refreshes should share one fetch")
}
