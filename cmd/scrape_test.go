package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakupwatch/lotscan/internal/model"
	"github.com/zakupwatch/lotscan/internal/store"
)

func runRecord() store.RunRecord {
	now := time.Now().UTC()
	return store.RunRecord{
		StartPage:    1,
		PagesFetched: 1,
		StartedAt:    now.Add(-time.Second),
		FinishedAt:   now,
	}
}

func TestPersistRun_KeepsLotsAfterInterrupt(t *testing.T) {
	lots := []model.Lot{{LotID: "a", Amount: 1}, {LotID: "b", Amount: 2}}

	// An interrupt cancels the run context before the persist step; the
	// extracted lots must land in the store regardless.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("sqlite", func(t *testing.T) {
		st, err := store.NewSQLite(filepath.Join(t.TempDir(), "lots.db"), store.Options{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })

		added, err := persistRun(ctx, st, runRecord(), lots)
		require.NoError(t, err)
		assert.Equal(t, 2, added)

		n, err := st.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("csv", func(t *testing.T) {
		st, err := store.NewCSV(filepath.Join(t.TempDir(), "lots.csv"), store.Options{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })

		added, err := persistRun(ctx, st, runRecord(), lots)
		require.NoError(t, err)
		assert.Equal(t, 2, added)

		n, err := st.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestPersistRun_NoLotsIsNoop(t *testing.T) {
	st, err := store.NewCSV(filepath.Join(t.TempDir(), "lots.csv"), store.Options{})
	require.NoError(t, err)

	added, err := persistRun(context.Background(), st, runRecord(), nil)
	require.NoError(t, err)
	assert.Zero(t, added)
}
