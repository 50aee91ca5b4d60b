package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakupwatch/lotscan/internal/model"
)

func sampleLots(ids ...string) []model.Lot {
	lots := make([]model.Lot, 0, len(ids))
	for _, id := range ids {
		lots = append(lots, model.Lot{
			LotID:        id,
			Announcement: "Announcement " + id,
			Customer:     "Customer",
			Subject:      "Subject, with comma",
			SubjectLink:  "/lot/" + id,
			Quantity:     2,
			Amount:       1234.56,
			PurchaseType: "Tender",
			Status:       "Published",
		})
	}
	return lots
}

// backends runs f against every Store implementation.
func backends(t *testing.T, opts Options, f func(t *testing.T, open func(t *testing.T) Store)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) {
		f(t, func(t *testing.T) Store {
			st, err := NewSQLite(filepath.Join(t.TempDir(), "lots.db"), opts)
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })
			return st
		})
	})
	t.Run("csv", func(t *testing.T) {
		f(t, func(t *testing.T) Store {
			st, err := NewCSV(filepath.Join(t.TempDir(), "lots.csv"), opts)
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })
			return st
		})
	})
}

func TestAppendAndCount(t *testing.T) {
	backends(t, Options{}, func(t *testing.T, open func(t *testing.T) Store) {
		st := open(t)
		ctx := context.Background()

		added, err := st.Append(ctx, sampleLots("a", "b"))
		require.NoError(t, err)
		assert.Equal(t, 2, added)

		// Without dedup the same batch grows the store again.
		added, err = st.Append(ctx, sampleLots("a", "b"))
		require.NoError(t, err)
		assert.Equal(t, 0, added, "nothing genuinely new")

		n, err := st.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})
}

func TestAppendDedup(t *testing.T) {
	backends(t, Options{Dedup: true}, func(t *testing.T, open func(t *testing.T) Store) {
		st := open(t)
		ctx := context.Background()

		added, err := st.Append(ctx, sampleLots("a", "b", "a"))
		require.NoError(t, err)
		assert.Equal(t, 2, added, "in-batch duplicate dropped")

		added, err = st.Append(ctx, sampleLots("a", "b"))
		require.NoError(t, err)
		assert.Equal(t, 0, added)

		n, err := st.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestPageOrderAndBounds(t *testing.T) {
	backends(t, Options{}, func(t *testing.T, open func(t *testing.T) Store) {
		st := open(t)
		ctx := context.Background()

		_, err := st.Append(ctx, sampleLots("a", "b", "c", "d", "e"))
		require.NoError(t, err)

		p1, err := st.Page(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, p1, 2)
		assert.Equal(t, "a", p1[0].LotID)
		assert.Equal(t, "b", p1[1].LotID)

		p3, err := st.Page(ctx, 3, 2)
		require.NoError(t, err)
		require.Len(t, p3, 1)
		assert.Equal(t, "e", p3[0].LotID)

		p9, err := st.Page(ctx, 9, 2)
		require.NoError(t, err)
		assert.Empty(t, p9)

		_, err = st.Page(ctx, 0, 2)
		assert.Error(t, err)
	})
}

func TestPageRoundTripsFields(t *testing.T) {
	backends(t, Options{}, func(t *testing.T, open func(t *testing.T) Store) {
		st := open(t)
		ctx := context.Background()

		in := sampleLots("lot-1")
		_, err := st.Append(ctx, in)
		require.NoError(t, err)

		out, err := st.Page(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, in[0], out[0])
	})
}

func TestCSV_HeaderWrittenOnceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lots.csv")
	ctx := context.Background()

	st, err := NewCSV(path, Options{})
	require.NoError(t, err)
	_, err = st.Append(ctx, sampleLots("a"))
	require.NoError(t, err)

	st2, err := NewCSV(path, Options{})
	require.NoError(t, err)
	_, err = st2.Append(ctx, sampleLots("b"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "lot_id,"), "exactly one header")

	n, err := st2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "reopen picked up existing rows")
}

func TestCSV_DedupSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lots.csv")
	ctx := context.Background()

	st, err := NewCSV(path, Options{Dedup: true})
	require.NoError(t, err)
	_, err = st.Append(ctx, sampleLots("a"))
	require.NoError(t, err)

	st2, err := NewCSV(path, Options{Dedup: true})
	require.NoError(t, err)
	added, err := st2.Append(ctx, sampleLots("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestSQLite_RecordRun(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "lots.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	now := time.Now().UTC()
	err = st.RecordRun(context.Background(), RunRecord{
		StartPage:    1,
		MaxPages:     3,
		PagesFetched: 3,
		LotsAdded:    42,
		RowsSkipped:  1,
		StartedAt:    now.Add(-time.Minute),
		FinishedAt:   now,
	})
	require.NoError(t, err)
}

func TestOpen_DriverSelection(t *testing.T) {
	dir := t.TempDir()

	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	_ = st.Close()

	st, err = Open(Config{Driver: "csv", Path: filepath.Join(dir, "a.csv")})
	require.NoError(t, err)
	assert.IsType(t, &CSVStore{}, st)

	_, err = Open(Config{Driver: "bolt"})
	assert.Error(t, err)
}
