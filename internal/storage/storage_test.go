package storage

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/susscan/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err, "open in-memory db")
	t.Cleanup(func() { db.Close() })
	return db
}

func scored(name string, score float64, reasons ...string) *model.PlayerMetrics {
	m := model.NewPlayerMetrics(name)
	m.SuspicionScore = score
	m.LifetimeGames = 12
	m.Reasons = append(m.Reasons, reasons...)
	return m
}

func TestSaveAndGetScan(t *testing.T) {
	db := openMemDB(t)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	id, err := db.SaveScan(scored("Alice", 2.2, "active win streak of 9"), at)
	require.NoError(t, err)

	rec, err := db.GetScan(id)
	require.NoError(t, err)
	require.NotNil(t, rec, "scan should exist after insert")
	assert.Equal(t, "alice", rec.Username, "username stored lower-cased")
	assert.Equal(t, 2.2, rec.Score)
	assert.True(t, rec.ScannedAt.Equal(at), "scanned_at %v", rec.ScannedAt)
	assert.Equal(t, 12, rec.Metrics.LifetimeGames)
	assert.Len(t, rec.Metrics.Reasons, 1)

	missing, err := db.GetScan(id + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListScans(t *testing.T) {
	db := openMemDB(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := db.SaveScan(scored("alice", 1, "x"), base)
	require.NoError(t, err)
	require.NoError(t, db.SaveScans([]*model.PlayerMetrics{scored("bob", 0), scored("ALICE", 3)}, base.Add(time.Hour)))

	all, err := db.ListScans("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first; within one batch, later rows first.
	assert.Equal(t, "alice", all[0].Username)
	assert.Equal(t, 3.0, all[0].Score)
	assert.True(t, all[2].ScannedAt.Equal(base), "oldest scan last, got %v", all[2].ScannedAt)

	alice, err := db.ListScans("Alice", 0)
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	limited, err := db.ListScans("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestArchiveCache(t *testing.T) {
	db := openMemDB(t)
	url := "https://api.chess.com/pub/player/alice/games/2025/01"
	body := bytes.Repeat([]byte(`{"games":[]}`), 200)

	_, ok, err := db.GetArchive(url)
	require.NoError(t, err)
	assert.False(t, ok, "miss on empty cache")

	require.NoError(t, db.PutArchive(url, body))
	// Replacing is allowed.
	require.NoError(t, db.PutArchive(url, body))

	got, ok, err := db.GetArchive(url)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, body, got)

	entries, size, err := db.CacheStats()
	require.NoError(t, err)
	assert.Equal(t, 1, entries)
	assert.Positive(t, size)
	assert.Less(t, size, int64(len(body)), "stored body should be compressed")

	n, err := db.ClearArchiveCache()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, err = db.GetArchive(url)
	require.NoError(t, err)
	assert.False(t, ok, "miss after clear")
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	_, err := db.SaveScan(scored("alice", 1.5), time.Unix(100, 0))
	require.NoError(t, err)

	cols, rows, err := db.QueryRaw("SELECT username, score, NULL AS empty FROM scans")
	require.NoError(t, err)
	assert.Equal(t, []string{"username", "score", "empty"}, cols)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"alice", "1.5", "NULL"}, rows[0])

	_, _, err = db.QueryRaw("SELECT * FROM no_such_table")
	assert.Error(t, err)
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "susscan.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.SaveScan(scored("x", 0), time.Now())
	assert.NoError(t, err)
}
