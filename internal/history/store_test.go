package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/kinobot/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrations_Applied(t *testing.T) {
	s := testStore(t)

	var count int
	err := s.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)

	require.NoError(t, s.migrate())
	err = s.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.sqlite3")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), types.RequestLogEntry{UserID: 1, RequestType: types.RequestRandom, Query: "random"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.Recent(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAppendAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Append(ctx, types.RequestLogEntry{UserID: 1, RequestType: types.RequestMood, Query: "комедия", CreatedAt: base}))
	require.NoError(t, s.Append(ctx, types.RequestLogEntry{UserID: 2, RequestType: types.RequestRandom, Query: "random", CreatedAt: base}))
	require.NoError(t, s.Append(ctx, types.RequestLogEntry{UserID: 1, RequestType: types.RequestSearch, Query: "Inception", CreatedAt: base.Add(time.Minute)}))

	entries, err := s.Recent(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, types.RequestSearch, entries[0].RequestType)
	assert.Equal(t, "Inception", entries[0].Query)
	assert.Equal(t, base.Add(time.Minute), entries[0].CreatedAt)
	assert.Equal(t, types.UserID(1), entries[0].UserID)
	assert.Equal(t, "комедия", entries[1].Query)

	limited, err := s.Recent(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAppend_DefaultsTimestamp(t *testing.T) {
	s := testStore(t)
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Append(context.Background(), types.RequestLogEntry{UserID: 3, RequestType: types.RequestRandom, Query: "random"}))

	entries, err := s.Recent(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fixed, entries[0].CreatedAt)
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, types.RequestLogEntry{UserID: 1, RequestType: types.RequestMood, Query: "old", CreatedAt: cutoff.Add(-time.Hour)}))
	require.NoError(t, s.Append(ctx, types.RequestLogEntry{UserID: 1, RequestType: types.RequestMood, Query: "new", CreatedAt: cutoff.Add(time.Hour)}))

	n, err := s.Prune(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := s.Recent(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Query)
}
