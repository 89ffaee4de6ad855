package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lidofinance/validator-ejector/testing/require"
)

func setupDB(t *testing.T) *Store {
	db, err := NewKVStore(t.TempDir())
	require.NoError(t, err, "Failed to instantiate DB")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "Failed to close database")
	})
	return db
}

func TestResumeCursor_RoundTrip(t *testing.T) {
	db := setupDB(t)

	rec, err := db.ResumeCursor(1, 123)
	require.NoError(t, err)
	require.Equal(t, (*CursorRecord)(nil), rec, "Expected no cursor before first save")

	want := &CursorRecord{Position: 42, FromBlock: 17990000, ToBlock: 18000000}
	require.NoError(t, db.SaveResumeCursor(1, 123, want))

	got, err := db.ResumeCursor(1, 123)
	require.NoError(t, err)
	require.DeepEqual(t, want, got)
}

func TestResumeCursor_InitialPosition(t *testing.T) {
	db := setupDB(t)

	want := &CursorRecord{Position: -1, FromBlock: 0, ToBlock: 18000000}
	require.NoError(t, db.SaveResumeCursor(1, 123, want))

	got, err := db.ResumeCursor(1, 123)
	require.NoError(t, err)
	require.Equal(t, int64(-1), got.Position, "Initial position must survive the round trip")
}

func TestResumeCursor_KeyedByModuleAndOperator(t *testing.T) {
	db := setupDB(t)

	require.NoError(t, db.SaveResumeCursor(1, 123, &CursorRecord{Position: 7, ToBlock: 100}))
	require.NoError(t, db.SaveResumeCursor(1, 124, &CursorRecord{Position: 9, ToBlock: 200}))
	require.NoError(t, db.SaveResumeCursor(2, 123, &CursorRecord{Position: 11, ToBlock: 300}))

	got, err := db.ResumeCursor(1, 123)
	require.NoError(t, err)
	require.Equal(t, int64(7), got.Position)

	got, err = db.ResumeCursor(1, 124)
	require.NoError(t, err)
	require.Equal(t, int64(9), got.Position)

	got, err = db.ResumeCursor(2, 123)
	require.NoError(t, err)
	require.Equal(t, int64(11), got.Position)
}

func TestResumeCursor_SurvivesReopen(t *testing.T) {
	dirPath := t.TempDir()
	db, err := NewKVStore(dirPath)
	require.NoError(t, err)

	want := &CursorRecord{Position: 5, FromBlock: 90, ToBlock: 110}
	require.NoError(t, db.SaveResumeCursor(3, 55, want))
	require.NoError(t, db.Close())

	db, err = NewKVStore(dirPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	got, err := db.ResumeCursor(3, 55)
	require.NoError(t, err)
	require.DeepEqual(t, want, got)
}

func TestClearDB(t *testing.T) {
	dirPath := t.TempDir()
	db, err := NewKVStore(dirPath)
	require.NoError(t, err)

	require.NoError(t, db.SaveResumeCursor(1, 1, &CursorRecord{Position: 1, ToBlock: 2}))
	require.NoError(t, db.ClearDB())

	_, err = os.Stat(filepath.Join(dirPath, DatabaseFileName))
	require.Equal(t, true, os.IsNotExist(err), "Expected database file to be removed")
}
