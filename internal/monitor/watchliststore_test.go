package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchlistStoreLoadsEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries":[{"Symbol":"TCS","Mode":"Swing"}]}`), 0o644))

	s := NewWatchlistStore(path)
	entries, err := s.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TCS", entries[0].Symbol)
}

func TestWatchlistStoreMissingFileDegradesToEmpty(t *testing.T) {
	s := NewWatchlistStore(filepath.Join(t.TempDir(), "missing.json"))
	entries, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWatchlistStoreMalformedFileDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))

	s := NewWatchlistStore(path)
	entries, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
