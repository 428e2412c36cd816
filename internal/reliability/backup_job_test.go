package reliability

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type fakeBackupStore struct {
	uploaded []time.Time
	listed   []BackupObject
	deleted  []string
}

func (f *fakeBackupStore) Upload(ctx context.Context, now time.Time, r io.Reader) error {
	f.uploaded = append(f.uploaded, now)
	_, err := io.Copy(io.Discard, r)
	return err
}
func (f *fakeBackupStore) List(ctx context.Context) ([]BackupObject, error) { return f.listed, nil }
func (f *fakeBackupStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, os.WriteFile(path, []byte("sqlite-placeholder"), 0o644))
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestOffsiteBackupJobNoClientIsNoop(t *testing.T) {
	db, path := openTestDB(t)
	job := NewOffsiteBackupJob(db, path, nil, 30, zerolog.Nop())
	require.NoError(t, job.Run(context.Background()))
}

func TestOffsiteBackupJobUploadsSnapshot(t *testing.T) {
	db, path := openTestDB(t)
	store := &fakeBackupStore{}
	job := NewOffsiteBackupJob(db, path, store, 30, zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, store.uploaded, 1)
}

func TestOffsiteBackupJobRotationKeepsMinimumAndDeletesOld(t *testing.T) {
	db, path := openTestDB(t)
	now := time.Date(2026, 7, 31, 2, 0, 0, 0, time.UTC)

	old := now.AddDate(0, 0, -40)
	recent := now.AddDate(0, 0, -1)
	store := &fakeBackupStore{
		listed: []BackupObject{
			{Key: "arise-backup-recent.db", Timestamp: recent},
			{Key: "arise-backup-old1.db", Timestamp: old},
			{Key: "arise-backup-old2.db", Timestamp: old.Add(-time.Hour)},
			{Key: "arise-backup-old3.db", Timestamp: old.Add(-2 * time.Hour)},
			{Key: "arise-backup-old4.db", Timestamp: old.Add(-3 * time.Hour)},
		},
	}
	job := NewOffsiteBackupJob(db, path, store, 30, zerolog.Nop())
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	assert.Len(t, store.deleted, 2)
	assert.NotContains(t, store.deleted, "arise-backup-recent.db")
}

func TestOffsiteBackupJobRotationSkipsWhenFewBackups(t *testing.T) {
	db, path := openTestDB(t)
	store := &fakeBackupStore{
		listed: []BackupObject{
			{Key: "arise-backup-1.db", Timestamp: time.Now()},
		},
	}
	job := NewOffsiteBackupJob(db, path, store, 30, zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, store.deleted)
}
