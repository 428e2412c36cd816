package reliability

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const minBackupsToKeep = 3

// BackupStore is the narrow off-site object store boundary OffsiteBackupJob
// needs; satisfied by *BackupClient. A nil BackupStore (no credentials
// configured) makes the job a no-op.
type BackupStore interface {
	Upload(ctx context.Context, now time.Time, r io.Reader) error
	List(ctx context.Context) ([]BackupObject, error)
	Delete(ctx context.Context, key string) error
}

// OffsiteBackupJob snapshots the sqlite database file and uploads it to the
// configured backup bucket on a nightly cadence, then rotates archives
// older than the retention window. Grounded on the teacher's
// R2BackupService.CreateAndUploadBackup/RotateOldBackups, collapsed from a
// 7-database-per-concern split down to the single sqlite file this module
// uses for every store.
type OffsiteBackupJob struct {
	db            *sql.DB
	dbPath        string
	client        BackupStore
	retentionDays int
	now           func() time.Time
	log           zerolog.Logger
}

func NewOffsiteBackupJob(db *sql.DB, dbPath string, client BackupStore, retentionDays int, log zerolog.Logger) *OffsiteBackupJob {
	return &OffsiteBackupJob{
		db:            db,
		dbPath:        dbPath,
		client:        client,
		retentionDays: retentionDays,
		now:           time.Now,
		log:           log.With().Str("component", "offsite_backup_job").Logger(),
	}
}

func (j *OffsiteBackupJob) Name() string { return "offsite_backup" }

func (j *OffsiteBackupJob) Run(ctx context.Context) error {
	if j.client == nil {
		j.log.Debug().Msg("no backup client configured, skipping off-site backup")
		return nil
	}

	// Truncate the WAL into the main file so the snapshot below is complete
	// and doesn't miss recently committed pages.
	if _, err := j.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		j.log.Warn().Err(err).Msg("wal checkpoint before backup failed")
	}

	file, err := os.Open(j.dbPath)
	if err != nil {
		return fmt.Errorf("open db file for backup: %w", err)
	}
	defer file.Close()

	now := j.now()
	if err := j.client.Upload(ctx, now, file); err != nil {
		return fmt.Errorf("upload backup: %w", err)
	}
	j.log.Info().Time("snapshot_time", now).Msg("off-site backup uploaded")

	if err := j.rotate(ctx); err != nil {
		j.log.Warn().Err(err).Msg("backup rotation failed")
	}
	return nil
}

func (j *OffsiteBackupJob) rotate(ctx context.Context) error {
	backups, err := j.client.List(ctx)
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	if len(backups) <= minBackupsToKeep {
		return nil
	}

	var cutoff time.Time
	if j.retentionDays > 0 {
		cutoff = j.now().AddDate(0, 0, -j.retentionDays)
	}

	deleted := 0
	for i, b := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if j.retentionDays == 0 {
			continue
		}
		if b.Timestamp.Before(cutoff) {
			if err := j.client.Delete(ctx, b.Key); err != nil {
				j.log.Warn().Err(err).Str("key", b.Key).Msg("failed to delete old backup")
				continue
			}
			deleted++
		}
	}
	j.log.Info().Int("deleted", deleted).Int("remaining", len(backups)-deleted).Msg("backup rotation complete")
	return nil
}
