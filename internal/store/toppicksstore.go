package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

// TopPicksStore is the append-only TopPicksRun history (§4.11), backed by
// the top_picks_runs table. Grounded on the teacher's database/sql
// repository pattern (trade_repository.go): a thin struct wrapping *sql.DB
// plus a component-scoped logger.
type TopPicksStore struct {
	db            *sql.DB
	log           zerolog.Logger
	retentionDays int
}

// NewTopPicksStore builds a TopPicksStore. retentionDays<=0 defaults to 90
// (§4.11).
func NewTopPicksStore(db *sql.DB, retentionDays int, log zerolog.Logger) *TopPicksStore {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &TopPicksStore{db: db, retentionDays: retentionDays, log: log.With().Str("component", "top_picks_store").Logger()}
}

// StoreRun appends run and prunes rows older than retentionDays (§4.11).
func (s *TopPicksStore) StoreRun(ctx context.Context, run domain.TopPicksRun) error {
	payload, err := json.Marshal(run.Payload)
	if err != nil {
		return fmt.Errorf("marshal run payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO top_picks_runs
		(run_id, universe, mode, generated_at_utc, trigger, total_analyzed, filtered_count, picks_count, elapsed_sec, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload_json = excluded.payload_json`,
		run.RunID, run.Universe, string(run.Mode), run.GeneratedAtUTC.Format(time.RFC3339Nano),
		string(run.Trigger), run.TotalAnalyzed, run.FilteredCount, run.PicksCount, run.ElapsedSec, payload,
	)
	if err != nil {
		return fmt.Errorf("insert top_picks_run: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays).Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM top_picks_runs WHERE generated_at_utc < ?`, cutoff); err != nil {
		s.log.Warn().Err(err).Msg("retention cleanup failed")
	}
	return nil
}

// GetLatestRunFor returns the most recent run for (universe, mode) with at
// least one pick, or false if none exists.
func (s *TopPicksStore) GetLatestRunFor(ctx context.Context, universe string, mode domain.Mode) (domain.TopPicksRun, bool) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, universe, mode, generated_at_utc, trigger, total_analyzed, filtered_count, picks_count, elapsed_sec, payload_json
		FROM top_picks_runs
		WHERE universe = ? AND mode = ? AND picks_count > 0
		ORDER BY generated_at_utc DESC LIMIT 1`, universe, string(mode))

	run, err := scanRun(row)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.Warn().Err(err).Str("universe", universe).Str("mode", string(mode)).Msg("get_latest_run_for failed")
		}
		return domain.TopPicksRun{}, false
	}
	return run, true
}

// GetRunByID returns the full engine payload for run_id.
func (s *TopPicksStore) GetRunByID(ctx context.Context, runID string) (domain.TopPicksRun, bool) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, universe, mode, generated_at_utc, trigger, total_analyzed, filtered_count, picks_count, elapsed_sec, payload_json
		FROM top_picks_runs WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.Warn().Err(err).Str("run_id", runID).Msg("get_run_by_id failed")
		}
		return domain.TopPicksRun{}, false
	}
	return run, true
}

// RunFilters narrows QueryRuns.
type RunFilters struct {
	Universe string
	Mode     domain.Mode
	Limit    int
}

// QueryRuns returns run metadata+payload matching filters, newest first,
// capped at 5000 rows (§4.11).
func (s *TopPicksStore) QueryRuns(ctx context.Context, filters RunFilters) ([]domain.TopPicksRun, error) {
	limit := filters.Limit
	if limit <= 0 || limit > 5000 {
		limit = 5000
	}

	query := `SELECT run_id, universe, mode, generated_at_utc, trigger, total_analyzed, filtered_count, picks_count, elapsed_sec, payload_json FROM top_picks_runs WHERE 1=1`
	args := []any{}
	if filters.Universe != "" {
		query += " AND universe = ?"
		args = append(args, filters.Universe)
	}
	if filters.Mode != "" {
		query += " AND mode = ?"
		args = append(args, string(filters.Mode))
	}
	query += " ORDER BY generated_at_utc DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query_runs: %w", err)
	}
	defer rows.Close()

	var out []domain.TopPicksRun
	for rows.Next() {
		run, err := scanRunFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.TopPicksRun, error) {
	return scanRunFromRows(row)
}

func scanRunFromRows(row rowScanner) (domain.TopPicksRun, error) {
	var run domain.TopPicksRun
	var mode, trigger, generatedAt, payloadJSON string
	if err := row.Scan(&run.RunID, &run.Universe, &mode, &generatedAt, &trigger,
		&run.TotalAnalyzed, &run.FilteredCount, &run.PicksCount, &run.ElapsedSec, &payloadJSON); err != nil {
		return run, err
	}
	run.Mode = domain.Mode(mode)
	run.Trigger = domain.RunTrigger(trigger)
	if t, err := time.Parse(time.RFC3339Nano, generatedAt); err == nil {
		run.GeneratedAtUTC = t
	}
	if err := json.Unmarshal([]byte(payloadJSON), &run.Payload); err != nil {
		return run, fmt.Errorf("unmarshal payload: %w", err)
	}
	return run, nil
}
