package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

// AiRecommendationStore is the per-pick analytics dataset used to realize
// P&L once a position managed by the exit trackers closes (§4 component
// table "AiRecommendationStore & analytics glue"). Writes are best-effort:
// this store never blocks or fails the monitor/exit-tracker flow that
// writes through it.
type AiRecommendationStore struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewAiRecommendationStore(db *sql.DB, log zerolog.Logger) *AiRecommendationStore {
	return &AiRecommendationStore{db: db, log: log.With().Str("component", "ai_recommendation_store").Logger()}
}

// LogPick records a new recommendation row at signal time (§4.5 step 8).
func (s *AiRecommendationStore) LogPick(ctx context.Context, pick domain.PickEvent) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_recommendations (pick_uuid, symbol, direction, mode, signal_price, signal_ts, closed)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(pick_uuid) DO NOTHING`,
		pick.PickUUID, pick.Symbol, string(pick.Direction), string(pick.Mode), pick.SignalPrice, pick.SignalTS.Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Warn().Err(err).Str("pick_uuid", pick.PickUUID).Msg("log_pick failed")
	}
}

// CloseOnExit best-effort updates a recommendation's realized outcome once
// a monitor/exit-tracker closes the underlying position (§4.9 "hook into
// AiRecommendationStore (best-effort row update)").
func (s *AiRecommendationStore) CloseOnExit(ctx context.Context, pickUUID string, exitPrice, realizedPnlPct float64, exitTS time.Time) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ai_recommendations SET exit_price = ?, exit_ts = ?, realized_pnl_pct = ?, closed = 1
		WHERE pick_uuid = ?`,
		exitPrice, exitTS.Format(time.RFC3339Nano), realizedPnlPct, pickUUID,
	)
	if err != nil {
		s.log.Warn().Err(err).Str("pick_uuid", pickUUID).Msg("close_on_exit failed")
	}
}
