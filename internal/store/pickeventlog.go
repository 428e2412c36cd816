package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

// PickEventLog is the relational append log for PickEvents and their
// AgentContributions (§4.12). Writes are best-effort: failures are logged
// and swallowed so the engine's trading flow is never interrupted.
type PickEventLog struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewPickEventLog(db *sql.DB, log zerolog.Logger) *PickEventLog {
	return &PickEventLog{db: db, log: log.With().Str("component", "pick_event_log").Logger()}
}

// LogPick appends pick and its contributions. Any failure is logged and
// swallowed (§4.12 guarantee).
func (l *PickEventLog) LogPick(ctx context.Context, pick domain.PickEvent, contributions []domain.AgentContribution) {
	extra, err := json.Marshal(pick.ExtraContext)
	if err != nil {
		l.log.Warn().Err(err).Str("pick_uuid", pick.PickUUID).Msg("marshal extra_context failed")
		return
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO pick_events
		(pick_uuid, symbol, direction, source, mode, signal_ts, trade_date, signal_price,
		 recommended_entry, recommended_target, recommended_stop, time_horizon, blend_score,
		 recommendation, confidence, regime_bucket, vol_bucket, user_risk_bucket, universe, run_id, extra_context_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pick_uuid) DO NOTHING`,
		pick.PickUUID, pick.Symbol, string(pick.Direction), pick.Source, string(pick.Mode),
		pick.SignalTS.Format(time.RFC3339Nano), pick.TradeDate, pick.SignalPrice,
		nullableFloat(pick.RecommendedEntry), nullableFloat(pick.RecommendedTarget), nullableFloat(pick.RecommendedStop),
		pick.TimeHorizon, pick.BlendScore, string(pick.Recommendation), pick.Confidence,
		pick.RegimeBucket, pick.VolBucket, pick.UserRiskBucket, pick.Universe, pick.RunID, extra,
	)
	if err != nil {
		l.log.Warn().Err(err).Str("pick_uuid", pick.PickUUID).Msg("insert pick_event failed")
		return
	}

	for _, c := range contributions {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			l.log.Warn().Err(err).Str("pick_uuid", pick.PickUUID).Str("agent", c.AgentName).Msg("marshal contribution metadata failed")
			continue
		}
		if _, err := l.db.ExecContext(ctx, `
			INSERT INTO agent_contributions (pick_uuid, agent_name, score, confidence, metadata_json)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(pick_uuid, agent_name) DO NOTHING`,
			c.PickUUID, c.AgentName, nullableFloat(c.Score), c.Confidence, meta,
		); err != nil {
			l.log.Warn().Err(err).Str("pick_uuid", pick.PickUUID).Str("agent", c.AgentName).Msg("insert agent_contribution failed")
		}
	}
}

// PicksForDateWithoutOutcome returns PickEvents on tradeDate with no
// matching PickOutcome row at horizon, for the OutcomeEvaluator sweep.
func (l *PickEventLog) PicksForDateWithoutOutcome(ctx context.Context, tradeDate string, horizon domain.EvaluationHorizon) ([]domain.PickEvent, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT p.pick_uuid, p.symbol, p.direction, p.source, p.mode, p.signal_ts, p.trade_date, p.signal_price,
		       p.recommended_entry, p.recommended_target, p.recommended_stop, p.time_horizon, p.blend_score,
		       p.recommendation, p.confidence, p.regime_bucket, p.vol_bucket, p.user_risk_bucket, p.universe, p.run_id, p.extra_context_json
		FROM pick_events p
		LEFT JOIN pick_outcomes o ON o.pick_uuid = p.pick_uuid AND o.evaluation_horizon = ?
		WHERE p.trade_date = ? AND o.pick_uuid IS NULL`, string(horizon), tradeDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PickEvent
	for rows.Next() {
		pick, err := scanPickEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pick)
	}
	return out, rows.Err()
}

// GradedPick pairs a PickEvent with one realized PickOutcome, the unit the
// nightly bandit trainer operates over (§4.10).
type GradedPick struct {
	Pick    domain.PickEvent
	Outcome domain.PickOutcome
}

// GradedPicksSince returns every PickEvent with an EOD or SCALPING outcome
// graded on or after tradeDateFrom, for the nightly RL training job.
func (l *PickEventLog) GradedPicksSince(ctx context.Context, tradeDateFrom string) ([]GradedPick, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT p.pick_uuid, p.symbol, p.direction, p.source, p.mode, p.signal_ts, p.trade_date, p.signal_price,
		       p.recommended_entry, p.recommended_target, p.recommended_stop, p.time_horizon, p.blend_score,
		       p.recommendation, p.confidence, p.regime_bucket, p.vol_bucket, p.user_risk_bucket, p.universe, p.run_id, p.extra_context_json,
		       o.evaluation_horizon, o.horizon_end_ts, o.price_close, o.price_high, o.price_low, o.ret_close_pct,
		       o.max_runup_pct, o.max_drawdown_pct, o.hit_target, o.hit_stop, o.outcome_label, o.notes_json
		FROM pick_events p
		JOIN pick_outcomes o ON o.pick_uuid = p.pick_uuid
		WHERE p.trade_date >= ?`, tradeDateFrom)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GradedPick
	for rows.Next() {
		gp, err := scanGradedPick(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, gp)
	}
	return out, rows.Err()
}

func scanGradedPick(row rowScanner) (GradedPick, error) {
	var gp GradedPick
	var direction, mode, signalTS, recommendation, extraJSON string
	var recEntry, recTarget, recStop sql.NullFloat64
	var horizon, horizonEndTS, outcomeLabel, notesJSON string
	var benchmarkSymbol sql.NullString
	var hitTarget, hitStop int

	if err := row.Scan(&gp.Pick.PickUUID, &gp.Pick.Symbol, &direction, &gp.Pick.Source, &mode,
		&signalTS, &gp.Pick.TradeDate, &gp.Pick.SignalPrice,
		&recEntry, &recTarget, &recStop, &gp.Pick.TimeHorizon, &gp.Pick.BlendScore,
		&recommendation, &gp.Pick.Confidence, &gp.Pick.RegimeBucket, &gp.Pick.VolBucket,
		&gp.Pick.UserRiskBucket, &gp.Pick.Universe, &gp.Pick.RunID, &extraJSON,
		&horizon, &horizonEndTS, &gp.Outcome.PriceClose, &gp.Outcome.PriceHigh, &gp.Outcome.PriceLow,
		&gp.Outcome.RetClosePct, &gp.Outcome.MaxRunupPct, &gp.Outcome.MaxDrawdownPct,
		&hitTarget, &hitStop, &outcomeLabel, &notesJSON); err != nil {
		return gp, err
	}

	gp.Pick.Direction = domain.Direction(direction)
	gp.Pick.Mode = domain.Mode(mode)
	gp.Pick.Recommendation = domain.Recommendation(recommendation)
	if t, err := time.Parse(time.RFC3339Nano, signalTS); err == nil {
		gp.Pick.SignalTS = t
	}
	if recEntry.Valid {
		v := recEntry.Float64
		gp.Pick.RecommendedEntry = &v
	}
	if recTarget.Valid {
		v := recTarget.Float64
		gp.Pick.RecommendedTarget = &v
	}
	if recStop.Valid {
		v := recStop.Float64
		gp.Pick.RecommendedStop = &v
	}
	_ = json.Unmarshal([]byte(extraJSON), &gp.Pick.ExtraContext)

	gp.Outcome.PickUUID = gp.Pick.PickUUID
	gp.Outcome.EvaluationHorizon = domain.EvaluationHorizon(horizon)
	if t, err := time.Parse(time.RFC3339Nano, horizonEndTS); err == nil {
		gp.Outcome.HorizonEndTS = t
	}
	if benchmarkSymbol.Valid {
		gp.Outcome.BenchmarkSymbol = benchmarkSymbol.String
	}
	gp.Outcome.HitTarget = hitTarget != 0
	gp.Outcome.HitStop = hitStop != 0
	gp.Outcome.OutcomeLabel = domain.OutcomeLabel(outcomeLabel)
	_ = json.Unmarshal([]byte(notesJSON), &gp.Outcome.Notes)

	return gp, nil
}

func scanPickEvent(row rowScanner) (domain.PickEvent, error) {
	var p domain.PickEvent
	var direction, mode, signalTS, recommendation, extraJSON string
	var recEntry, recTarget, recStop sql.NullFloat64

	if err := row.Scan(&p.PickUUID, &p.Symbol, &direction, &p.Source, &mode, &signalTS, &p.TradeDate, &p.SignalPrice,
		&recEntry, &recTarget, &recStop, &p.TimeHorizon, &p.BlendScore,
		&recommendation, &p.Confidence, &p.RegimeBucket, &p.VolBucket, &p.UserRiskBucket, &p.Universe, &p.RunID, &extraJSON); err != nil {
		return p, err
	}
	p.Direction = domain.Direction(direction)
	p.Mode = domain.Mode(mode)
	p.Recommendation = domain.Recommendation(recommendation)
	if t, err := time.Parse(time.RFC3339Nano, signalTS); err == nil {
		p.SignalTS = t
	}
	if recEntry.Valid {
		v := recEntry.Float64
		p.RecommendedEntry = &v
	}
	if recTarget.Valid {
		v := recTarget.Float64
		p.RecommendedTarget = &v
	}
	if recStop.Valid {
		v := recStop.Float64
		p.RecommendedStop = &v
	}
	_ = json.Unmarshal([]byte(extraJSON), &p.ExtraContext)
	return p, nil
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
