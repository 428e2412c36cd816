// Package store is the sqlite-backed persistence layer for TopPicksRuns,
// PickEvents/AgentContributions, PickOutcomes, and the Policy registry
// (§3, §4.11, §4.12). Grounded on the teacher's per-domain
// *Repository(db *sql.DB, log zerolog.Logger) pattern over database/sql.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if absent) a sqlite database at path and applies the
// schema migrations idempotently.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS top_picks_runs (
	run_id TEXT PRIMARY KEY,
	universe TEXT NOT NULL,
	mode TEXT NOT NULL,
	generated_at_utc TEXT NOT NULL,
	trigger TEXT NOT NULL,
	total_analyzed INTEGER NOT NULL,
	filtered_count INTEGER NOT NULL,
	picks_count INTEGER NOT NULL,
	elapsed_sec REAL NOT NULL,
	payload_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_top_picks_runs_universe_mode ON top_picks_runs(universe, mode, generated_at_utc);

CREATE TABLE IF NOT EXISTS pick_events (
	pick_uuid TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	source TEXT NOT NULL,
	mode TEXT NOT NULL,
	signal_ts TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	signal_price REAL NOT NULL,
	recommended_entry REAL,
	recommended_target REAL,
	recommended_stop REAL,
	time_horizon TEXT NOT NULL,
	blend_score REAL NOT NULL,
	recommendation TEXT NOT NULL,
	confidence TEXT NOT NULL,
	regime_bucket TEXT NOT NULL,
	vol_bucket TEXT NOT NULL,
	user_risk_bucket TEXT NOT NULL,
	universe TEXT NOT NULL,
	run_id TEXT NOT NULL,
	extra_context_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pick_events_symbol_date ON pick_events(symbol, trade_date);
CREATE INDEX IF NOT EXISTS idx_pick_events_run_id ON pick_events(run_id);

CREATE TABLE IF NOT EXISTS agent_contributions (
	pick_uuid TEXT NOT NULL,
	agent_name TEXT NOT NULL,
	score REAL,
	confidence TEXT NOT NULL,
	metadata_json TEXT NOT NULL,
	PRIMARY KEY (pick_uuid, agent_name)
);

CREATE TABLE IF NOT EXISTS pick_outcomes (
	pick_uuid TEXT NOT NULL,
	evaluation_horizon TEXT NOT NULL,
	horizon_end_ts TEXT NOT NULL,
	price_close REAL NOT NULL,
	price_high REAL NOT NULL,
	price_low REAL NOT NULL,
	ret_close_pct REAL NOT NULL,
	max_runup_pct REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	benchmark_symbol TEXT,
	benchmark_ret_pct REAL,
	hit_target INTEGER NOT NULL,
	hit_stop INTEGER NOT NULL,
	outcome_label TEXT NOT NULL,
	notes_json TEXT NOT NULL,
	PRIMARY KEY (pick_uuid, evaluation_horizon)
);

CREATE TABLE IF NOT EXISTS policies (
	policy_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	status TEXT NOT NULL,
	config_json TEXT NOT NULL,
	metrics_json TEXT NOT NULL,
	activated_at TEXT,
	deactivated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_policies_status ON policies(status);

CREATE TABLE IF NOT EXISTS ai_recommendations (
	pick_uuid TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	mode TEXT NOT NULL,
	signal_price REAL NOT NULL,
	signal_ts TEXT NOT NULL,
	exit_price REAL,
	exit_ts TEXT,
	realized_pnl_pct REAL,
	closed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_ai_recommendations_symbol ON ai_recommendations(symbol);
`

func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
