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

// PolicyRegistry is the sqlite-backed Policy store: at most one policy has
// Status == PolicyActive at any time (§3 Policy invariant). Offline bandit
// trainers and the nightly RL job write through this; the TopPicksEngine
// only reads ActivePolicy.
type PolicyRegistry struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewPolicyRegistry(db *sql.DB, log zerolog.Logger) *PolicyRegistry {
	return &PolicyRegistry{db: db, log: log.With().Str("component", "policy_registry").Logger()}
}

// ActivePolicy returns the currently active policy, if any.
func (r *PolicyRegistry) ActivePolicy() (domain.Policy, bool) {
	row := r.db.QueryRow(`SELECT policy_id, name, description, status, config_json, metrics_json, activated_at, deactivated_at
		FROM policies WHERE status = ? ORDER BY activated_at DESC LIMIT 1`, string(domain.PolicyActive))
	policy, err := scanPolicy(row)
	if err != nil {
		if err != sql.ErrNoRows {
			r.log.Warn().Err(err).Msg("active_policy lookup failed")
		}
		return domain.Policy{}, false
	}
	return policy, true
}

// Get returns the policy with the given id.
func (r *PolicyRegistry) Get(ctx context.Context, policyID string) (domain.Policy, bool) {
	row := r.db.QueryRowContext(ctx, `SELECT policy_id, name, description, status, config_json, metrics_json, activated_at, deactivated_at
		FROM policies WHERE policy_id = ?`, policyID)
	policy, err := scanPolicy(row)
	if err != nil {
		return domain.Policy{}, false
	}
	return policy, true
}

// Upsert inserts or replaces policy's row.
func (r *PolicyRegistry) Upsert(ctx context.Context, policy domain.Policy) error {
	config, err := json.Marshal(policy.Config)
	if err != nil {
		return fmt.Errorf("marshal policy config: %w", err)
	}
	metrics, err := json.Marshal(policy.Metrics)
	if err != nil {
		return fmt.Errorf("marshal policy metrics: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO policies (policy_id, name, description, status, config_json, metrics_json, activated_at, deactivated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(policy_id) DO UPDATE SET
			name=excluded.name, description=excluded.description, status=excluded.status,
			config_json=excluded.config_json, metrics_json=excluded.metrics_json,
			activated_at=excluded.activated_at, deactivated_at=excluded.deactivated_at`,
		policy.PolicyID, policy.Name, policy.Description, string(policy.Status), config, metrics,
		nullableTime(policy.ActivatedAt), nullableTime(policy.DeactivatedAt),
	)
	return err
}

// Activate marks policyID PolicyActive and retires any other currently
// active policy, preserving the "at most one active" invariant.
func (r *PolicyRegistry) Activate(ctx context.Context, policyID string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE policies SET status = ?, deactivated_at = ? WHERE status = ? AND policy_id != ?`,
		string(domain.PolicyRetired), now.Format(time.RFC3339Nano), string(domain.PolicyActive), policyID); err != nil {
		return fmt.Errorf("retire previous active policy: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE policies SET status = ?, activated_at = ? WHERE policy_id = ?`,
		string(domain.PolicyActive), now.Format(time.RFC3339Nano), policyID); err != nil {
		return fmt.Errorf("activate policy: %w", err)
	}
	return tx.Commit()
}

func scanPolicy(row rowScanner) (domain.Policy, error) {
	var p domain.Policy
	var status, config, metrics string
	var activatedAt, deactivatedAt sql.NullString

	if err := row.Scan(&p.PolicyID, &p.Name, &p.Description, &status, &config, &metrics, &activatedAt, &deactivatedAt); err != nil {
		return p, err
	}
	p.Status = domain.PolicyStatus(status)
	if err := json.Unmarshal([]byte(config), &p.Config); err != nil {
		return p, fmt.Errorf("unmarshal policy config: %w", err)
	}
	if err := json.Unmarshal([]byte(metrics), &p.Metrics); err != nil {
		return p, fmt.Errorf("unmarshal policy metrics: %w", err)
	}
	if activatedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, activatedAt.String); err == nil {
			p.ActivatedAt = &t
		}
	}
	if deactivatedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, deactivatedAt.String); err == nil {
			p.DeactivatedAt = &t
		}
	}
	return p, nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}
