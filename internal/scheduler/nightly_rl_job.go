package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/bandit"
	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/store"
)

// GradedPickSource is the narrow §4.10 boundary the nightly RL job reads
// graded picks through.
type GradedPickSource interface {
	GradedPicksSince(ctx context.Context, tradeDateFrom string) ([]store.GradedPick, error)
}

// PolicyStore is the narrow §3 boundary the nightly RL job writes the
// retrained policy through.
type PolicyStore interface {
	ActivePolicy() (domain.Policy, bool)
	Upsert(ctx context.Context, policy domain.Policy) error
	Activate(ctx context.Context, policyID string, now time.Time) error
}

// NightlyRLJob runs the 23:00 IST bandit retraining pass (marketclock.JobNightlyRL):
// it pulls every pick graded in the trailing lookback window, replays the
// entry/exit bandit update formulas over a copy of the active Policy's
// config, and activates the retrained copy as the new active Policy (§4.10
// "nightly batch job updates ... bandit Q-values").
type NightlyRLJob struct {
	picks    GradedPickSource
	policies PolicyStore
	clock    marketclock.Clock
	lookback int
	log      zerolog.Logger
}

func NewNightlyRLJob(picks GradedPickSource, policies PolicyStore, clock marketclock.Clock, lookbackDays int, log zerolog.Logger) *NightlyRLJob {
	if lookbackDays <= 0 {
		lookbackDays = 1
	}
	return &NightlyRLJob{
		picks: picks, policies: policies, clock: clock, lookback: lookbackDays,
		log: log.With().Str("component", "nightly_rl_job").Logger(),
	}
}

func (j *NightlyRLJob) Name() string { return string(marketclock.JobNightlyRL) }

func (j *NightlyRLJob) Run(ctx context.Context) error {
	active, ok := j.policies.ActivePolicy()
	if !ok {
		j.log.Warn().Msg("no active policy, skipping nightly RL training")
		return nil
	}

	now := j.clock.NowIST()
	since := marketclock.TradeDateIST(now.AddDate(0, 0, -j.lookback))
	graded, err := j.picks.GradedPicksSince(ctx, since)
	if err != nil {
		return fmt.Errorf("load graded picks: %w", err)
	}
	if len(graded) == 0 {
		j.log.Info().Str("since", since).Msg("no graded picks, skipping nightly RL training")
		return nil
	}

	config, err := cloneConfig(active.Config)
	if err != nil {
		return fmt.Errorf("clone active policy config: %w", err)
	}

	bandit.TrainModeBandits(&config, graded, now)

	trained := domain.Policy{
		PolicyID:    fmt.Sprintf("policy-%s", marketclock.TradeDateIST(now)),
		Name:        fmt.Sprintf("Nightly retrain of %s", active.Name),
		Description: fmt.Sprintf("Bandit retrain over %d graded picks since %s", len(graded), since),
		Status:      domain.PolicyRetired,
		Config:      config,
		Metrics:     active.Metrics,
	}
	if err := j.policies.Upsert(ctx, trained); err != nil {
		return fmt.Errorf("upsert trained policy: %w", err)
	}
	if err := j.policies.Activate(ctx, trained.PolicyID, now); err != nil {
		return fmt.Errorf("activate trained policy: %w", err)
	}

	j.log.Info().Str("policy_id", trained.PolicyID).Int("picks", len(graded)).Msg("nightly RL training complete")
	return nil
}

// cloneConfig deep-copies a PolicyConfig via round-trip JSON so bandit
// training mutates a fresh copy, never the registry's already-active config.
func cloneConfig(src domain.PolicyConfig) (domain.PolicyConfig, error) {
	var dst domain.PolicyConfig
	raw, err := json.Marshal(src)
	if err != nil {
		return dst, err
	}
	if err := json.Unmarshal(raw, &dst); err != nil {
		return dst, err
	}
	return dst, nil
}
