package bandit

import (
	"time"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/store"
)

// TrainModeBandits applies one nightly incremental-mean update pass over
// graded picks to each mode's entry and exit bandits in place (§4.10
// "nightly batch job updates ... bandit Q-values"). A pick with no
// entry_action_id/exit_profile_id recorded (agent disagreement degraded it,
// or it predates bandit tracking) contributes nothing.
func TrainModeBandits(config *domain.PolicyConfig, picks []store.GradedPick, now time.Time) {
	if config.Modes == nil {
		return
	}
	for _, gp := range picks {
		modeCfg := config.Modes[gp.Pick.Mode]
		if modeCfg == nil {
			continue
		}

		contextKey := gp.Pick.ExtraContext.BanditCtx
		if contextKey == "" {
			contextKey = ContextKey(gp.Pick.Mode, gp.Pick.RegimeBucket, gp.Pick.VolBucket, gp.Pick.UserRiskBucket)
		}

		ddPenalty := clip(max0(-gp.Outcome.MaxDrawdownPct)/4, 0, 1)
		stopPenalty := 0.0
		if gp.Outcome.HitStop {
			stopPenalty = 1.0
		}

		if actionID := gp.Pick.ExtraContext.EntryActionID; actionID != "" {
			reward := EntryReward(gp.Outcome.RetClosePct, ddPenalty, stopPenalty)
			UpdateAction(&modeCfg.EntryBandit, contextKey, actionID, reward, now)
		}

		if profileID := gp.Pick.ExtraContext.ExitProfileID; profileID != "" {
			exitCtx := ExitContextKey(gp.Pick.Mode, gp.Pick.RegimeBucket, gp.Pick.VolBucket,
				gp.Pick.UserRiskBucket, gp.Pick.ExtraContext.SessionSegment, gp.Pick.ExtraContext.ValueBucket)
			reward := ExitReward(gp.Outcome.RetClosePct, gp.Outcome.Notes.CaptureRatio, gp.Outcome.MaxDrawdownPct, gp.Outcome.HitStop)
			UpdateAction(&modeCfg.Bandit, exitCtx, profileID, reward, now)
		}
	}
}
