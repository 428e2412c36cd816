package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
)

// OutcomeEvaluator is the narrow §4.12 boundary the EOD outcomes job
// depends on.
type OutcomeEvaluator interface {
	EvaluateTradeDate(ctx context.Context, tradeDate string, horizon domain.EvaluationHorizon) error
}

// EODOutcomesJob runs the daily EOD PickOutcome backfill at 16:00 IST
// (marketclock.JobEODOutcomes), evaluating the trade date that has just
// closed.
type EODOutcomesJob struct {
	evaluator OutcomeEvaluator
	clock     marketclock.Clock
	log       zerolog.Logger
}

func NewEODOutcomesJob(evaluator OutcomeEvaluator, clock marketclock.Clock, log zerolog.Logger) *EODOutcomesJob {
	return &EODOutcomesJob{evaluator: evaluator, clock: clock, log: log.With().Str("component", "eod_outcomes_job").Logger()}
}

func (j *EODOutcomesJob) Name() string { return string(marketclock.JobEODOutcomes) }

// Run evaluates the trade date that has just closed, 16:00 IST.
func (j *EODOutcomesJob) Run(ctx context.Context) error {
	tradeDate := marketclock.TradeDateIST(j.clock.NowIST())
	if err := j.evaluator.EvaluateTradeDate(ctx, tradeDate, domain.HorizonEOD); err != nil {
		j.log.Warn().Err(err).Str("trade_date", tradeDate).Msg("EOD outcome backfill failed")
		return err
	}
	return nil
}
