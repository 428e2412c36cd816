package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
)

type fakeOutcomeEvaluator struct {
	calls      []string
	err        error
}

func (f *fakeOutcomeEvaluator) EvaluateTradeDate(ctx context.Context, tradeDate string, horizon domain.EvaluationHorizon) error {
	f.calls = append(f.calls, tradeDate+":"+string(horizon))
	return f.err
}

func fixedClock(t time.Time) marketclock.Clock {
	return marketclock.Clock{Now: func() time.Time { return t }}
}

func TestEODOutcomesJobEvaluatesCurrentISTTradeDate(t *testing.T) {
	utc := time.Date(2026, 7, 31, 10, 30, 0, 0, time.UTC) // 16:00 IST
	evaluator := &fakeOutcomeEvaluator{}
	job := NewEODOutcomesJob(evaluator, fixedClock(utc), zerolog.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"2026-07-31:EOD"}, evaluator.calls)
	assert.Equal(t, string(marketclock.JobEODOutcomes), job.Name())
}

func TestEODOutcomesJobPropagatesEvaluatorError(t *testing.T) {
	evaluator := &fakeOutcomeEvaluator{err: errors.New("scan failed")}
	job := NewEODOutcomesJob(evaluator, fixedClock(time.Now()), zerolog.Nop())

	assert.Error(t, job.Run(context.Background()))
}
