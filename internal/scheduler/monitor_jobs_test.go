package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCycler struct {
	calls int
	err   error
}

func (f *fakeCycler) RunCycle(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestMonitorJobDelegatesToCycler(t *testing.T) {
	cycler := &fakeCycler{}
	job := NewMonitorJob("scalping_positions_monitor", cycler)

	assert.Equal(t, "scalping_positions_monitor", job.Name())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, cycler.calls)
}

func TestMonitorJobPropagatesCyclerError(t *testing.T) {
	cycler := &fakeCycler{err: errors.New("evaluation failed")}
	job := NewMonitorJob("portfolio_monitor", cycler)

	assert.Error(t, job.Run(context.Background()))
}
