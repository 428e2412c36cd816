package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	ran chan struct{}
}

func (j *stubJob) Name() string { return "stub" }
func (j *stubJob) Run(ctx context.Context) error {
	close(j.ran)
	return nil
}

func TestSchedulerLastTickAgeZeroBeforeFirstRun(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Equal(t, time.Duration(0), s.LastTickAge())
}

func TestSchedulerLastTickAgeUpdatesAfterJobRuns(t *testing.T) {
	s := New(zerolog.Nop())
	job := &stubJob{ran: make(chan struct{})}
	require.NoError(t, s.AddJob("* * * * *", job))

	s.Start()
	defer s.Stop()

	select {
	case <-job.ran:
	case <-time.After(65 * time.Second):
		t.Fatal("job never ran within one minute")
	}

	time.Sleep(10 * time.Millisecond)
	assert.Less(t, s.LastTickAge(), 5*time.Second)
}

func TestSchedulerRunNowExecutesImmediately(t *testing.T) {
	s := New(zerolog.Nop())
	job := &stubJob{ran: make(chan struct{})}

	require.NoError(t, s.RunNow(context.Background(), job))

	select {
	case <-job.ran:
	default:
		t.Fatal("expected RunNow to have executed the job synchronously")
	}
}
