package scheduler

import "context"

// Cycler is the narrow boundary every PositionMonitor plane component
// (ScalpingMonitor, PositionsMonitor, PortfolioMonitor) satisfies: one gated
// evaluation pass per invocation.
type Cycler interface {
	RunCycle(ctx context.Context) error
}

// MonitorJob adapts a Cycler into a scheduler.Job, so the three
// PositionMonitor plane components (§4.6) can be registered on the
// scheduler the same way TopPicksJob is.
type MonitorJob struct {
	name    string
	monitor Cycler
}

// NewMonitorJob names the job after which JobName it implements, e.g.
// marketclock.JobScalpingMonitor.
func NewMonitorJob(name string, monitor Cycler) *MonitorJob {
	return &MonitorJob{name: name, monitor: monitor}
}

func (j *MonitorJob) Name() string { return j.name }

func (j *MonitorJob) Run(ctx context.Context) error {
	return j.monitor.RunCycle(ctx)
}
