// Package reliability carries the ambient operational concerns spec.md is
// silent on: process health sampling for /healthz and off-site backup of
// the learning-plane's sqlite state, grounded on the teacher's
// internal/reliability package.
package reliability

import (
	"context"
	"database/sql"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// KVPinger is the narrow boundary HealthReport needs from the kv layer.
type KVPinger interface {
	Ping(ctx context.Context) bool
}

// SchedulerHeartbeat reports how long ago the scheduler last ticked.
type SchedulerHeartbeat interface {
	LastTickAge() time.Duration
}

// ProcessStats is a point-in-time CPU/memory sample.
type ProcessStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
}

// HealthReport is the /healthz response body (§ supplemented process health
// surface: "DB connectivity, scheduler liveness, KV connectivity").
type HealthReport struct {
	Status       string       `json:"status"`
	DBOK         bool         `json:"db_ok"`
	KVOK         bool         `json:"kv_ok"`
	SchedulerAge float64      `json:"scheduler_last_tick_age_sec"`
	Process      ProcessStats `json:"process"`
}

// HealthService samples process stats and probes the DB/KV/scheduler
// boundaries on demand. A short CPU sampling window (100ms) keeps /healthz
// responsive, matching the teacher's system_handlers.go rationale.
type HealthService struct {
	db        *sql.DB
	kv        KVPinger
	scheduler SchedulerHeartbeat
}

func NewHealthService(db *sql.DB, kv KVPinger, scheduler SchedulerHeartbeat) *HealthService {
	return &HealthService{db: db, kv: kv, scheduler: scheduler}
}

func (h *HealthService) Report(ctx context.Context) HealthReport {
	dbOK := h.db.PingContext(ctx) == nil

	kvOK := true
	if h.kv != nil {
		kvOK = h.kv.Ping(ctx)
	}

	var age time.Duration
	if h.scheduler != nil {
		age = h.scheduler.LastTickAge()
	}

	status := "ok"
	if !dbOK {
		status = "degraded"
	}

	return HealthReport{
		Status:       status,
		DBOK:         dbOK,
		KVOK:         kvOK,
		SchedulerAge: age.Seconds(),
		Process:      sampleProcess(),
	}
}

func sampleProcess() ProcessStats {
	var stats ProcessStats

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err == nil && len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		stats.MemPercent = memStat.UsedPercent
	}

	return stats
}
