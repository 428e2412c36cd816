// Package exittracker holds the two file-backed audit logs that sit between
// the PositionMonitor plane and the realized-outcome stores: ScalpingExitTracker
// (§4.6a/§4.7) and StrategyExitTracker (§4.7), plus SupportResistanceService
// (§4.7). Grounded on the teacher's filesystem-backed reliability services
// (health_service.go, backup_service.go): a struct wrapping a base directory,
// a mutex guarding read-modify-write cycles, and os/encoding-json for
// persistence, generalized from the teacher's single-file checks to a
// per-IST-day JSON file per symbol/strategy domain.
package exittracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
)

// ScalpingExitTracker is the per-IST-day JSON audit log of closed scalping
// positions (§4.6a, §4.7). Deduplicated by (Symbol, EntryTime).
type ScalpingExitTracker struct {
	mu      sync.Mutex
	dir     string
	log     zerolog.Logger
}

type scalpingExitFile struct {
	Date  string               `json:"date"`
	Exits []domain.ScalpingExit `json:"exits"`
}

// NewScalpingExitTracker builds a tracker rooted at dir (created if absent).
func NewScalpingExitTracker(dir string, log zerolog.Logger) (*ScalpingExitTracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scalping exits dir: %w", err)
	}
	return &ScalpingExitTracker{dir: dir, log: log.With().Str("component", "scalping_exit_tracker").Logger()}, nil
}

func (t *ScalpingExitTracker) filePath(day time.Time) string {
	return filepath.Join(t.dir, fmt.Sprintf("exits_%s.json", day.In(marketclock.ISTLocation).Format("20060102")))
}

// LogExit appends exit to its IST trade-day file, skipping (with a warning
// log) if (Symbol, EntryTime) is already recorded (§4.6a dedup-write).
func (t *ScalpingExitTracker) LogExit(exit domain.ScalpingExit) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := t.filePath(exit.ExitTime)
	file, err := t.load(path, exit.ExitTime)
	if err != nil {
		return err
	}

	for _, existing := range file.Exits {
		if existing.DedupKey() == exit.DedupKey() {
			t.log.Warn().Str("symbol", exit.Symbol).Time("entry_time", exit.EntryTime).Msg("exit already logged")
			return nil
		}
	}

	file.Exits = append(file.Exits, exit)
	if err := t.save(path, file); err != nil {
		return err
	}
	t.log.Info().Str("symbol", exit.Symbol).Str("reason", string(exit.ExitReason)).Float64("return_pct", exit.ReturnPct).Msg("exit logged")
	return nil
}

// GetExit retrieves the exit for symbol closed on entryDate (IST calendar
// date), optionally disambiguated to the nearest EntryTime within a 2-minute
// tolerance window (§4.6a lookup semantics).
func (t *ScalpingExitTracker) GetExit(symbol string, entryDate time.Time, entryTime *time.Time) (domain.ScalpingExit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := t.filePath(entryDate)
	file, err := t.load(path, entryDate)
	if err != nil {
		return domain.ScalpingExit{}, false
	}

	var fallback *domain.ScalpingExit
	var best *domain.ScalpingExit
	bestDelta := time.Duration(1<<63 - 1)

	for i := range file.Exits {
		e := &file.Exits[i]
		if e.Symbol != symbol {
			continue
		}
		if fallback == nil {
			fallback = e
		}
		if entryTime == nil {
			continue
		}
		delta := e.EntryTime.Sub(*entryTime)
		if delta < 0 {
			delta = -delta
		}
		if delta <= 2*time.Minute && delta < bestDelta {
			bestDelta = delta
			best = e
		}
	}

	if best != nil {
		return *best, true
	}
	if entryTime == nil && fallback != nil {
		return *fallback, true
	}
	return domain.ScalpingExit{}, false
}

func (t *ScalpingExitTracker) load(path string, day time.Time) (scalpingExitFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return scalpingExitFile{Date: marketclock.TradeDateIST(day)}, nil
	}
	if err != nil {
		return scalpingExitFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	var file scalpingExitFile
	if err := json.Unmarshal(data, &file); err != nil {
		return scalpingExitFile{}, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return file, nil
}

func (t *ScalpingExitTracker) save(path string, file scalpingExitFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal exits file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
