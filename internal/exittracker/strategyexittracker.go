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
)

// StrategyExitTracker is the per-IST-day JSON log of S1/S2/S3/SR/NEWS
// advisories (§4.7). Deduplicated by StrategyAdvisory.DedupKey.
type StrategyExitTracker struct {
	mu  sync.Mutex
	dir string
	log zerolog.Logger
}

type advisoryFile struct {
	Date       string                    `json:"date"`
	Advisories []domain.StrategyAdvisory `json:"advisories"`
}

func NewStrategyExitTracker(dir string, log zerolog.Logger) (*StrategyExitTracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create strategy advisories dir: %w", err)
	}
	return &StrategyExitTracker{dir: dir, log: log.With().Str("component", "strategy_exit_tracker").Logger()}, nil
}

func (t *StrategyExitTracker) filePath(day time.Time) string {
	return filepath.Join(t.dir, fmt.Sprintf("advisories_%s.json", day.Format("20060102")))
}

// Record appends advisory to its trade-day file, skipping duplicates by
// DedupKey (§4.7 dedup key).
func (t *StrategyExitTracker) Record(advisory domain.StrategyAdvisory) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	day, err := time.Parse("2006-01-02", advisory.TradeDate)
	if err != nil {
		return fmt.Errorf("parse trade_date %q: %w", advisory.TradeDate, err)
	}

	path := t.filePath(day)
	file, err := t.load(path, advisory.TradeDate)
	if err != nil {
		return err
	}

	for _, existing := range file.Advisories {
		if existing.DedupKey() == advisory.DedupKey() {
			return nil
		}
	}

	file.Advisories = append(file.Advisories, advisory)
	return t.save(path, file)
}

// GetExitFor returns the best-ranked advisory for symbol on tradeDate,
// optionally filtered to strategyID and mode, ranked by
// (kind_priority, earliest generated_at) per §4.7.
func (t *StrategyExitTracker) GetExitFor(symbol, tradeDate, strategyID string, mode domain.Mode) (domain.StrategyAdvisory, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	day, err := time.Parse("2006-01-02", tradeDate)
	if err != nil {
		return domain.StrategyAdvisory{}, false
	}

	file, err := t.load(t.filePath(day), tradeDate)
	if err != nil {
		return domain.StrategyAdvisory{}, false
	}

	var candidates []domain.StrategyAdvisory
	for _, a := range file.Advisories {
		if a.Symbol != symbol {
			continue
		}
		if strategyID != "" && a.StrategyID != strategyID {
			continue
		}
		if mode != "" && a.Mode != mode {
			continue
		}
		candidates = append(candidates, a)
	}
	return domain.BestAdvisory(candidates)
}

func (t *StrategyExitTracker) load(path, tradeDate string) (advisoryFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return advisoryFile{Date: tradeDate}, nil
	}
	if err != nil {
		return advisoryFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	var file advisoryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return advisoryFile{}, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return file, nil
}

func (t *StrategyExitTracker) save(path string, file advisoryFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal advisories file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
