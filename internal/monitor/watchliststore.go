package monitor

import (
	"context"
	"encoding/json"
	"os"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

// watchlistFile mirrors config/watchlist.json: a flat list of symbols an
// operator is tracking without a live broker position.
type watchlistFile struct {
	Entries []domain.WatchlistEntry `json:"entries"`
}

// WatchlistStore is a read-only, hot-reloadable loader for watchlist.json,
// the WatchlistSource PortfolioMonitor consults (§4.6c). A missing or
// malformed file degrades to an empty watchlist, matching
// config.PolicyFileStore's degrade-to-defaults behavior.
type WatchlistStore struct {
	path string
}

func NewWatchlistStore(path string) *WatchlistStore {
	return &WatchlistStore{path: path}
}

// Entries re-reads watchlist.json from disk on every call; it's polled at
// most once per PortfolioMonitor cycle (every 5 minutes), so a fresh read
// is cheap and always reflects the latest operator edit.
func (s *WatchlistStore) Entries(ctx context.Context) ([]domain.WatchlistEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}
	var f watchlistFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil
	}
	return f.Entries, nil
}
