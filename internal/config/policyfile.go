package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

// ModeWeightsFile mirrors config/mode_weights.json: {version, modes, meta}.
type ModeWeightsFile struct {
	Version string                     `json:"version"`
	Modes   map[string]ModeWeightsEntry `json:"modes"`
	Meta    map[string]any             `json:"meta,omitempty"`
}

// ModeWeightsEntry is one mode's agent weights and optional score thresholds.
type ModeWeightsEntry struct {
	Weights    map[string]float64 `json:"weights"`
	Thresholds map[string]any     `json:"thresholds,omitempty"`
}

// HorizonType classifies how an evaluation horizon is computed.
type HorizonType string

const (
	HorizonTypeExitOnly  HorizonType = "exit_only"
	HorizonTypeEODClose  HorizonType = "eod_close"
	HorizonTypeFixedDays HorizonType = "fixed_days"
)

// HorizonEntry is one mode's evaluation-horizon config.
type HorizonEntry struct {
	Type HorizonType `json:"type"`
	Days int         `json:"days,omitempty"`
}

// ModePolicy is the unified read-only policy surface for one mode: agent
// weights, thresholds, and the evaluation horizon they are scored against.
type ModePolicy struct {
	Mode       domain.Mode
	Weights    map[string]float64
	Thresholds map[string]any
	Horizon    domain.EvaluationHorizon
}

// PolicyFileStore is a read-only, hot-reloadable loader for
// mode_weights.json and performance_horizons.json. Offline learners and
// operators edit those files directly and bump the version field; ARISE
// never writes them.
type PolicyFileStore struct {
	mu            sync.RWMutex
	weightsPath   string
	horizonsPath  string
	version       string
	weights       map[string]ModeWeightsEntry
	horizons      map[string]HorizonEntry
}

// NewPolicyFileStore builds a store rooted at dir (ARISE_POLICY_DIR),
// performing an initial load. A missing or malformed file is treated as
// empty rather than an error — mirrors the degrade-to-defaults behavior the
// policy loader this is grounded on uses.
func NewPolicyFileStore(dir string) *PolicyFileStore {
	s := &PolicyFileStore{
		weightsPath:  filepath.Join(dir, "mode_weights.json"),
		horizonsPath: filepath.Join(dir, "performance_horizons.json"),
		version:      "1.0",
	}
	s.Reload()
	return s
}

// Reload re-reads both config files from disk, for hot config updates.
func (s *PolicyFileStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mw ModeWeightsFile
	if data, err := os.ReadFile(s.weightsPath); err == nil {
		_ = json.Unmarshal(data, &mw)
	}
	if mw.Version != "" {
		s.version = mw.Version
	}
	s.weights = mw.Modes
	if s.weights == nil {
		s.weights = map[string]ModeWeightsEntry{}
	}

	horizons := map[string]HorizonEntry{}
	if data, err := os.ReadFile(s.horizonsPath); err == nil {
		_ = json.Unmarshal(data, &horizons)
	}
	s.horizons = horizons
}

// Version returns the current policy version string.
func (s *PolicyFileStore) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ModePolicyFor returns the unified policy for mode. An unrecognized mode
// falls back to ModeSwing, matching the loader's own "unknown mode" default.
func (s *PolicyFileStore) ModePolicyFor(mode domain.Mode) ModePolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := string(mode)
	switch mode {
	case domain.ModeScalping, domain.ModeIntraday, domain.ModeSwing, domain.ModeOptions, domain.ModeFutures:
	default:
		key = string(domain.ModeSwing)
		mode = domain.ModeSwing
	}

	entry := s.weights[key]
	hz := s.horizons[key]

	horizon := domain.HorizonEOD
	switch hz.Type {
	case HorizonTypeExitOnly:
		horizon = domain.HorizonScalping
	case HorizonTypeFixedDays:
		horizon = domain.FixedDaysHorizon(hz.Days)
	case HorizonTypeEODClose, "":
		horizon = domain.HorizonEOD
	}

	return ModePolicy{
		Mode:       mode,
		Weights:    entry.Weights,
		Thresholds: entry.Thresholds,
		Horizon:    horizon,
	}
}
