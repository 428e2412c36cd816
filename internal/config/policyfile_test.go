package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicyFiles(t *testing.T, dir string) {
	t.Helper()
	weights := `{"version":"2.1","modes":{"Scalping":{"weights":{"technical":0.6,"microstructure":0.4}}}}`
	horizons := `{"Scalping":{"type":"exit_only"},"Swing":{"type":"fixed_days","days":5}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mode_weights.json"), []byte(weights), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "performance_horizons.json"), []byte(horizons), 0o644))
}

func TestPolicyFileStoreLoadsWeightsAndHorizons(t *testing.T) {
	dir := t.TempDir()
	writePolicyFiles(t, dir)

	store := NewPolicyFileStore(dir)
	assert.Equal(t, "2.1", store.Version())

	scalping := store.ModePolicyFor(domain.ModeScalping)
	assert.Equal(t, 0.6, scalping.Weights["technical"])
	assert.Equal(t, domain.HorizonScalping, scalping.Horizon)

	swing := store.ModePolicyFor(domain.ModeSwing)
	assert.Equal(t, domain.EvaluationHorizon("FIXED_DAYS_5"), swing.Horizon)
}

func TestPolicyFileStoreMissingFilesDegradeToEmpty(t *testing.T) {
	dir := t.TempDir()
	store := NewPolicyFileStore(dir)
	assert.Equal(t, "1.0", store.Version())

	policy := store.ModePolicyFor(domain.ModeIntraday)
	assert.Empty(t, policy.Weights)
	assert.Equal(t, domain.HorizonEOD, policy.Horizon)
}

func TestPolicyFileStoreUnknownModeFallsBackToSwing(t *testing.T) {
	dir := t.TempDir()
	store := NewPolicyFileStore(dir)
	policy := store.ModePolicyFor("")
	assert.Equal(t, domain.ModeSwing, policy.Mode)
}

func TestPolicyFileStoreReload(t *testing.T) {
	dir := t.TempDir()
	writePolicyFiles(t, dir)
	store := NewPolicyFileStore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mode_weights.json"),
		[]byte(`{"version":"3.0","modes":{}}`), 0o644))
	store.Reload()
	assert.Equal(t, "3.0", store.Version())
}
