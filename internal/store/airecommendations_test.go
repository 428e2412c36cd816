package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAiRecommendationStoreLogAndCloseOnExit(t *testing.T) {
	db := openTestDB(t)
	store := NewAiRecommendationStore(db, zerolog.Nop())

	pick := samplePick("pick-ai-1", "2026-07-20")
	store.LogPick(context.Background(), pick)

	var closed int
	row := db.QueryRow(`SELECT closed FROM ai_recommendations WHERE pick_uuid = ?`, "pick-ai-1")
	require.NoError(t, row.Scan(&closed))
	assert.Equal(t, 0, closed)

	store.CloseOnExit(context.Background(), "pick-ai-1", 108.5, 8.5, time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC))

	row = db.QueryRow(`SELECT exit_price, realized_pnl_pct, closed FROM ai_recommendations WHERE pick_uuid = ?`, "pick-ai-1")
	var exitPrice, pnl float64
	require.NoError(t, row.Scan(&exitPrice, &pnl, &closed))
	assert.Equal(t, 108.5, exitPrice)
	assert.Equal(t, 8.5, pnl)
	assert.Equal(t, 1, closed)
}

func TestAiRecommendationStoreLogPickIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	store := NewAiRecommendationStore(db, zerolog.Nop())

	pick := samplePick("pick-ai-2", "2026-07-20")
	store.LogPick(context.Background(), pick)
	store.LogPick(context.Background(), pick)

	var count int
	row := db.QueryRow(`SELECT COUNT(*) FROM ai_recommendations WHERE pick_uuid = ?`, "pick-ai-2")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
}
