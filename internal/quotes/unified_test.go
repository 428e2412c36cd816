package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type mockProvider struct {
	name           string
	historicalRows []Candle
	historicalErr  error
	quotesResult   map[string]Quote
	quotesErr      error
	historicalCalls int
	quotesCalls     int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Historical(ctx context.Context, symbol string, from, to time.Time, interval Interval) ([]Candle, error) {
	m.historicalCalls++
	return m.historicalRows, m.historicalErr
}

func (m *mockProvider) Quotes(ctx context.Context, symbols []string, exchange Exchange) (map[string]Quote, error) {
	m.quotesCalls++
	return m.quotesResult, m.quotesErr
}

func TestUnifiedProviderPrefersPrimary(t *testing.T) {
	primary := &mockProvider{name: "primary", historicalRows: []Candle{{Close: 100}}}
	fallback := &mockProvider{name: "fallback"}
	u := NewUnifiedProvider(primary, fallback, zerolog.Nop())

	rows := u.Historical(context.Background(), "TCS", time.Now(), time.Now(), Interval1d)
	assert.Equal(t, []Candle{{Close: 100}}, rows)
	assert.Equal(t, 1, primary.historicalCalls)
	assert.Equal(t, 0, fallback.historicalCalls)
	assert.False(t, u.IsDegraded())
}

func TestUnifiedProviderDowngradesOnPrimaryFailure(t *testing.T) {
	primary := &mockProvider{name: "primary", historicalErr: errors.New("boom")}
	fallback := &mockProvider{name: "fallback", historicalRows: []Candle{{Close: 50}}}
	u := NewUnifiedProvider(primary, fallback, zerolog.Nop())

	rows := u.Historical(context.Background(), "TCS", time.Now(), time.Now(), Interval1d)
	assert.Equal(t, []Candle{{Close: 50}}, rows)
	assert.True(t, u.IsDegraded())
	assert.Equal(t, "fallback", u.Name())
}

func TestUnifiedProviderUpgradesBackOnPrimarySuccess(t *testing.T) {
	primary := &mockProvider{name: "primary", historicalErr: errors.New("boom")}
	fallback := &mockProvider{name: "fallback", historicalRows: []Candle{{Close: 50}}}
	u := NewUnifiedProvider(primary, fallback, zerolog.Nop())

	u.Historical(context.Background(), "TCS", time.Now(), time.Now(), Interval1d)
	assert.True(t, u.IsDegraded())

	primary.historicalErr = nil
	primary.historicalRows = []Candle{{Close: 100}}
	rows := u.Historical(context.Background(), "TCS", time.Now(), time.Now(), Interval1d)
	assert.Equal(t, []Candle{{Close: 100}}, rows)
	assert.False(t, u.IsDegraded())
}

func TestUnifiedProviderBothFailReturnsEmpty(t *testing.T) {
	primary := &mockProvider{name: "primary", quotesErr: errors.New("boom")}
	fallback := &mockProvider{name: "fallback", quotesErr: errors.New("boom too")}
	u := NewUnifiedProvider(primary, fallback, zerolog.Nop())

	result := u.Quotes(context.Background(), []string{"TCS"}, ExchangeNSE)
	assert.Empty(t, result)
}
