package quotes

import (
	"context"

	"github.com/arise-platform/toppicks-engine/internal/domain"
)

type tradernetPositionRow struct {
	Symbol       string `json:"symbol"`
	Product      string `json:"product"`
	IsDerivative bool   `json:"is_derivative"`
	Quantity     int    `json:"quantity"`
	AveragePrice float64 `json:"avg_price"`
}

// Positions fetches the broker's current net positions (§4.6c). Any
// upstream failure degrades to an empty slice rather than an error,
// matching the rest of TradernetClient's fail-soft contract.
func (c *TradernetClient) Positions(ctx context.Context) ([]domain.BrokerPosition, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, nil
	}

	var rows []tradernetPositionRow
	if err := c.get(ctx, "/portfolio/positions", nil, &rows); err != nil {
		c.log.Warn().Err(err).Msg("positions fetch failed")
		return nil, nil
	}

	out := make([]domain.BrokerPosition, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.BrokerPosition{
			Symbol:       r.Symbol,
			Product:      domain.BrokerProduct(r.Product),
			IsDerivative: r.IsDerivative,
			Quantity:     r.Quantity,
			AveragePrice: r.AveragePrice,
		})
	}
	return out, nil
}

type tradernetHoldingRow struct {
	Symbol       string  `json:"symbol"`
	Quantity     int     `json:"quantity"`
	AveragePrice float64 `json:"avg_price"`
}

// Holdings fetches the broker's delivery holdings (§4.6c).
func (c *TradernetClient) Holdings(ctx context.Context) ([]domain.BrokerHolding, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, nil
	}

	var rows []tradernetHoldingRow
	if err := c.get(ctx, "/portfolio/holdings", nil, &rows); err != nil {
		c.log.Warn().Err(err).Msg("holdings fetch failed")
		return nil, nil
	}

	out := make([]domain.BrokerHolding, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.BrokerHolding{Symbol: r.Symbol, Quantity: r.Quantity, AveragePrice: r.AveragePrice})
	}
	return out, nil
}
