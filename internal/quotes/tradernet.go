package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const tradernetDefaultBaseURL = "https://tradernet.com/api"

// TradernetClient is the primary broker-shaped quote/historical provider
// (§4.2, §6). It authenticates with an API key/secret pair the way the
// broker's REST API expects, and degrades to empty results (never an
// error) on any upstream failure so UnifiedProvider's fallback path can
// take over.
type TradernetClient struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
	log       zerolog.Logger
}

// NewTradernetClient builds a client against baseURL (empty uses the
// production default) using apiKey/apiSecret for request signing.
func NewTradernetClient(baseURL, apiKey, apiSecret string, log zerolog.Logger) *TradernetClient {
	if baseURL == "" {
		baseURL = tradernetDefaultBaseURL
	}
	return &TradernetClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: 8 * time.Second},
		log:       log.With().Str("component", "quotes.tradernet").Logger(),
	}
}

func (c *TradernetClient) Name() string { return "tradernet" }

type tradernetCandleRow struct {
	Timestamp int64   `json:"ts"`
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

// Historical fetches OHLCV bars for symbol over [from, to] at interval. A
// missing credential pair or any request failure degrades to an empty,
// error-free result (§7: consumers treat empty as skip-this-symbol).
func (c *TradernetClient) Historical(ctx context.Context, symbol string, from, to time.Time, interval Interval) ([]Candle, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", tradernetInterval(interval))
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))

	var rows []tradernetCandleRow
	if err := c.get(ctx, "/quotes/history", q, &rows); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("historical fetch failed")
		return nil, nil
	}

	candles := make([]Candle, 0, len(rows))
	for _, r := range rows {
		candles = append(candles, Candle{
			Timestamp: time.Unix(r.Timestamp, 0).UTC(),
			Open:      r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume,
		})
	}
	return candles, nil
}

type tradernetQuoteRow struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"ltp"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Volume        float64 `json:"volume"`
	OI            float64 `json:"oi"`
	ChangePercent float64 `json:"change_pct"`
}

// Quotes fetches a current snapshot for symbols on exchange. Symbols the
// upstream could not resolve are simply absent from the result map.
func (c *TradernetClient) Quotes(ctx context.Context, symbols []string, exchange Exchange) (map[string]Quote, error) {
	out := map[string]Quote{}
	if c.apiKey == "" || c.apiSecret == "" || len(symbols) == 0 {
		return out, nil
	}

	q := url.Values{}
	q.Set("exchange", string(exchange))
	for _, s := range symbols {
		q.Add("symbol", s)
	}

	var rows []tradernetQuoteRow
	if err := c.get(ctx, "/quotes/snapshot", q, &rows); err != nil {
		c.log.Warn().Err(err).Strs("symbols", symbols).Msg("quotes fetch failed")
		return out, nil
	}

	now := time.Now().UTC()
	for _, r := range rows {
		out[r.Symbol] = Quote{
			Symbol: r.Symbol, Price: r.LastPrice, Open: r.Open, High: r.High, Low: r.Low,
			Close: r.Close, Volume: r.Volume, OI: r.OI, ChangePercent: r.ChangePercent, Timestamp: now,
		}
	}
	return out, nil
}

func (c *TradernetClient) get(ctx context.Context, path string, q url.Values, dest any) error {
	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-API-Secret", c.apiSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tradernet upstream status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// tradernetInterval maps a canonical Interval to the broker's own interval
// naming convention.
func tradernetInterval(i Interval) string {
	switch i {
	case Interval1m:
		return "1"
	case Interval3m:
		return "3"
	case Interval5m:
		return "5"
	case Interval15m:
		return "15"
	case Interval30m:
		return "30"
	case Interval1h:
		return "60"
	case Interval1d:
		return "D"
	default:
		return "D"
	}
}
