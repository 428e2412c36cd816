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

const alphavantageDefaultBaseURL = "https://www.alphavantage.co/query"

// AlphavantageClient is the fallback data-vendor-shaped quote/historical
// provider (§4.2, §7 Auth expiry). Intraday data-vendor APIs rate-limit
// aggressively, so every failure degrades to an empty result rather than
// propagating an error, matching TradernetClient's degrade contract.
type AlphavantageClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

func NewAlphavantageClient(baseURL, apiKey string, log zerolog.Logger) *AlphavantageClient {
	if baseURL == "" {
		baseURL = alphavantageDefaultBaseURL
	}
	return &AlphavantageClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 8 * time.Second},
		log:     log.With().Str("component", "quotes.alphavantage").Logger(),
	}
}

func (c *AlphavantageClient) Name() string { return "alphavantage" }

// Historical fetches OHLCV bars for symbol, filtered to [from, to]. A
// missing API key or any upstream failure degrades to an empty, error-free
// result.
func (c *AlphavantageClient) Historical(ctx context.Context, symbol string, from, to time.Time, interval Interval) ([]Candle, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	function, seriesKey := alphavantageFunction(interval)
	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	q.Set("outputsize", "compact")
	if interval != Interval1d {
		q.Set("interval", alphavantageInterval(interval))
	}

	raw := map[string]json.RawMessage{}
	if err := c.get(ctx, q, &raw); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("historical fetch failed")
		return nil, nil
	}

	seriesRaw, ok := raw[seriesKey]
	if !ok {
		return nil, nil
	}
	var series map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	}
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("historical series decode failed")
		return nil, nil
	}

	var candles []Candle
	for ts, row := range series {
		t, err := time.Parse("2006-01-02 15:04:05", ts)
		if err != nil {
			t, err = time.Parse("2006-01-02", ts)
			if err != nil {
				continue
			}
		}
		if t.Before(from) || t.After(to) {
			continue
		}
		candles = append(candles, Candle{
			Timestamp: t,
			Open:      parseFloat(row.Open),
			High:      parseFloat(row.High),
			Low:       parseFloat(row.Low),
			Close:     parseFloat(row.Close),
			Volume:    parseFloat(row.Volume),
		})
	}
	return candles, nil
}

type alphavantageQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		PreviousClose string `json:"08. previous close"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// Quotes fetches a best-effort snapshot per symbol; the vendor's quote
// endpoint is single-symbol, so this issues one request per symbol and
// skips any that fail.
func (c *AlphavantageClient) Quotes(ctx context.Context, symbols []string, exchange Exchange) (map[string]Quote, error) {
	out := map[string]Quote{}
	if c.apiKey == "" {
		return out, nil
	}

	for _, symbol := range symbols {
		q := url.Values{}
		q.Set("function", "GLOBAL_QUOTE")
		q.Set("symbol", symbol)
		q.Set("apikey", c.apiKey)

		var parsed alphavantageQuoteResponse
		if err := c.get(ctx, q, &parsed); err != nil {
			c.log.Debug().Err(err).Str("symbol", symbol).Msg("quote fetch failed, skipping")
			continue
		}
		if parsed.GlobalQuote.Symbol == "" {
			continue
		}

		out[symbol] = Quote{
			Symbol: symbol,
			Price:  parseFloat(parsed.GlobalQuote.Price),
			Open:   parseFloat(parsed.GlobalQuote.Open),
			High:   parseFloat(parsed.GlobalQuote.High),
			Low:    parseFloat(parsed.GlobalQuote.Low),
			Close:  parseFloat(parsed.GlobalQuote.PreviousClose),
			Volume: parseFloat(parsed.GlobalQuote.Volume),
			ChangePercent: parsePercent(parsed.GlobalQuote.ChangePercent),
			Timestamp:     time.Now().UTC(),
		}
	}
	return out, nil
}

func (c *AlphavantageClient) get(ctx context.Context, q url.Values, dest any) error {
	reqURL := c.baseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alphavantage upstream status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func alphavantageFunction(interval Interval) (function, seriesKey string) {
	if interval == Interval1d {
		return "TIME_SERIES_DAILY", "Time Series (Daily)"
	}
	return "TIME_SERIES_INTRADAY", fmt.Sprintf("Time Series (%s)", alphavantageInterval(interval))
}

func alphavantageInterval(i Interval) string {
	switch i {
	case Interval1m:
		return "1min"
	case Interval3m:
		return "5min"
	case Interval5m:
		return "5min"
	case Interval15m:
		return "15min"
	case Interval30m:
		return "30min"
	case Interval1h:
		return "60min"
	default:
		return "60min"
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parsePercent(s string) float64 {
	if len(s) > 0 && s[len(s)-1] == '%' {
		s = s[:len(s)-1]
	}
	return parseFloat(s)
}
