package quotes

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	tradernetTickWriteWait          = 10 * time.Second
	tradernetTickDialTimeout        = 30 * time.Second
	tradernetTickBaseReconnectDelay = 5 * time.Second
	tradernetTickMaxReconnectDelay  = 5 * time.Minute
)

// tradernetHTTP1Client forces HTTP/1.1 over TLS: Cloudflare's HTTP/2
// negotiation on the Tradernet edge breaks the websocket upgrade handshake.
func tradernetHTTP1Client() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{NextProtos: []string{"http/1.1"}},
		},
	}
}

type tradernetTickRow struct {
	Token  int64   `json:"token"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"ltp"`
	Qty    float64 `json:"vol"`
	Chg    float64 `json:"chg"`
	OI     float64 `json:"oi"`
}

// TradernetTickStream is the push-based tick boundary over Tradernet's
// WebSocket feed (§6 Tick stream). It implements quotes.TickStream and
// wshub.UpstreamFeed. Subscriptions are tracked by instrument token via a
// TokenMap so inbound ticks, addressed by token, resolve back to symbols.
type TradernetTickStream struct {
	wsURL string
	sid   string
	log   zerolog.Logger

	tokens *TokenMap

	mu        sync.Mutex
	conn      *websocket.Conn
	connCtx   context.Context
	cancel    context.CancelFunc
	stopped   bool
	stopChan  chan struct{}
	out       chan Tick
	symbolSet map[string]struct{}
}

func NewTradernetTickStream(wsURL, sid string, tokens *TokenMap, log zerolog.Logger) *TradernetTickStream {
	if tokens == nil {
		tokens = NewTokenMap()
	}
	return &TradernetTickStream{
		wsURL:     wsURL,
		sid:       sid,
		tokens:    tokens,
		log:       log.With().Str("component", "tradernet_tick_stream").Logger(),
		stopChan:  make(chan struct{}),
		out:       make(chan Tick, 256),
		symbolSet: make(map[string]struct{}),
	}
}

// Subscribe registers symbols against the live connection, dialing lazily
// on first use and reconnecting in the background on drop. The returned
// channel is shared across all subscribers; callers filter by symbol. The
// token<->symbol mapping itself is populated lazily as ticks arrive, since
// Tradernet assigns tokens server-side.
func (s *TradernetTickStream) Subscribe(ctx context.Context, symbols []string) (<-chan Tick, error) {
	s.mu.Lock()
	for _, sym := range symbols {
		s.symbolSet[sym] = struct{}{}
	}
	s.mu.Unlock()

	s.mu.Lock()
	needDial := s.conn == nil && !s.stopped
	alreadyConnected := s.conn != nil
	s.mu.Unlock()

	if needDial {
		if err := s.connect(ctx); err != nil {
			s.log.Warn().Err(err).Msg("initial dial failed, falling back to reconnect loop")
			go s.reconnectLoop()
		}
	} else if alreadyConnected {
		if err := s.sendSubscribe(ctx, symbols); err != nil {
			s.log.Warn().Err(err).Msg("subscribe message failed")
		}
	}

	return s.out, nil
}

// Unsubscribe drops symbols from the token map. The upstream feed is left
// connected; per-symbol unsubscribe messages are best-effort.
func (s *TradernetTickStream) Unsubscribe(ctx context.Context, symbols []string) error {
	s.mu.Lock()
	for _, sym := range symbols {
		delete(s.symbolSet, sym)
		s.tokens.Remove(sym)
	}
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	payload, err := json.Marshal([]any{"unsubscribe", symbols})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, tradernetTickWriteWait)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, payload)
}

// Stop closes the connection and halts reconnection. Idempotent.
func (s *TradernetTickStream) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopChan)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
}

func (s *TradernetTickStream) connect(ctx context.Context) error {
	dialCtx, cancelDial := context.WithTimeout(ctx, tradernetTickDialTimeout)
	defer cancelDial()

	url := s.wsURL
	if s.sid != "" {
		url = fmt.Sprintf("%s?SID=%s", url, s.sid)
	}

	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{HTTPClient: tradernetHTTP1Client()})
	if err != nil {
		return fmt.Errorf("dial tradernet tick stream: %w", err)
	}

	connCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conn = conn
	s.connCtx = connCtx
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.sendSubscribe(connCtx, s.subscribedSymbols()); err != nil {
		s.log.Warn().Err(err).Msg("initial subscribe failed")
	}

	go s.readMessages(connCtx, conn)
	return nil
}

func (s *TradernetTickStream) subscribedSymbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbols := make([]string, 0, len(s.symbolSet))
	for sym := range s.symbolSet {
		symbols = append(symbols, sym)
	}
	return symbols
}

func (s *TradernetTickStream) sendSubscribe(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	payload, err := json.Marshal([]any{"subscribe", symbols})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, tradernetTickWriteWait)
	defer cancel()
	return s.conn.Write(writeCtx, websocket.MessageText, payload)
}

func (s *TradernetTickStream) readMessages(ctx context.Context, conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		stopped := s.stopped
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		if !stopped {
			go s.reconnectLoop()
		}
	}()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("tick stream read error")
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		if err := s.handleMessage(data); err != nil {
			s.log.Debug().Err(err).Msg("failed to parse tick message")
		}
	}
}

func (s *TradernetTickStream) handleMessage(data []byte) error {
	var row tradernetTickRow
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	symbol := row.Symbol
	if symbol == "" {
		resolved, ok := s.tokens.SymbolFor(row.Token)
		if !ok {
			return nil
		}
		symbol = resolved
	} else {
		s.tokens.Put(row.Token, symbol)
	}
	tick := Tick{
		InstrumentToken: row.Token,
		Symbol:          symbol,
		LastPrice:       row.Price,
		Volume:          row.Qty,
		Change:          row.Chg,
		OI:              row.OI,
		LastTradeTime:   time.Now(),
	}
	select {
	case s.out <- tick:
	default:
		s.log.Warn().Str("symbol", symbol).Msg("tick channel full, dropping")
	}
	return nil
}

func (s *TradernetTickStream) reconnectLoop() {
	attempt := 0
	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		attempt++
		delay := tradernetTickBaseReconnectDelay * time.Duration(attempt)
		if delay > tradernetTickMaxReconnectDelay {
			delay = tradernetTickMaxReconnectDelay
		}

		select {
		case <-s.stopChan:
			return
		case <-time.After(delay):
		}

		if err := s.connect(context.Background()); err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("reconnect attempt failed")
			continue
		}
		s.log.Info().Int("attempt", attempt).Msg("tick stream reconnected")
		return
	}
}
