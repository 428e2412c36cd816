// Package wshub is the WebSocket fan-out and tick bus (§4.8): it accepts
// client connections, tracks per-connection symbol subscriptions, aggregates
// the upstream broker tick feed, and broadcasts updates to interested
// clients. Grounded on the teacher's MarketStatusWebSocket
// (clients/tradernet/websocket_client.go): nhooyr.io/websocket plus a
// zerolog component logger and mutex-guarded state, adapted from an
// outbound Dial client serving one cache to an inbound Accept server
// fanning out to many concurrent connections.
package wshub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

const (
	sendBufferSize = 32
	writeWait      = 10 * time.Second
)

// UpstreamFeed is the broker tick-stream boundary the Hub subscribes
// symbols to/from as client interest changes.
type UpstreamFeed interface {
	Subscribe(ctx context.Context, symbols []string) (<-chan quotes.Tick, error)
	Unsubscribe(ctx context.Context, symbols []string) error
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub holds connections: set, by_conn: conn->symbols, by_symbol:
// symbol->conns (via domain.TickSubscription), and the always-warm tick
// cache every Portfolio/Watchlist monitor falls back to before hitting the
// chart provider.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	subs     *domain.TickSubscription
	feed     UpstreamFeed
	alwaysOn []string

	tickMu   sync.RWMutex
	lastTick map[string]quotes.Tick

	log zerolog.Logger
}

func NewHub(feed UpstreamFeed, alwaysOn []string, log zerolog.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*client),
		subs:     domain.NewTickSubscription(alwaysOn),
		feed:     feed,
		alwaysOn: alwaysOn,
		lastTick: make(map[string]quotes.Tick),
		log:      log.With().Str("component", "ws_hub").Logger(),
	}
}

// Start subscribes the always-on universe upstream so the tick cache is
// warm before any client connects (§4.8).
func (h *Hub) Start(ctx context.Context) error {
	if len(h.alwaysOn) == 0 {
		return nil
	}
	ticks, err := h.feed.Subscribe(ctx, h.alwaysOn)
	if err != nil {
		return err
	}
	go h.consume(ctx, ticks)
	return nil
}

func (h *Hub) consume(ctx context.Context, ticks <-chan quotes.Tick) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			h.ingest(tick)
		}
	}
}

// ingest updates the tick cache and fans the update out to every connection
// subscribed to the symbol.
func (h *Hub) ingest(tick quotes.Tick) {
	if tick.Symbol == "" {
		return
	}
	h.tickMu.Lock()
	h.lastTick[tick.Symbol] = tick
	h.tickMu.Unlock()

	payload := mustJSON(map[string]any{
		"type": "tick", "symbol": tick.Symbol, "price": tick.LastPrice,
		"change": tick.Change, "ts": tick.LastTradeTime,
	})
	for _, socketID := range h.subs.SocketsFor(tick.Symbol) {
		h.send(socketID, payload)
	}
}

// LastTick implements the monitor package's TickCache boundary.
func (h *Hub) LastTick(symbol string) (quotes.Tick, bool) {
	h.tickMu.RLock()
	defer h.tickMu.RUnlock()
	tick, ok := h.lastTick[symbol]
	return tick, ok
}

// Connect upgrades r to a WebSocket connection, registers it, and runs its
// read/write pumps until the connection closes (§4.8 Connect).
func (h *Hub) Connect(w http.ResponseWriter, r *http.Request) error {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.Info().Str("socket_id", c.id).Msg("client connected")
	h.send(c.id, mustJSON(map[string]any{"type": "connected", "socket_id": c.id}))

	ctx := r.Context()
	go h.writePump(ctx, c)
	h.readPump(ctx, c)
	return nil
}

func (h *Hub) writePump(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	defer h.disconnect(c)
	for {
		_, message, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		h.handleMessage(ctx, c, message)
	}
}

type clientMessage struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

func (h *Hub) handleMessage(ctx context.Context, c *client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.log.Debug().Err(err).Str("socket_id", c.id).Msg("ignoring unparseable client message")
		return
	}
	switch msg.Type {
	case "subscribe":
		h.Subscribe(ctx, c.id, msg.Symbols)
	case "unsubscribe":
		h.Unsubscribe(ctx, c.id, msg.Symbols)
	default:
		h.log.Debug().Str("type", msg.Type).Msg("ignoring unknown client message type")
	}
}

// Subscribe records socketID's interest in symbols, subscribing any
// newly-wanted symbol upstream (§4.8 Subscribe).
func (h *Hub) Subscribe(ctx context.Context, socketID string, symbols []string) {
	var newUpstream []string
	for _, symbol := range symbols {
		alreadyWanted := h.subs.IsSubscribed(symbol)
		h.subs.Subscribe(socketID, symbol)
		if !alreadyWanted {
			newUpstream = append(newUpstream, symbol)
		}
	}
	if len(newUpstream) > 0 {
		if _, err := h.feed.Subscribe(ctx, newUpstream); err != nil {
			h.log.Warn().Err(err).Strs("symbols", newUpstream).Msg("upstream subscribe failed")
		}
	}
	h.send(socketID, mustJSON(map[string]any{"type": "subscribed", "symbols": symbols}))
}

// Unsubscribe mirrors Subscribe, dropping the upstream subscription once a
// symbol has no remaining subscriber (§4.8 Unsubscribe).
func (h *Hub) Unsubscribe(ctx context.Context, socketID string, symbols []string) {
	var dropUpstream []string
	for _, symbol := range symbols {
		if h.subs.Unsubscribe(socketID, symbol) {
			dropUpstream = append(dropUpstream, symbol)
		}
	}
	if len(dropUpstream) > 0 {
		if err := h.feed.Unsubscribe(ctx, dropUpstream); err != nil {
			h.log.Warn().Err(err).Strs("symbols", dropUpstream).Msg("upstream unsubscribe failed")
		}
	}
	h.send(socketID, mustJSON(map[string]any{"type": "unsubscribed", "symbols": symbols}))
}

// Disconnect drops socketID, for callers that only hold the id (e.g. an
// external close notification) rather than the *client (§4.8 Disconnect).
func (h *Hub) Disconnect(socketID string) {
	h.mu.RLock()
	c, ok := h.clients[socketID]
	h.mu.RUnlock()
	if ok {
		h.disconnect(c)
	}
}

func (h *Hub) disconnect(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	h.mu.Unlock()

	close(c.send)
	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "")
	}

	dropped := h.subs.DropSocket(c.id)
	if len(dropped) > 0 {
		if err := h.feed.Unsubscribe(context.Background(), dropped); err != nil {
			h.log.Warn().Err(err).Strs("symbols", dropped).Msg("upstream unsubscribe on disconnect failed")
		}
	}
	h.log.Info().Str("socket_id", c.id).Msg("client disconnected")
}

// Broadcast fans payload out to every connected client: top_picks_update
// (§4.5 step 9), portfolio_monitor_update/watchlist_monitor_update (§4.6b/c).
func (h *Hub) Broadcast(messageType string, payload any) {
	data := mustJSON(map[string]any{"type": messageType, "payload": payload})
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		h.send(id, data)
	}
}

// ConnectionCount reports the number of live connections, for /readyz and
// dashboard metrics.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) send(socketID string, payload []byte) {
	h.mu.RLock()
	c, ok := h.clients[socketID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		h.log.Warn().Str("socket_id", socketID).Msg("send buffer full, dropping message")
	}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{}`)
	}
	return data
}
