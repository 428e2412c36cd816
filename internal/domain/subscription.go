package domain

import "sync"

// TickSubscription is the in-memory bidirectional index between websocket
// connections and the symbols they have subscribed to (§3 TickSubscription).
// Invariant: when a symbol's connection set becomes empty, the upstream
// broker subscription is dropped, unless the symbol is in the always-on
// universe.
type TickSubscription struct {
	mu           sync.RWMutex
	bySocket     map[string]map[string]struct{} // socketID -> symbols
	bySymbol     map[string]map[string]struct{} // symbol -> socketIDs
	alwaysOn     map[string]struct{}
}

// NewTickSubscription builds an empty subscription index. alwaysOn lists
// symbols whose upstream subscription must never be dropped.
func NewTickSubscription(alwaysOn []string) *TickSubscription {
	set := make(map[string]struct{}, len(alwaysOn))
	for _, s := range alwaysOn {
		set[s] = struct{}{}
	}
	return &TickSubscription{
		bySocket: make(map[string]map[string]struct{}),
		bySymbol: make(map[string]map[string]struct{}),
		alwaysOn: set,
	}
}

// Subscribe records that socketID wants ticks for symbol.
func (t *TickSubscription) Subscribe(socketID, symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bySocket[socketID] == nil {
		t.bySocket[socketID] = make(map[string]struct{})
	}
	t.bySocket[socketID][symbol] = struct{}{}
	if t.bySymbol[symbol] == nil {
		t.bySymbol[symbol] = make(map[string]struct{})
	}
	t.bySymbol[symbol][socketID] = struct{}{}
}

// Unsubscribe removes one (socket, symbol) pair. It returns true when the
// symbol has no remaining subscribers and is not in the always-on universe,
// meaning the caller should drop the upstream broker subscription.
func (t *TickSubscription) Unsubscribe(socketID, symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if socks, ok := t.bySocket[socketID]; ok {
		delete(socks, symbol)
		if len(socks) == 0 {
			delete(t.bySocket, socketID)
		}
	}
	if sockets, ok := t.bySymbol[symbol]; ok {
		delete(sockets, socketID)
		if len(sockets) == 0 {
			delete(t.bySymbol, symbol)
			_, always := t.alwaysOn[symbol]
			return !always
		}
	}
	return false
}

// DropSocket removes all subscriptions for a closed connection, returning
// the symbols whose upstream subscription should now be dropped.
func (t *TickSubscription) DropSocket(socketID string) []string {
	t.mu.Lock()
	symbols := make([]string, 0, len(t.bySocket[socketID]))
	for sym := range t.bySocket[socketID] {
		symbols = append(symbols, sym)
	}
	t.mu.Unlock()

	var dropped []string
	for _, sym := range symbols {
		if t.Unsubscribe(socketID, sym) {
			dropped = append(dropped, sym)
		}
	}
	return dropped
}

// SocketsFor returns the set of socket IDs currently subscribed to symbol.
func (t *TickSubscription) SocketsFor(symbol string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sockets := t.bySymbol[symbol]
	out := make([]string, 0, len(sockets))
	for id := range sockets {
		out = append(out, id)
	}
	return out
}

// IsSubscribed reports whether any socket (or the always-on universe) still
// wants ticks for symbol.
func (t *TickSubscription) IsSubscribed(symbol string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.alwaysOn[symbol]; ok {
		return true
	}
	return len(t.bySymbol[symbol]) > 0
}
