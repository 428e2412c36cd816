package toppicks

import "sort"

// NIFTY50Symbols and BankNIFTYSymbols are the static index-constituent lists
// used both to resolve a named universe and to seed the always-on WebSocket
// subscription set, mirroring the original platform's index_universe config.
// They are intentionally static; updating constituents is a deploy-time
// config change, not a runtime one.
var NIFTY50Symbols = []string{
	"RELIANCE", "HDFCBANK", "ICICIBANK", "INFY", "TCS", "ITC", "LT", "SBIN",
	"AXISBANK", "HINDUNILVR", "KOTAKBANK", "BHARTIARTL", "HCLTECH", "ASIANPAINT",
	"MARUTI", "SUNPHARMA", "ULTRACEMCO", "BAJFINANCE", "BAJAJFINSV", "NESTLEIND",
	"TITAN", "WIPRO", "POWERGRID", "ONGC", "COALINDIA", "TATACONSUM", "TATAMOTORS",
	"TATASTEEL", "GRASIM", "HEROMOTOCO", "BPCL", "BRITANNIA", "CIPLA", "DIVISLAB",
	"DRREDDY", "EICHERMOT", "HDFCLIFE", "HINDALCO", "JSWSTEEL", "NTPC", "SBILIFE",
	"SHREECEM", "TECHM", "UPL", "ADANIPORTS", "BAJAJ-AUTO", "INDUSINDBK", "M&M",
	"TATAPOWER",
}

var BankNIFTYSymbols = []string{
	"HDFCBANK", "ICICIBANK", "SBIN", "AXISBANK", "KOTAKBANK", "INDUSINDBK",
	"BANDHANBNK", "FEDERALBNK", "IDFCFIRSTB", "PNB", "RBLBANK", "AUBANK",
}

// AlwaysOnSymbols is the deduplicated union of every static universe,
// subscribed upstream at startup so the tick cache is warm (§4.8).
func AlwaysOnSymbols() []string {
	seen := make(map[string]struct{})
	for _, s := range NIFTY50Symbols {
		seen[s] = struct{}{}
	}
	for _, s := range BankNIFTYSymbols {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// UniverseResolver maps a universe name to its constituent symbols.
type UniverseResolver interface {
	Resolve(universe string) []string
}

// StaticUniverseResolver serves the two built-in index universes.
type StaticUniverseResolver struct{}

func NewStaticUniverseResolver() StaticUniverseResolver { return StaticUniverseResolver{} }

func (StaticUniverseResolver) Resolve(universe string) []string {
	switch universe {
	case "NIFTY50":
		return NIFTY50Symbols
	case "BANKNIFTY":
		return BankNIFTYSymbols
	default:
		return nil
	}
}
