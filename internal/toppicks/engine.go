// Package toppicks implements the TopPicksEngine (§4.5): universe
// evaluation, agent-ensemble fanout, filtering into actionable picks,
// exit-strategy synthesis, persistence, caching, and broadcast.
package toppicks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/agents"
	"github.com/arise-platform/toppicks-engine/internal/bandit"
	"github.com/arise-platform/toppicks-engine/internal/config"
	"github.com/arise-platform/toppicks-engine/internal/domain"
	"github.com/arise-platform/toppicks-engine/internal/kv"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
)

// ErrHardCutoff signals that a run was skipped because it fell after the
// 15:15 IST hard cutoff for a cutoff-respecting mode and non-backfill
// trigger (§4.1, §4.5 step 1). Callers should serve the last cached run.
var ErrHardCutoff = errors.New("top picks run skipped: past hard cutoff")

// hardCutoffModes are the modes whose refresh is skipped once the market
// passes the 15:15 IST hard cutoff (§4.1). Swing is evaluated on daily bars
// and is exempt.
var hardCutoffModes = map[domain.Mode]bool{
	domain.ModeScalping: true,
	domain.ModeIntraday: true,
	domain.ModeOptions:  true,
	domain.ModeFutures:  true,
}

// TopN is the number of ranked picks retained per run (§4.5 step 5).
const TopN = 10

// PolicyRegistry resolves the currently active reinforcement Policy
// (exit/entry bandit state, exit profiles, regime bias) for a mode. Backed
// by internal/store's PolicyRegistry in production.
type PolicyRegistry interface {
	ActivePolicy() (domain.Policy, bool)
}

// RunStore persists a completed TopPicksRun (§4.11).
type RunStore interface {
	StoreRun(ctx context.Context, run domain.TopPicksRun) error
}

// PickEventLog appends PickEvents and their AgentContributions (§4.12).
type PickEventLog interface {
	LogPick(ctx context.Context, pick domain.PickEvent, contributions []domain.AgentContribution)
}

// Broadcaster pushes a named event payload to connected WebSocket clients
// (§4.5 step 9, §4.8).
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// Engine runs the Top Picks pipeline for a (universe, mode) pair.
type Engine struct {
	universe    UniverseResolver
	quotes      quotes.Provider
	coordinator *agents.Coordinator
	policyFiles *config.PolicyFileStore
	policies    PolicyRegistry
	clock       marketclock.Clock
	kv          *kv.Store
	runStore    RunStore
	pickLog     PickEventLog
	broadcaster Broadcaster
	log         zerolog.Logger
	rng         *rand.Rand
}

// Deps bundles Engine's collaborators for NewEngine.
type Deps struct {
	Universe    UniverseResolver
	Quotes      quotes.Provider
	Coordinator *agents.Coordinator
	PolicyFiles *config.PolicyFileStore
	Policies    PolicyRegistry
	Clock       marketclock.Clock
	KV          *kv.Store
	RunStore    RunStore
	PickLog     PickEventLog
	Broadcaster Broadcaster
	Log         zerolog.Logger
}

func NewEngine(d Deps) *Engine {
	return &Engine{
		universe:    d.Universe,
		quotes:      d.Quotes,
		coordinator: d.Coordinator,
		policyFiles: d.PolicyFiles,
		policies:    d.Policies,
		clock:       d.Clock,
		kv:          d.KV,
		runStore:    d.RunStore,
		pickLog:     d.PickLog,
		broadcaster: d.Broadcaster,
		log:         d.Log.With().Str("component", "top_picks_engine").Logger(),
		rng:         rand.New(rand.NewSource(1)),
	}
}

// symbolAnalysis is the per-symbol intermediate state threaded from the
// agent fanout through ranking and exit-strategy synthesis.
type symbolAnalysis struct {
	symbol         string
	quote          quotes.Quote
	candles        []quotes.Candle
	results        []agents.Result
	blendScore     float64
	recommendation domain.Recommendation
	regimeBucket   string
	volBucket      string
}

// Run executes one engine pass for (universe, mode) and returns the
// persisted TopPicksRun (§4.5 steps 1-9). The only error it returns is
// ErrHardCutoff, with an empty run, when a cutoff-respecting mode runs past
// 15:15 IST on a non-backfill trigger; per-symbol fetch failures skip the
// symbol and persistence failures are logged.
func (e *Engine) Run(ctx context.Context, universe string, mode domain.Mode, trigger domain.RunTrigger) (domain.TopPicksRun, error) {
	start := time.Now()
	now := e.clock.NowIST()

	if trigger != domain.TriggerBackfill && hardCutoffModes[mode] && marketclock.IsPastHardCutoff(now) {
		e.log.Info().Str("universe", universe).Str("mode", string(mode)).Msg("hard cutoff reached, short-circuiting to cached snapshot")
		return domain.TopPicksRun{}, ErrHardCutoff
	}

	symbols := e.universe.Resolve(universe)
	modePolicy := e.policyFiles.ModePolicyFor(mode)

	benchmark, _ := e.firstQuote(ctx, []string{"NIFTY50"}, quotes.ExchangeNSE)

	analyses := make([]symbolAnalysis, 0, len(symbols))
	for _, symbol := range symbols {
		analysis, ok := e.analyzeSymbol(ctx, symbol, mode, modePolicy.Weights, benchmark)
		if !ok {
			continue
		}
		analyses = append(analyses, analysis)
	}

	totalAnalyzed := len(analyses)

	filtered := make([]symbolAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if a.recommendation.IsActionable() {
			filtered = append(filtered, a)
		}
	}
	filteredCount := len(filtered)

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].blendScore > filtered[j].blendScore
	})
	if len(filtered) > TopN {
		filtered = filtered[:TopN]
	}

	runID := fmt.Sprintf("%s:%s:%s", universe, mode, now.UTC().Format(time.RFC3339Nano))
	picks := make([]domain.PickEvent, 0, len(filtered))
	contributions := make([]domain.AgentContribution, 0, len(filtered)*4)

	for _, a := range filtered {
		pick, contribs, exitStrategy := e.buildPick(runID, universe, mode, a, modePolicy)
		picks = append(picks, pick)
		contributions = append(contributions, contribs...)

		if e.pickLog != nil {
			e.pickLog.LogPick(ctx, pick, contribs)
		}
		_ = exitStrategy // carried inside pick.ExtraContext.Extra["exit_strategy"]
	}

	run := domain.TopPicksRun{
		RunID:          runID,
		Universe:       universe,
		Mode:           mode,
		GeneratedAtUTC: now.UTC(),
		Trigger:        trigger,
		TotalAnalyzed:  totalAnalyzed,
		FilteredCount:  filteredCount,
		PicksCount:     len(picks),
		ElapsedSec:     time.Since(start).Seconds(),
		Payload: domain.RunPayload{
			Picks:         picks,
			Contributions: contributions,
		},
	}

	if e.runStore != nil {
		if err := e.runStore.StoreRun(ctx, run); err != nil {
			e.log.Warn().Err(err).Str("run_id", runID).Msg("failed to persist top picks run")
		}
	}

	if e.kv != nil {
		e.kv.SetJSON(ctx, kv.TopPicksKey(universe, mode), run.Payload, kv.TTLTopPicksRun)
	}
	if e.broadcaster != nil {
		e.broadcaster.Broadcast("top_picks_update", run.Payload)
	}

	return run, nil
}

func (e *Engine) firstQuote(ctx context.Context, symbols []string, exchange quotes.Exchange) (quotes.Quote, bool) {
	result, err := e.quotes.Quotes(ctx, symbols, exchange)
	if err != nil {
		e.log.Warn().Err(err).Strs("symbols", symbols).Msg("benchmark quote fetch failed")
		return quotes.Quote{}, false
	}
	for _, sym := range symbols {
		if q, ok := result[sym]; ok {
			return q, true
		}
	}
	return quotes.Quote{}, false
}

func (e *Engine) analyzeSymbol(ctx context.Context, symbol string, mode domain.Mode, weights map[string]float64, benchmark quotes.Quote) (symbolAnalysis, bool) {
	to := e.clock.NowIST()
	from := to.AddDate(0, 0, -180)

	candles, err := e.quotes.Historical(ctx, symbol, from, to, quotes.Interval1d)
	if err != nil || len(candles) == 0 {
		if err != nil {
			e.log.Debug().Err(err).Str("symbol", symbol).Msg("historical fetch failed, skipping symbol")
		}
		return symbolAnalysis{}, false
	}

	quoteMap, err := e.quotes.Quotes(ctx, []string{symbol}, exchangeFor(symbol))
	if err != nil {
		e.log.Debug().Err(err).Str("symbol", symbol).Msg("quote fetch failed, continuing with zero-value quote")
	}
	quote := quoteMap[symbol]

	regimeBucket, volBucket := agents.RegimeBuckets(candles)

	agentCtx := agents.Context{
		Symbol:       symbol,
		Mode:         mode,
		Exchange:     exchangeFor(symbol),
		Quote:        quote,
		Candles:      candles,
		RegimeBucket: regimeBucket,
		VolBucket:    volBucket,
		Benchmark:    benchmark,
	}

	results := e.coordinator.Run(ctx, agentCtx)
	blendScore := agents.Blend(results, weights)
	recommendation := agents.RecommendationFromBlend(blendScore)

	return symbolAnalysis{
		symbol:         symbol,
		quote:          quote,
		candles:        candles,
		results:        results,
		blendScore:     blendScore,
		recommendation: recommendation,
		regimeBucket:   regimeBucket,
		volBucket:      volBucket,
	}, true
}

// buildPick synthesizes a PickEvent, its contributions, and exit strategy
// for one ranked symbol (§4.5 steps 4, 6, 7).
func (e *Engine) buildPick(runID, universe string, mode domain.Mode, a symbolAnalysis, modePolicy config.ModePolicy) (domain.PickEvent, []domain.AgentContribution, ExitStrategy) {
	pickUUID := uuid.NewString()
	direction := a.recommendation.Direction()
	now := e.clock.NowIST()

	confidence := agents.ConfidenceLabel(a.results)

	exitProfileID, entryActionID := e.resolveBanditActions(mode, a, direction)
	var exitStrategy ExitStrategy
	if mode == domain.ModeScalping {
		exitStrategy = BuildScalpingExitStrategy(atrPctEstimate(a.candles))
	} else {
		exitStrategy = BuildPolicyExitStrategy(mode, exitProfileID)
	}

	signalPrice := a.quote.Price
	if signalPrice == 0 && len(a.candles) > 0 {
		signalPrice = a.candles[len(a.candles)-1].Close
	}

	target, stop := e.resolveTargetStop(mode, direction, signalPrice, exitStrategy)

	pick := domain.PickEvent{
		PickUUID:          pickUUID,
		Symbol:            a.symbol,
		Direction:         direction,
		Source:            "top_picks_engine",
		Mode:              mode,
		SignalTS:          now.UTC(),
		TradeDate:         marketclock.TradeDateIST(now),
		SignalPrice:       signalPrice,
		RecommendedEntry:  &signalPrice,
		RecommendedTarget: target,
		RecommendedStop:   stop,
		TimeHorizon:    string(modePolicy.Horizon),
		BlendScore:     a.blendScore,
		Recommendation: a.recommendation,
		Confidence:     string(confidence),
		RegimeBucket:   a.regimeBucket,
		VolBucket:      a.volBucket,
		UserRiskBucket: "moderate",
		Universe:       universe,
		RunID:          runID,
		ExtraContext: domain.ExtraContext{
			BanditCtx:     bandit.ContextKey(mode, a.regimeBucket, a.volBucket, "moderate"),
			ExitProfileID: exitProfileID,
			EntryActionID: entryActionID,
			Extra: map[string]any{
				"exit_strategy": exitStrategy,
			},
		},
	}

	contributions := make([]domain.AgentContribution, 0, len(a.results))
	for _, r := range a.results {
		contributions = append(contributions, r.ToContribution(pickUUID))
	}

	return pick, contributions, exitStrategy
}

// resolveTargetStop derives concrete RecommendedTarget/RecommendedStop
// prices for a pick from its exit strategy, so the PositionMonitor plane has
// levels to evaluate against without re-deriving them (§4.5 step 6, §4.6).
// Scalping uses the ATR-scaled target/stop percentages directly; other modes
// resolve the active Policy's ExitProfile (percent or absolute price types
// only — rr_multiple profiles are left unresolved here since they require a
// stop distance the monitor, not the engine, computes at evaluation time).
func (e *Engine) resolveTargetStop(mode domain.Mode, direction domain.Direction, signalPrice float64, strategy ExitStrategy) (target, stop *float64) {
	sign := 1.0
	if direction == domain.DirectionShort {
		sign = -1.0
	}

	if mode == domain.ModeScalping {
		if signalPrice <= 0 {
			return nil, nil
		}
		t := signalPrice * (1 + sign*strategy.TargetPct/100)
		s := signalPrice * (1 - sign*strategy.StopPct/100)
		return &t, &s
	}

	if e.policies == nil || strategy.ExitProfileID == "" {
		return nil, nil
	}
	policy, ok := e.policies.ActivePolicy()
	if !ok || policy.Config.Modes == nil {
		return nil, nil
	}
	modeConfig, ok := policy.Config.Modes[mode]
	if !ok || modeConfig == nil {
		return nil, nil
	}
	profile, ok := modeConfig.ExitProfiles[strategy.ExitProfileID]
	if !ok {
		return nil, nil
	}

	switch profile.Target.Type {
	case domain.TargetPercent:
		t := signalPrice * (1 + sign*profile.Target.Value/100)
		target = &t
	case domain.TargetPrice:
		t := profile.Target.Value
		target = &t
	}
	switch profile.Stop.Type {
	case domain.StopPercent:
		s := signalPrice * (1 - sign*profile.Stop.Value/100)
		stop = &s
	case domain.StopPrice:
		s := profile.Stop.Value
		stop = &s
	}
	return target, stop
}

// resolveBanditActions selects the exit-profile and entry actions from the
// active Policy's bandits, falling back to empty ids when no policy is
// active or the mode has no configured exit profiles.
func (e *Engine) resolveBanditActions(mode domain.Mode, a symbolAnalysis, direction domain.Direction) (exitProfileID, entryActionID string) {
	if e.policies == nil {
		return "", ""
	}
	policy, ok := e.policies.ActivePolicy()
	if !ok || policy.Config.Modes == nil {
		return "", ""
	}
	modeConfig, ok := policy.Config.Modes[mode]
	if !ok || modeConfig == nil {
		return "", ""
	}

	exitIDs := make([]string, 0, len(modeConfig.ExitProfiles))
	for id := range modeConfig.ExitProfiles {
		exitIDs = append(exitIDs, id)
	}
	sort.Strings(exitIDs)
	if len(exitIDs) > 0 {
		ctxKey := bandit.ContextKey(mode, a.regimeBucket, a.volBucket, "moderate")
		exitProfileID = bandit.SelectAction(modeConfig.Bandit, ctxKey, exitIDs, e.rng)
	}

	entryActionID = string(direction)
	return exitProfileID, entryActionID
}

func exchangeFor(symbol string) quotes.Exchange {
	if looksLikeDerivative(symbol) {
		return quotes.ExchangeNFO
	}
	return quotes.ExchangeNSE
}

// looksLikeDerivative applies the NFO-routing heuristic from §4.2: a symbol
// containing digits and ending CE/PE/FUT is an options/futures contract.
func looksLikeDerivative(symbol string) bool {
	if len(symbol) < 3 {
		return false
	}
	suffix := symbol[len(symbol)-3:]
	if suffix != "FUT" && symbol[len(symbol)-2:] != "CE" && symbol[len(symbol)-2:] != "PE" {
		return false
	}
	for _, r := range symbol {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// atrPctEstimate approximates ATR% from the last 14 daily true ranges when a
// dedicated ATR series is unavailable, used to scale the scalping exit
// ladder (§4.5 step 6).
func atrPctEstimate(candles []quotes.Candle) float64 {
	const period = 14
	if len(candles) < period+1 {
		return 1.0
	}
	window := candles[len(candles)-period:]
	var sumTR float64
	prevClose := candles[len(candles)-period-1].Close
	for _, c := range window {
		tr := c.High - c.Low
		if up := abs64(c.High - prevClose); up > tr {
			tr = up
		}
		if down := abs64(c.Low - prevClose); down > tr {
			tr = down
		}
		sumTR += tr
		prevClose = c.Close
	}
	atr := sumTR / float64(period)
	lastClose := window[len(window)-1].Close
	if lastClose == 0 {
		return 1.0
	}
	return atr / lastClose * 100
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
