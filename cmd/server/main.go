// Command server is ARISE's entry point: it wires the TopPicksEngine,
// scheduler, monitors, WebSocket hub, and ambient health/backup surface,
// then blocks until an interrupt triggers an orderly shutdown.
//
// Startup order follows the teacher's cmd/server/main.go: load config,
// build the logger, open storage, wire services bottom-up, start the HTTP
// server, start background planes, then wait for a signal.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/arise-platform/toppicks-engine/internal/agents"
	"github.com/arise-platform/toppicks-engine/internal/candlecache"
	"github.com/arise-platform/toppicks-engine/internal/config"
	"github.com/arise-platform/toppicks-engine/internal/eventlog"
	"github.com/arise-platform/toppicks-engine/internal/exittracker"
	"github.com/arise-platform/toppicks-engine/internal/kv"
	"github.com/arise-platform/toppicks-engine/internal/logging"
	"github.com/arise-platform/toppicks-engine/internal/marketclock"
	"github.com/arise-platform/toppicks-engine/internal/monitor"
	"github.com/arise-platform/toppicks-engine/internal/quotes"
	"github.com/arise-platform/toppicks-engine/internal/reliability"
	"github.com/arise-platform/toppicks-engine/internal/scheduler"
	"github.com/arise-platform/toppicks-engine/internal/sentiment"
	"github.com/arise-platform/toppicks-engine/internal/server"
	"github.com/arise-platform/toppicks-engine/internal/store"
	"github.com/arise-platform/toppicks-engine/internal/toppicks"
	"github.com/arise-platform/toppicks-engine/internal/wshub"
)

const nightlyRLLookbackDays = 3

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Config{Level: "info", Pretty: true}).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().Msg("starting ARISE top picks engine")

	db, err := store.Open(filepath.Join(cfg.DataDir, "arise.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer db.Close()

	policyFiles := config.NewPolicyFileStore(cfg.PolicyConfigDir)
	topPicksStore := store.NewTopPicksStore(db, cfg.TopPicksRetentionDays, log)
	pickEventLog := store.NewPickEventLog(db, log)
	policyRegistry := store.NewPolicyRegistry(db, log)
	aiRecStore := store.NewAiRecommendationStore(db, log)

	kvStore, err := kv.New(cfg.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer kvStore.Close()

	sentimentProvider := sentiment.NewHTTPProvider(cfg.SentimentBaseURL, cfg.SentimentAPIKey, log)

	tradernetClient := quotes.NewTradernetClient("", cfg.TradernetAPIKey, cfg.TradernetAPISecret, log)
	alphavantageClient := quotes.NewAlphavantageClient("", cfg.AlphavantageAPIKey, log)
	quoteProvider := quotes.NewUnifiedProvider(tradernetClient, alphavantageClient, log)

	candleCache, err := candlecache.New(filepath.Join(cfg.DataDir, "candles"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open candle cache")
	}
	candleSource := store.CachedCandleSource{Cache: candleCache, Provider: quoteProvider}

	tokenMap := quotes.NewTokenMap()
	tickStream := quotes.NewTradernetTickStream(cfg.TradernetWSURL, cfg.TradernetSID, tokenMap, log)
	hub := wshub.NewHub(tickStream, toppicks.AlwaysOnSymbols(), log)

	outcomeEvaluator := store.NewOutcomeEvaluator(db, pickEventLog, candleSource, log)

	clock := marketclock.Clock{}

	scalpingExitTracker, err := exittracker.NewScalpingExitTracker(filepath.Join(cfg.DataDir, "scalping_exits"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open scalping exit tracker")
	}
	strategyExitTracker, err := exittracker.NewStrategyExitTracker(filepath.Join(cfg.DataDir, "strategy_advisories"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open strategy exit tracker")
	}
	srService := exittracker.NewSupportResistanceService(kvStore, candleSource, clock, log)

	coordinator := buildCoordinator(sentimentProvider, log)

	engine := toppicks.NewEngine(toppicks.Deps{
		Universe:    toppicks.NewStaticUniverseResolver(),
		Quotes:      quoteProvider,
		Coordinator: coordinator,
		PolicyFiles: policyFiles,
		Policies:    policyRegistry,
		Clock:       clock,
		KV:          kvStore,
		RunStore:    topPicksStore,
		PickLog:     pickEventLog,
		Broadcaster: hub,
		Log:         log,
	})

	watchlistStore := monitor.NewWatchlistStore(cfg.WatchlistPath)
	newsRisk := monitor.NewSentimentNewsRisk(sentimentProvider)

	portfolioMonitor := monitor.NewPortfolioMonitor(tradernetClient, watchlistStore, hub, quoteProvider, strategyExitTracker, srService, newsRisk, kvStore, clock, log)
	positionsMonitor := monitor.NewPositionsMonitor(topPicksStore, quoteProvider, strategyExitTracker, srService, newsRisk, clock, scheduler.Universes, log)
	scalpingMonitor := monitor.NewScalpingMonitor(topPicksStore, quoteProvider, scalpingExitTracker, aiRecStore, outcomeEvaluator, clock, scheduler.Universes, log)

	var backupClient reliability.BackupStore
	if bc, err := reliability.NewBackupClient(cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.S3Bucket); err != nil {
		log.Warn().Err(err).Msg("off-site backup client unavailable, backups disabled")
	} else if bc != nil {
		backupClient = bc
	}
	offsiteBackupJob := reliability.NewOffsiteBackupJob(db, filepath.Join(cfg.DataDir, "arise.db"), backupClient, cfg.BackupRetentionDays, log)

	sched := scheduler.New(log)
	entries := scheduleEntrySources()
	if err := scheduler.RegisterTopPicksJobs(sched, entries, engine, kvStore, kv.TopPicksLockKey, log); err != nil {
		log.Fatal().Err(err).Msg("failed to register top picks jobs")
	}
	mustAddJob(sched, marketclock.JobEODOutcomes, scheduler.NewEODOutcomesJob(outcomeEvaluator, clock, log), log)
	mustAddJob(sched, marketclock.JobDashboardRefresh, scheduler.NewDashboardRefreshJob(topPicksStore, kvStore, hub, scheduler.Universes, clock, log), log)
	mustAddJob(sched, marketclock.JobDailyPerformanceSnapshot, scheduler.NewPerformanceSnapshotJob(pickEventLog, kvStore, clock, log), log)
	mustAddJob(sched, marketclock.JobPortfolioMonitor, scheduler.NewMonitorJob(string(marketclock.JobPortfolioMonitor), portfolioMonitor), log)
	mustAddJob(sched, marketclock.JobNonScalpingMonitor, scheduler.NewMonitorJob(string(marketclock.JobNonScalpingMonitor), positionsMonitor), log)
	mustAddJob(sched, marketclock.JobScalpingMonitor, scheduler.NewMonitorJob(string(marketclock.JobScalpingMonitor), scalpingMonitor), log)
	mustAddJob(sched, marketclock.JobNightlyRL, scheduler.NewNightlyRLJob(pickEventLog, policyRegistry, clock, nightlyRLLookbackDays, log), log)
	mustAddJob(sched, marketclock.JobOffsiteBackup, offsiteBackupJob, log)

	healthService := reliability.NewHealthService(db, kvStore, sched)

	events := eventlog.New(filepath.Join(cfg.DataDir, "events"), log)

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Health:  healthService,
		Hub:     hub,
		DevMode: cfg.DevMode,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hub.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to warm up always-on tick subscriptions")
	}
	events.Start(ctx)
	sched.Start()

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	sched.Stop()
	tickStream.Stop()
	cancel()
	events.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// buildCoordinator registers every agent in DefaultWeights' declaration
// order (§4.4): the Sentiment agent is the only one with an external
// dependency, the rest are pure functions of the analysis Context.
func buildCoordinator(sentimentProvider sentiment.Provider, log zerolog.Logger) *agents.Coordinator {
	c := agents.NewCoordinator(log)
	c.Register(agents.NewTechnicalAgent())
	c.Register(agents.NewPatternRecognitionAgent())
	c.Register(agents.NewMarketRegimeAgent())
	c.Register(agents.NewGlobalMarketAgent())
	c.Register(agents.NewOptionsAgent())
	c.Register(agents.NewSentimentAgent(sentimentProvider))
	c.Register(agents.NewPolicyMacroAgent())
	c.Register(agents.NewWatchlistIntelligenceAgent())
	c.Register(agents.NewMicrostructureAgent())
	c.Register(agents.NewRiskAgent())
	c.Register(agents.NewTradeStrategyAgent())
	c.Register(agents.NewAutoMonitoringAgent())
	c.Register(agents.NewPersonalizationAgent())
	return c
}

// scheduleEntrySources narrows marketclock.Schedule down to the three
// TopPicks-relevant job kinds RegisterTopPicksJobs fans out across
// universes (§4.1).
func scheduleEntrySources() []scheduler.ScheduleEntrySource {
	var entries []scheduler.ScheduleEntrySource
	for _, e := range marketclock.Schedule {
		switch e.Job {
		case marketclock.JobPreopenRuns, marketclock.JobScalpingCycle, marketclock.JobHourlyRuns:
			entries = append(entries, scheduler.ScheduleEntrySource{Job: string(e.Job), Cron: e.Cron, Modes: e.Modes})
		}
	}
	return entries
}

// mustAddJob registers job on sched using name's fixed cron spec from
// marketclock.Schedule, fatal on a malformed spec (startup-only fatal
// policy).
func mustAddJob(sched *scheduler.Scheduler, name marketclock.JobName, job scheduler.Job, log zerolog.Logger) {
	for _, e := range marketclock.Schedule {
		if e.Job != name {
			continue
		}
		if err := sched.AddJob(e.Cron, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("failed to register job")
		}
		return
	}
	log.Fatal().Str("job", string(name)).Msg("no schedule entry for job")
}
