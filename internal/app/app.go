package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"ArtistScout/internal/adapter"
	"ArtistScout/internal/cache"
	"ArtistScout/internal/config"
	"ArtistScout/internal/dedup"
	"ArtistScout/internal/filter"
	"ArtistScout/internal/infrastructure/llm"
	"ArtistScout/internal/infrastructure/platforms"
	"ArtistScout/internal/infrastructure/scheduler"
	"ArtistScout/internal/infrastructure/storage"
	"ArtistScout/internal/infrastructure/telegram"
	"ArtistScout/internal/infrastructure/videosearch"
	"ArtistScout/internal/logging"
	"ArtistScout/internal/ports"
	"ArtistScout/internal/quota"
	"ArtistScout/internal/scoring"
	"ArtistScout/internal/usecase"
)

// Application wires configuration to the discovery pipeline and owns
// the lifecycle of its stateful services.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	orchestrator *usecase.Orchestrator
	respCache    *cache.Cache
	db           *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	engine, err := scoring.New(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}

	ledger := quota.NewLedger(cfg.Quota)
	respCache := cache.New(cfg.Cache.MaxEntries, cfg.Cache.SweepEvery.Std())
	deduper := dedup.New(cfg.Dedup.NameSimilarityThreshold)
	rules := filter.New(cfg.Filter)

	registry := adapter.NewRegistry()
	registry.Register(platforms.NewVideo(cfg.Search.Endpoint, "", nil))
	registry.Register(platforms.NewStreaming(cfg.Platforms.Streaming.Endpoint, cfg.Platforms.Streaming.APIKey, nil))
	registry.Register(platforms.NewSocial(cfg.Platforms.Social.Endpoint, cfg.Platforms.Social.APIKey, nil))
	registry.Register(platforms.NewShortVideo(cfg.Platforms.ShortVideo.Endpoint, cfg.Platforms.ShortVideo.APIKey, nil))
	if cfg.LLM.APIKey != "" {
		registry.Register(llm.New(cfg.LLM))
	}

	gateway := adapter.NewGateway(registry, ledger, respCache, adapter.GatewayConfig{
		MaxRetries:  cfg.Session.MaxRetries,
		BaseBackoff: cfg.Session.BaseBackoff.Std(),
		CacheTTL:    cfg.Cache.TTL.Std(),
	}, logging.Component(baseLogger, "gateway"))

	var db *sql.DB
	var repository ports.ArtistRepository
	if cfg.Database.DSN != "" {
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repository = storage.NewPostgresRepository(db)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	source := videosearch.New(cfg.Search.Endpoint, nil)

	orchestrator := usecase.NewOrchestrator(usecase.Deps{
		Search:     source,
		Gateway:    gateway,
		Deduper:    deduper,
		Filter:     rules,
		Scoring:    engine,
		Repository: repository,
		Notifier:   notifier,
		Ledger:     ledger,
		Logger:     logging.Component(baseLogger, "orchestrator"),
		Platforms:  registry.Platforms(),
		Filters: ports.SearchFilters{
			PublishedAfter: time.Now().AddDate(0, 0, -cfg.Search.RecencyDays),
			MaxDuration:    time.Duration(cfg.Search.MaxDurationMin) * time.Minute,
			HDOnly:         cfg.Search.HDOnly,
		},
		MaxPages:       cfg.Session.MaxPages,
		Concurrency:    cfg.Session.Concurrency,
		SessionTimeout: cfg.Session.Timeout.Std(),
	})

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		orchestrator: orchestrator,
		respCache:    respCache,
		db:           db,
	}, nil
}

// Run executes the configured queries once, or on a cron schedule when
// one is configured, and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	if a.cfg.Scheduler.CronExpression == "" {
		return a.runOnce(ctx)
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression)
	sessions := usecase.NewSessionScheduler(
		driver,
		a.orchestrator,
		a.cfg.Search.Queries,
		a.cfg.Session.MaxCandidates,
		logging.Component(a.logger, "scheduler"),
	)
	if err := sessions.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sessions.Stop(stopCtx)
}

func (a *Application) runOnce(ctx context.Context) error {
	var firstErr error
	for _, query := range a.cfg.Search.Queries {
		result, err := a.orchestrator.RunSession(ctx, query, a.cfg.Session.MaxCandidates)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			a.logger.Error("session failed",
				"query", query,
				"stage", result.Stage,
				"found", result.Summary.Found,
				"stored", result.Summary.Stored,
				"error", err)
			continue
		}
		a.logger.Info("session finished",
			"query", query,
			"stored", result.Summary.Stored,
			"elapsed", result.Summary.Elapsed)
	}
	return firstErr
}

// SessionStatus exposes progress polling for a session id.
func (a *Application) SessionStatus(sessionID string) (usecase.Progress, bool) {
	return a.orchestrator.SessionStatus(sessionID)
}

// Close tears down stateful services.
func (a *Application) Close() {
	a.respCache.Close()
	if a.db != nil {
		_ = a.db.Close()
	}
}
