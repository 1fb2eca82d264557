package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobdeck/internal/config"
	"jobdeck/internal/database"
	"jobdeck/internal/database/migration"
	dbpostgres "jobdeck/internal/database/postgres"
	"jobdeck/internal/infrastructure/cache"
	"jobdeck/internal/infrastructure/llm"
	"jobdeck/internal/infrastructure/scraper"
	"jobdeck/internal/match"
	"jobdeck/internal/notify"
	"jobdeck/internal/quota"
	"jobdeck/internal/repository"
	"jobdeck/internal/schedule"
	"jobdeck/internal/scoring"
	"jobdeck/internal/usecase"
	"jobdeck/internal/ws"
)

// Container wires the whole dependency graph once at startup. Everything
// downstream receives its collaborators from here.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Cache *cache.Redis
	Hub   *ws.Hub

	Scrapes   repository.ScrapeRepository
	Jobs      repository.JobRepository
	Recurring *repository.PostgresRecurringConfigRepository

	Gate         quota.Gate
	Orchestrator *scoring.Orchestrator
	Controller   *schedule.Controller
	Sweeper      *schedule.Sweeper

	ScoringUC   usecase.ScoringUsecase
	RecurringUC usecase.RecurringUsecase
	QuotaUC     usecase.QuotaUsecase
	IngestUC    usecase.IngestUsecase
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := (migration.Runner{Dir: "migrations"}).Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Schedule.ReferenceTimezone)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load reference timezone %q: %w", cfg.Schedule.ReferenceTimezone, err)
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)

	hub := ws.NewHub(logger)
	go hub.Run()

	scrapes := repository.NewPostgresScrapeRepository(db)
	jobs := repository.NewPostgresJobRepository(db)
	recurring := repository.NewPostgresRecurringConfigRepository(db)

	gate := quota.NewPostgresGate(db, cfg.Quota.DailyLimit, cfg.Quota.MonthlyLimit)
	matcher := match.NewMatcher(scoring.NewScoredLookup(jobs), logger)

	model := llm.NewHTTPClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, logger)

	webhook := notify.NewWebhookClient(cfg.Notify.WebhookURL, cfg.Notify.InternalToken, logger)
	notifier := notify.NewService(hub, webhook, logger)

	orch := scoring.NewOrchestrator(scrapes, jobs, matcher, gate, model, redisCache, notifier, logger,
		scoring.OrchestratorConfig{
			BatchSize:      cfg.Scoring.BatchSize,
			BatchDelay:     cfg.Scoring.BatchDelay,
			HighScoreFloor: cfg.Scoring.HighScoreFloor,
		})

	scrapeClient := scraper.NewClient(cfg.Scraper.BaseURL, cfg.Scraper.InternalToken, logger)
	trigger := usecase.NewScrapeTrigger(scrapeClient, hub, logger)

	ctrl := schedule.NewController(recurring, schedule.NewSystemTimers(), trigger, loc, logger)
	sweeper := schedule.NewSweeper(recurring, ctrl, int(cfg.Schedule.SweepInterval.Minutes()), logger)

	scoringUC := usecase.NewScoringUsecase(scrapes, jobs, orch, gate, model, logger)

	c := &Container{
		Config: cfg,
		Logger: logger,

		DB:    db,
		Cache: redisCache,
		Hub:   hub,

		Scrapes:   scrapes,
		Jobs:      jobs,
		Recurring: recurring,

		Gate:         gate,
		Orchestrator: orch,
		Controller:   ctrl,
		Sweeper:      sweeper,

		ScoringUC:   scoringUC,
		RecurringUC: usecase.NewRecurringUsecase(recurring, ctrl, loc, logger),
		QuotaUC:     usecase.NewQuotaUsecase(gate, redisCache, logger),
		IngestUC:    usecase.NewIngestUsecase(scrapes, jobs, scoringUC, logger),
	}
	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Sweeper != nil {
		c.Sweeper.Stop()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
