package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/openclassics/archive-search/internal/config"
	"github.com/openclassics/archive-search/internal/core/ports"
	"github.com/openclassics/archive-search/internal/core/usecase"
	"github.com/openclassics/archive-search/internal/infrastructure/expansion"
	"github.com/openclassics/archive-search/internal/infrastructure/queue/nats"
	"github.com/openclassics/archive-search/internal/infrastructure/repository/postgres"
	"github.com/openclassics/archive-search/internal/infrastructure/resilience"
	"github.com/openclassics/archive-search/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	SearchUC ports.SearchService

	closeFn func()
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	synonyms, err := expansion.Load(cfg.SynonymsPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load synonyms: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	entityRepo := postgres.NewSearchRepository(db, executor)
	mediaRepo := postgres.NewMediaRepository(db, executor)

	var publisher ports.EventPublisher
	var queue *nats.Queue
	if cfg.NATSEnabled {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init event queue: %w", err)
		}
		publisher = queue
	}

	searchUC := usecase.NewSearchUseCase(
		postgres.NewTSQueryConverter(),
		entityRepo,
		mediaRepo,
		publisher,
		synonyms,
		logger,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics.NewHTTPServerMetrics("archive-search-api"),
		SearchUC: searchUC,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
