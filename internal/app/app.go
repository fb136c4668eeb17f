package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/issue-lottery/external/github"
	"github.com/riskibarqy/issue-lottery/internal/config"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	repocache "github.com/riskibarqy/issue-lottery/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/issue-lottery/internal/infrastructure/repository/file"
	"github.com/riskibarqy/issue-lottery/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/issue-lottery/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/issue-lottery/internal/infrastructure/scheduler"
	"github.com/riskibarqy/issue-lottery/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/issue-lottery/internal/platform/cache"
	idgen "github.com/riskibarqy/issue-lottery/internal/platform/id"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
	"github.com/riskibarqy/issue-lottery/internal/platform/resilience"
	"github.com/riskibarqy/issue-lottery/internal/usecase"
)

// App holds the wired service: HTTP server, draw scheduler and the resources
// they own.
type App struct {
	Server    *http.Server
	Scheduler *scheduler.DrawScheduler
	Draws     *usecase.DrawService

	schedulerEnabled bool
	logger           *logging.Logger
	closers          []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{schedulerEnabled: cfg.DrawSchedulerEnabled, logger: logger}

	historyRepo, sink, err := a.buildStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var configs lottery.ConfigRepository = file.NewConfigRepository(cfg.LotteryConfigPath, logger.Named("config"))
	if cfg.LotteryConfigCacheTTL > 0 {
		configs = repocache.NewConfigRepository(configs, basecache.NewStore[[]lottery.RepositoryConfig](cfg.LotteryConfigCacheTTL))
	}
	candidates := github.NewClient(github.ClientConfig{
		BaseURL:           cfg.GitHubBaseURL,
		Token:             cfg.GitHubToken,
		Timeout:           cfg.GitHubTimeout,
		RequestsPerSecond: cfg.GitHubRequestsPerSecond,
		Logger:            logger.Named("github"),
	})
	retrier := resilience.NewRetrier(resilience.RetryConfig{
		MaxAttempts: cfg.GitHubRetryAttempts,
		Backoff:     cfg.GitHubRetryBackoff,
	}, logger)

	a.Draws = usecase.NewDrawService(configs, candidates, historyRepo, sink, retrier, usecase.DrawServiceConfig{
		ChunkSize: cfg.DrawChunkSize,
		PageSize:  cfg.GitHubPageSize,
	}, logger.Named("draw"))

	spec := cfg.DrawCron
	if !cfg.DrawSchedulerEnabled {
		spec = ""
	}
	a.Scheduler, err = scheduler.New(scheduler.Config{
		Spec:       spec,
		Location:   cfg.DrawLocation,
		RunTimeout: cfg.DrawRunTimeout,
	}, a.Draws, logger.Named("scheduler"))
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("build draw scheduler: %w", err)
	}

	handler := httpapi.NewHandler(a.Scheduler, configs, logger)
	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger, cfg.InternalJobToken),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return a, nil
}

func (a *App) buildStorage(ctx context.Context, cfg config.Config) (lottery.HistoryRepository, lottery.ReportSink, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDB(ctx, cfg.DBURL, cfg.DBDisablePreparedBinary)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.logger.Info("storage ready", "driver", config.StoragePostgres, "db", postgresDBName(cfg.DBURL))
		return postgres.NewHistoryRepository(db, idgen.NewPrefixedGenerator("lh"), a.logger),
			postgres.NewNotificationOutbox(db, idgen.NewPrefixedGenerator("ln")), nil
	default:
		a.logger.Warn("storage ready", "driver", config.StorageMemory, "note", "draw history is lost on restart")
		return memory.NewHistoryRepository(a.logger), memory.NewReportOutbox(a.logger), nil
	}
}

// StartScheduler registers the draw schedule; manual triggers work without it.
func (a *App) StartScheduler() error {
	if !a.schedulerEnabled {
		a.logger.Info("draw scheduler disabled", "reason", "DRAW_SCHEDULER_ENABLED=false")
	}
	return a.Scheduler.Start()
}

// Shutdown stops the HTTP server, waits for an active draw and releases storage.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := a.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
