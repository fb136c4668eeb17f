package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
	"github.com/riskibarqy/issue-lottery/internal/usecase"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("issue-lottery/internal/infrastructure/scheduler")

const (
	triggerCron   = "cron"
	triggerManual = "manual"
)

type drawRunner interface {
	RunAll(ctx context.Context, input usecase.DrawRunInput) (usecase.DrawRunResult, error)
}

type Config struct {
	Spec       string
	Location   *time.Location
	RunTimeout time.Duration
}

// DrawScheduler runs draws on a cron schedule and on demand. At most one run is
// active at a time; triggers that arrive while a run is active are dropped.
type DrawScheduler struct {
	runner     drawRunner
	cron       *cron.Cron
	pool       *ants.Pool
	spec       string
	runTimeout time.Duration
	logger     *logging.Logger

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

func New(cfg Config, runner drawRunner, logger *logging.Logger) (*DrawScheduler, error) {
	if runner == nil {
		return nil, errors.New("draw runner is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}

	spec := strings.TrimSpace(cfg.Spec)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if spec != "" {
		if _, err := parser.Parse(spec); err != nil {
			return nil, fmt.Errorf("parse draw schedule %q: %w", spec, err)
		}
	}

	s := &DrawScheduler{
		runner:     runner,
		spec:       spec,
		runTimeout: cfg.RunTimeout,
		logger:     logger,
	}

	pool, err := ants.NewPool(1,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(recovered any) {
			s.logger.Error("draw run panicked", "panic", fmt.Sprint(recovered))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create draw worker pool: %w", err)
	}
	s.pool = pool
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithParser(parser),
		cron.WithLogger(logging.CronLogger(logger)),
	)
	return s, nil
}

// Start registers the schedule. An empty spec leaves only manual triggers.
func (s *DrawScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.spec != "" {
		id, err := s.cron.AddFunc(s.spec, s.onTick)
		if err != nil {
			return fmt.Errorf("register draw schedule: %w", err)
		}
		s.entryID = id
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("draw scheduler started", "spec", s.spec, "run_timeout", s.runTimeout)
	return nil
}

// Stop halts the schedule and waits for an active run until ctx is done.
func (s *DrawScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if started {
		select {
		case <-s.cron.Stop().Done():
		case <-ctx.Done():
		}
	}

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := s.pool.ReleaseTimeout(max(timeout, time.Millisecond)); err != nil {
		return fmt.Errorf("release draw worker pool: %w", err)
	}
	return nil
}

// NextRun reports when the schedule fires next; zero when not scheduled.
func (s *DrawScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Trigger starts a run in the background. It returns usecase.ErrDrawInProgress
// when a run is already active.
func (s *DrawScheduler) Trigger(ctx context.Context, input usecase.DrawRunInput) error {
	return s.submit(context.WithoutCancel(ctx), triggerManual, input)
}

func (s *DrawScheduler) onTick() {
	if err := s.submit(context.Background(), triggerCron, usecase.DrawRunInput{}); err != nil {
		if errors.Is(err, usecase.ErrDrawInProgress) {
			s.logger.Warn("scheduled draw skipped, previous run still active")
			return
		}
		s.logger.Error("scheduled draw not started", "error", err)
	}
}

func (s *DrawScheduler) submit(parent context.Context, trigger string, input usecase.DrawRunInput) error {
	err := s.pool.Submit(func() {
		s.run(parent, trigger, input)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ants.ErrPoolOverload):
		return fmt.Errorf("%w: trigger=%s", usecase.ErrDrawInProgress, trigger)
	case errors.Is(err, ants.ErrPoolClosed):
		return fmt.Errorf("%w: scheduler stopped", usecase.ErrDependencyUnavailable)
	default:
		return fmt.Errorf("submit draw run: %w", err)
	}
}

func (s *DrawScheduler) run(parent context.Context, trigger string, input usecase.DrawRunInput) {
	ctx, cancel := context.WithTimeout(parent, s.runTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "scheduler.DrawRun",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("draw.trigger", trigger),
			attribute.String("draw.repository", input.Repository),
		),
	)
	defer span.End()

	startedAt := time.Now()
	result, err := s.runner.RunAll(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "draw run failed", "trigger", trigger, "repository", input.Repository, "error", err)
		return
	}

	span.SetAttributes(
		attribute.Int("draw.repositories", result.RepositoryCount),
		attribute.Int("draw.failed", result.FailedCount),
	)
	s.logger.InfoContext(ctx, "draw run completed",
		"trigger", trigger,
		"repositories", result.RepositoryCount,
		"drawn", result.DrawnCount,
		"failed", result.FailedCount,
		"duration", time.Since(startedAt),
	)
}
