package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/issue-lottery/internal/domain/draw"
	"github.com/riskibarqy/issue-lottery/internal/domain/history"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
	"github.com/riskibarqy/issue-lottery/internal/platform/random"
	"github.com/riskibarqy/issue-lottery/internal/platform/resilience"
	"github.com/riskibarqy/issue-lottery/internal/platform/stream"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type DrawServiceConfig struct {
	ChunkSize int
	PageSize  int
}

type DrawRunInput struct {
	Repository string
}

type RepositoryDrawResult struct {
	Repository     string    `json:"repository"`
	DrawnAt        time.Time `json:"drawn_at"`
	Participants   int       `json:"participants"`
	SkippedToday   int       `json:"skipped_today"`
	IssuesAwarded  int       `json:"issues_awarded"`
	ReportsSent    int       `json:"reports_sent"`
	ReportsFailed  int       `json:"reports_failed"`
	HistoryWritten bool      `json:"history_written"`
	Error          string    `json:"error,omitempty"`
}

type DrawRunResult struct {
	RepositoryCount int                    `json:"repository_count"`
	DrawnCount      int                    `json:"drawn_count"`
	FailedCount     int                    `json:"failed_count"`
	Repositories    []RepositoryDrawResult `json:"repositories"`
}

// DrawService runs the issue lottery for every configured repository.
type DrawService struct {
	configs    lottery.ConfigRepository
	candidates lottery.CandidateSource
	history    lottery.HistoryRepository
	sink       lottery.ReportSink
	retrier    *resilience.Retrier
	cfg        DrawServiceConfig
	logger     *logging.Logger
	newRandom  func() random.Source
	now        func() time.Time
}

func NewDrawService(
	configs lottery.ConfigRepository,
	candidates lottery.CandidateSource,
	historyRepo lottery.HistoryRepository,
	sink lottery.ReportSink,
	retrier *resilience.Retrier,
	cfg DrawServiceConfig,
	logger *logging.Logger,
) *DrawService {
	if logger == nil {
		logger = logging.Default()
	}
	if retrier == nil {
		retrier = resilience.NewRetrier(resilience.DefaultRetryConfig(), logger)
	}
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = stream.DefaultChunkSize
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 50
	}

	return &DrawService{
		configs:    configs,
		candidates: candidates,
		history:    historyRepo,
		sink:       sink,
		retrier:    retrier,
		cfg:        cfg,
		logger:     logger,
		newRandom:  random.New,
		now:        time.Now,
	}
}

// RunAll draws every repository in turn. A failing or panicking repository is
// logged and counted; the remaining repositories still run.
func (s *DrawService) RunAll(ctx context.Context, input DrawRunInput) (DrawRunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DrawService.RunAll")
	defer span.End()

	configs, err := s.pickRepositories(ctx, strings.TrimSpace(input.Repository))
	if err != nil {
		span.RecordError(err)
		return DrawRunResult{}, err
	}

	result := DrawRunResult{
		RepositoryCount: len(configs),
		Repositories:    make([]RepositoryDrawResult, 0, len(configs)),
	}
	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("draw run interrupted: %w", err)
		}

		ref := lottery.DrawRef{Repository: cfg.Repository, Instant: s.now().UTC()}
		repoResult, err := s.drawIsolated(ctx, cfg, ref)
		if err != nil {
			result.FailedCount++
			repoResult.Error = err.Error()
			s.logger.ErrorContext(ctx, "repository draw failed", "repository", cfg.Repository, "error", err)
		} else {
			result.DrawnCount++
		}
		result.Repositories = append(result.Repositories, repoResult)
	}

	s.logger.InfoContext(ctx, "draw run finished",
		"repositories", result.RepositoryCount,
		"drawn", result.DrawnCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

func (s *DrawService) drawIsolated(ctx context.Context, cfg lottery.RepositoryConfig, ref lottery.DrawRef) (RepositoryDrawResult, error) {
	var (
		result  RepositoryDrawResult
		drawErr error
		catcher panics.Catcher
	)
	catcher.Try(func() {
		result, drawErr = s.Draw(ctx, cfg, ref)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return RepositoryDrawResult{Repository: cfg.Repository, DrawnAt: ref.Instant}, fmt.Errorf("draw panicked: %w", recovered.AsError())
	}
	return result, drawErr
}

func (s *DrawService) pickRepositories(ctx context.Context, repository string) ([]lottery.RepositoryConfig, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list lottery configs: %v", ErrDependencyUnavailable, err)
	}
	if repository == "" {
		return configs, nil
	}
	for _, cfg := range configs {
		if strings.EqualFold(cfg.Repository, repository) {
			return []lottery.RepositoryConfig{cfg}, nil
		}
	}
	return nil, fmt.Errorf("%w: repository=%s", ErrNotFound, repository)
}

type eligibleParticipant struct {
	config lottery.ParticipantConfig
	loc    *time.Location
}

// Draw runs one repository: dedup, one allocation pass per bucket, report
// delivery, then the history append for delivered reports.
func (s *DrawService) Draw(ctx context.Context, cfg lottery.RepositoryConfig, ref lottery.DrawRef) (RepositoryDrawResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DrawService.Draw", attribute.String("repository", cfg.Repository))
	defer span.End()

	result := RepositoryDrawResult{Repository: cfg.Repository, DrawnAt: ref.Instant}
	logger := s.logger.With("repository", cfg.Repository, "draw_at", ref.Instant)

	snapshot := s.loadHistory(ctx, cfg, ref, logger)
	participants := s.eligibleParticipants(ctx, cfg, snapshot, logger, &result)

	winnings := make(map[string]map[string][]lottery.Issue, len(participants))
	for _, bucketCfg := range cfg.Buckets {
		tickets, err := s.drawBucket(ctx, cfg.Repository, bucketCfg, ref, snapshot, participants)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bucket draw failed")
			return result, fmt.Errorf("draw bucket=%s: %w", bucketCfg.Name, err)
		}
		for _, ticket := range tickets {
			won := ticket.Winnings()
			if len(won) == 0 {
				continue
			}
			if winnings[ticket.Owner()] == nil {
				winnings[ticket.Owner()] = make(map[string][]lottery.Issue)
			}
			winnings[ticket.Owner()][bucketCfg.Name] = won
			result.IssuesAwarded += len(won)
		}
	}

	delivered := make([]lottery.Serialized, 0, len(winnings))
	for _, p := range participants {
		buckets, ok := winnings[p.config.Username]
		if !ok {
			continue
		}
		report := lottery.LotteryReport{
			Ref:      ref,
			Username: p.config.Username,
			Timezone: p.loc.String(),
			Buckets:  buckets,
		}
		if err := s.sink.Send(ctx, report); err != nil {
			result.ReportsFailed++
			logger.WarnContext(ctx, "send lottery report failed", "username", report.Username, "error", err)
			continue
		}
		result.ReportsSent++
		delivered = append(delivered, report.Serialize())
	}

	if len(delivered) > 0 {
		// Sent reports are final even when this append fails.
		if err := s.history.Append(ctx, ref, delivered); err != nil {
			span.RecordError(err)
			return result, fmt.Errorf("%w: append history: %v", ErrDependencyUnavailable, err)
		}
		result.HistoryWritten = true
	}

	logger.InfoContext(ctx, "repository drawn",
		"participants", result.Participants,
		"skipped_today", result.SkippedToday,
		"issues_awarded", result.IssuesAwarded,
		"reports_sent", result.ReportsSent,
		"reports_failed", result.ReportsFailed,
	)
	return result, nil
}

// loadHistory degrades to an empty snapshot when history cannot be read.
func (s *DrawService) loadHistory(ctx context.Context, cfg lottery.RepositoryConfig, ref lottery.DrawRef, logger *logging.Logger) *history.History {
	since := history.LookbackSince(ref.Instant, cfg.Buckets)
	records, err := s.history.ListSince(ctx, cfg.Repository, since)
	if err != nil {
		logger.WarnContext(ctx, "load history failed, drawing without it", "since", since, "error", err)
		return history.Empty(ref.Instant)
	}
	return history.Replay(ref.Instant, records)
}

func (s *DrawService) eligibleParticipants(
	ctx context.Context,
	cfg lottery.RepositoryConfig,
	snapshot *history.History,
	logger *logging.Logger,
	result *RepositoryDrawResult,
) []eligibleParticipant {
	out := make([]eligibleParticipant, 0, len(cfg.Participants))
	seen := make(map[string]struct{}, len(cfg.Participants))
	for _, p := range cfg.Participants {
		// Winnings and reports are keyed by username; the first entry wins.
		key := strings.ToLower(strings.TrimSpace(p.Username))
		if _, dup := seen[key]; dup {
			logger.WarnContext(ctx, "duplicate participant ignored", "username", p.Username)
			continue
		}
		seen[key] = struct{}{}

		loc, err := p.Location()
		if err != nil {
			logger.WarnContext(ctx, "invalid participant timezone, using UTC", "username", p.Username, "error", err)
		}
		if last, ok := snapshot.LastNotificationToday(p.Username, loc); ok {
			result.SkippedToday++
			logger.DebugContext(ctx, "participant already notified today", "username", p.Username, "last_notified_at", last)
			continue
		}
		out = append(out, eligibleParticipant{config: p, loc: loc})
	}
	result.Participants = len(out)
	return out
}

func (s *DrawService) drawBucket(
	ctx context.Context,
	repository string,
	bucketCfg lottery.BucketConfig,
	ref lottery.DrawRef,
	snapshot *history.History,
	participants []eligibleParticipant,
) ([]*draw.Ticket[lottery.Issue], error) {
	rnd := s.newRandom()
	bucket := draw.NewBucket[lottery.Issue](bucketCfg.Name, rnd)
	for _, p := range participants {
		participation, ok := p.config.Buckets[bucketCfg.Name]
		if !ok || participation.MaxIssues <= 0 {
			continue
		}
		if _, err := bucket.CreateTicket(p.config.Username, participation.MaxIssues, participation.Accepts); err != nil {
			return nil, err
		}
	}

	tickets := bucket.Tickets()
	if len(tickets) == 0 {
		return nil, nil
	}

	pool := s.candidatePool(repository, bucketCfg, ref, snapshot, rnd)
	if err := bucket.Draw(ctx, pool); err != nil {
		return nil, err
	}
	return tickets, nil
}

// candidatePool wires search pages through the retrier, drops issues still in
// cooldown and shuffles what is left chunk by chunk.
func (s *DrawService) candidatePool(
	repository string,
	bucketCfg lottery.BucketConfig,
	ref lottery.DrawRef,
	snapshot *history.History,
	rnd random.Source,
) *stream.ChunkedShuffle[lottery.Issue] {
	query := lottery.CandidateQuery{
		Repository:    repository,
		Labels:        bucketCfg.Labels,
		UpdatedBefore: ref.Instant.Add(-bucketCfg.Delay),
		PerPage:       s.cfg.PageSize,
	}
	fetch := func(ctx context.Context, page int) ([]lottery.Issue, bool, error) {
		q := query
		q.Page = page
		res, err := s.candidates.SearchIssues(ctx, q)
		if err != nil {
			return nil, false, err
		}
		return res.Items, res.HasMore, nil
	}

	pager := resilience.NewRetryingPager("search issues "+repository+" bucket="+bucketCfg.Name, fetch, s.retrier)
	eligible := stream.Filter[lottery.Issue](pager, func(issue lottery.Issue) bool {
		return snapshot.LastNotificationExpiredForIssueNumber(bucketCfg.Name, bucketCfg.Timeout, issue.Number)
	})
	return stream.NewChunkedShuffle(eligible, s.cfg.ChunkSize, stream.Shuffle[lottery.Issue](rnd))
}
