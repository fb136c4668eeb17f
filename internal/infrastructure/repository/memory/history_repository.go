package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/issue-lottery/internal/domain/history"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
)

type historyEntry struct {
	drawnAt time.Time
	payload []byte
}

// HistoryRepository keeps encoded records so reads go through the same codec
// as the Postgres store.
type HistoryRepository struct {
	mu           sync.RWMutex
	byRepository map[string][]historyEntry
	logger       *logging.Logger
}

func NewHistoryRepository(logger *logging.Logger) *HistoryRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &HistoryRepository{byRepository: make(map[string][]historyEntry), logger: logger}
}

func (r *HistoryRepository) Append(_ context.Context, ref lottery.DrawRef, records []lottery.Serialized) error {
	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		payload, err := history.Encode(rec)
		if err != nil {
			return err
		}
		entries = append(entries, historyEntry{drawnAt: rec.Instant, payload: payload})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRepository[ref.Repository] = append(r.byRepository[ref.Repository], entries...)
	return nil
}

// AppendRaw stores an already encoded payload as is.
func (r *HistoryRepository) AppendRaw(repository string, drawnAt time.Time, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRepository[repository] = append(r.byRepository[repository], historyEntry{drawnAt: drawnAt, payload: append([]byte(nil), payload...)})
}

func (r *HistoryRepository) ListSince(ctx context.Context, repository string, since time.Time) ([]lottery.Serialized, error) {
	r.mu.RLock()
	raws := make([][]byte, 0, len(r.byRepository[repository]))
	for _, entry := range r.byRepository[repository] {
		if entry.drawnAt.Before(since) {
			continue
		}
		raws = append(raws, entry.payload)
	}
	r.mu.RUnlock()

	return history.DecodeAll(raws, func(index int, err error) {
		r.logger.WarnContext(ctx, "skip malformed lottery history record", "repository", repository, "record", index, "error", err)
	}), nil
}

func (r *HistoryRepository) Len(repository string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRepository[repository])
}

// ReportOutbox collects reports in memory. It backs the memory storage driver.
type ReportOutbox struct {
	mu      sync.RWMutex
	reports []lottery.LotteryReport
	logger  *logging.Logger
}

func NewReportOutbox(logger *logging.Logger) *ReportOutbox {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportOutbox{logger: logger}
}

func (o *ReportOutbox) Send(ctx context.Context, report lottery.LotteryReport) error {
	if report.Username == "" {
		return fmt.Errorf("report username is required")
	}

	o.mu.Lock()
	o.reports = append(o.reports, report)
	o.mu.Unlock()

	o.logger.InfoContext(ctx, "lottery report queued",
		"repository", report.Ref.Repository,
		"username", report.Username,
		"buckets", report.BucketNames(),
		"issues", report.TotalIssues(),
	)
	return nil
}

func (o *ReportOutbox) Reports() []lottery.LotteryReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]lottery.LotteryReport, 0, len(o.reports))
	out = append(out, o.reports...)
	return out
}
