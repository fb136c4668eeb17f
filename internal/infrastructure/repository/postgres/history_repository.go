package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/issue-lottery/internal/domain/history"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/platform/id"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
	qb "github.com/riskibarqy/issue-lottery/internal/platform/querybuilder"
)

// HistoryRepository keeps one append-only row per delivered report.
type HistoryRepository struct {
	db     *sqlx.DB
	ids    id.Generator
	logger *logging.Logger
}

func NewHistoryRepository(db *sqlx.DB, ids id.Generator, logger *logging.Logger) *HistoryRepository {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HistoryRepository{db: db, ids: ids, logger: logger}
}

func (r *HistoryRepository) Append(ctx context.Context, ref lottery.DrawRef, records []lottery.Serialized) error {
	if len(records) == 0 {
		return nil
	}
	repository := strings.TrimSpace(ref.Repository)
	if repository == "" {
		return fmt.Errorf("repository is required")
	}

	models := make([]historyInsertModel, 0, len(records))
	for _, rec := range records {
		payload, err := history.Encode(rec)
		if err != nil {
			return err
		}
		publicID, err := r.ids.NewID()
		if err != nil {
			return fmt.Errorf("generate history id: %w", err)
		}
		models = append(models, historyInsertModel{
			PublicID:   publicID,
			Repository: repository,
			DrawnAt:    rec.Instant.UTC(),
			Username:   rec.Username,
			Payload:    string(payload),
		})
	}

	query, args, err := qb.InsertModels("lottery_history", models, "ON CONFLICT (repository, drawn_at, username) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert lottery history query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert lottery history repository=%s records=%d: %w", repository, len(models), err)
	}
	return nil
}

// ListSince returns decodable records drawn at or after since. Rows that do
// not decode are skipped.
func (r *HistoryRepository) ListSince(ctx context.Context, repository string, since time.Time) ([]lottery.Serialized, error) {
	query, args, err := qb.Select("payload").
		From("lottery_history").
		Where(qb.Eq("repository", strings.TrimSpace(repository)), qb.Gte("drawn_at", since.UTC())).
		OrderBy("drawn_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select lottery history query: %w", err)
	}

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select lottery history repository=%s: %w", repository, err)
	}

	raws := make([][]byte, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, row.Payload)
	}
	return history.DecodeAll(raws, func(index int, err error) {
		r.logger.WarnContext(ctx, "skip malformed lottery history row", "repository", repository, "row", index, "error", err)
	}), nil
}
