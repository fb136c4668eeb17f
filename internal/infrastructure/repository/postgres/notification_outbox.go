package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/platform/id"
	qb "github.com/riskibarqy/issue-lottery/internal/platform/querybuilder"
)

const notificationStatusPending = "pending"

// NotificationOutbox stores reports for the rendering worker to pick up.
type NotificationOutbox struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewNotificationOutbox(db *sqlx.DB, ids id.Generator) *NotificationOutbox {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &NotificationOutbox{db: db, ids: ids}
}

func (o *NotificationOutbox) Send(ctx context.Context, report lottery.LotteryReport) error {
	payload, err := encodeNotificationPayload(report)
	if err != nil {
		return err
	}
	publicID, err := o.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate notification id: %w", err)
	}

	query, args, err := qb.InsertModel("lottery_notifications", notificationInsertModel{
		PublicID:   publicID,
		Repository: report.Ref.Repository,
		DrawnAt:    report.Ref.Instant.UTC(),
		Username:   report.Username,
		Timezone:   report.Timezone,
		Payload:    payload,
		Status:     notificationStatusPending,
	}, "ON CONFLICT (repository, drawn_at, username) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert notification query: %w", err)
	}
	if _, err := o.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notification repository=%s username=%s: %w", report.Ref.Repository, report.Username, err)
	}
	return nil
}

func encodeNotificationPayload(report lottery.LotteryReport) (string, error) {
	payload := notificationPayload{
		Repository: report.Ref.Repository,
		DrawnAt:    report.Ref.Instant.UTC(),
		Username:   report.Username,
		Timezone:   report.Timezone,
		Buckets:    make(map[string][]notificationIssue, len(report.Buckets)),
	}
	for _, name := range report.BucketNames() {
		issues := report.Buckets[name]
		items := make([]notificationIssue, 0, len(issues))
		for _, issue := range issues {
			items = append(items, notificationIssue{Number: issue.Number, Title: issue.Title, URL: issue.URL})
		}
		payload.Buckets[name] = items
	}

	raw, err := sonic.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal notification payload: %w", err)
	}
	return string(raw), nil
}
