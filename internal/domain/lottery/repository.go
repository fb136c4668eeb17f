package lottery

import (
	"context"
	"time"
)

// HistoryRepository is the append-only store of serialized reports.
type HistoryRepository interface {
	Append(ctx context.Context, ref DrawRef, records []Serialized) error
	ListSince(ctx context.Context, repository string, since time.Time) ([]Serialized, error)
}

type ReportSink interface {
	Send(ctx context.Context, report LotteryReport) error
}

type CandidateQuery struct {
	Repository    string
	Labels        []string
	UpdatedBefore time.Time
	Page          int
	PerPage       int
}

type IssuePage struct {
	Items   []Issue
	HasMore bool
}

// CandidateSource lists open issues oldest-updated first.
type CandidateSource interface {
	SearchIssues(ctx context.Context, query CandidateQuery) (IssuePage, error)
}

type ConfigRepository interface {
	List(ctx context.Context) ([]RepositoryConfig, error)
}
