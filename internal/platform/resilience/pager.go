package resilience

import (
	"context"
	"fmt"

	"github.com/riskibarqy/issue-lottery/internal/platform/stream"
)

// PageFunc fetches one 1-based page and reports whether more pages follow.
type PageFunc[T any] func(ctx context.Context, page int) (items []T, hasMore bool, err error)

// RetryingPager flattens a paginated resource into a stream.Source, fetching
// pages lazily through a Retrier.
type RetryingPager[T any] struct {
	op      string
	fetch   PageFunc[T]
	retrier *Retrier

	page int
	buf  []T
	pos  int
	more bool
}

func NewRetryingPager[T any](op string, fetch PageFunc[T], retrier *Retrier) *RetryingPager[T] {
	if retrier == nil {
		retrier = NewRetrier(DefaultRetryConfig(), nil)
	}
	return &RetryingPager[T]{
		op:      op,
		fetch:   fetch,
		retrier: retrier,
		page:    1,
		more:    true,
	}
}

func (p *RetryingPager[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for p.pos >= len(p.buf) {
		if !p.more {
			return zero, stream.ErrDone
		}

		var (
			items   []T
			hasMore bool
		)
		err := p.retrier.Do(ctx, p.op, func(ctx context.Context) error {
			var fetchErr error
			items, hasMore, fetchErr = p.fetch(ctx, p.page)
			return fetchErr
		})
		if err != nil {
			return zero, fmt.Errorf("fetch page %d: %w", p.page, err)
		}

		p.buf = items
		p.pos = 0
		p.page++
		p.more = hasMore && len(items) > 0
	}

	item := p.buf[p.pos]
	p.pos++
	return item, nil
}

// Pages is the number of pages fetched so far.
func (p *RetryingPager[T]) Pages() int {
	return p.page - 1
}
