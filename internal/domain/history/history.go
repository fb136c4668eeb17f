package history

import (
	"time"

	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
)

// MinLookback covers the daily dedup check in every timezone. A local day
// lasts 25h when clocks fall back.
const MinLookback = 48 * time.Hour

// History is a read-only snapshot of past notifications, replayed once per
// draw. Repeated usernames or issue numbers keep the latest instant.
type History struct {
	now          time.Time
	lastByUser   map[string]time.Time
	lastByBucket map[string]map[int]time.Time
}

// Replay folds records into a snapshot evaluated at now. Record order does
// not matter.
func Replay(now time.Time, records []lottery.Serialized) *History {
	h := &History{
		now:          now,
		lastByUser:   make(map[string]time.Time),
		lastByBucket: make(map[string]map[int]time.Time),
	}
	for _, rec := range records {
		h.add(rec)
	}
	return h
}

// Empty is the snapshot used when history cannot be loaded.
func Empty(now time.Time) *History {
	return Replay(now, nil)
}

func (h *History) add(rec lottery.Serialized) {
	if rec.Username == "" || rec.Instant.IsZero() {
		return
	}
	h.lastByUser[rec.Username] = latest(h.lastByUser[rec.Username], rec.Instant)

	for bucket, numbers := range rec.Buckets {
		issues := h.lastByBucket[bucket]
		if issues == nil {
			issues = make(map[int]time.Time, len(numbers))
			h.lastByBucket[bucket] = issues
		}
		for _, number := range numbers {
			issues[number] = latest(issues[number], rec.Instant)
		}
	}
}

func latest(current, candidate time.Time) time.Time {
	if candidate.After(current) {
		return candidate
	}
	return current
}

func (h *History) Now() time.Time { return h.now }

// LastNotificationToday returns the user's latest notification when it falls
// on the same calendar day as now in loc.
func (h *History) LastNotificationToday(username string, loc *time.Location) (time.Time, bool) {
	last, ok := h.lastByUser[username]
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if !sameDay(last.In(loc), h.now.In(loc)) {
		return time.Time{}, false
	}
	return last, true
}

// LastNotificationExpiredForIssueNumber reports whether the issue may be
// offered again in bucket. An issue notified exactly timeout ago is still
// active; it expires once now-last is strictly greater than timeout.
func (h *History) LastNotificationExpiredForIssueNumber(bucket string, timeout time.Duration, number int) bool {
	last, ok := h.lastByBucket[bucket][number]
	if !ok {
		return true
	}
	return h.now.Sub(last) > timeout
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LookbackSince is the oldest instant a draw at now needs to replay.
func LookbackSince(now time.Time, buckets []lottery.BucketConfig) time.Time {
	window := MinLookback
	for _, b := range buckets {
		window = max(window, b.Timeout)
	}
	return now.Add(-window)
}
