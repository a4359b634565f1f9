package generation

import (
	"sync"
	"time"
)

// QuotaSnapshot reports model usage for the current UTC day.
type QuotaSnapshot struct {
	Day          string  `json:"day"`
	CallsMade    int     `json:"calls_made"`
	QuotaLimit   int     `json:"quota_limit"`
	Remaining    int     `json:"remaining"`
	UsagePercent float64 `json:"usage_percent"`
}

// QuotaTracker counts model calls per UTC day. It reports usage and never
// blocks calls.
type QuotaTracker struct {
	mu    sync.Mutex
	limit int
	day   string
	calls int
	now   func() time.Time
}

// NewQuotaTracker returns a tracker for the given daily limit.
func NewQuotaTracker(limit int) *QuotaTracker {
	return &QuotaTracker{limit: limit, now: time.Now}
}

func (q *QuotaTracker) rollover() {
	today := q.now().UTC().Format(time.DateOnly)
	if today != q.day {
		q.day = today
		q.calls = 0
	}
}

// Record counts one call.
func (q *QuotaTracker) Record() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	q.calls++
}

// Snapshot returns the current usage.
func (q *QuotaTracker) Snapshot() QuotaSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()

	s := QuotaSnapshot{Day: q.day, CallsMade: q.calls, QuotaLimit: q.limit}
	if q.limit > 0 {
		s.Remaining = max(q.limit-q.calls, 0)
		s.UsagePercent = float64(int(float64(q.calls)/float64(q.limit)*1000+0.5)) / 10
	}
	return s
}
