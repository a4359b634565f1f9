package domain

import (
	"time"

	"github.com/google/uuid"
)

// StudyStreak tracks consecutive days of activity for one user.
// CurrentStreak never exceeds LongestStreak.
type StudyStreak struct {
	UserID        uuid.UUID `json:"-"`
	LastLoginDate time.Time `json:"last_login_date"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	TotalLogins   int       `json:"total_logins"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StudyStreakLog marks a single day of activity. Unique per (user, date).
type StudyStreakLog struct {
	UserID uuid.UUID `json:"-"`
	Date   time.Time `json:"date"`
}

// CalendarDate returns midnight UTC of t's calendar date in loc. Dates
// produced this way compare and subtract exactly.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateOnly keeps t's calendar date in its own location.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}

// AdvanceStreak applies one day of activity on today to prev. today is read
// as a calendar date in its own location; see CalendarDate.
//
// A nil prev starts a fresh streak. Activity on the same day as the last
// recorded one changes nothing and reports changed=false. Activity on the
// following day extends the streak; any larger gap, or a last date in the
// future, restarts it at one.
func AdvanceStreak(prev *StudyStreak, userID uuid.UUID, today time.Time) (StudyStreak, bool) {
	today = dateOnly(today)
	now := time.Now().UTC()

	if prev == nil {
		return StudyStreak{
			UserID:        userID,
			LastLoginDate: today,
			CurrentStreak: 1,
			LongestStreak: 1,
			TotalLogins:   1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}, true
	}

	next := *prev
	switch gap := daysBetween(prev.LastLoginDate, today); {
	case gap == 0:
		return next, false
	case gap == 1:
		next.CurrentStreak++
	default:
		next.CurrentStreak = 1
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	next.LastLoginDate = today
	next.TotalLogins++
	next.UpdatedAt = now
	return next, true
}
