package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvanceStreak(t *testing.T) {
	userID := uuid.New()
	base := &StudyStreak{
		UserID:        userID,
		LastLoginDate: day(2025, 3, 10),
		CurrentStreak: 4,
		LongestStreak: 6,
		TotalLogins:   20,
	}

	tests := []struct {
		name        string
		prev        *StudyStreak
		today       time.Time
		wantChanged bool
		wantCurrent int
		wantLongest int
		wantTotal   int
		wantLast    time.Time
	}{
		{
			name:        "first activity",
			prev:        nil,
			today:       day(2025, 3, 10),
			wantChanged: true,
			wantCurrent: 1, wantLongest: 1, wantTotal: 1,
			wantLast: day(2025, 3, 10),
		},
		{
			name:        "same day is a no-op",
			prev:        base,
			today:       day(2025, 3, 10).Add(15 * time.Hour),
			wantChanged: false,
			wantCurrent: 4, wantLongest: 6, wantTotal: 20,
			wantLast: day(2025, 3, 10),
		},
		{
			name:        "next day extends",
			prev:        base,
			today:       day(2025, 3, 11),
			wantChanged: true,
			wantCurrent: 5, wantLongest: 6, wantTotal: 21,
			wantLast: day(2025, 3, 11),
		},
		{
			name:        "two day gap resets",
			prev:        base,
			today:       day(2025, 3, 12),
			wantChanged: true,
			wantCurrent: 1, wantLongest: 6, wantTotal: 21,
			wantLast: day(2025, 3, 12),
		},
		{
			name:        "last date in the future resets",
			prev:        base,
			today:       day(2025, 3, 8),
			wantChanged: true,
			wantCurrent: 1, wantLongest: 6, wantTotal: 21,
			wantLast: day(2025, 3, 8),
		},
		{
			name: "extending past longest raises it",
			prev: &StudyStreak{
				UserID: userID, LastLoginDate: day(2025, 2, 28),
				CurrentStreak: 6, LongestStreak: 6, TotalLogins: 9,
			},
			today:       day(2025, 3, 1),
			wantChanged: true,
			wantCurrent: 7, wantLongest: 7, wantTotal: 10,
			wantLast: day(2025, 3, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := AdvanceStreak(tt.prev, userID, tt.today)
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("current = %d, want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.LongestStreak != tt.wantLongest {
				t.Errorf("longest = %d, want %d", got.LongestStreak, tt.wantLongest)
			}
			if got.TotalLogins != tt.wantTotal {
				t.Errorf("total = %d, want %d", got.TotalLogins, tt.wantTotal)
			}
			if !got.LastLoginDate.Equal(tt.wantLast) {
				t.Errorf("last = %v, want %v", got.LastLoginDate, tt.wantLast)
			}
			if got.CurrentStreak > got.LongestStreak {
				t.Errorf("current %d exceeds longest %d", got.CurrentStreak, got.LongestStreak)
			}
		})
	}

	if base.CurrentStreak != 4 || base.TotalLogins != 20 {
		t.Error("AdvanceStreak must not mutate prev")
	}
}

func TestCalendarDate(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("timezone data unavailable")
	}

	// 20:00 UTC is already the next day in Kolkata.
	ts := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	if got := CalendarDate(ts, kolkata); !got.Equal(day(2025, 3, 11)) {
		t.Errorf("CalendarDate = %v, want 2025-03-11", got)
	}
	if got := CalendarDate(ts, nil); !got.Equal(day(2025, 3, 10)) {
		t.Errorf("CalendarDate(nil loc) = %v, want 2025-03-10", got)
	}
}
