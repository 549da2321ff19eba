package quota

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaily(t *testing.T) {
	today := date(2026, time.March, 1)

	tests := []struct {
		name      string
		total     int
		completed int
		deadline  time.Time
		want      int
	}{
		{"even split", 50, 10, date(2026, time.March, 11), 4},    // ceil(40/10)
		{"uneven split rounds up", 10, 0, date(2026, time.March, 4), 4}, // ceil(10/3)
		{"one day left", 10, 3, date(2026, time.March, 2), 7},
		{"deadline today dumps remaining", 50, 10, today, 40},
		{"deadline past dumps remaining", 50, 10, date(2026, time.February, 20), 40},
		{"nothing remaining", 20, 20, date(2026, time.March, 11), 0},
		{"overshot completed", 20, 25, date(2026, time.March, 11), 0},
		{"zero total", 0, 0, date(2026, time.March, 11), 0},
		{"negative total clamps", -5, 0, date(2026, time.March, 11), 0},
		{"negative completed", 10, -2, date(2026, time.March, 4), 4}, // ceil(12/3)
		{"far deadline", 10, 0, date(2026, time.March, 21), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Daily(tt.total, tt.completed, tt.deadline, today)
			if got != tt.want {
				t.Errorf("Daily(%d, %d, %s) = %d, want %d",
					tt.total, tt.completed, tt.deadline.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestDailyDeadlineLaterSameDay(t *testing.T) {
	today := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, time.March, 1, 23, 30, 0, 0, time.UTC)

	if got := Daily(10, 4, deadline, today); got != 6 {
		t.Errorf("deadline later today: got %d, want 6", got)
	}
}

func TestDailyNonIncreasingInCompleted(t *testing.T) {
	today := date(2026, time.March, 1)
	deadline := date(2026, time.March, 15)

	prev := Daily(100, 0, deadline, today)
	for completed := 1; completed <= 100; completed++ {
		q := Daily(100, completed, deadline, today)
		if q > prev {
			t.Fatalf("quota increased from %d to %d at completed=%d", prev, q, completed)
		}
		prev = q
	}
}

func TestDailyBoundedByRemaining(t *testing.T) {
	today := date(2026, time.March, 1)

	for days := 0; days < 20; days++ {
		deadline := today.AddDate(0, 0, days)
		for completed := 0; completed <= 30; completed += 5 {
			q := Daily(30, completed, deadline, today)
			remaining := 30 - completed
			if remaining < 0 {
				remaining = 0
			}
			if q > remaining {
				t.Fatalf("quota %d exceeds remaining %d (days=%d completed=%d)", q, remaining, days, completed)
			}
		}
	}
}

func TestDailyAdvancingDaysKeepsPace(t *testing.T) {
	// 50 items, 10 done, 10 days out: 4/day. Doing 4 keeps tomorrow at 4.
	today := date(2026, time.March, 1)
	deadline := date(2026, time.March, 11)

	if q := Daily(50, 10, deadline, today); q != 4 {
		t.Fatalf("day one quota = %d, want 4", q)
	}
	if q := Daily(50, 14, deadline, today.AddDate(0, 0, 1)); q != 4 {
		t.Fatalf("day two quota = %d, want 4", q)
	}
}

func TestDaysLeft(t *testing.T) {
	today := date(2026, time.March, 1)

	tests := []struct {
		deadline time.Time
		want     int
	}{
		{date(2026, time.March, 1), 0},
		{date(2026, time.March, 2), 1},
		{date(2026, time.March, 11), 10},
		{date(2026, time.February, 1), 0},
	}
	for _, tt := range tests {
		if got := DaysLeft(tt.deadline, today); got != tt.want {
			t.Errorf("DaysLeft(%s) = %d, want %d", tt.deadline.Format("2006-01-02"), got, tt.want)
		}
	}
}
