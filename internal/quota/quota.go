// Package quota computes how many of a category's remaining items are due
// on a given day to stay on pace for a deadline.
package quota

import "time"

// Daily returns the number of items due today for a category with the given
// lifetime counters and deadline. It is pure and must be recomputed on every
// view: days left shrink with the calendar and remaining shrinks with every
// completion.
//
// Rules:
//   - nothing remaining: 0
//   - deadline today or past: everything remaining is due today
//   - otherwise: ceil(remaining / daysLeft)
func Daily(total, completed int, deadline, today time.Time) int {
	remaining := total - completed
	if remaining <= 0 {
		return 0
	}

	days := DaysLeft(deadline, today)
	if days <= 0 {
		return remaining
	}

	return (remaining + days - 1) / days
}

// DaysLeft returns the number of whole calendar days from today until the
// deadline, never negative. A deadline later today counts as 0.
func DaysLeft(deadline, today time.Time) int {
	d := startOfDay(deadline).Sub(startOfDay(today))
	if d <= 0 {
		return 0
	}
	// Round to absorb DST-shortened or -lengthened days.
	return int((d + 12*time.Hour) / (24 * time.Hour))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
