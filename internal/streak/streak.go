// Package streak derives consecutive-day study streaks from the set of
// dates on which a user logged any activity.
package streak

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Data summarizes a user's streak state, computed on read.
type Data struct {
	CurrentStreak int      `json:"current_streak"`
	TotalDays     int      `json:"total_days"`
	RecentDates   []string `json:"recent_dates"`
}

// Compute walks backwards from today over the distinct activity dates and
// counts consecutive days. Today itself is forgiven when missing: the streak
// is judged off the last completed day and only breaks once a full calendar
// day was skipped.
func Compute(dates []string, today time.Time) Data {
	distinct := dedupeSortedDesc(dates)

	set := make(map[string]struct{}, len(distinct))
	for _, d := range distinct {
		set[d] = struct{}{}
	}

	current := 0
	for i := 0; ; i++ {
		day := today.AddDate(0, 0, -i).Format(dateLayout)
		if _, ok := set[day]; ok {
			current++
			continue
		}
		if i == 0 {
			// No activity yet today; keep looking from yesterday.
			continue
		}
		break
	}

	recent := distinct
	if len(recent) > 7 {
		recent = recent[:7]
	}

	return Data{
		CurrentStreak: current,
		TotalDays:     len(distinct),
		RecentDates:   recent,
	}
}

// Longest returns the longest run of consecutive days anywhere in the date
// set, independent of today.
func Longest(dates []string) int {
	distinct := dedupeSortedDesc(dates)
	if len(distinct) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(distinct); i++ {
		prev, err1 := time.Parse(dateLayout, distinct[i-1])
		cur, err2 := time.Parse(dateLayout, distinct[i])
		if err1 != nil || err2 != nil {
			continue
		}
		if prev.Sub(cur) == 24*time.Hour {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}

// dedupeSortedDesc returns the distinct dates, most recent first.
func dedupeSortedDesc(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
