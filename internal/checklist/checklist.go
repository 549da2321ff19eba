// Package checklist materializes a course's daily checklist: one toggleable
// slot per item of each category's daily quota, with lazy day rollover.
package checklist

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/quota"
)

const dateLayout = "2006-01-02"

// ItemID identifies one slot of a category's daily quota. It is serialized
// as "<categoryID>_<index>" at the API boundary.
type ItemID struct {
	CategoryID int64
	Index      int
}

func (id ItemID) String() string {
	return fmt.Sprintf("%d_%d", id.CategoryID, id.Index)
}

// ParseItemID parses the wire form "<categoryID>_<index>".
func ParseItemID(s string) (ItemID, error) {
	catStr, idxStr, ok := strings.Cut(s, "_")
	if !ok {
		return ItemID{}, fmt.Errorf("malformed item id %q", s)
	}
	catID, err := strconv.ParseInt(catStr, 10, 64)
	if err != nil || catID <= 0 {
		return ItemID{}, fmt.Errorf("malformed item id %q", s)
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return ItemID{}, fmt.Errorf("malformed item id %q", s)
	}
	return ItemID{CategoryID: catID, Index: idx}, nil
}

// Stale reports whether the stored checklist belongs to an earlier calendar
// day than now. Staleness is a derived read-time predicate; nothing rewrites
// state at midnight.
func Stale(lastUpdated, now time.Time) bool {
	return lastUpdated.In(now.Location()).Format(dateLayout) != now.Format(dateLayout)
}

// ActiveChecked returns the course's checked item ids for today. A stale set
// from a previous day is discarded rather than carried forward.
func ActiveChecked(course model.Course, now time.Time) []string {
	if Stale(course.LastUpdated, now) {
		return nil
	}
	return course.CheckedItems
}

// Item is one slot of today's checklist.
type Item struct {
	ID         string `json:"id"`
	CategoryID int64  `json:"category_id"`
	Index      int    `json:"index"`
	Checked    bool   `json:"checked"`
}

// BuildDay materializes today's checklist for a course: for each category,
// quota.Daily slots, marked checked from the course's non-stale checked set.
// Checked ids beyond today's quota simply drop out of view.
func BuildDay(course model.Course, categories []model.Category, deadline, now time.Time) []Item {
	checked := make(map[string]struct{})
	for _, id := range ActiveChecked(course, now) {
		checked[id] = struct{}{}
	}

	var items []Item
	for _, cat := range categories {
		n := quota.Daily(cat.Total, cat.Completed, deadline, now)
		for i := 0; i < n; i++ {
			id := ItemID{CategoryID: cat.ID, Index: i}.String()
			_, isChecked := checked[id]
			items = append(items, Item{
				ID:         id,
				CategoryID: cat.ID,
				Index:      i,
				Checked:    isChecked,
			})
		}
	}
	return items
}
