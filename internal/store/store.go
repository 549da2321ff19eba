// Package store implements data access over SQLite. Each entity gets its
// own store struct; multi-row mutations run inside a transaction so readers
// never observe a ledger entry without its counter adjustment.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned by mutations that reference a missing record.
// Lookups return (nil, nil) instead; only writes fail loudly.
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument is returned for malformed dates, negative counts and
// other caller mistakes that no amount of retrying will fix.
var ErrInvalidArgument = errors.New("invalid argument")

const dateLayout = "2006-01-02"

// validDate reports whether s is a well-formed YYYY-MM-DD date.
func validDate(s string) bool {
	if len(s) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
