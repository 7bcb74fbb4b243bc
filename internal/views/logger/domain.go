// Package logger is the application log view: entries filtered by account,
// level, title and creation date, with the count of entries needing a fix.
package logger

import "time"

// Levels are the selectable log levels.
var Levels = []string{"debug", "info", "warn", "error"}

// Entry is one stored log entry.
type Entry struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Level     string    `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	NeedToFix bool      `json:"need_to_fix"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is the data of the logger view.
type Result struct {
	Entries []Entry `json:"entries"`
	// Truncated is set when more entries matched than the page limit.
	Truncated bool `json:"truncated"`
}

// NeedFixCount counts the entries flagged for fixing.
func (r Result) NeedFixCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.NeedToFix {
			n++
		}
	}
	return n
}

// Filter is the repository query derived from the view's filter values.
type Filter struct {
	AccountID   *int64
	NeedToFix   *bool
	Levels      []string
	Title       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
}
