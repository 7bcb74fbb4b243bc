package filterview

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the query-string representation of a date field.
const DateLayout = "2006-01-02"

// IsValidDateString reports whether s holds a date the filters accept.
func IsValidDateString(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// IsValidInteger reports whether s is a decimal integer that fits int64.
func IsValidInteger(s string) bool {
	_, err := ParseInteger(s)
	return err == nil
}

// ParseInteger parses a trimmed decimal integer.
func ParseInteger(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("filterview: empty integer")
	}
	return strconv.ParseInt(s, 10, 64)
}

// ParseDate accepts yyyy-MM-dd and RFC 3339 timestamps and truncates to the day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("filterview: empty date")
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("filterview: invalid date %q", s)
	}
	return Day(t), nil
}

// FormatDate renders t as yyyy-MM-dd. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Day normalizes t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
