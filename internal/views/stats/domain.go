// Package stats is the traffic and revenue statistics view with an optional
// comparison range.
package stats

import "time"

// Point is one day of statistics.
type Point struct {
	Day          time.Time `json:"day"`
	Visits       int64     `json:"visits"`
	Signups      int64     `json:"signups"`
	RevenueCents int64     `json:"revenue_cents"`
}

// Totals sums a range.
type Totals struct {
	Visits       int64 `json:"visits"`
	Signups      int64 `json:"signups"`
	RevenueCents int64 `json:"revenue_cents"`
}

// Series is the daily statistics of one date range.
type Series struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Points []Point   `json:"points"`
	Totals Totals    `json:"totals"`
}

// Delta is the relative change of the current range against the compare range,
// in percent. A nil component means the compare value was zero.
type Delta struct {
	Visits  *float64 `json:"visits,omitempty"`
	Signups *float64 `json:"signups,omitempty"`
	Revenue *float64 `json:"revenue,omitempty"`
}

// Report is the data of the stats view.
type Report struct {
	Current Series  `json:"current"`
	Compare *Series `json:"compare,omitempty"`
	Delta   *Delta  `json:"delta,omitempty"`
}
