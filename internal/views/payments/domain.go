// Package payments is the payment records view filtered by payment type,
// period, account and user.
package payments

import "time"

// Payment types.
const (
	TypeEP  = "ep"
	TypeEPU = "epu"
	TypeESV = "esv"
)

// Types lists the selectable payment types.
var Types = []string{TypeEP, TypeEPU, TypeESV}

// Payment is one stored payment. Amount is in minor units of Currency.
type Payment struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	AccountID int64     `json:"account_id"`
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is the data of the payments view.
type Result struct {
	Payments []Payment `json:"payments"`
	// Totals sums amounts per currency.
	Totals map[string]int64 `json:"totals"`
}

// Filter is the repository query derived from the view's filter values.
type Filter struct {
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
	AccountID *int64
	UserID    *int64
	Limit     int
}
