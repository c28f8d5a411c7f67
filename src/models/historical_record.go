package models

import "time"

// HistoricalRecord is one valuation of a security on a calendar date.
// Date carries no time component and is always UTC midnight.
type HistoricalRecord struct {
	ID         int       `db:"id" json:"id"`
	SecurityID int       `db:"security_id" json:"securityId"`
	Date       time.Time `db:"date" json:"date"`
	Value      float64   `db:"value" json:"value"`
	Quantity   float64   `db:"quantity" json:"quantity"`
	Currency   string    `db:"currency" json:"currency"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"-"`
}
