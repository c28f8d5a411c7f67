package models

import "time"

type Security struct {
	ID          int       `db:"id" json:"id"`
	Ticker      string    `db:"ticker" json:"ticker"`
	DisplayName string    `db:"display_name" json:"displayName"`
	YearHigh    *float64  `db:"year_high" json:"yearHigh,omitempty"`
	YearLow     *float64  `db:"year_low" json:"yearLow,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
