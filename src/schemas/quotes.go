package schemas

import "time"

// PricePoint is one daily close reported by the quote provider.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Quote is the latest known close of a symbol together with its 52-week extremes when the provider has them.
type Quote struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	YearHigh *float64  `json:"yearHigh,omitempty"`
	YearLow  *float64  `json:"yearLow,omitempty"`
}
