package schemas

import (
	"time"

	"portfolio/src/models"
)

// Performance compares the last point of a series with the one before it.
type Performance struct {
	Date         time.Time `json:"date"`
	PreviousDate time.Time `json:"previousDate"`
	Last         float64   `json:"last"`
	Previous     float64   `json:"previous"`
	Absolute     float64   `json:"absolute"`
	Percentage   float64   `json:"percentage"`
}

type DailyTotal struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
}

type SecurityPerformance struct {
	SecurityID  int         `json:"securityId"`
	Ticker      string      `json:"ticker"`
	DisplayName string      `json:"displayName"`
	Performance Performance `json:"performance"`
}

type SecurityProximity struct {
	SecurityID   int     `json:"securityId"`
	Ticker       string  `json:"ticker"`
	DisplayName  string  `json:"displayName"`
	CurrentPrice float64 `json:"currentPrice"`
	YearHigh     float64 `json:"yearHigh"`
	YearLow      float64 `json:"yearLow"`
	Proximity    float64 `json:"proximity"`
}

type SecurityDetail struct {
	Security    models.Security           `json:"security"`
	History     []models.HistoricalRecord `json:"history"`
	Performance *Performance              `json:"performance,omitempty"`
}

type PortfolioAggregate struct {
	ReportingCurrency string                `json:"reportingCurrency"`
	DailyTotals       []DailyTotal          `json:"dailyTotals"`
	PerformanceGlobal *Performance          `json:"performanceGlobal,omitempty"`
	TopPerformers     []SecurityPerformance `json:"topPerformers"`
	BottomPerformers  []SecurityPerformance `json:"bottomPerformers"`
	ProximityHigh     []SecurityProximity   `json:"proximityHigh"`
	ProximityLow      []SecurityProximity   `json:"proximityLow"`
}
