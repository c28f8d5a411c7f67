package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"portfolio/src/models"
	"portfolio/src/schemas"
	"portfolio/src/utils"
)

type demoSecurity struct {
	ticker   string
	name     string
	current  float64
	previous float64
	yearHigh float64
	yearLow  float64
	quantity float64
}

var demoSecurities = []demoSecurity{
	{"TSLA", "Tesla, Inc.", 265.5, 250.0, 300, 150, 10},
	{"NVDA", "NVIDIA Corporation", 475.8, 450.2, 500, 200, 5},
	{"AMZN", "Amazon.com, Inc.", 128.9, 130.1, 145, 85, 15},
	{"AAPL", "Apple Inc.", 175.2, 170.5, 190, 125, 12},
	{"MSFT", "Microsoft Corporation", 325.5, 330.0, 350, 220, 8},
	{"GOOGL", "Alphabet Inc.", 135.0, 134.0, 140, 90, 10},
	{"JPM", "JPMorgan Chase", 155.1, 152.0, 160, 110, 20},
	{"PFE", "Pfizer Inc.", 36.8, 36.0, 55, 35, 50},
	{"DIS", "Walt Disney Co.", 90.1, 88.0, 120, 80, 25},
	{"XOM", "Exxon Mobil", 110.0, 108.0, 120, 85, 18},
	{"BAC", "Bank of America", 30.0, 29.0, 38, 28, 60},
}

const demoPeriod = 7 * 24 * time.Hour

// DemoProvider serves a fixed synthetic portfolio: two USD points per security, a week apart, ending today.
type DemoProvider struct {
	usdToCadRate float64
	Now          func() time.Time
}

func NewDemoProvider(usdToCadRate float64) *DemoProvider {
	return &DemoProvider{usdToCadRate: usdToCadRate, Now: time.Now}
}

func (p *DemoProvider) securities() []models.Security {
	securities := make([]models.Security, len(demoSecurities))
	for i, d := range demoSecurities {
		high, low := d.yearHigh, d.yearLow
		securities[i] = models.Security{
			ID:          i + 1,
			Ticker:      d.ticker,
			DisplayName: d.name,
			YearHigh:    &high,
			YearLow:     &low,
		}
	}
	return securities
}

func (p *DemoProvider) history(id int) []models.HistoricalRecord {
	d := demoSecurities[id-1]
	today := utils.CalendarDate(p.Now())
	dates, err := utils.GenerateDates(today.Add(-demoPeriod), today, demoPeriod)
	if err != nil {
		return nil
	}

	values := []float64{d.previous, d.current}
	records := make([]models.HistoricalRecord, 0, len(dates))
	for i, date := range dates {
		records = append(records, models.HistoricalRecord{
			ID:         id*10 + i,
			SecurityID: id,
			Date:       date,
			Value:      values[i],
			Quantity:   d.quantity,
			Currency:   utils.CurrencyUSD,
		})
	}
	return records
}

func (p *DemoProvider) GetAllSecuritiesSortedByName(ctx context.Context) ([]models.Security, error) {
	securities := p.securities()
	sort.SliceStable(securities, func(i, j int) bool {
		return strings.ToLower(securities[i].DisplayName) < strings.ToLower(securities[j].DisplayName)
	})
	return securities, nil
}

func (p *DemoProvider) GetSecurityDetail(ctx context.Context, id int) (*schemas.SecurityDetail, error) {
	if id < 1 || id > len(demoSecurities) {
		return nil, fmt.Errorf("%w: demo security %d", ErrNotFound, id)
	}
	return buildSecurityDetail(p.securities()[id-1], p.history(id)), nil
}

func (p *DemoProvider) GetPortfolioAggregate(ctx context.Context) (*schemas.PortfolioAggregate, error) {
	securities := p.securities()
	var records []models.HistoricalRecord
	for _, s := range securities {
		records = append(records, p.history(s.ID)...)
	}
	return BuildAggregate(securities, records, p.usdToCadRate), nil
}
