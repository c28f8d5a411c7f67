package services

import (
	"sort"

	"portfolio/src/models"
	"portfolio/src/schemas"
	"portfolio/src/utils"

	"github.com/shopspring/decimal"
)

const defaultRankingSize = 10

var hundred = decimal.NewFromInt(100)

// DailyTotals sums value x quantity per date in the reporting currency (CAD). USD records are multiplied by
// usdToCadRate. Records without a date are ignored and dates without records do not appear.
func DailyTotals(records []models.HistoricalRecord, usdToCadRate float64) []schemas.DailyTotal {
	rate := decimal.NewFromFloat(usdToCadRate)
	byDate := map[int64]decimal.Decimal{}
	dates := map[int64]schemas.DailyTotal{}

	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		amount := decimal.NewFromFloat(r.Value).Mul(decimal.NewFromFloat(r.Quantity))
		if r.Currency != utils.CurrencyCAD {
			amount = amount.Mul(rate)
		}
		key := r.Date.Unix()
		byDate[key] = byDate[key].Add(amount)
		dates[key] = schemas.DailyTotal{Date: r.Date}
	}

	totals := make([]schemas.DailyTotal, 0, len(byDate))
	for key, sum := range byDate {
		total := dates[key]
		total.Total = sum.InexactFloat64()
		totals = append(totals, total)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date) })
	return totals
}

// ComputePerformance compares the last two points of a date-sorted series. It returns nil with fewer than two
// points or when the previous value is zero.
func ComputePerformance(series []schemas.DailyTotal) *schemas.Performance {
	if len(series) < 2 {
		return nil
	}
	last, previous := series[len(series)-1], series[len(series)-2]
	lastValue, previousValue := decimal.NewFromFloat(last.Total), decimal.NewFromFloat(previous.Total)
	if previousValue.IsZero() {
		return nil
	}

	absolute := lastValue.Sub(previousValue)
	return &schemas.Performance{
		Date:         last.Date,
		PreviousDate: previous.Date,
		Last:         last.Total,
		Previous:     previous.Total,
		Absolute:     absolute.InexactFloat64(),
		Percentage:   absolute.Div(previousValue).Mul(hundred).InexactFloat64(),
	}
}

// valueSeries returns a security's closing prices sorted by date, skipping undated records.
func valueSeries(records []models.HistoricalRecord) []schemas.DailyTotal {
	series := make([]schemas.DailyTotal, 0, len(records))
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		series = append(series, schemas.DailyTotal{Date: r.Date, Total: r.Value})
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series
}

// RankPerformers sorts by percentage ascending. worst holds the first n entries, best the last n in reverse.
func RankPerformers(performances []schemas.SecurityPerformance, n int) (best, worst []schemas.SecurityPerformance) {
	sorted := make([]schemas.SecurityPerformance, len(performances))
	copy(sorted, performances)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Performance.Percentage < sorted[j].Performance.Percentage
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	worst = append([]schemas.SecurityPerformance{}, sorted[:n]...)
	best = make([]schemas.SecurityPerformance, 0, n)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		best = append(best, sorted[i])
	}
	return best, worst
}

// RankProximity compares each security's latest price with its 52-week extremes. latest is keyed by security id.
// A security is left out of a ranking when the matching extreme is unknown or not positive.
func RankProximity(securities []models.Security, latest map[int]float64, n int) (high, low []schemas.SecurityProximity) {
	high, low = []schemas.SecurityProximity{}, []schemas.SecurityProximity{}

	for _, s := range securities {
		current, ok := latest[s.ID]
		if !ok {
			continue
		}
		entry := schemas.SecurityProximity{
			SecurityID:   s.ID,
			Ticker:       s.Ticker,
			DisplayName:  s.DisplayName,
			CurrentPrice: current,
		}
		if s.YearHigh != nil {
			entry.YearHigh = *s.YearHigh
		}
		if s.YearLow != nil {
			entry.YearLow = *s.YearLow
		}

		price := decimal.NewFromFloat(current)
		if s.YearHigh != nil && *s.YearHigh > 0 {
			h := entry
			h.Proximity = price.Div(decimal.NewFromFloat(*s.YearHigh)).Mul(hundred).InexactFloat64()
			high = append(high, h)
		}
		if s.YearLow != nil && *s.YearLow > 0 {
			l := entry
			l.Proximity = price.Div(decimal.NewFromFloat(*s.YearLow)).Mul(hundred).InexactFloat64()
			low = append(low, l)
		}
	}

	sort.SliceStable(high, func(i, j int) bool { return high[i].Proximity > high[j].Proximity })
	sort.SliceStable(low, func(i, j int) bool { return low[i].Proximity < low[j].Proximity })
	if len(high) > n {
		high = high[:n]
	}
	if len(low) > n {
		low = low[:n]
	}
	return high, low
}

// SecurityPerformances computes the performance of every security whose own value series allows it.
func SecurityPerformances(securities []models.Security, bySecurity map[int][]models.HistoricalRecord) []schemas.SecurityPerformance {
	performances := []schemas.SecurityPerformance{}
	for _, s := range securities {
		perf := ComputePerformance(valueSeries(bySecurity[s.ID]))
		if perf == nil {
			continue
		}
		performances = append(performances, schemas.SecurityPerformance{
			SecurityID:  s.ID,
			Ticker:      s.Ticker,
			DisplayName: s.DisplayName,
			Performance: *perf,
		})
	}
	return performances
}

// BuildAggregate assembles the dashboard view from the full registry and history.
func BuildAggregate(securities []models.Security, records []models.HistoricalRecord, usdToCadRate float64) *schemas.PortfolioAggregate {
	bySecurity := map[int][]models.HistoricalRecord{}
	for _, r := range records {
		bySecurity[r.SecurityID] = append(bySecurity[r.SecurityID], r)
	}

	latest := map[int]float64{}
	for id, history := range bySecurity {
		series := valueSeries(history)
		if len(series) > 0 {
			latest[id] = series[len(series)-1].Total
		}
	}

	totals := DailyTotals(records, usdToCadRate)
	best, worst := RankPerformers(SecurityPerformances(securities, bySecurity), defaultRankingSize)
	high, low := RankProximity(securities, latest, defaultRankingSize)

	return &schemas.PortfolioAggregate{
		ReportingCurrency: utils.CurrencyCAD,
		DailyTotals:       totals,
		PerformanceGlobal: ComputePerformance(totals),
		TopPerformers:     best,
		BottomPerformers:  worst,
		ProximityHigh:     high,
		ProximityLow:      low,
	}
}
