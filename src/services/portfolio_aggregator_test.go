package services_test

import (
	"fmt"
	"testing"
	"time"

	"portfolio/src/models"
	"portfolio/src/schemas"
	"portfolio/src/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyTotals(t *testing.T) {
	t.Run("converts USD with the rate", func(t *testing.T) {
		records := []models.HistoricalRecord{
			{SecurityID: 1, Date: day(2024, 3, 8), Value: 100, Quantity: 1, Currency: "USD"},
			{SecurityID: 2, Date: day(2024, 3, 8), Value: 50, Quantity: 1, Currency: "CAD"},
		}
		totals := services.DailyTotals(records, 1.35)
		require.Len(t, totals, 1)
		assert.InDelta(t, 185.0, totals[0].Total, 1e-9)
	})

	t.Run("groups, sorts and drops undated records", func(t *testing.T) {
		records := []models.HistoricalRecord{
			{SecurityID: 1, Date: day(2024, 3, 8), Value: 10, Quantity: 2, Currency: "CAD"},
			{SecurityID: 1, Date: day(2024, 3, 1), Value: 9, Quantity: 2, Currency: "CAD"},
			{SecurityID: 2, Date: day(2024, 3, 8), Value: 1, Quantity: 3, Currency: "CAD"},
			{SecurityID: 3, Date: time.Time{}, Value: 1000, Quantity: 1, Currency: "CAD"},
		}
		totals := services.DailyTotals(records, 1.35)
		require.Len(t, totals, 2)
		assert.Equal(t, day(2024, 3, 1), totals[0].Date)
		assert.InDelta(t, 18.0, totals[0].Total, 1e-9)
		assert.InDelta(t, 23.0, totals[1].Total, 1e-9)
	})

	t.Run("no records", func(t *testing.T) {
		assert.Empty(t, services.DailyTotals(nil, 1.35))
	})
}

func TestComputePerformance(t *testing.T) {
	series := func(values ...float64) []schemas.DailyTotal {
		out := make([]schemas.DailyTotal, len(values))
		for i, v := range values {
			out[i] = schemas.DailyTotal{Date: day(2024, 3, i+1), Total: v}
		}
		return out
	}

	perf := services.ComputePerformance(series(100, 110))
	require.NotNil(t, perf)
	assert.InDelta(t, 10.0, perf.Absolute, 1e-9)
	assert.InDelta(t, 10.0, perf.Percentage, 1e-9)
	assert.Equal(t, day(2024, 3, 2), perf.Date)

	perf = services.ComputePerformance(series(80, 100, 90))
	require.NotNil(t, perf)
	assert.InDelta(t, -10.0, perf.Absolute, 1e-9)
	assert.InDelta(t, -10.0, perf.Percentage, 1e-9)

	// series are ascending by date, so only a zero on the earlier day is undefined
	assert.Nil(t, services.ComputePerformance(series(0, 100)))
	perf = services.ComputePerformance(series(100, 0))
	require.NotNil(t, perf)
	assert.InDelta(t, -100.0, perf.Absolute, 1e-9)
	assert.InDelta(t, -100.0, perf.Percentage, 1e-9)
	assert.Nil(t, services.ComputePerformance(series(100)))
	assert.Nil(t, services.ComputePerformance(nil))
}

func TestRankPerformers(t *testing.T) {
	var perfs []schemas.SecurityPerformance
	// 15 distinct percentages in scrambled order
	for i, pct := range []float64{3, -7, 12, 0.5, -1, 8, 20, -15, 4, 6, -3, 9, 1, 15, -2} {
		perfs = append(perfs, schemas.SecurityPerformance{
			SecurityID:  i + 1,
			Ticker:      fmt.Sprintf("T%d", i+1),
			Performance: schemas.Performance{Percentage: pct},
		})
	}

	best, worst := services.RankPerformers(perfs, 10)
	require.Len(t, best, 10)
	require.Len(t, worst, 10)
	assert.Equal(t, 20.0, best[0].Performance.Percentage)
	assert.Equal(t, -15.0, worst[0].Performance.Percentage)
	for i := 1; i < 10; i++ {
		assert.Greater(t, best[i-1].Performance.Percentage, best[i].Performance.Percentage)
		assert.Less(t, worst[i-1].Performance.Percentage, worst[i].Performance.Percentage)
	}

	t.Run("fewer than n", func(t *testing.T) {
		best, worst := services.RankPerformers(perfs[:3], 10)
		assert.Len(t, best, 3)
		assert.Len(t, worst, 3)
		assert.Equal(t, 12.0, best[0].Performance.Percentage)
		assert.Equal(t, -7.0, worst[0].Performance.Percentage)
	})
}

func TestRankProximity(t *testing.T) {
	securities := []models.Security{
		{ID: 1, Ticker: "TSLA", YearHigh: floatPtr(300), YearLow: floatPtr(150)},
		{ID: 2, Ticker: "NVDA", YearHigh: floatPtr(500), YearLow: floatPtr(200)},
		{ID: 3, Ticker: "NOHIGH", YearLow: floatPtr(10)},
		{ID: 4, Ticker: "NOHISTORY", YearHigh: floatPtr(1), YearLow: floatPtr(1)},
		{ID: 5, Ticker: "ZERO", YearHigh: floatPtr(0), YearLow: floatPtr(0)},
	}
	latest := map[int]float64{1: 265.5, 2: 475.8, 3: 12, 5: 3}

	high, low := services.RankProximity(securities, latest, 10)
	require.Len(t, high, 2)
	assert.Equal(t, "NVDA", high[0].Ticker)
	assert.InDelta(t, 95.16, high[0].Proximity, 1e-9)
	assert.Equal(t, "TSLA", high[1].Ticker)

	require.Len(t, low, 3)
	assert.Equal(t, "NOHIGH", low[0].Ticker)
	assert.InDelta(t, 120.0, low[0].Proximity, 1e-9)
	assert.Equal(t, "TSLA", low[1].Ticker)
	assert.Equal(t, "NVDA", low[2].Ticker)
}

func TestBuildAggregate(t *testing.T) {
	securities := []models.Security{
		{ID: 1, Ticker: "AAPL", DisplayName: "Apple", YearHigh: floatPtr(200), YearLow: floatPtr(100)},
		{ID: 2, Ticker: "TSE:RY", DisplayName: "Royal Bank"},
	}
	records := []models.HistoricalRecord{
		{SecurityID: 1, Date: day(2024, 3, 7), Value: 100, Quantity: 1, Currency: "USD"},
		{SecurityID: 1, Date: day(2024, 3, 8), Value: 110, Quantity: 1, Currency: "USD"},
		{SecurityID: 2, Date: day(2024, 3, 7), Value: 50, Quantity: 2, Currency: "CAD"},
		{SecurityID: 2, Date: day(2024, 3, 8), Value: 45, Quantity: 2, Currency: "CAD"},
	}

	agg := services.BuildAggregate(securities, records, 1.5)
	assert.Equal(t, "CAD", agg.ReportingCurrency)
	require.Len(t, agg.DailyTotals, 2)
	assert.InDelta(t, 250.0, agg.DailyTotals[0].Total, 1e-9)
	assert.InDelta(t, 255.0, agg.DailyTotals[1].Total, 1e-9)
	require.NotNil(t, agg.PerformanceGlobal)
	assert.InDelta(t, 2.0, agg.PerformanceGlobal.Percentage, 1e-9)

	require.Len(t, agg.TopPerformers, 2)
	assert.Equal(t, "AAPL", agg.TopPerformers[0].Ticker)
	assert.Equal(t, "TSE:RY", agg.BottomPerformers[0].Ticker)

	require.Len(t, agg.ProximityHigh, 1)
	assert.InDelta(t, 55.0, agg.ProximityHigh[0].Proximity, 1e-9)
	require.Len(t, agg.ProximityLow, 1)
	assert.InDelta(t, 110.0, agg.ProximityLow[0].Proximity, 1e-9)
}
