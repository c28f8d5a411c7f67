package repositories_test

import (
	"context"
	"testing"
	"time"

	"portfolio/src/models"
	"portfolio/src/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSecurityRepository(t *testing.T) {
	db := setupTest(t)
	repo := repositories.NewSecurityRepository(db)
	records := repositories.NewHistoricalRecordRepository(db)
	ctx := context.Background()

	t.Run("create and list sorted by display name", func(t *testing.T) {
		for _, s := range []*models.Security{
			{Ticker: "MSFT", DisplayName: "Microsoft Corporation"},
			{Ticker: "aapl", DisplayName: "Apple Inc."},
			{Ticker: "TSE:RY", DisplayName: "Royal Bank of Canada"},
		} {
			require.NoError(t, repo.Create(ctx, s, nil))
			assert.NotZero(t, s.ID)
		}

		all, err := repo.GetAll(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Apple Inc.", all[0].DisplayName)
		assert.Equal(t, "aapl", all[0].Ticker, "stored ticker keeps its casing")
		assert.Equal(t, "Microsoft Corporation", all[1].DisplayName)
		assert.Equal(t, "Royal Bank of Canada", all[2].DisplayName)
		assert.Nil(t, all[0].YearHigh)
	})

	t.Run("ticker is unique regardless of case", func(t *testing.T) {
		err := repo.Create(ctx, &models.Security{Ticker: "AAPL", DisplayName: "Apple again"}, nil)
		assert.Error(t, err)
	})

	t.Run("get by id", func(t *testing.T) {
		s := &models.Security{Ticker: "NVDA", DisplayName: "NVIDIA"}
		require.NoError(t, repo.Create(ctx, s, nil))

		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "NVDA", got.Ticker)

		_, err = repo.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, repositories.ErrSecurityNotFound)
	})

	t.Run("update year range", func(t *testing.T) {
		s := &models.Security{Ticker: "JPM", DisplayName: "JPMorgan Chase"}
		require.NoError(t, repo.Create(ctx, s, nil))

		require.NoError(t, repo.UpdateYearRange(ctx, s.ID, floatPtr(160), floatPtr(110), nil))
		got, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		require.NotNil(t, got.YearHigh)
		require.NotNil(t, got.YearLow)
		assert.Equal(t, 160.0, *got.YearHigh)
		assert.Equal(t, 110.0, *got.YearLow)

		require.NoError(t, repo.UpdateYearRange(ctx, s.ID, floatPtr(170), nil, nil))
		got, err = repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 170.0, *got.YearHigh)
		require.NotNil(t, got.YearLow)
		assert.Equal(t, 110.0, *got.YearLow)

		err = repo.UpdateYearRange(ctx, 999999, nil, nil, nil)
		assert.ErrorIs(t, err, repositories.ErrSecurityNotFound)
	})

	t.Run("delete cascades to history", func(t *testing.T) {
		s := &models.Security{Ticker: "DIS", DisplayName: "Walt Disney Co."}
		require.NoError(t, repo.Create(ctx, s, nil))
		require.NoError(t, records.Upsert(ctx, &models.HistoricalRecord{
			SecurityID: s.ID, Date: day(2024, 3, 1), Value: 90.1, Quantity: 25, Currency: "USD",
		}, nil))

		deleted, err := repo.DeleteByIDs(ctx, []int{s.ID}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		history, err := records.GetBySecurityID(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, history)

		var orphans int
		require.NoError(t, db.QueryRow(ctx,
			`SELECT COUNT(*) FROM historical_records r LEFT JOIN securities s ON s.id = r.security_id WHERE s.id IS NULL`,
		).Scan(&orphans))
		assert.Zero(t, orphans)
	})

	t.Run("rolled back transaction leaves no trace", func(t *testing.T) {
		tx, err := db.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, &models.Security{Ticker: "XOM", DisplayName: "Exxon Mobil"}, tx))
		require.NoError(t, tx.Rollback(ctx))

		all, err := repo.GetAll(ctx, nil)
		require.NoError(t, err)
		for _, s := range all {
			assert.NotEqual(t, "XOM", s.Ticker)
		}
	})
}
