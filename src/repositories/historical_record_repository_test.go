package repositories_test

import (
	"context"
	"testing"

	"portfolio/src/models"
	"portfolio/src/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoricalRecordRepository(t *testing.T) {
	db := setupTest(t)
	securities := repositories.NewSecurityRepository(db)
	repo := repositories.NewHistoricalRecordRepository(db)
	ctx := context.Background()

	sec := &models.Security{Ticker: "AAPL", DisplayName: "Apple Inc."}
	require.NoError(t, securities.Create(ctx, sec, nil))

	t.Run("upsert is idempotent per date", func(t *testing.T) {
		rec := &models.HistoricalRecord{SecurityID: sec.ID, Date: day(2024, 3, 4), Value: 170.5, Quantity: 12, Currency: "USD"}
		require.NoError(t, repo.Upsert(ctx, rec, nil))
		firstID := rec.ID

		again := &models.HistoricalRecord{SecurityID: sec.ID, Date: day(2024, 3, 4), Value: 175.2, Quantity: 10, Currency: "USD"}
		require.NoError(t, repo.Upsert(ctx, again, nil))
		assert.Equal(t, firstID, again.ID)

		history, err := repo.GetBySecurityID(ctx, sec.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, 175.2, history[0].Value)
		assert.Equal(t, 10.0, history[0].Quantity)
		assert.True(t, history[0].Date.Equal(day(2024, 3, 4)))
	})

	t.Run("history is sorted by date", func(t *testing.T) {
		for _, d := range []int{8, 5, 6} {
			require.NoError(t, repo.Upsert(ctx, &models.HistoricalRecord{
				SecurityID: sec.ID, Date: day(2024, 3, d), Value: float64(100 + d), Quantity: 12, Currency: "USD",
			}, nil))
		}

		history, err := repo.GetBySecurityID(ctx, sec.ID)
		require.NoError(t, err)
		require.Len(t, history, 4)
		for i := 1; i < len(history); i++ {
			assert.True(t, history[i-1].Date.Before(history[i].Date))
		}

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("update latest quantity touches only the newest record", func(t *testing.T) {
		updated, err := repo.UpdateLatestQuantity(ctx, sec.ID, 20, nil)
		require.NoError(t, err)
		assert.True(t, updated)

		history, err := repo.GetBySecurityID(ctx, sec.ID)
		require.NoError(t, err)
		last := history[len(history)-1]
		assert.True(t, last.Date.Equal(day(2024, 3, 8)))
		assert.Equal(t, 20.0, last.Quantity)
		assert.Equal(t, 12.0, history[len(history)-2].Quantity)

		other := &models.Security{Ticker: "MSFT", DisplayName: "Microsoft"}
		require.NoError(t, securities.Create(ctx, other, nil))
		updated, err = repo.UpdateLatestQuantity(ctx, other.ID, 5, nil)
		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("delete range is inclusive", func(t *testing.T) {
		deleted, err := repo.DeleteRange(ctx, []int{sec.ID}, day(2024, 3, 5), day(2024, 3, 6), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		history, err := repo.GetBySecurityID(ctx, sec.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.True(t, history[0].Date.Equal(day(2024, 3, 4)))
		assert.True(t, history[1].Date.Equal(day(2024, 3, 8)))
	})

	t.Run("currency is constrained", func(t *testing.T) {
		err := repo.Upsert(ctx, &models.HistoricalRecord{SecurityID: sec.ID, Date: day(2024, 3, 9), Value: 1, Quantity: 1, Currency: "EUR"}, nil)
		assert.Error(t, err)
	})
}
