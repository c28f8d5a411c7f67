package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio/src/clients/yahoo"
	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/schemas"
	"portfolio/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// PriceResolution holds the price chosen for each holding, keyed by lowercased ticker.
type PriceResolution struct {
	Prices map[string]float64
	// Fallbacks lists holdings priced from the snapshot because the provider failed.
	Fallbacks []schemas.RowSkip
	Skipped   []schemas.RowSkip
}

// HistoryResolution holds provider closes per holding for a backfill, keyed by lowercased ticker.
type HistoryResolution struct {
	Histories map[string][]schemas.PricePoint
	Skipped   []schemas.RowSkip
}

type MergeResult struct {
	Upserted int
	Skipped  []schemas.RowSkip
}

type ValuationMerger struct {
	historicalRecordRepository repositories.HistoricalRecordRepository
	quoteClient                yahoo.YahooServiceClientI
	lookback                   *utils.TimeInterval
	callTimeout                time.Duration
}

func NewValuationMerger(
	historicalRecordRepository repositories.HistoricalRecordRepository,
	quoteClient yahoo.YahooServiceClientI,
	lookback *utils.TimeInterval,
	callTimeout time.Duration,
) *ValuationMerger {
	if lookback == nil {
		lookback = &utils.TimeInterval{Days: 5}
	}
	return &ValuationMerger{
		historicalRecordRepository: historicalRecordRepository,
		quoteClient:                quoteClient,
		lookback:                   lookback,
		callTimeout:                callTimeout,
	}
}

func (m *ValuationMerger) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.callTimeout)
}

func providerSymbol(h SnapshotHolding) string {
	if h.Symbol != "" {
		return h.Symbol
	}
	return strings.ToUpper(strings.TrimSpace(h.Ticker))
}

func (m *ValuationMerger) latestClose(ctx context.Context, symbol string, runDate time.Time) (float64, error) {
	callCtx, cancel := m.withCallTimeout(ctx)
	defer cancel()

	points, err := m.quoteClient.GetHistory(callCtx, symbol, m.lookback.Before(runDate), runDate)
	if err != nil {
		return 0, err
	}
	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].Date.After(runDate) {
			return points[i].Close, nil
		}
	}
	return 0, fmt.Errorf("%w: no close for %s up to %s", yahoo.ErrSymbolNotFound, symbol, runDate.Format(utils.ShortDashDateLayout))
}

// ResolvePrices picks a price for every holding with a positive quantity: the provider's latest close up to
// runDate, or the snapshot price when the provider fails. It does no storage work so it can run before the
// transaction is opened.
func (m *ValuationMerger) ResolvePrices(ctx context.Context, holdings []SnapshotHolding, runDate time.Time) *PriceResolution {
	logger := utils.LoggerFromContext(ctx)
	resolution := &PriceResolution{Prices: map[string]float64{}}

	for _, h := range holdings {
		if h.Quantity <= 0 {
			continue
		}
		key := strings.ToLower(h.Ticker)
		symbol := providerSymbol(h)

		price, err := m.latestClose(ctx, symbol, runDate)
		if err == nil {
			resolution.Prices[key] = price
			continue
		}

		logger.WithFields(logrus.Fields{
			"ticker": h.Ticker,
			"symbol": symbol,
		}).WithError(err).Warn("Quote lookup failed")

		if h.Price != nil && *h.Price > 0 {
			resolution.Prices[key] = *h.Price
			resolution.Fallbacks = append(resolution.Fallbacks, schemas.RowSkip{
				Ticker: h.Ticker,
				Reason: fmt.Sprintf("%v: using snapshot price (%v)", ErrProviderUnavailable, err),
			})
			continue
		}
		resolution.Skipped = append(resolution.Skipped, schemas.RowSkip{
			Ticker: h.Ticker,
			Reason: fmt.Sprintf("%v: no usable price (%v)", ErrRowSkipped, err),
		})
	}
	return resolution
}

// FetchHistories loads provider closes in [startDate, endDate] for every holding with a positive quantity.
func (m *ValuationMerger) FetchHistories(ctx context.Context, holdings []SnapshotHolding, startDate, endDate time.Time) *HistoryResolution {
	logger := utils.LoggerFromContext(ctx)
	resolution := &HistoryResolution{Histories: map[string][]schemas.PricePoint{}}

	for _, h := range holdings {
		if h.Quantity <= 0 {
			continue
		}
		symbol := providerSymbol(h)

		callCtx, cancel := m.withCallTimeout(ctx)
		points, err := m.quoteClient.GetHistory(callCtx, symbol, startDate, endDate)
		cancel()
		if err == nil && len(points) == 0 {
			err = errors.New("empty history")
		}
		if err != nil {
			logger.WithFields(logrus.Fields{
				"ticker": h.Ticker,
				"symbol": symbol,
			}).WithError(err).Warn("History lookup failed")
			resolution.Skipped = append(resolution.Skipped, schemas.RowSkip{
				Ticker: h.Ticker,
				Reason: fmt.Sprintf("%v: %v", ErrProviderUnavailable, err),
			})
			continue
		}
		resolution.Histories[strings.ToLower(h.Ticker)] = points
	}
	return resolution
}

func holdingsByTicker(holdings []SnapshotHolding) map[string]SnapshotHolding {
	byTicker := make(map[string]SnapshotHolding, len(holdings))
	for _, h := range holdings {
		byTicker[strings.ToLower(h.Ticker)] = h
	}
	return byTicker
}

// upsertInSavepoint reports whether rec was written. A non-nil error means tx itself is unusable.
func (m *ValuationMerger) upsertInSavepoint(ctx context.Context, tx pgx.Tx, rec *models.HistoricalRecord) (bool, error) {
	rowErr, err := inSavepoint(ctx, tx, func(sp pgx.Tx) error {
		return m.historicalRecordRepository.Upsert(ctx, rec, sp)
	})
	if err != nil {
		return false, err
	}
	if rowErr != nil {
		utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
			"security_id": rec.SecurityID,
			"date":        rec.Date.Format(utils.ShortDashDateLayout),
		}).WithError(rowErr).Error("Failed to upsert historical record")
		return false, nil
	}
	return true, nil
}

// MergeDaily upserts one record per security for runDate. Securities without a position or without a resolved
// price are left untouched.
func (m *ValuationMerger) MergeDaily(
	ctx context.Context,
	tx pgx.Tx,
	securities []models.Security,
	holdings []SnapshotHolding,
	prices map[string]float64,
	runDate time.Time,
) (*MergeResult, error) {
	byTicker := holdingsByTicker(holdings)
	result := &MergeResult{}

	for _, s := range securities {
		key := strings.ToLower(s.Ticker)
		h, ok := byTicker[key]
		if !ok {
			continue
		}
		if h.Quantity <= 0 {
			result.Skipped = append(result.Skipped, schemas.RowSkip{
				Ticker: s.Ticker,
				Reason: fmt.Sprintf("%v: quantity is %v", ErrRowSkipped, h.Quantity),
			})
			continue
		}
		price, ok := prices[key]
		if !ok {
			continue
		}

		rec := &models.HistoricalRecord{
			SecurityID: s.ID,
			Date:       runDate,
			Value:      price,
			Quantity:   h.Quantity,
			Currency:   h.Currency,
		}
		written, err := m.upsertInSavepoint(ctx, tx, rec)
		if err != nil {
			return nil, err
		}
		if !written {
			result.Skipped = append(result.Skipped, schemas.RowSkip{
				Ticker: s.Ticker,
				Reason: fmt.Sprintf("%v: upsert failed", ErrRowSkipped),
			})
			continue
		}
		result.Upserted++
	}
	return result, nil
}

// Backfill replaces every record of the given securities in [startDate, endDate] with the provider closes in
// histories. The current snapshot quantity and currency are applied to every date of the range.
func (m *ValuationMerger) Backfill(
	ctx context.Context,
	tx pgx.Tx,
	securities []models.Security,
	holdings []SnapshotHolding,
	histories map[string][]schemas.PricePoint,
	startDate, endDate time.Time,
) (*MergeResult, error) {
	logger := utils.LoggerFromContext(ctx)

	ids := make([]int, len(securities))
	for i, s := range securities {
		ids[i] = s.ID
	}
	deleted, err := m.historicalRecordRepository.DeleteRange(ctx, ids, startDate, endDate, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to clear backfill range: %v", ErrStorageTransaction, err)
	}
	logger.WithFields(logrus.Fields{
		"deleted": deleted,
		"start":   startDate.Format(utils.ShortDashDateLayout),
		"end":     endDate.Format(utils.ShortDashDateLayout),
	}).Info("Cleared historical records for backfill")

	byTicker := holdingsByTicker(holdings)
	result := &MergeResult{}
	for _, s := range securities {
		key := strings.ToLower(s.Ticker)
		h, ok := byTicker[key]
		if !ok {
			continue
		}
		if h.Quantity <= 0 {
			result.Skipped = append(result.Skipped, schemas.RowSkip{
				Ticker: s.Ticker,
				Reason: fmt.Sprintf("%v: quantity is %v", ErrRowSkipped, h.Quantity),
			})
			continue
		}

		for _, point := range histories[key] {
			if point.Date.Before(startDate) || point.Date.After(endDate) {
				continue
			}
			rec := &models.HistoricalRecord{
				SecurityID: s.ID,
				Date:       point.Date,
				Value:      point.Close,
				Quantity:   h.Quantity,
				Currency:   h.Currency,
			}
			written, err := m.upsertInSavepoint(ctx, tx, rec)
			if err != nil {
				return nil, err
			}
			if !written {
				result.Skipped = append(result.Skipped, schemas.RowSkip{
					Ticker: s.Ticker,
					Reason: fmt.Sprintf("%v: insert failed for %s", ErrRowSkipped, point.Date.Format(utils.ShortDashDateLayout)),
				})
				continue
			}
			result.Upserted++
		}
	}
	return result, nil
}
