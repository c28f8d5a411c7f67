package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"portfolio/src/clients/yahoo"
	"portfolio/src/config"
	"portfolio/src/database"
	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/schemas"
	"portfolio/src/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

type SyncServiceI interface {
	Run(ctx context.Context, req schemas.RunRequest) (*schemas.RunReport, error)
	Launch(ctx context.Context, req schemas.RunRequest) (*schemas.RunAccepted, error)
	LastRun(ctx context.Context) (*schemas.RunReport, error)
}

// SyncService runs the reconciliation pipeline: snapshot -> registry diff -> valuations, one run at a time.
type SyncService struct {
	db                         database.TxBeginner
	securityRepository         repositories.SecurityRepository
	historicalRecordRepository repositories.HistoricalRecordRepository
	runRepository              repositories.ReconciliationRunRepository
	quoteClient                yahoo.YahooServiceClientI

	normalizer *TickerNormalizer
	reconciler *RegistryReconciler
	merger     *ValuationMerger
	lock       RunLock

	cfg config.ReconciliationConfig

	// Now returns the current instant; the run date is its calendar date in the configured time zone.
	Now func() time.Time

	wg sync.WaitGroup
}

func NewSyncService(
	db database.TxBeginner,
	securityRepository repositories.SecurityRepository,
	historicalRecordRepository repositories.HistoricalRecordRepository,
	runRepository repositories.ReconciliationRunRepository,
	quoteClient yahoo.YahooServiceClientI,
	lock RunLock,
	cfg *config.Config,
) (*SyncService, error) {
	lookback, err := utils.ParseTimeInterval(cfg.Reconciliation.Lookback)
	if err != nil {
		return nil, fmt.Errorf("invalid reconciliation.lookback: %w", err)
	}
	if lock == nil {
		lock = NewLocalRunLock()
	}
	return &SyncService{
		db:                         db,
		securityRepository:         securityRepository,
		historicalRecordRepository: historicalRecordRepository,
		runRepository:              runRepository,
		quoteClient:                quoteClient,
		normalizer:                 NewTickerNormalizer(cfg.ExternalClients.Yahoo.ExchangeSuffixes),
		reconciler:                 NewRegistryReconciler(securityRepository),
		merger:                     NewValuationMerger(historicalRecordRepository, quoteClient, lookback, cfg.ExternalClients.Yahoo.Timeout),
		lock:                       lock,
		cfg:                        cfg.Reconciliation,
		Now:                        time.Now,
	}, nil
}

// prepare validates req and fills in its id and, for backfills, the configured date range.
func (s *SyncService) prepare(req schemas.RunRequest) (schemas.RunRequest, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	switch req.Mode {
	case models.RunModeDailySync, models.RunModeQuantityRefresh, models.RunModeYearRangeRefresh:
		return req, nil
	case models.RunModeBackfillRange:
	default:
		return req, fmt.Errorf("%w: unknown run mode %q", ErrMalformedInput, req.Mode)
	}

	if req.StartDate == nil || req.EndDate == nil {
		start, end, err := utils.ParseDateRange(s.cfg.StartDate, s.cfg.EndDate)
		if err != nil {
			return req, fmt.Errorf("%w: backfill range: %v", ErrMalformedInput, err)
		}
		if req.StartDate == nil {
			req.StartDate = &start
		}
		if req.EndDate == nil {
			req.EndDate = &end
		}
	}
	start, end := utils.CalendarDate(*req.StartDate), utils.CalendarDate(*req.EndDate)
	if end.Before(start) {
		return req, fmt.Errorf("%w: backfill end %s is before start %s", ErrMalformedInput,
			end.Format(utils.ShortDashDateLayout), start.Format(utils.ShortDashDateLayout))
	}
	req.StartDate, req.EndDate = &start, &end
	return req, nil
}

// Run executes req synchronously. It fails fast with ErrRunInProgress when another run holds the lock.
func (s *SyncService) Run(ctx context.Context, req schemas.RunRequest) (*schemas.RunReport, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	release, err := s.lock.TryAcquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.run(ctx, req)
}

// Launch acquires the run lock and executes req in the background. The returned id identifies the run in
// LastRun once it has been recorded.
func (s *SyncService) Launch(ctx context.Context, req schemas.RunRequest) (*schemas.RunAccepted, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	release, err := s.lock.TryAcquire(ctx)
	if err != nil {
		return nil, err
	}

	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer release()
		if _, err := s.run(runCtx, req); err != nil {
			utils.LoggerFromContext(runCtx).WithError(err).WithField("run_id", req.ID).Error("Background reconciliation run failed")
		}
	}()
	return &schemas.RunAccepted{ID: req.ID, Mode: req.Mode}, nil
}

// Wait blocks until every launched run has finished.
func (s *SyncService) Wait() {
	s.wg.Wait()
}

func (s *SyncService) run(ctx context.Context, req schemas.RunRequest) (*schemas.RunReport, error) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	timezone := s.cfg.Timezone
	if timezone == "" {
		timezone = "America/Montreal"
	}
	runDate, err := utils.TodayIn(timezone, s.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	logger := utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"run_id":   req.ID,
		"mode":     req.Mode,
		"run_date": runDate.Format(utils.ShortDashDateLayout),
	})
	logger.Info("Reconciliation run started")

	report := &schemas.RunReport{
		ID:        req.ID,
		Mode:      req.Mode,
		Status:    models.RunStatusRunning,
		RunDate:   runDate,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Skipped:   []schemas.RowSkip{},
	}

	run := reportToRun(report)
	if err := s.runRepository.Start(ctx, run); err != nil {
		return nil, fmt.Errorf("%w: failed to record run start: %v", ErrStorageTransaction, err)
	}

	runErr := s.execute(ctx, req, report)
	if runErr != nil {
		report.Status = models.RunStatusFailed
		report.Error = runErr.Error()
		logger.WithError(runErr).Error("Reconciliation run failed")
	} else {
		report.Status = models.RunStatusSucceeded
		logger.WithFields(logrus.Fields{
			"created":  report.Created,
			"retained": report.Retained,
			"removed":  report.Removed,
			"upserted": report.Upserted,
			"skipped":  len(report.Skipped),
		}).Info("Reconciliation run finished")
	}

	finished := reportToRun(report)
	finished.StartedAt = run.StartedAt
	if err := s.runRepository.Finish(context.WithoutCancel(ctx), finished); err != nil {
		logger.WithError(err).Error("Failed to record run result")
	}
	return report, runErr
}

func (s *SyncService) execute(ctx context.Context, req schemas.RunRequest, report *schemas.RunReport) error {
	if req.Mode == models.RunModeYearRangeRefresh {
		return s.refreshYearRanges(ctx, report)
	}

	snapshot, err := s.loadSnapshot(ctx)
	if err != nil {
		return err
	}
	report.Skipped = append(report.Skipped, snapshot.Skipped...)

	switch req.Mode {
	case models.RunModeDailySync:
		return s.dailySync(ctx, snapshot, report)
	case models.RunModeBackfillRange:
		return s.backfill(ctx, snapshot, *req.StartDate, *req.EndDate, report)
	case models.RunModeQuantityRefresh:
		return s.refreshQuantities(ctx, snapshot, report)
	}
	return fmt.Errorf("%w: unknown run mode %q", ErrMalformedInput, req.Mode)
}

func (s *SyncService) loadSnapshot(ctx context.Context) (*ParsedSnapshot, error) {
	rows, err := utils.LoadSnapshotFile(s.cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	snapshot, err := ParseSnapshotRows(rows)
	if err != nil {
		return nil, err
	}
	logger := utils.LoggerFromContext(ctx)
	for _, skip := range snapshot.Skipped {
		logger.WithFields(logrus.Fields{"ticker": skip.Ticker, "reason": skip.Reason}).Warn("Snapshot row skipped")
	}
	for i := range snapshot.Holdings {
		snapshot.Holdings[i].Symbol = s.normalizer.Normalize(snapshot.Holdings[i].Ticker)
	}
	return snapshot, nil
}

func applyDiff(report *schemas.RunReport, diff *RegistryDiff) {
	report.Created = len(diff.ToCreate)
	report.Retained = len(diff.ToRetain)
	report.Removed = len(diff.ToRemove)
}

func (s *SyncService) dailySync(ctx context.Context, snapshot *ParsedSnapshot, report *schemas.RunReport) error {
	prices := s.merger.ResolvePrices(ctx, snapshot.Holdings, report.RunDate)
	report.Fallbacks = prices.Fallbacks
	report.Skipped = append(report.Skipped, prices.Skipped...)

	return withTransaction(ctx, s.db, func(tx pgx.Tx) error {
		diff, err := s.reconciler.Reconcile(ctx, tx, snapshot)
		if err != nil {
			return err
		}
		applyDiff(report, diff)

		result, err := s.merger.MergeDaily(ctx, tx, diff.Securities(), snapshot.Holdings, prices.Prices, report.RunDate)
		if err != nil {
			return err
		}
		report.Upserted = result.Upserted
		report.Skipped = append(report.Skipped, result.Skipped...)
		return nil
	})
}

func (s *SyncService) backfill(ctx context.Context, snapshot *ParsedSnapshot, startDate, endDate time.Time, report *schemas.RunReport) error {
	histories := s.merger.FetchHistories(ctx, snapshot.Holdings, startDate, endDate)
	report.Skipped = append(report.Skipped, histories.Skipped...)

	return withTransaction(ctx, s.db, func(tx pgx.Tx) error {
		diff, err := s.reconciler.Reconcile(ctx, tx, snapshot)
		if err != nil {
			return err
		}
		applyDiff(report, diff)

		result, err := s.merger.Backfill(ctx, tx, diff.Securities(), snapshot.Holdings, histories.Histories, startDate, endDate)
		if err != nil {
			return err
		}
		report.Upserted = result.Upserted
		report.Skipped = append(report.Skipped, result.Skipped...)
		return nil
	})
}

// refreshQuantities overwrites the quantity of each security's most recent record with the snapshot quantity.
// The registry itself is not touched.
func (s *SyncService) refreshQuantities(ctx context.Context, snapshot *ParsedSnapshot, report *schemas.RunReport) error {
	logger := utils.LoggerFromContext(ctx)
	byTicker := holdingsByTicker(snapshot.Holdings)

	return withTransaction(ctx, s.db, func(tx pgx.Tx) error {
		securities, err := s.securityRepository.GetAll(ctx, tx)
		if err != nil {
			return err
		}
		report.Retained = len(securities)

		for _, sec := range securities {
			h, ok := byTicker[strings.ToLower(sec.Ticker)]
			if !ok {
				report.Skipped = append(report.Skipped, schemas.RowSkip{
					Ticker: sec.Ticker,
					Reason: fmt.Sprintf("%v: no quantity in snapshot", ErrRowSkipped),
				})
				continue
			}

			var updated bool
			rowErr, err := inSavepoint(ctx, tx, func(sp pgx.Tx) error {
				var err error
				updated, err = s.historicalRecordRepository.UpdateLatestQuantity(ctx, sec.ID, h.Quantity, sp)
				return err
			})
			if err != nil {
				return err
			}
			switch {
			case rowErr != nil:
				logger.WithError(rowErr).WithField("ticker", sec.Ticker).Error("Failed to update quantity")
				report.Skipped = append(report.Skipped, schemas.RowSkip{
					Ticker: sec.Ticker,
					Reason: fmt.Sprintf("%v: quantity update failed", ErrRowSkipped),
				})
			case !updated:
				report.Skipped = append(report.Skipped, schemas.RowSkip{
					Ticker: sec.Ticker,
					Reason: fmt.Sprintf("%v: no historical record to update", ErrRowSkipped),
				})
			default:
				report.Upserted++
			}
		}
		return nil
	})
}

// refreshYearRanges stores the provider's 52-week high and low for every registered security.
func (s *SyncService) refreshYearRanges(ctx context.Context, report *schemas.RunReport) error {
	logger := utils.LoggerFromContext(ctx)

	securities, err := s.securityRepository.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageTransaction, err)
	}

	quotes := map[int]*schemas.Quote{}
	for _, sec := range securities {
		symbol := s.normalizer.Normalize(sec.Ticker)
		callCtx, cancel := s.merger.withCallTimeout(ctx)
		quote, err := s.quoteClient.GetLatest(callCtx, symbol)
		cancel()
		if err == nil && quote.YearHigh == nil && quote.YearLow == nil {
			err = errors.New("no 52-week range in quote")
		}
		if err != nil {
			logger.WithError(err).WithField("symbol", symbol).Warn("Year range lookup failed")
			report.Skipped = append(report.Skipped, schemas.RowSkip{
				Ticker: sec.Ticker,
				Reason: fmt.Sprintf("%v: %v", ErrProviderUnavailable, err),
			})
			continue
		}
		quotes[sec.ID] = quote
	}

	return withTransaction(ctx, s.db, func(tx pgx.Tx) error {
		for _, sec := range securities {
			quote, ok := quotes[sec.ID]
			if !ok {
				continue
			}
			rowErr, err := inSavepoint(ctx, tx, func(sp pgx.Tx) error {
				return s.securityRepository.UpdateYearRange(ctx, sec.ID, quote.YearHigh, quote.YearLow, sp)
			})
			if err != nil {
				return err
			}
			if rowErr != nil {
				report.Skipped = append(report.Skipped, schemas.RowSkip{
					Ticker: sec.Ticker,
					Reason: fmt.Sprintf("%v: year range update failed", ErrRowSkipped),
				})
				continue
			}
			report.Upserted++
		}
		return nil
	})
}

// LastRun returns the most recently started run.
func (s *SyncService) LastRun(ctx context.Context) (*schemas.RunReport, error) {
	run, err := s.runRepository.GetLast(ctx)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("%w: no reconciliation run recorded", ErrNotFound)
	}
	return runToReport(run), nil
}

func reportToRun(report *schemas.RunReport) *models.ReconciliationRun {
	details, _ := json.Marshal(report.Skipped)
	return &models.ReconciliationRun{
		ID:        report.ID,
		Mode:      report.Mode,
		Status:    report.Status,
		RunDate:   report.RunDate,
		StartDate: report.StartDate,
		EndDate:   report.EndDate,
		Created:   report.Created,
		Retained:  report.Retained,
		Removed:   report.Removed,
		Upserted:  report.Upserted,
		Skipped:   len(report.Skipped),
		Details:   details,
		Error:     report.Error,
	}
}

func runToReport(run *models.ReconciliationRun) *schemas.RunReport {
	report := &schemas.RunReport{
		ID:        run.ID,
		Mode:      run.Mode,
		Status:    run.Status,
		RunDate:   run.RunDate,
		StartDate: run.StartDate,
		EndDate:   run.EndDate,
		Created:   run.Created,
		Retained:  run.Retained,
		Removed:   run.Removed,
		Upserted:  run.Upserted,
		Skipped:   []schemas.RowSkip{},
		Error:     run.Error,
	}
	if len(run.Details) > 0 {
		_ = json.Unmarshal(run.Details, &report.Skipped)
	}
	return report
}
