package repositories

import (
	"context"
	"errors"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReconciliationRunRepository interface {
	Start(ctx context.Context, run *models.ReconciliationRun) error
	Finish(ctx context.Context, run *models.ReconciliationRun) error
	GetLast(ctx context.Context) (*models.ReconciliationRun, error)
}

type reconciliationRunRepo struct {
	DB *pgxpool.Pool
}

func NewReconciliationRunRepository(db *pgxpool.Pool) ReconciliationRunRepository {
	return &reconciliationRunRepo{DB: db}
}

func (r *reconciliationRunRepo) Start(ctx context.Context, run *models.ReconciliationRun) error {
	return r.DB.QueryRow(ctx, `
		INSERT INTO reconciliation_runs (id, mode, status, run_date, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING started_at`,
		run.ID, run.Mode, run.Status, run.RunDate, run.StartDate, run.EndDate,
	).Scan(&run.StartedAt)
}

func (r *reconciliationRunRepo) Finish(ctx context.Context, run *models.ReconciliationRun) error {
	details := run.Details
	if details == nil {
		details = []byte("[]")
	}
	return r.DB.QueryRow(ctx, `
		UPDATE reconciliation_runs
		SET status = $2, created = $3, retained = $4, removed = $5, upserted = $6,
			skipped = $7, details = $8, error = $9, finished_at = NOW()
		WHERE id = $1
		RETURNING finished_at`,
		run.ID, run.Status, run.Created, run.Retained, run.Removed, run.Upserted,
		run.Skipped, details, run.Error,
	).Scan(&run.FinishedAt)
}

// GetLast returns the most recently started run, or nil when none was recorded yet.
func (r *reconciliationRunRepo) GetLast(ctx context.Context) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	err := r.DB.QueryRow(ctx, `
		SELECT id, mode, status, run_date, start_date, end_date, created, retained, removed,
			upserted, skipped, details, error, started_at, finished_at
		FROM reconciliation_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.Mode, &run.Status, &run.RunDate, &run.StartDate, &run.EndDate,
		&run.Created, &run.Retained, &run.Removed, &run.Upserted, &run.Skipped,
		&run.Details, &run.Error, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
