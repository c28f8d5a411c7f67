package repositories

import (
	"context"
	"errors"
	"time"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoricalRecordRepository interface {
	GetAll(ctx context.Context) ([]models.HistoricalRecord, error)
	GetBySecurityID(ctx context.Context, securityID int) ([]models.HistoricalRecord, error)
	Upsert(ctx context.Context, rec *models.HistoricalRecord, tx pgx.Tx) error
	DeleteRange(ctx context.Context, securityIDs []int, startDate, endDate time.Time, tx pgx.Tx) (int64, error)
	UpdateLatestQuantity(ctx context.Context, securityID int, quantity float64, tx pgx.Tx) (bool, error)
}

type historicalRecordRepo struct {
	db *pgxpool.Pool
}

func NewHistoricalRecordRepository(db *pgxpool.Pool) HistoricalRecordRepository {
	return &historicalRecordRepo{db: db}
}

func (r *historicalRecordRepo) query(ctx context.Context, query string, args ...interface{}) ([]models.HistoricalRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.HistoricalRecord{}
	for rows.Next() {
		var h models.HistoricalRecord
		if err := rows.Scan(&h.ID, &h.SecurityID, &h.Date, &h.Value, &h.Quantity, &h.Currency, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, h)
	}
	return records, rows.Err()
}

func (r *historicalRecordRepo) GetAll(ctx context.Context) ([]models.HistoricalRecord, error) {
	return r.query(ctx, `
		SELECT id, security_id, date, value, quantity, currency, created_at, updated_at
		FROM historical_records
		ORDER BY date ASC, security_id ASC`)
}

func (r *historicalRecordRepo) GetBySecurityID(ctx context.Context, securityID int) ([]models.HistoricalRecord, error) {
	return r.query(ctx, `
		SELECT id, security_id, date, value, quantity, currency, created_at, updated_at
		FROM historical_records
		WHERE security_id = $1
		ORDER BY date ASC`, securityID)
}

// Upsert keeps a single record per (security_id, date); a second call for the same pair overwrites it.
func (r *historicalRecordRepo) Upsert(ctx context.Context, rec *models.HistoricalRecord, tx pgx.Tx) error {
	query := `
		INSERT INTO historical_records (security_id, date, value, quantity, currency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (security_id, date) DO UPDATE SET
			value = EXCLUDED.value,
			quantity = EXCLUDED.quantity,
			currency = EXCLUDED.currency,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			rec.SecurityID, rec.Date, rec.Value, rec.Quantity, rec.Currency,
		).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	})
}

func (r *historicalRecordRepo) DeleteRange(ctx context.Context, securityIDs []int, startDate, endDate time.Time, tx pgx.Tx) (int64, error) {
	if len(securityIDs) == 0 {
		return 0, nil
	}

	var deleted int64
	err := withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM historical_records
			WHERE security_id = ANY($1)
			AND date >= $2
			AND date <= $3`, securityIDs, startDate, endDate)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	return deleted, err
}

// UpdateLatestQuantity corrects the quantity of the most recent record only. It reports false when the
// security has no history yet.
func (r *historicalRecordRepo) UpdateLatestQuantity(ctx context.Context, securityID int, quantity float64, tx pgx.Tx) (bool, error) {
	var updated bool
	err := withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		var id int
		err := tx.QueryRow(ctx, `
			SELECT id
			FROM historical_records
			WHERE security_id = $1
			ORDER BY date DESC
			LIMIT 1`, securityID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE historical_records
			SET quantity = $2, updated_at = NOW()
			WHERE id = $1`, id, quantity)
		if err != nil {
			return err
		}
		updated = true
		return nil
	})
	return updated, err
}
