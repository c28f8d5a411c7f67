package repositories

import (
	"context"
	"errors"
	"fmt"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SecurityRepository interface {
	GetAll(ctx context.Context, tx pgx.Tx) ([]models.Security, error)
	GetByID(ctx context.Context, id int) (*models.Security, error)
	Create(ctx context.Context, s *models.Security, tx pgx.Tx) error
	DeleteByIDs(ctx context.Context, ids []int, tx pgx.Tx) (int64, error)
	UpdateYearRange(ctx context.Context, id int, high, low *float64, tx pgx.Tx) error
}

type securityRepo struct {
	db *pgxpool.Pool
}

func NewSecurityRepository(db *pgxpool.Pool) SecurityRepository {
	return &securityRepo{db: db}
}

const securityColumns = `id, ticker, display_name, year_high, year_low, created_at`

func scanSecurity(row pgx.Row) (*models.Security, error) {
	var s models.Security
	if err := row.Scan(&s.ID, &s.Ticker, &s.DisplayName, &s.YearHigh, &s.YearLow, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetAll returns every security ordered by display name. Reads go through tx when one is given.
func (r *securityRepo) GetAll(ctx context.Context, tx pgx.Tx) ([]models.Security, error) {
	query := `SELECT ` + securityColumns + `
		FROM securities
		ORDER BY LOWER(display_name) ASC, ticker ASC`

	var rows pgx.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(ctx, query)
	} else {
		rows, err = r.db.Query(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	securities := []models.Security{}
	for rows.Next() {
		s, err := scanSecurity(rows)
		if err != nil {
			return nil, err
		}
		securities = append(securities, *s)
	}
	return securities, rows.Err()
}

func (r *securityRepo) GetByID(ctx context.Context, id int) (*models.Security, error) {
	s, err := scanSecurity(r.db.QueryRow(ctx,
		`SELECT `+securityColumns+` FROM securities WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrSecurityNotFound, id)
		}
		return nil, err
	}
	return s, nil
}

func (r *securityRepo) Create(ctx context.Context, s *models.Security, tx pgx.Tx) error {
	query := `
		INSERT INTO securities (ticker, display_name, year_high, year_low)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			s.Ticker, s.DisplayName, s.YearHigh, s.YearLow,
		).Scan(&s.ID, &s.CreatedAt)
	})
}

// DeleteByIDs removes the securities; their historical records go with them through ON DELETE CASCADE.
func (r *securityRepo) DeleteByIDs(ctx context.Context, ids []int, tx pgx.Tx) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM securities WHERE id = ANY($1)`, ids)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	return deleted, err
}

// UpdateYearRange stores the 52-week extremes. A nil extreme keeps the stored value.
func (r *securityRepo) UpdateYearRange(ctx context.Context, id int, high, low *float64, tx pgx.Tx) error {
	return withTx(ctx, r.db, tx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE securities
			SET year_high = COALESCE($2, year_high), year_low = COALESCE($3, year_low)
			WHERE id = $1`, id, high, low)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: id %d", ErrSecurityNotFound, id)
		}
		return nil
	})
}
