package services_test

import (
	"context"
	"time"

	"portfolio/src/models"
	"portfolio/src/schemas"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// fakeTx records transaction control calls. Begin returns a nested fakeTx standing in for a savepoint.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	savepoints []*fakeTx
	commitErr  error
}

func (f *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	sp := &fakeTx{}
	f.savepoints = append(f.savepoints, sp)
	return sp, nil
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

type mockSecurityRepository struct {
	mock.Mock
}

func (m *mockSecurityRepository) GetAll(ctx context.Context, tx pgx.Tx) ([]models.Security, error) {
	args := m.Called(ctx, tx)
	securities, _ := args.Get(0).([]models.Security)
	return securities, args.Error(1)
}

func (m *mockSecurityRepository) GetByID(ctx context.Context, id int) (*models.Security, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Security)
	return s, args.Error(1)
}

func (m *mockSecurityRepository) Create(ctx context.Context, s *models.Security, tx pgx.Tx) error {
	args := m.Called(ctx, s, tx)
	return args.Error(0)
}

func (m *mockSecurityRepository) DeleteByIDs(ctx context.Context, ids []int, tx pgx.Tx) (int64, error) {
	args := m.Called(ctx, ids, tx)
	return int64(args.Int(0)), args.Error(1)
}

func (m *mockSecurityRepository) UpdateYearRange(ctx context.Context, id int, high, low *float64, tx pgx.Tx) error {
	args := m.Called(ctx, id, high, low, tx)
	return args.Error(0)
}

type mockHistoricalRecordRepository struct {
	mock.Mock
}

func (m *mockHistoricalRecordRepository) GetAll(ctx context.Context) ([]models.HistoricalRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]models.HistoricalRecord)
	return records, args.Error(1)
}

func (m *mockHistoricalRecordRepository) GetBySecurityID(ctx context.Context, securityID int) ([]models.HistoricalRecord, error) {
	args := m.Called(ctx, securityID)
	records, _ := args.Get(0).([]models.HistoricalRecord)
	return records, args.Error(1)
}

func (m *mockHistoricalRecordRepository) Upsert(ctx context.Context, rec *models.HistoricalRecord, tx pgx.Tx) error {
	args := m.Called(ctx, rec, tx)
	return args.Error(0)
}

func (m *mockHistoricalRecordRepository) DeleteRange(ctx context.Context, securityIDs []int, startDate, endDate time.Time, tx pgx.Tx) (int64, error) {
	args := m.Called(ctx, securityIDs, startDate, endDate, tx)
	return int64(args.Int(0)), args.Error(1)
}

func (m *mockHistoricalRecordRepository) UpdateLatestQuantity(ctx context.Context, securityID int, quantity float64, tx pgx.Tx) (bool, error) {
	args := m.Called(ctx, securityID, quantity, tx)
	return args.Bool(0), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserRepository) Create(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

type mockRunRepository struct {
	mock.Mock
}

func (m *mockRunRepository) Start(ctx context.Context, run *models.ReconciliationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockRunRepository) Finish(ctx context.Context, run *models.ReconciliationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockRunRepository) GetLast(ctx context.Context) (*models.ReconciliationRun, error) {
	args := m.Called(ctx)
	run, _ := args.Get(0).(*models.ReconciliationRun)
	return run, args.Error(1)
}

type mockQuoteClient struct {
	mock.Mock
}

func (m *mockQuoteClient) GetHistory(ctx context.Context, symbol string, startDate, endDate time.Time) ([]schemas.PricePoint, error) {
	args := m.Called(ctx, symbol, startDate, endDate)
	points, _ := args.Get(0).([]schemas.PricePoint)
	return points, args.Error(1)
}

func (m *mockQuoteClient) GetLatest(ctx context.Context, symbol string) (*schemas.Quote, error) {
	args := m.Called(ctx, symbol)
	quote, _ := args.Get(0).(*schemas.Quote)
	return quote, args.Error(1)
}

func floatPtr(v float64) *float64 {
	return &v
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
