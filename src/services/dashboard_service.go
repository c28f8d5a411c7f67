package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/schemas"
)

// PortfolioReader is the read side consumed by the dashboard.
type PortfolioReader interface {
	GetAllSecuritiesSortedByName(ctx context.Context) ([]models.Security, error)
	GetSecurityDetail(ctx context.Context, id int) (*schemas.SecurityDetail, error)
	GetPortfolioAggregate(ctx context.Context) (*schemas.PortfolioAggregate, error)
}

type DashboardService struct {
	securityRepository         repositories.SecurityRepository
	historicalRecordRepository repositories.HistoricalRecordRepository
	usdToCadRate               float64
}

func NewDashboardService(
	securityRepository repositories.SecurityRepository,
	historicalRecordRepository repositories.HistoricalRecordRepository,
	usdToCadRate float64,
) *DashboardService {
	return &DashboardService{
		securityRepository:         securityRepository,
		historicalRecordRepository: historicalRecordRepository,
		usdToCadRate:               usdToCadRate,
	}
}

func (s *DashboardService) GetAllSecuritiesSortedByName(ctx context.Context) ([]models.Security, error) {
	securities, err := s.securityRepository.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list securities: %w", err)
	}
	return securities, nil
}

func (s *DashboardService) GetSecurityDetail(ctx context.Context, id int) (*schemas.SecurityDetail, error) {
	security, err := s.securityRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSecurityNotFound) {
			return nil, fmt.Errorf("%w: security %d", ErrNotFound, id)
		}
		return nil, err
	}

	history, err := s.historicalRecordRepository.GetBySecurityID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of security %d: %w", id, err)
	}
	return buildSecurityDetail(*security, history), nil
}

func (s *DashboardService) GetPortfolioAggregate(ctx context.Context) (*schemas.PortfolioAggregate, error) {
	securities, err := s.securityRepository.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list securities: %w", err)
	}
	records, err := s.historicalRecordRepository.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical records: %w", err)
	}
	return BuildAggregate(securities, records, s.usdToCadRate), nil
}

// buildSecurityDetail sorts the dated history and derives the security's own performance from it.
func buildSecurityDetail(security models.Security, history []models.HistoricalRecord) *schemas.SecurityDetail {
	dated := make([]models.HistoricalRecord, 0, len(history))
	for _, h := range history {
		if !h.Date.IsZero() {
			dated = append(dated, h)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].Date.Before(dated[j].Date) })

	return &schemas.SecurityDetail{
		Security:    security,
		History:     dated,
		Performance: ComputePerformance(valueSeries(dated)),
	}
}
