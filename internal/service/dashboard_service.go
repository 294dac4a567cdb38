package service

import (
	"context"
	"time"

	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, actor *session.Session, barID uuid.UUID, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context, actor *session.Session, barID uuid.UUID) (*repository.DashboardStats, error)
}

type dashboardService struct {
	movementRepo repository.MovementRepository
	barRepo      repository.BarRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewDashboardService(movementRepo repository.MovementRepository, barRepo repository.BarRepository, logger *zap.Logger) DashboardService {
	return &dashboardService{
		movementRepo: movementRepo,
		barRepo:      barRepo,
		logger:       logger.Named("dashboard"),
		now:          time.Now,
	}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, actor *session.Session, barID uuid.UUID, days int) ([]repository.StockMovementData, error) {
	const action = "load stock movement chart"
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}
	if days <= 0 {
		days = 7
	}

	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.movementRepo.GetStockMovement(ctx, barID, startDate, endDate)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("bar_id", barID.String()))
	}
	return data, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, actor *session.Session, barID uuid.UUID) (*repository.DashboardStats, error) {
	const action = "load dashboard stats"
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	stats, err := s.movementRepo.GetDashboardStats(ctx, barID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("bar_id", barID.String()))
	}
	return stats, nil
}
