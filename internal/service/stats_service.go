package service

import (
	"context"
	"time"

	"go-bar-manager/internal/cache"
	"go-bar-manager/internal/model"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatsService reshapes precomputed monthly snapshots into chart series.
// It has no write path.
type StatsService interface {
	Months(ctx context.Context, actor *session.Session, barID uuid.UUID) ([]string, error)
	GetMonthlySummary(ctx context.Context, actor *session.Session, barID uuid.UUID, month string) (*MonthlySummary, error)
	GetTrend(ctx context.Context, actor *session.Session, barID uuid.UUID, product string, months int) ([]TrendPoint, error)
	GetTotals(ctx context.Context, actor *session.Session, barID uuid.UUID) ([]TrendPoint, error)
	GetProductStats(ctx context.Context, actor *session.Session, barID uuid.UUID, month, product string) (*ProductStats, error)
}

type MonthlySummary struct {
	Month    string               `json:"month"`
	Total    decimal.Decimal      `json:"total"`
	Products []model.ProductSales `json:"products"`
}

type TrendPoint struct {
	Month string          `json:"month"`
	Sales decimal.Decimal `json:"sales"`
}

// ProductStats is the product detail card: the month's figures, the average
// over every known month and the share of the month's total in percent.
type ProductStats struct {
	Product        string          `json:"product"`
	Month          string          `json:"month"`
	Sales          decimal.Decimal `json:"sales"`
	Quantity       int             `json:"quantity"`
	MonthlyAverage decimal.Decimal `json:"monthly_average"`
	Share          decimal.Decimal `json:"share"`
}

type statsService struct {
	statsRepo repository.StatsRepository
	barRepo   repository.BarRepository
	cache     cache.SnapshotCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewStatsService(statsRepo repository.StatsRepository, barRepo repository.BarRepository, snapshotCache cache.SnapshotCache, cacheTTL time.Duration, logger *zap.Logger) StatsService {
	if snapshotCache == nil {
		snapshotCache = cache.NoopSnapshotCache{}
	}
	return &statsService{
		statsRepo: statsRepo,
		barRepo:   barRepo,
		cache:     snapshotCache,
		cacheTTL:  cacheTTL,
		logger:    logger.Named("stats"),
	}
}

func (s *statsService) Months(ctx context.Context, actor *session.Session, barID uuid.UUID) ([]string, error) {
	snapshots, err := s.load(ctx, actor, barID, "list stats months")
	if err != nil {
		return nil, err
	}
	months := make([]string, len(snapshots))
	for i, snap := range snapshots {
		months[i] = snap.Month
	}
	return months, nil
}

// GetMonthlySummary returns an empty summary when no snapshot matches the
// month key, malformed keys included.
func (s *statsService) GetMonthlySummary(ctx context.Context, actor *session.Session, barID uuid.UUID, month string) (*MonthlySummary, error) {
	const action = "load monthly summary"
	snapshots, err := s.load(ctx, actor, barID, action)
	if err != nil {
		return nil, err
	}

	summary := &MonthlySummary{Month: month, Total: decimal.Zero, Products: []model.ProductSales{}}
	if snap := findMonth(snapshots, month); snap != nil {
		summary.Total = snap.Total
		summary.Products = append(summary.Products, snap.Products...)
	}
	return summary, nil
}

// GetTrend returns the product's sales per known month in month order, 0 where
// the product is absent. months > 0 keeps only the latest months.
func (s *statsService) GetTrend(ctx context.Context, actor *session.Session, barID uuid.UUID, product string, months int) ([]TrendPoint, error) {
	const action = "load product trend"
	if product == "" {
		return nil, logFailure(s.logger, action, invalid("product", "required"))
	}
	snapshots, err := s.load(ctx, actor, barID, action)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for _, snap := range lastMonths(snapshots, months) {
		sales := decimal.Zero
		if p := findProduct(snap, product); p != nil {
			sales = p.Sales
		}
		points = append(points, TrendPoint{Month: snap.Month, Sales: sales})
	}
	return points, nil
}

func (s *statsService) GetTotals(ctx context.Context, actor *session.Session, barID uuid.UUID) ([]TrendPoint, error) {
	snapshots, err := s.load(ctx, actor, barID, "load monthly totals")
	if err != nil {
		return nil, err
	}
	points := make([]TrendPoint, len(snapshots))
	for i, snap := range snapshots {
		points[i] = TrendPoint{Month: snap.Month, Sales: snap.Total}
	}
	return points, nil
}

func (s *statsService) GetProductStats(ctx context.Context, actor *session.Session, barID uuid.UUID, month, product string) (*ProductStats, error) {
	const action = "load product stats"
	snapshots, err := s.load(ctx, actor, barID, action)
	if err != nil {
		return nil, err
	}

	stats := &ProductStats{
		Product:        product,
		Month:          month,
		Sales:          decimal.Zero,
		MonthlyAverage: decimal.Zero,
		Share:          decimal.Zero,
	}
	if snap := findMonth(snapshots, month); snap != nil {
		if p := findProduct(*snap, product); p != nil {
			stats.Sales = p.Sales
			stats.Quantity = p.Quantity
			if !snap.Total.IsZero() {
				stats.Share = p.Sales.Div(snap.Total).Mul(decimal.NewFromInt(100)).Round(0)
			}
		}
	}
	if len(snapshots) > 0 {
		sum := decimal.Zero
		for _, snap := range snapshots {
			if p := findProduct(snap, product); p != nil {
				sum = sum.Add(p.Sales)
			}
		}
		stats.MonthlyAverage = sum.Div(decimal.NewFromInt(int64(len(snapshots)))).Round(0)
	}
	return stats, nil
}

// load authorizes the actor and reads the bar's snapshots through the cache.
// Cache failures are logged and fall back to the store.
func (s *statsService) load(ctx context.Context, actor *session.Session, barID uuid.UUID, action string) ([]model.SalesSnapshot, error) {
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}
	if err := requirePermission(actor, model.PermViewStats); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	key := cache.SnapshotKey(barID.String())
	snapshots, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("stats cache read failed", zap.Error(err))
	}
	if hit {
		return snapshots, nil
	}

	snapshots, err = s.statsRepo.FindByBar(ctx, barID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("bar_id", barID.String()))
	}
	if snapshots == nil {
		snapshots = []model.SalesSnapshot{}
	}
	if err := s.cache.Set(ctx, key, snapshots, s.cacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
	return snapshots, nil
}

func findMonth(snapshots []model.SalesSnapshot, month string) *model.SalesSnapshot {
	for i := range snapshots {
		if snapshots[i].Month == month {
			return &snapshots[i]
		}
	}
	return nil
}

func findProduct(snap model.SalesSnapshot, name string) *model.ProductSales {
	for i := range snap.Products {
		if snap.Products[i].Name == name {
			return &snap.Products[i]
		}
	}
	return nil
}

func lastMonths(snapshots []model.SalesSnapshot, n int) []model.SalesSnapshot {
	if n <= 0 || n >= len(snapshots) {
		return snapshots
	}
	return snapshots[len(snapshots)-n:]
}
