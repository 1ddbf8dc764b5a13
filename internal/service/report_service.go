package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-fabric-retail/internal/repository"
	"go-fabric-retail/pkg/cache"
)

const (
	dashboardStatsKey = "dashboard:stats"
	dashboardStatsTTL = 30 * time.Second
)

// DashboardStats is the admin overview snapshot.
type DashboardStats struct {
	TotalProducts      int64   `json:"totalProducts"`
	LowStockCount      int64   `json:"lowStockCount"`
	OutOfStockCount    int64   `json:"outOfStockCount"`
	TodaySalesCount    int64   `json:"todaySalesCount"`
	TodayRevenue       float64 `json:"todayRevenue"`
	InventoryValuation float64 `json:"inventoryValuation"`
}

type ReportService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	GetStockMovement(days int) ([]repository.StockMovementData, error)
}

type reportService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	historyRepo repository.StockHistoryRepository
	cache       *cache.Client
	logger      *zap.Logger
}

func NewReportService(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	historyRepo repository.StockHistoryRepository,
	cacheClient *cache.Client,
	logger *zap.Logger,
) ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reportService{
		productRepo: productRepo,
		saleRepo:    saleRepo,
		historyRepo: historyRepo,
		cache:       cacheClient,
		logger:      logger,
	}
}

// GetDashboardStats serves the snapshot cache-aside with a short TTL; a cache
// failure degrades to direct queries.
func (s *reportService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var cached DashboardStats
	hit, err := s.cache.GetJSON(ctx, dashboardStatsKey, &cached)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	stats := &DashboardStats{}
	if stats.TotalProducts, err = s.productRepo.CountActive(); err != nil {
		return nil, err
	}
	if stats.LowStockCount, err = s.productRepo.CountLowStock(); err != nil {
		return nil, err
	}
	if stats.OutOfStockCount, err = s.productRepo.CountOutOfStock(); err != nil {
		return nil, err
	}
	if stats.InventoryValuation, err = s.productRepo.InventoryValuation(); err != nil {
		return nil, err
	}
	if stats.TodaySalesCount, stats.TodayRevenue, err = s.saleRepo.TodayStats(time.Now()); err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, dashboardStatsKey, stats, dashboardStatsTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return stats, nil
}

func (s *reportService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	if days < 1 {
		days = 7
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return s.historyRepo.StockMovement(start, end)
}
