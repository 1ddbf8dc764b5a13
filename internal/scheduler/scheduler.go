package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"go-fabric-retail/internal/repository"
	"go-fabric-retail/internal/ws"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron        *cron.Cron
	productRepo repository.ProductRepository
	wsHub       *ws.Hub
	spec        string
	logger      *zap.Logger
}

// New creates a scheduler that broadcasts a low-stock digest on the given
// cron spec.
func New(spec string, productRepo repository.ProductRepository, hub *ws.Hub, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:        cron.New(),
		productRepo: productRepo,
		wsHub:       hub,
		spec:        spec,
		logger:      logger,
	}
}

// Start registers the digest job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sendLowStockDigest); err != nil {
		return fmt.Errorf("failed to schedule low-stock digest: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sendLowStockDigest() {
	products, err := s.productRepo.FindLowStock()
	if err != nil {
		s.logger.Error("failed to load low-stock products", zap.Error(err))
		return
	}
	if len(products) == 0 {
		s.logger.Info("low-stock digest skipped, nothing to report")
		return
	}

	type digestItem struct {
		Name         string `json:"name"`
		CurrentStock int    `json:"currentStock"`
		Unit         string `json:"unit"`
	}
	items := make([]digestItem, len(products))
	for i, p := range products {
		items[i] = digestItem{Name: p.Name, CurrentStock: p.CurrentStock, Unit: string(p.Unit)}
	}

	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "low_stock_digest",
		Payload: items,
		Message: fmt.Sprintf("%d product(s) at or below minimum stock level", len(items)),
	})
	s.logger.Info("low-stock digest broadcast", zap.Int("products", len(items)))
}
