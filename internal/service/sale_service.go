package service

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-fabric-retail/internal/model"
	"go-fabric-retail/internal/repository"
	"go-fabric-retail/internal/ws"
	"go-fabric-retail/pkg/validator"
)

const (
	saleNumberPrefix   = "RF"
	saleNumberAttempts = 10
)

type CreateSaleItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type CreateSaleInput struct {
	CustomerName  string                `json:"customerName" validate:"required"`
	CustomerPhone string                `json:"customerPhone"`
	Items         []CreateSaleItemInput `json:"items" validate:"required,min=1,dive"`
	Discount      float64               `json:"discount" validate:"gte=0"`
	PaymentMethod model.PaymentMethod   `json:"paymentMethod" validate:"omitempty,oneof=cash card transfer credit"`
	Notes         string                `json:"notes"`
}

type SaleService interface {
	CreateSale(input CreateSaleInput, actor Actor) (*model.SaleResponse, error)
	GetSale(id uuid.UUID, actor Actor) (*model.SaleResponse, error)
	GetReceipt(id uuid.UUID, actor Actor) (*model.Receipt, error)
	ListSales(actor Actor, page, limit int) ([]model.SaleResponse, repository.Pagination, error)
}

type saleService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	historyRepo repository.StockHistoryRepository
	wsHub       *ws.Hub
	logger      *zap.Logger

	now     func() time.Time
	randInt func(n int) int
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	historyRepo repository.StockHistoryRepository,
	hub *ws.Hub,
	logger *zap.Logger,
) SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &saleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		historyRepo: historyRepo,
		wsHub:       hub,
		logger:      logger,
		now:         time.Now,
		randInt:     rand.Intn,
	}
}

// CreateSale runs the POS workflow: validate every line against current
// inventory, compute pricing server-side, assign a unique sale number,
// persist the sale, decrement stock per item and append one ledger entry per
// item. Writes after the sale row are sequential and are not rolled back if a
// later one fails.
func (s *saleService) CreateSale(input CreateSaleInput, actor Actor) (*model.SaleResponse, error) {
	if errs := validator.ValidateStruct(input); len(errs) > 0 {
		first := errs[0]
		return nil, validationErrorf("Validation failed: field '%s' failed on '%s'", first.FailedField, first.Tag)
	}
	if len(input.Items) == 0 {
		return nil, validationErrorf("Sale must contain at least one item")
	}

	// Validate every line item before any write. First failure wins.
	type pricedItem struct {
		product *model.Product
		item    model.SaleItem
	}
	priced := make([]pricedItem, 0, len(input.Items))
	requested := make(map[uuid.UUID]int, len(input.Items))
	var totalAmount float64

	for _, line := range input.Items {
		product, err := s.productRepo.FindByID(line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationErrorf("Product not found: %s", line.ProductID)
			}
			return nil, err
		}
		if !product.IsActive {
			return nil, validationErrorf("Product is not available: %s", product.Name)
		}
		// Stock sufficiency is checked against the running total for the
		// product, so two lines on one product cannot together oversell it.
		requested[product.ID] += line.Quantity
		if product.CurrentStock < requested[product.ID] {
			return nil, validationErrorf(
				"Insufficient stock for %s. Available: %d %s",
				product.Name, product.CurrentStock, product.Unit,
			)
		}

		lineTotal := round2(float64(line.Quantity) * product.PricePerUnit)
		totalAmount += lineTotal
		priced = append(priced, pricedItem{
			product: product,
			item: model.SaleItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Unit:        product.Unit,
				Quantity:    line.Quantity,
				UnitPrice:   product.PricePerUnit,
				TotalPrice:  lineTotal,
			},
		})
	}

	totalAmount = round2(totalAmount)
	finalAmount := round2(totalAmount - input.Discount)
	if finalAmount < 0 {
		return nil, validationErrorf("Discount cannot exceed total amount")
	}

	// The unique sale number must be settled before anything is written.
	saleNumber, err := s.generateSaleNumber(s.now())
	if err != nil {
		return nil, err
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentCash
	}

	sale := &model.Sale{
		SaleNumber:    saleNumber,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		TotalAmount:   totalAmount,
		Discount:      input.Discount,
		FinalAmount:   finalAmount,
		PaymentMethod: paymentMethod,
		Status:        model.SaleCompleted,
		SoldByID:      actor.ID,
		SaleDate:      s.now(),
		Notes:         input.Notes,
	}
	for _, p := range priced {
		sale.Items = append(sale.Items, p.item)
	}

	if err := s.saleRepo.Create(sale); err != nil {
		return nil, err
	}

	// Per-item stock decrement and ledger append. Each write stands on its
	// own; a failure here leaves the sale and earlier decrements committed.
	for _, p := range priced {
		fresh, err := s.productRepo.FindByID(p.item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload product %s: %w", p.item.ProductID, err)
		}

		ok, err := s.productRepo.DecrementStock(p.item.ProductID, p.item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock for %s: %w", p.item.ProductName, err)
		}
		if !ok {
			return nil, fmt.Errorf("stock for %s changed during sale %s", p.item.ProductName, saleNumber)
		}

		entry := &model.StockHistory{
			ProductID:     p.item.ProductID,
			ProductName:   p.item.ProductName,
			Action:        model.StockSold,
			Quantity:      p.item.Quantity,
			PreviousStock: fresh.CurrentStock,
			NewStock:      fresh.CurrentStock - p.item.Quantity,
			Unit:          p.item.Unit,
			PerformedByID: actor.ID,
			SaleID:        &sale.ID,
			Notes:         fmt.Sprintf("Sold to %s", input.CustomerName),
		}
		if err := s.historyRepo.Create(entry); err != nil {
			return nil, fmt.Errorf("failed to record stock history for %s: %w", p.item.ProductName, err)
		}
	}

	persisted, err := s.saleRepo.FindByID(sale.ID)
	if err != nil {
		return nil, err
	}
	resp := persisted.ToResponse()
	if resp.SellerName == "" {
		resp.SellerName = actor.Name
	}

	if s.wsHub != nil {
		go s.wsHub.Publish(ws.Event{
			Type:   "stock_update",
			Action: "sale_created",
			Payload: map[string]interface{}{
				"saleNumber":  sale.SaleNumber,
				"finalAmount": sale.FinalAmount,
				"itemCount":   len(sale.Items),
				"seller":      actor.Name,
			},
			Message: fmt.Sprintf("%s recorded sale %s", actor.Name, sale.SaleNumber),
		})
	}

	s.logger.Info("sale created",
		zap.String("saleNumber", sale.SaleNumber),
		zap.Int("items", len(sale.Items)),
		zap.Float64("finalAmount", sale.FinalAmount),
	)

	return &resp, nil
}

func (s *saleService) GetSale(id uuid.UUID, actor Actor) (*model.SaleResponse, error) {
	sale, err := s.findOwnedSale(id, actor)
	if err != nil {
		return nil, err
	}
	resp := sale.ToResponse()
	return &resp, nil
}

func (s *saleService) GetReceipt(id uuid.UUID, actor Actor) (*model.Receipt, error) {
	sale, err := s.findOwnedSale(id, actor)
	if err != nil {
		return nil, err
	}
	receipt := sale.ToReceipt()
	return &receipt, nil
}

func (s *saleService) ListSales(actor Actor, page, limit int) ([]model.SaleResponse, repository.Pagination, error) {
	filter := repository.SaleFilter{Page: page, Limit: limit}
	if actor.Role != model.RoleAdmin {
		id := actor.ID
		filter.SoldByID = &id
	}

	sales, pagination, err := s.saleRepo.FindAll(filter)
	if err != nil {
		return nil, repository.Pagination{}, err
	}

	responses := make([]model.SaleResponse, len(sales))
	for i := range sales {
		responses[i] = sales[i].ToResponse()
	}
	return responses, pagination, nil
}

// findOwnedSale loads a sale and hides other sellers' sales from staff.
func (s *saleService) findOwnedSale(id uuid.UUID, actor Actor) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actor.Role != model.RoleAdmin && sale.SoldByID != actor.ID {
		return nil, ErrNotFound
	}
	return sale, nil
}

// generateSaleNumber probes the sale store for an unused RF+date+suffix
// candidate, retrying with a fresh random suffix up to saleNumberAttempts.
func (s *saleService) generateSaleNumber(date time.Time) (string, error) {
	for attempt := 0; attempt < saleNumberAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%s%03d", saleNumberPrefix, date.Format("20060102"), s.randInt(1000))
		exists, err := s.saleRepo.ExistsBySaleNumber(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrSaleNumberExhausted
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
