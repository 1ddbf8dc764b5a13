package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-fabric-retail/internal/model"
	"go-fabric-retail/internal/repository"
	"go-fabric-retail/internal/ws"
	"go-fabric-retail/pkg/validator"
)

type CreateProductInput struct {
	Name          string         `json:"name" validate:"required"`
	Category      model.Category `json:"category" validate:"required,oneof=cotton silk linen wool polyester chiffon lace denim velvet other"`
	TotalStock    int            `json:"totalStock" validate:"gte=0"`
	CurrentStock  int            `json:"currentStock" validate:"gte=0"`
	Unit          model.Unit     `json:"unit" validate:"required,oneof=yards meters pieces"`
	PricePerUnit  float64        `json:"pricePerUnit" validate:"gte=0"`
	MinStockLevel int            `json:"minStockLevel" validate:"gte=0"`
}

type UpdateProductInput struct {
	Name          string         `json:"name" validate:"required"`
	Category      model.Category `json:"category" validate:"required,oneof=cotton silk linen wool polyester chiffon lace denim velvet other"`
	Unit          model.Unit     `json:"unit" validate:"required,oneof=yards meters pieces"`
	PricePerUnit  float64        `json:"pricePerUnit" validate:"gte=0"`
	MinStockLevel int            `json:"minStockLevel" validate:"gte=0"`
}

type AdjustStockInput struct {
	Quantity int               `json:"quantity" validate:"gte=0"`
	Action   model.StockAction `json:"action" validate:"required,oneof=added adjusted"`
	Notes    string            `json:"notes"`
}

type InventoryService interface {
	CreateProduct(input CreateProductInput, actor Actor) (*model.ProductResponse, error)
	UpdateProduct(id uuid.UUID, input UpdateProductInput, actor Actor) (*model.ProductResponse, error)
	AdjustStock(id uuid.UUID, input AdjustStockInput, actor Actor) (*model.ProductResponse, error)
	DeleteProduct(id uuid.UUID, actor Actor) error
	GetProduct(id uuid.UUID) (*model.ProductResponse, error)
	ListProducts(filter repository.ProductFilter) ([]model.ProductResponse, error)
	LowStockProducts() ([]model.ProductResponse, error)
	ListStockHistory(filter repository.StockHistoryFilter) ([]model.StockHistory, repository.Pagination, error)
}

type inventoryService struct {
	productRepo repository.ProductRepository
	historyRepo repository.StockHistoryRepository
	wsHub       *ws.Hub
	logger      *zap.Logger
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	historyRepo repository.StockHistoryRepository,
	hub *ws.Hub,
	logger *zap.Logger,
) InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inventoryService{
		productRepo: productRepo,
		historyRepo: historyRepo,
		wsHub:       hub,
		logger:      logger,
	}
}

func (s *inventoryService) CreateProduct(input CreateProductInput, actor Actor) (*model.ProductResponse, error) {
	if errs := validator.ValidateStruct(input); len(errs) > 0 {
		first := errs[0]
		return nil, validationErrorf("Validation failed: field '%s' failed on '%s'", first.FailedField, first.Tag)
	}

	// Name uniqueness is enforced among active products, case-insensitive.
	existing, err := s.productRepo.FindActiveByName(input.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, validationErrorf("Product with this name already exists: %s", existing.Name)
	}

	minLevel := input.MinStockLevel
	if minLevel == 0 {
		minLevel = 10
	}
	totalStock := input.TotalStock
	if totalStock < input.CurrentStock {
		totalStock = input.CurrentStock
	}

	actorID := actor.ID
	product := &model.Product{
		Name:          input.Name,
		Category:      input.Category,
		TotalStock:    totalStock,
		CurrentStock:  input.CurrentStock,
		Unit:          input.Unit,
		PricePerUnit:  input.PricePerUnit,
		MinStockLevel: minLevel,
		IsActive:      true,
		CreatedByID:   &actorID,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	// Opening stock goes on the ledger so the audit trail starts at creation.
	if product.CurrentStock > 0 {
		entry := &model.StockHistory{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Action:        model.StockAdded,
			Quantity:      product.CurrentStock,
			PreviousStock: 0,
			NewStock:      product.CurrentStock,
			Unit:          product.Unit,
			PerformedByID: actor.ID,
			Notes:         "Opening stock",
		}
		if err := s.historyRepo.Create(entry); err != nil {
			return nil, err
		}
	}

	s.publish("product_created", product, actor, fmt.Sprintf("%s created product '%s'", actor.Name, product.Name))

	resp := product.ToResponse()
	return &resp, nil
}

func (s *inventoryService) UpdateProduct(id uuid.UUID, input UpdateProductInput, actor Actor) (*model.ProductResponse, error) {
	if errs := validator.ValidateStruct(input); len(errs) > 0 {
		first := errs[0]
		return nil, validationErrorf("Validation failed: field '%s' failed on '%s'", first.FailedField, first.Tag)
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.Name != product.Name {
		existing, err := s.productRepo.FindActiveByName(input.Name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, validationErrorf("Product with this name already exists: %s", existing.Name)
		}
	}

	product.Name = input.Name
	product.Category = input.Category
	product.Unit = input.Unit
	product.PricePerUnit = input.PricePerUnit
	product.MinStockLevel = input.MinStockLevel

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	s.publish("product_updated", product, actor, fmt.Sprintf("%s updated product '%s'", actor.Name, product.Name))

	resp := product.ToResponse()
	return &resp, nil
}

// AdjustStock mutates stock outside the sale flow and appends the matching
// ledger entry. "added" increments current and total stock by quantity;
// "adjusted" sets current stock to quantity and records the delta.
func (s *inventoryService) AdjustStock(id uuid.UUID, input AdjustStockInput, actor Actor) (*model.ProductResponse, error) {
	if errs := validator.ValidateStruct(input); len(errs) > 0 {
		first := errs[0]
		return nil, validationErrorf("Validation failed: field '%s' failed on '%s'", first.FailedField, first.Tag)
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, validationErrorf("Product is not available: %s", product.Name)
	}

	previous := product.CurrentStock
	var delta int
	switch input.Action {
	case model.StockAdded:
		if input.Quantity <= 0 {
			return nil, validationErrorf("Quantity must be greater than zero")
		}
		product.CurrentStock += input.Quantity
		product.TotalStock += input.Quantity
		delta = input.Quantity
	case model.StockAdjusted:
		product.CurrentStock = input.Quantity
		if product.TotalStock < product.CurrentStock {
			product.TotalStock = product.CurrentStock
		}
		delta = product.CurrentStock - previous
		if delta < 0 {
			delta = -delta
		}
	default:
		return nil, validationErrorf("Unsupported stock action: %s", input.Action)
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	entry := &model.StockHistory{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Action:        input.Action,
		Quantity:      delta,
		PreviousStock: previous,
		NewStock:      product.CurrentStock,
		Unit:          product.Unit,
		PerformedByID: actor.ID,
		Notes:         input.Notes,
	}
	if err := s.historyRepo.Create(entry); err != nil {
		return nil, err
	}

	s.publish("stock_adjusted", product, actor,
		fmt.Sprintf("%s %s stock of '%s' (%d -> %d)", actor.Name, input.Action, product.Name, previous, product.CurrentStock))

	resp := product.ToResponse()
	return &resp, nil
}

func (s *inventoryService) DeleteProduct(id uuid.UUID, actor Actor) error {
	err := s.productRepo.Deactivate(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.logger.Info("product deactivated", zap.String("productId", id.String()), zap.String("by", actor.Name))
	return nil
}

func (s *inventoryService) GetProduct(id uuid.UUID) (*model.ProductResponse, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	resp := product.ToResponse()
	return &resp, nil
}

func (s *inventoryService) ListProducts(filter repository.ProductFilter) ([]model.ProductResponse, error) {
	products, err := s.productRepo.FindAll(filter)
	if err != nil {
		return nil, err
	}
	responses := make([]model.ProductResponse, len(products))
	for i := range products {
		responses[i] = products[i].ToResponse()
	}
	return responses, nil
}

func (s *inventoryService) LowStockProducts() ([]model.ProductResponse, error) {
	products, err := s.productRepo.FindLowStock()
	if err != nil {
		return nil, err
	}
	responses := make([]model.ProductResponse, len(products))
	for i := range products {
		responses[i] = products[i].ToResponse()
	}
	return responses, nil
}

func (s *inventoryService) ListStockHistory(filter repository.StockHistoryFilter) ([]model.StockHistory, repository.Pagination, error) {
	return s.historyRepo.FindAll(filter)
}

func (s *inventoryService) publish(action string, product *model.Product, actor Actor, message string) {
	if s.wsHub == nil {
		return
	}
	go s.wsHub.Publish(ws.Event{
		Type:   "stock_update",
		Action: action,
		Payload: map[string]interface{}{
			"id":           product.ID,
			"name":         product.Name,
			"currentStock": product.CurrentStock,
			"stockStatus":  product.StockStatus(),
		},
		Message: message,
	})
}
