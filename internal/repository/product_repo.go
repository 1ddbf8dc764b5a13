package repository

import (
	"go-fabric-retail/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows the product listing.
type ProductFilter struct {
	Search          string
	Category        model.Category
	InStockOnly     bool
	IncludeInactive bool
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uuid.UUID) (*model.Product, error)
	FindActiveByName(name string) (*model.Product, error)
	FindAll(filter ProductFilter) ([]model.Product, error)
	FindLowStock() ([]model.Product, error)
	Update(product *model.Product) error
	Deactivate(id uuid.UUID) error
	DecrementStock(id uuid.UUID, quantity int) (bool, error)
	CountActive() (int64, error)
	CountLowStock() (int64, error)
	CountOutOfStock() (int64, error)
	InventoryValuation() (float64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveByName matches case-insensitively among active products only.
func (r *productRepo) FindActiveByName(name string) (*model.Product, error) {
	var product model.Product
	err := r.db.Where("LOWER(name) = LOWER(?) AND is_active = ?", name, true).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindAll(filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.db.Order("name ASC")
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.InStockOnly {
		q = q.Where("current_stock > 0")
	}
	err := q.Find(&products).Error
	return products, err
}

func (r *productRepo) FindLowStock() ([]model.Product, error) {
	var products []model.Product
	err := r.db.
		Where("is_active = ? AND current_stock <= min_stock_level", true).
		Order("current_stock ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

// Deactivate soft-deletes by flipping the active flag; the row stays behind
// for sale and ledger references.
func (r *productRepo) Deactivate(id uuid.UUID) error {
	res := r.db.Model(&model.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock performs a single conditional update guarded by the current
// stock level, so concurrent sales can never drive stock negative. The bool
// result reports whether a row was updated.
func (r *productRepo) DecrementStock(id uuid.UUID, quantity int) (bool, error) {
	res := r.db.Model(&model.Product{}).
		Where("id = ? AND current_stock >= ?", id, quantity).
		UpdateColumn("current_stock", gorm.Expr("current_stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *productRepo) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *productRepo) CountLowStock() (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).
		Where("is_active = ? AND current_stock > 0 AND current_stock <= min_stock_level", true).
		Count(&count).Error
	return count, err
}

func (r *productRepo) CountOutOfStock() (int64, error) {
	var count int64
	err := r.db.Model(&model.Product{}).
		Where("is_active = ? AND current_stock <= 0", true).
		Count(&count).Error
	return count, err
}

func (r *productRepo) InventoryValuation() (float64, error) {
	var total float64
	err := r.db.Model(&model.Product{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(current_stock * price_per_unit), 0)").
		Scan(&total).Error
	return total, err
}
