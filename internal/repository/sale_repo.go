package repository

import (
	"time"

	"go-fabric-retail/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pagination is the descriptor returned alongside paginated listings.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// NewPagination normalizes page/limit and computes the page count.
func NewPagination(page, limit int, totalItems int64) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := int((totalItems + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: limit,
	}
}

// Offset returns the row offset for the described page.
func (p Pagination) Offset() int {
	return (p.CurrentPage - 1) * p.ItemsPerPage
}

// SaleFilter narrows the sale listing. A nil SoldByID returns all sales.
type SaleFilter struct {
	SoldByID *uuid.UUID
	Page     int
	Limit    int
}

type SaleRepository interface {
	Create(sale *model.Sale) error
	FindByID(id uuid.UUID) (*model.Sale, error)
	FindAll(filter SaleFilter) ([]model.Sale, Pagination, error)
	ExistsBySaleNumber(saleNumber string) (bool, error)
	TodayStats(now time.Time) (count int64, revenue float64, err error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(sale *model.Sale) error {
	return r.db.Create(sale).Error
}

func (r *saleRepo) FindByID(id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.Preload("Items").Preload("SoldByUser").First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindAll(filter SaleFilter) ([]model.Sale, Pagination, error) {
	q := r.db.Model(&model.Sale{})
	if filter.SoldByID != nil {
		q = q.Where("sold_by_id = ?", *filter.SoldByID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	pagination := NewPagination(filter.Page, filter.Limit, total)

	var sales []model.Sale
	err := q.Preload("Items").Preload("SoldByUser").
		Order("sale_date DESC").
		Offset(pagination.Offset()).
		Limit(pagination.ItemsPerPage).
		Find(&sales).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	return sales, pagination, nil
}

func (r *saleRepo) ExistsBySaleNumber(saleNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Sale{}).Where("sale_number = ?", saleNumber).Count(&count).Error
	return count > 0, err
}

// TodayStats returns the number of sales and summed final amounts for the
// calendar day containing now.
func (r *saleRepo) TodayStats(now time.Time) (int64, float64, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	if err := r.db.Model(&model.Sale{}).
		Where("sale_date >= ? AND sale_date < ?", start, end).
		Count(&count).Error; err != nil {
		return 0, 0, err
	}

	var revenue float64
	if err := r.db.Model(&model.Sale{}).
		Where("sale_date >= ? AND sale_date < ?", start, end).
		Select("COALESCE(SUM(final_amount), 0)").
		Scan(&revenue).Error; err != nil {
		return 0, 0, err
	}
	return count, revenue, nil
}
