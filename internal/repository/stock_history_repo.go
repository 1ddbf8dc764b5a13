package repository

import (
	"time"

	"go-fabric-retail/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockHistoryFilter narrows the ledger listing.
type StockHistoryFilter struct {
	ProductID *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	Limit     int
}

// StockMovementData aggregates daily stock deltas for the dashboard chart.
type StockMovementData struct {
	Date  string `json:"date"`
	Added int    `json:"added"`
	Sold  int    `json:"sold"`
}

type StockHistoryRepository interface {
	Create(entry *model.StockHistory) error
	FindAll(filter StockHistoryFilter) ([]model.StockHistory, Pagination, error)
	StockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
}

type stockHistoryRepo struct {
	db *gorm.DB
}

func NewStockHistoryRepo(db *gorm.DB) StockHistoryRepository {
	return &stockHistoryRepo{db}
}

func (r *stockHistoryRepo) Create(entry *model.StockHistory) error {
	return r.db.Create(entry).Error
}

func (r *stockHistoryRepo) FindAll(filter StockHistoryFilter) ([]model.StockHistory, Pagination, error) {
	q := r.db.Model(&model.StockHistory{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	pagination := NewPagination(filter.Page, filter.Limit, total)

	var entries []model.StockHistory
	err := q.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.ItemsPerPage).
		Find(&entries).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	return entries, pagination, nil
}

func (r *stockHistoryRepo) StockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.Model(&model.StockHistory{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN action = 'added' THEN quantity ELSE 0 END), 0) as added,
			COALESCE(SUM(CASE WHEN action = 'sold' THEN quantity ELSE 0 END), 0) as sold
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Added, &data.Sold); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}
