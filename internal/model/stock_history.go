package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockAction is the cause of a stock quantity change.
type StockAction string

const (
	StockAdded    StockAction = "added"
	StockSold     StockAction = "sold"
	StockAdjusted StockAction = "adjusted"
)

// StockHistory is one append-only ledger entry. Entries are never updated or
// deleted; previousStock and newStock must bracket the recorded quantity.
type StockHistory struct {
	ID            uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	ProductID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"productId"`
	ProductName   string      `gorm:"type:varchar(255);not null" json:"productName"`
	Action        StockAction `gorm:"type:varchar(10);not null" json:"action"`
	Quantity      int         `gorm:"not null" json:"quantity"`
	PreviousStock int         `gorm:"not null" json:"previousStock"`
	NewStock      int         `gorm:"not null" json:"newStock"`
	Unit          Unit        `gorm:"type:varchar(10);not null" json:"unit"`
	PerformedByID uuid.UUID   `gorm:"type:uuid;not null" json:"performedBy"`
	SaleID        *uuid.UUID  `gorm:"type:uuid;index" json:"saleId,omitempty"`
	Notes         string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time   `json:"date"`
}

func (h *StockHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return
}
