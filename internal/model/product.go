package model

import (
	"math"

	"github.com/google/uuid"
)

// Unit is the measurement unit fabric is sold in.
type Unit string

const (
	UnitYards  Unit = "yards"
	UnitMeters Unit = "meters"
	UnitPieces Unit = "pieces"
)

// Category is the closed set of fabric categories.
type Category string

const (
	CategoryCotton    Category = "cotton"
	CategorySilk      Category = "silk"
	CategoryLinen     Category = "linen"
	CategoryWool      Category = "wool"
	CategoryPolyester Category = "polyester"
	CategoryChiffon   Category = "chiffon"
	CategoryLace      Category = "lace"
	CategoryDenim     Category = "denim"
	CategoryVelvet    Category = "velvet"
	CategoryOther     Category = "other"
)

// StockStatus is derived from current stock against the minimum level.
type StockStatus string

const (
	StockStatusOut StockStatus = "out_of_stock"
	StockStatusLow StockStatus = "low_stock"
	StockStatusIn  StockStatus = "in_stock"
)

type Product struct {
	BaseModel
	Name          string   `gorm:"type:varchar(255);not null;index" json:"name" validate:"required"`
	Category      Category `gorm:"type:varchar(30);not null" json:"category" validate:"required,oneof=cotton silk linen wool polyester chiffon lace denim velvet other"`
	TotalStock    int      `gorm:"not null;default:0" json:"totalStock" validate:"gte=0"`
	CurrentStock  int      `gorm:"not null;default:0" json:"currentStock" validate:"gte=0"`
	Unit          Unit     `gorm:"type:varchar(10);not null" json:"unit" validate:"required,oneof=yards meters pieces"`
	PricePerUnit  float64  `gorm:"not null;default:0" json:"pricePerUnit" validate:"gte=0"`
	MinStockLevel int      `gorm:"not null;default:10" json:"minStockLevel" validate:"gte=0"`
	IsActive      bool     `gorm:"not null;default:true" json:"isActive"`

	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"createdBy,omitempty"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID" json:"-"`
}

// StockStatus derives the display status from the current stock level.
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.CurrentStock <= 0:
		return StockStatusOut
	case p.CurrentStock <= p.MinStockLevel:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// StockPercentage reports current stock as a percentage of total stock,
// 0 when total stock is zero.
func (p *Product) StockPercentage() int {
	if p.TotalStock == 0 {
		return 0
	}
	return int(math.Round(float64(p.CurrentStock) / float64(p.TotalStock) * 100))
}

// ProductResponse is the API projection of a product with derived fields.
type ProductResponse struct {
	Product
	StockStatus     StockStatus `json:"stockStatus"`
	StockPercentage int         `json:"stockPercentage"`
}

// ToResponse converts Product to ProductResponse
func (p *Product) ToResponse() ProductResponse {
	return ProductResponse{
		Product:         *p,
		StockStatus:     p.StockStatus(),
		StockPercentage: p.StockPercentage(),
	}
}
