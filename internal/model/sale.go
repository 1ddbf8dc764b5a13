package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod is the closed set of accepted payment methods.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCredit   PaymentMethod = "credit"
)

// SaleStatus tracks the lifecycle of a sale. The POS workflow only ever
// produces completed sales.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SalePending   SaleStatus = "pending"
	SaleCancelled SaleStatus = "cancelled"
)

// SaleItem is one line of a sale. Product name, unit and price are captured
// at sale time so later product edits never change a recorded sale.
type SaleItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SaleID      uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null" json:"productId"`
	ProductName string    `gorm:"type:varchar(255);not null" json:"productName"`
	Unit        Unit      `gorm:"type:varchar(10);not null" json:"unit"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"not null" json:"unitPrice"`
	TotalPrice  float64   `gorm:"not null" json:"totalPrice"`
}

func (item *SaleItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return
}

// Sale is one completed customer transaction. Immutable after creation.
type Sale struct {
	BaseModel
	SaleNumber    string        `gorm:"type:varchar(20);uniqueIndex;not null" json:"saleNumber"`
	CustomerName  string        `gorm:"type:varchar(255);not null" json:"customerName"`
	CustomerPhone string        `gorm:"type:varchar(30)" json:"customerPhone,omitempty"`
	Items         []SaleItem    `gorm:"foreignKey:SaleID" json:"items"`
	TotalAmount   float64       `gorm:"not null" json:"totalAmount"`
	Discount      float64       `gorm:"not null;default:0" json:"discount"`
	FinalAmount   float64       `gorm:"not null" json:"finalAmount"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(10);not null;default:cash" json:"paymentMethod"`
	Status        SaleStatus    `gorm:"type:varchar(10);not null;default:completed" json:"status"`
	SoldByID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"soldBy"`
	SoldByUser    *User         `gorm:"foreignKey:SoldByID" json:"-"`
	SaleDate      time.Time     `gorm:"not null" json:"saleDate"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`
}

// SaleResponse is the API projection of a sale with the seller name resolved.
type SaleResponse struct {
	Sale
	SellerName string `json:"sellerName"`
}

// ToResponse converts Sale to SaleResponse
func (s *Sale) ToResponse() SaleResponse {
	resp := SaleResponse{Sale: *s}
	if s.SoldByUser != nil {
		resp.SellerName = s.SoldByUser.FullName
	}
	return resp
}

// Receipt is the flattened projection returned by the receipt endpoint.
type Receipt struct {
	SaleNumber    string        `json:"saleNumber"`
	Date          time.Time     `json:"date"`
	CustomerName  string        `json:"customerName"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	Items         []SaleItem    `json:"items"`
	TotalAmount   float64       `json:"totalAmount"`
	Discount      float64       `json:"discount"`
	FinalAmount   float64       `json:"finalAmount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	SellerName    string        `json:"sellerName"`
	Notes         string        `json:"notes,omitempty"`
}

// ToReceipt builds the receipt projection from the persisted record.
func (s *Sale) ToReceipt() Receipt {
	r := Receipt{
		SaleNumber:    s.SaleNumber,
		Date:          s.SaleDate,
		CustomerName:  s.CustomerName,
		CustomerPhone: s.CustomerPhone,
		Items:         s.Items,
		TotalAmount:   s.TotalAmount,
		Discount:      s.Discount,
		FinalAmount:   s.FinalAmount,
		PaymentMethod: s.PaymentMethod,
		Notes:         s.Notes,
	}
	if s.SoldByUser != nil {
		r.SellerName = s.SoldByUser.FullName
	}
	return r
}
