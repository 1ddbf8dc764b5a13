package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-fabric-retail/internal/model"
	"go-fabric-retail/internal/repository"
	"go-fabric-retail/internal/service"
	"go-fabric-retail/internal/testutil"
)

type apiFixture struct {
	app    *fiber.App
	db     *gorm.DB
	seller model.User
}

// newAPIFixture wires real services over an in-memory database behind a stub
// auth middleware that injects the seller as an admin.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.NewDB(t)

	seller := model.User{Email: "admin@example.com", FullName: "Bola Adeyemi", Role: model.RoleAdmin, IsActive: true}
	require.NoError(t, seller.SetPassword("password123"))
	require.NoError(t, db.Create(&seller).Error)

	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	historyRepo := repository.NewStockHistoryRepo(db)

	saleService := service.NewSaleService(saleRepo, productRepo, historyRepo, nil, nil)
	invService := service.NewInventoryService(productRepo, historyRepo, nil, nil)

	saleHandler := NewSaleHandler(saleService)
	invHandler := NewInventoryHandler(invService)

	app := fiber.New()
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", seller.ID.String())
		c.Locals("user_name", seller.FullName)
		c.Locals("user_email", seller.Email)
		c.Locals("user_role", string(seller.Role))
		return c.Next()
	})
	api.Post("/sales", saleHandler.CreateSale)
	api.Get("/sales", saleHandler.GetSales)
	api.Get("/sales/:id", saleHandler.GetSale)
	api.Get("/sales/:id/receipt", saleHandler.GetReceipt)
	api.Get("/stock-history", invHandler.GetStockHistory)

	return &apiFixture{app: app, db: db, seller: seller}
}

func (f *apiFixture) createProduct(t *testing.T, name string, stock int, price float64) model.Product {
	t.Helper()
	product := model.Product{
		Name:          name,
		Category:      model.CategoryCotton,
		TotalStock:    stock,
		CurrentStock:  stock,
		Unit:          model.UnitYards,
		PricePerUnit:  price,
		MinStockLevel: 10,
		IsActive:      true,
	}
	require.NoError(t, f.db.Create(&product).Error)
	return product
}

func (f *apiFixture) request(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestPostSales(t *testing.T) {
	f := newAPIFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	resp, body := f.request(t, http.MethodPost, "/api/v1/sales", map[string]interface{}{
		"customerName": "Fatima Bello",
		"items": []map[string]interface{}{
			{"productId": product.ID.String(), "quantity": 3},
		},
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Sale recorded", body["message"])

	sale, ok := body["sale"].(map[string]interface{})
	require.True(t, ok)
	assert.Regexp(t, `^RF\d{11}$`, sale["saleNumber"])
	assert.Equal(t, 1500.0, sale["totalAmount"])
	assert.Equal(t, 1500.0, sale["finalAmount"])
	assert.Equal(t, "completed", sale["status"])
	assert.Equal(t, "Bola Adeyemi", sale["sellerName"])
}

func TestPostSalesInsufficientStock(t *testing.T) {
	f := newAPIFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	resp, body := f.request(t, http.MethodPost, "/api/v1/sales", map[string]interface{}{
		"customerName": "Fatima Bello",
		"items": []map[string]interface{}{
			{"productId": product.ID.String(), "quantity": 15},
		},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "Insufficient stock")

	var fresh model.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 10, fresh.CurrentStock)
}

func TestPostSalesValidationErrors(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.request(t, http.MethodPost, "/api/v1/sales", map[string]interface{}{
		"items": []map[string]interface{}{},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Validation failed", body["message"])
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, errs)
}

func TestGetReceipt(t *testing.T) {
	f := newAPIFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	_, created := f.request(t, http.MethodPost, "/api/v1/sales", map[string]interface{}{
		"customerName": "Fatima Bello",
		"items": []map[string]interface{}{
			{"productId": product.ID.String(), "quantity": 2},
		},
	})
	sale := created["sale"].(map[string]interface{})

	resp, receipt := f.request(t, http.MethodGet, fmt.Sprintf("/api/v1/sales/%s/receipt", sale["id"]), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sale["saleNumber"], receipt["saleNumber"])
	assert.Equal(t, "Fatima Bello", receipt["customerName"])
	assert.Equal(t, 1000.0, receipt["totalAmount"])
	assert.Equal(t, "Bola Adeyemi", receipt["sellerName"])
}

func TestGetReceiptNotFound(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.request(t, http.MethodGet, fmt.Sprintf("/api/v1/sales/%s/receipt", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["message"])
}

func TestGetStockHistoryPaginated(t *testing.T) {
	f := newAPIFixture(t)
	product := f.createProduct(t, "Blue Cotton", 50, 500)

	for i := 0; i < 3; i++ {
		_, created := f.request(t, http.MethodPost, "/api/v1/sales", map[string]interface{}{
			"customerName": "Fatima Bello",
			"items": []map[string]interface{}{
				{"productId": product.ID.String(), "quantity": 1},
			},
		})
		require.NotNil(t, created["sale"])
	}

	resp, body := f.request(t, http.MethodGet, "/api/v1/stock-history?page=1&limit=2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	history, ok := body["history"].([]interface{})
	require.True(t, ok)
	assert.Len(t, history, 2)

	pagination, ok := body["pagination"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1.0, pagination["currentPage"])
	assert.Equal(t, 2.0, pagination["totalPages"])
	assert.Equal(t, 3.0, pagination["totalItems"])
	assert.Equal(t, 2.0, pagination["itemsPerPage"])
}
