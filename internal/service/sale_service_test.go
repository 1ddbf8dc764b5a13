package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-fabric-retail/internal/model"
	"go-fabric-retail/internal/repository"
	"go-fabric-retail/internal/testutil"
)

var saleNumberPattern = regexp.MustCompile(`^RF\d{8}\d{3}$`)

type saleFixture struct {
	db      *gorm.DB
	service *saleService
	seller  model.User
	admin   model.User
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	db := testutil.NewDB(t)

	seller := model.User{Email: "staff@example.com", FullName: "Awa Diallo", Role: model.RoleStaff, IsActive: true}
	require.NoError(t, seller.SetPassword("password123"))
	require.NoError(t, db.Create(&seller).Error)

	admin := model.User{Email: "admin@example.com", FullName: "Bola Adeyemi", Role: model.RoleAdmin, IsActive: true}
	require.NoError(t, admin.SetPassword("password123"))
	require.NoError(t, db.Create(&admin).Error)

	svc := NewSaleService(
		repository.NewSaleRepo(db),
		repository.NewProductRepo(db),
		repository.NewStockHistoryRepo(db),
		nil,
		nil,
	).(*saleService)

	return &saleFixture{db: db, service: svc, seller: seller, admin: admin}
}

func (f *saleFixture) actor() Actor {
	return Actor{ID: f.seller.ID, Name: f.seller.FullName, Email: f.seller.Email, Role: f.seller.Role}
}

func (f *saleFixture) createProduct(t *testing.T, name string, stock int, price float64) model.Product {
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

func TestCreateSale(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	sale, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 3}},
	}, f.actor())
	require.NoError(t, err)

	assert.Regexp(t, saleNumberPattern, sale.SaleNumber)
	assert.Equal(t, 1500.0, sale.TotalAmount)
	assert.Equal(t, 1500.0, sale.FinalAmount)
	assert.Equal(t, model.SaleCompleted, sale.Status)
	assert.Equal(t, model.PaymentCash, sale.PaymentMethod)
	assert.Equal(t, "Awa Diallo", sale.SellerName)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "Blue Cotton", sale.Items[0].ProductName)
	assert.Equal(t, 500.0, sale.Items[0].UnitPrice)
	assert.Equal(t, 1500.0, sale.Items[0].TotalPrice)

	var fresh model.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 7, fresh.CurrentStock)

	var entries []model.StockHistory
	require.NoError(t, f.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, model.StockSold, entries[0].Action)
	assert.Equal(t, 3, entries[0].Quantity)
	assert.Equal(t, 10, entries[0].PreviousStock)
	assert.Equal(t, 7, entries[0].NewStock)
	require.NotNil(t, entries[0].SaleID)
	assert.Equal(t, sale.ID, *entries[0].SaleID)
	assert.Contains(t, entries[0].Notes, "Fatima Bello")
}

func TestCreateSaleWithDiscount(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Silk Roll", 20, 250)

	sale, err := f.service.CreateSale(CreateSaleInput{
		CustomerName:  "Chinwe Obi",
		Items:         []CreateSaleItemInput{{ProductID: product.ID, Quantity: 4}},
		Discount:      200,
		PaymentMethod: model.PaymentTransfer,
	}, f.actor())
	require.NoError(t, err)

	assert.Equal(t, 1000.0, sale.TotalAmount)
	assert.Equal(t, 800.0, sale.FinalAmount)
	assert.Equal(t, model.PaymentTransfer, sale.PaymentMethod)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	_, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 15}},
	}, f.actor())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Message, "Insufficient stock")
	assert.Contains(t, valErr.Message, "Blue Cotton")
	assert.Contains(t, valErr.Message, "10 yards")

	var fresh model.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 10, fresh.CurrentStock)

	var saleCount, historyCount int64
	f.db.Model(&model.Sale{}).Count(&saleCount)
	f.db.Model(&model.StockHistory{}).Count(&historyCount)
	assert.Zero(t, saleCount)
	assert.Zero(t, historyCount)
}

func TestCreateSaleDuplicateLinesOversell(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	// Each line alone fits, together they exceed stock. The validation loop
	// must reject before any write.
	_, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items: []CreateSaleItemInput{
			{ProductID: product.ID, Quantity: 6},
			{ProductID: product.ID, Quantity: 6},
		},
	}, f.actor())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Message, "Insufficient stock")

	var fresh model.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 10, fresh.CurrentStock)

	var saleCount int64
	f.db.Model(&model.Sale{}).Count(&saleCount)
	assert.Zero(t, saleCount)
}

func TestCreateSaleUnknownProduct(t *testing.T) {
	f := newSaleFixture(t)
	missing := uuid.New()

	_, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: missing, Quantity: 1}},
	}, f.actor())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Message, "Product not found")
	assert.Contains(t, valErr.Message, missing.String())
}

func TestCreateSaleInactiveProduct(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Old Lace", 10, 100)
	require.NoError(t, f.db.Model(&product).Update("is_active", false).Error)

	_, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 1}},
	}, f.actor())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Message, "Product is not available")
	assert.Contains(t, valErr.Message, "Old Lace")
}

func TestCreateSaleDiscountExceedsTotal(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	_, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 1}},
		Discount:     600,
	}, f.actor())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Discount cannot exceed total amount", valErr.Message)

	var fresh model.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 10, fresh.CurrentStock)
}

func TestCreateSaleEmptyItems(t *testing.T) {
	f := newSaleFixture(t)

	_, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{},
	}, f.actor())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestCreateSaleMultipleProducts(t *testing.T) {
	f := newSaleFixture(t)
	cotton := f.createProduct(t, "Blue Cotton", 10, 500)
	silk := f.createProduct(t, "Red Silk", 8, 1200)

	sale, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items: []CreateSaleItemInput{
			{ProductID: cotton.ID, Quantity: 2},
			{ProductID: silk.ID, Quantity: 3},
		},
	}, f.actor())
	require.NoError(t, err)

	assert.Equal(t, 4600.0, sale.TotalAmount)
	require.Len(t, sale.Items, 2)

	var entries []model.StockHistory
	require.NoError(t, f.db.Order("product_name").Find(&entries).Error)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, model.StockSold, entry.Action)
		assert.Equal(t, entry.PreviousStock-entry.Quantity, entry.NewStock)
	}
}

func TestGenerateSaleNumberRetriesOnCollision(t *testing.T) {
	f := newSaleFixture(t)

	date := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	taken := model.Sale{
		SaleNumber:   "RF20240315042",
		CustomerName: "Existing",
		SoldByID:     f.seller.ID,
		SaleDate:     date,
		Status:       model.SaleCompleted,
	}
	require.NoError(t, f.db.Create(&taken).Error)

	// First candidate collides with the persisted sale, second is free.
	suffixes := []int{42, 43}
	f.service.randInt = func(n int) int {
		next := suffixes[0]
		if len(suffixes) > 1 {
			suffixes = suffixes[1:]
		}
		return next
	}

	number, err := f.service.generateSaleNumber(date)
	require.NoError(t, err)
	assert.Equal(t, "RF20240315043", number)
}

func TestGenerateSaleNumberExhaustion(t *testing.T) {
	f := newSaleFixture(t)

	date := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	taken := model.Sale{
		SaleNumber:   "RF20240315042",
		CustomerName: "Existing",
		SoldByID:     f.seller.ID,
		SaleDate:     date,
		Status:       model.SaleCompleted,
	}
	require.NoError(t, f.db.Create(&taken).Error)

	// Every attempt produces the taken suffix.
	f.service.randInt = func(n int) int { return 42 }

	_, err := f.service.generateSaleNumber(date)
	require.ErrorIs(t, err, ErrSaleNumberExhausted)
}

func TestSaleNumberExhaustionCreatesNothing(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }
	f.service.randInt = func(n int) int { return 42 }

	taken := model.Sale{
		SaleNumber:   "RF20240315042",
		CustomerName: "Existing",
		SoldByID:     f.seller.ID,
		SaleDate:     now,
		Status:       model.SaleCompleted,
	}
	require.NoError(t, f.db.Create(&taken).Error)

	_, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 1}},
	}, f.actor())
	require.ErrorIs(t, err, ErrSaleNumberExhausted)

	// Exhaustion happens before any write: stock untouched, only the
	// pre-existing sale remains.
	var fresh model.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 10, fresh.CurrentStock)

	var saleCount int64
	f.db.Model(&model.Sale{}).Count(&saleCount)
	assert.EqualValues(t, 1, saleCount)
}

func TestReceiptIsStable(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	sale, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 3}},
	}, f.actor())
	require.NoError(t, err)

	// A later price edit must not leak into the recorded receipt.
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", product.ID).Update("price_per_unit", 999).Error)

	first, err := f.service.GetReceipt(sale.ID, f.actor())
	require.NoError(t, err)
	second, err := f.service.GetReceipt(sale.ID, f.actor())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1500.0, first.TotalAmount)
	assert.Equal(t, 500.0, first.Items[0].UnitPrice)
	assert.Equal(t, "Awa Diallo", first.SellerName)
}

func TestReceiptOwnership(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 10, 500)

	sale, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 1}},
	}, f.actor())
	require.NoError(t, err)

	other := model.User{Email: "other@example.com", FullName: "Kofi Mensah", Role: model.RoleStaff, IsActive: true}
	require.NoError(t, other.SetPassword("password123"))
	require.NoError(t, f.db.Create(&other).Error)

	// Foreign staff sees a 404-shaped error, admin sees the receipt.
	_, err = f.service.GetReceipt(sale.ID, Actor{ID: other.ID, Name: other.FullName, Role: model.RoleStaff})
	require.ErrorIs(t, err, ErrNotFound)

	receipt, err := f.service.GetReceipt(sale.ID, Actor{ID: f.admin.ID, Name: f.admin.FullName, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, sale.SaleNumber, receipt.SaleNumber)
}

func TestReceiptUnknownSale(t *testing.T) {
	f := newSaleFixture(t)
	_, err := f.service.GetReceipt(uuid.New(), f.actor())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListSalesScopedByRole(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 100, 500)

	_, err := f.service.CreateSale(CreateSaleInput{
		CustomerName: "Fatima Bello",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 1}},
	}, f.actor())
	require.NoError(t, err)

	adminActor := Actor{ID: f.admin.ID, Name: f.admin.FullName, Role: model.RoleAdmin}
	_, err = f.service.CreateSale(CreateSaleInput{
		CustomerName: "Chinwe Obi",
		Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 2}},
	}, adminActor)
	require.NoError(t, err)

	staffSales, _, err := f.service.ListSales(f.actor(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, staffSales, 1)

	adminSales, pagination, err := f.service.ListSales(adminActor, 1, 10)
	require.NoError(t, err)
	assert.Len(t, adminSales, 2)
	assert.EqualValues(t, 2, pagination.TotalItems)
	assert.Equal(t, 1, pagination.CurrentPage)
}

func TestSaleNumbersAreUnique(t *testing.T) {
	f := newSaleFixture(t)
	product := f.createProduct(t, "Blue Cotton", 100, 500)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		sale, err := f.service.CreateSale(CreateSaleInput{
			CustomerName: "Fatima Bello",
			Items:        []CreateSaleItemInput{{ProductID: product.ID, Quantity: 1}},
		}, f.actor())
		require.NoError(t, err)
		assert.False(t, seen[sale.SaleNumber], "duplicate sale number %s", sale.SaleNumber)
		seen[sale.SaleNumber] = true
	}
}
