package sync

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shoplytics/internal/database"
	"shoplytics/internal/models"
	"shoplytics/internal/services/shopify"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestTenant(t *testing.T, db *gorm.DB) *models.Tenant {
	t.Helper()

	user := &models.User{
		Email:        "owner@acme.test",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)

	tenant := &models.Tenant{
		UserID:        user.ID,
		Name:          "Acme",
		ShopifyDomain: "acme.myshopify.com",
		AccessToken:   "shpat_test_token",
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestUpsertCustomerProfile_Idempotent(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	payload := &shopify.Customer{
		ID:        7001,
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		CreatedAt: ptrTime(created),
		UpdatedAt: ptrTime(created),
	}

	_, wasCreated, err := UpsertCustomerProfile(db, tenant.ID, payload)
	require.NoError(t, err)
	assert.True(t, wasCreated)

	// Replay with a changed email: same row, latest fields win.
	payload.Email = "grace.hopper@example.com"
	payload.UpdatedAt = ptrTime(created.Add(time.Hour))

	row, wasCreated, err := UpsertCustomerProfile(db, tenant.ID, payload)
	require.NoError(t, err)
	assert.False(t, wasCreated)

	var count int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NotNil(t, row.Email)
	assert.Equal(t, "grace.hopper@example.com", *row.Email)
	assert.True(t, row.UpdatedAt.Equal(created.Add(time.Hour)))
	assert.True(t, row.CreatedAt.Equal(created))
}

func TestUpsertCustomerProfile_AddressFallback(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	payload := &shopify.Customer{
		ID:    7002,
		Email: "no-phone@example.com",
		DefaultAddress: &shopify.Address{
			Address1: "1 Main St",
			City:     "Lagos",
			Country:  "Nigeria",
			Phone:    "+2348000000000",
		},
	}

	row, _, err := UpsertCustomerProfile(db, tenant.ID, payload)
	require.NoError(t, err)

	require.NotNil(t, row.Phone)
	assert.Equal(t, "+2348000000000", *row.Phone)
	require.NotNil(t, row.City)
	assert.Equal(t, "Lagos", *row.City)
	assert.Nil(t, row.FirstName)
}

func TestUpsertEmbeddedCustomer_PreservesAddress(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	profile := &shopify.Customer{
		ID:        7005,
		FirstName: "Grace",
		Email:     "grace@example.com",
		DefaultAddress: &shopify.Address{
			Address1: "1 Main St",
			City:     "Lagos",
			Country:  "Nigeria",
			Zip:      "100001",
		},
	}
	_, _, err := UpsertCustomerProfile(db, tenant.ID, profile)
	require.NoError(t, err)

	// An order/checkout stub carries contact fields only; the address set by
	// the full profile must survive its replay.
	stub := &shopify.Customer{
		ID:        7005,
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace.hopper@example.com",
	}
	_, created, err := UpsertEmbeddedCustomer(db, tenant.ID, stub)
	require.NoError(t, err)
	assert.False(t, created)

	var row models.Customer
	require.NoError(t, db.Where("tenant_id = ? AND shopify_customer_id = ?", tenant.ID, 7005).First(&row).Error)

	require.NotNil(t, row.Address1)
	assert.Equal(t, "1 Main St", *row.Address1)
	require.NotNil(t, row.City)
	assert.Equal(t, "Lagos", *row.City)
	require.NotNil(t, row.Zip)
	assert.Equal(t, "100001", *row.Zip)

	require.NotNil(t, row.LastName)
	assert.Equal(t, "Hopper", *row.LastName)
	require.NotNil(t, row.Email)
	assert.Equal(t, "grace.hopper@example.com", *row.Email)

	var count int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetOrCreateCustomer_NeverOverwrites(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	full := &shopify.Customer{
		ID:        7003,
		FirstName: "Alan",
		LastName:  "Turing",
		Email:     "alan@example.com",
		Phone:     "+441234567890",
	}
	_, _, err := UpsertCustomerProfile(db, tenant.ID, full)
	require.NoError(t, err)

	// An order stub for the same customer must not erase profile data.
	stub := &shopify.Customer{ID: 7003, Email: "alan@example.com"}
	row, err := GetOrCreateCustomer(db, tenant.ID, stub)
	require.NoError(t, err)

	require.NotNil(t, row.FirstName)
	assert.Equal(t, "Alan", *row.FirstName)
	require.NotNil(t, row.Phone)
	assert.Equal(t, "+441234567890", *row.Phone)

	var count int64
	require.NoError(t, db.Model(&models.Customer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertProductVariants_FanOut(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	payload := &shopify.Product{
		ID:       9001,
		Title:    "Classic Tee",
		BodyHTML: "<p>Soft cotton.</p>",
		Variants: []shopify.Variant{
			{ID: 101, Title: "Small", Price: "19.99", Sku: "TEE-S", InventoryQuantity: 10},
			{ID: 102, Title: "Medium", Price: "19.99", Sku: "TEE-M", InventoryQuantity: 4},
			{ID: 103, Title: "Large", Price: "21.99", Sku: "TEE-L", InventoryQuantity: 0},
		},
	}

	rows, err := UpsertProductVariants(db, tenant.ID, payload)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Classic Tee - Small", rows[0].Title)
	assert.True(t, rows[2].Price.Equal(decimal.RequireFromString("21.99")))

	// Re-applying the same catalog entry must not duplicate rows.
	payload.Variants[1].Price = "17.99"
	rows, err = UpsertProductVariants(db, tenant.ID, payload)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	var medium models.Product
	require.NoError(t, db.Where("shopify_product_id = ?", 102).First(&medium).Error)
	assert.True(t, medium.Price.Equal(decimal.RequireFromString("17.99")))
}

func TestUpsertProductVariants_NoVariants(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	rows, err := UpsertProductVariants(db, tenant.ID, &shopify.Product{ID: 9002, Title: "Ghost"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFindProductByVariant_Unknown(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	_, err := FindProductByVariant(db, tenant.ID, 424242)
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestUpsertOrderRow_Idempotent(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	payload := &shopify.Order{
		ID:              5001,
		TotalPrice:      "49.98",
		Currency:        "EUR",
		FinancialStatus: "pending",
	}

	_, created, err := UpsertOrderRow(db, tenant.ID, payload, nil)
	require.NoError(t, err)
	assert.True(t, created)

	payload.FinancialStatus = "paid"
	row, created, err := UpsertOrderRow(db, tenant.ID, payload, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "EUR", row.Currency)
	require.NotNil(t, row.FinancialStatus)
	assert.Equal(t, "paid", *row.FinancialStatus)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertOrderRow_Defaults(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	row, _, err := UpsertOrderRow(db, tenant.ID, &shopify.Order{ID: 5002, TotalPrice: "not-a-number"}, nil)
	require.NoError(t, err)

	assert.True(t, row.TotalPrice.IsZero())
	assert.Equal(t, "USD", row.Currency)
}

func TestUpsertOrderItem_KeyedByOrderAndProduct(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)

	products, err := UpsertProductVariants(db, tenant.ID, &shopify.Product{
		ID:       9003,
		Title:    "Mug",
		Variants: []shopify.Variant{{ID: 201, Title: "Default", Price: "9.50"}},
	})
	require.NoError(t, err)

	order, _, err := UpsertOrderRow(db, tenant.ID, &shopify.Order{ID: 5003, TotalPrice: "9.50"}, nil)
	require.NoError(t, err)

	line := &shopify.LineItem{VariantID: 201, Quantity: 1, Price: "9.50"}
	require.NoError(t, UpsertOrderItem(db, order.ID, products[0].ID, line))

	line.Quantity = 3
	require.NoError(t, UpsertOrderItem(db, order.ID, products[0].ID, line))

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}
