package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"shoplytics/internal/models"
	"shoplytics/internal/services/shopify"
)

// ErrUnknownProduct is returned when an order line references a variant that
// has no local Product row.
var ErrUnknownProduct = errors.New("product not found")

// Both write paths (backfill and webhook ingest) go through these helpers so
// they agree on natural keys and field mapping. Replaying the same payload
// from either path converges to the same row.

// UpsertCustomerProfile applies a full customer payload (profile webhook or
// backfill), preferring top-level contact fields and falling back to the
// embedded default address. Timestamps come from the payload.
func UpsertCustomerProfile(db *gorm.DB, tenantID string, c *shopify.Customer) (*models.Customer, bool, error) {
	addr := c.DefaultAddress
	if addr == nil {
		addr = &shopify.Address{}
	}

	phone := c.Phone
	if phone == "" {
		phone = addr.Phone
	}

	fields := &models.Customer{
		TenantID:          tenantID,
		ShopifyCustomerID: c.ID,
		FirstName:         nilIfEmpty(c.FirstName),
		LastName:          nilIfEmpty(c.LastName),
		Email:             nilIfEmpty(c.Email),
		Phone:             nilIfEmpty(phone),
		Address1:          nilIfEmpty(addr.Address1),
		Address2:          nilIfEmpty(addr.Address2),
		City:              nilIfEmpty(addr.City),
		Province:          nilIfEmpty(addr.Province),
		Country:           nilIfEmpty(addr.Country),
		Zip:               nilIfEmpty(addr.Zip),
		Company:           nilIfEmpty(addr.Company),
		CreatedAt:         timeOrNow(c.CreatedAt),
		UpdatedAt:         timeOrNow(c.UpdatedAt),
	}
	return saveCustomer(db, tenantID, c.ID, fields)
}

// UpsertEmbeddedCustomer applies the customer object embedded in an order or
// checkout webhook: contact fields only, missing timestamps default to now.
// Address columns are left untouched so a richer profile upsert survives the
// stub.
func UpsertEmbeddedCustomer(db *gorm.DB, tenantID string, c *shopify.Customer) (*models.Customer, bool, error) {
	fields := &models.Customer{
		TenantID:          tenantID,
		ShopifyCustomerID: c.ID,
		FirstName:         nilIfEmpty(c.FirstName),
		LastName:          nilIfEmpty(c.LastName),
		Email:             nilIfEmpty(c.Email),
		Phone:             nilIfEmpty(c.Phone),
		CreatedAt:         timeOrNow(c.CreatedAt),
		UpdatedAt:         timeOrNow(c.UpdatedAt),
	}

	var existing models.Customer
	err := db.Where("tenant_id = ? AND shopify_customer_id = ?", tenantID, c.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(fields).Error; err != nil {
			return nil, false, err
		}
		return fields, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	err = db.Model(&existing).
		Select("first_name", "last_name", "email", "phone", "created_at", "updated_at").
		Updates(fields).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// GetOrCreateCustomer is the backfill order path: an existing row is left
// untouched so richer profile data is never overwritten by an order stub.
func GetOrCreateCustomer(db *gorm.DB, tenantID string, c *shopify.Customer) (*models.Customer, error) {
	var existing models.Customer
	err := db.Where("tenant_id = ? AND shopify_customer_id = ?", tenantID, c.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row := &models.Customer{
		TenantID:          tenantID,
		ShopifyCustomerID: c.ID,
		FirstName:         nilIfEmpty(c.FirstName),
		LastName:          nilIfEmpty(c.LastName),
		Email:             nilIfEmpty(c.Email),
		Phone:             nilIfEmpty(c.Phone),
		CreatedAt:         timeOrNow(c.CreatedAt),
		UpdatedAt:         timeOrNow(c.UpdatedAt),
	}
	if err := db.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func saveCustomer(db *gorm.DB, tenantID string, externalID int64, fields *models.Customer) (*models.Customer, bool, error) {
	var existing models.Customer
	err := db.Where("tenant_id = ? AND shopify_customer_id = ?", tenantID, externalID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(fields).Error; err != nil {
			return nil, false, err
		}
		return fields, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	fields.ID = existing.ID
	if err := db.Save(fields).Error; err != nil {
		return nil, false, err
	}
	return fields, false, nil
}

// UpsertProductVariants fans a catalog entry out into one Product row per
// variant. A catalog entry with no variants yields no rows.
func UpsertProductVariants(db *gorm.DB, tenantID string, p *shopify.Product) ([]models.Product, error) {
	rows := make([]models.Product, 0, len(p.Variants))
	for i := range p.Variants {
		row, err := upsertVariant(db, tenantID, p, &p.Variants[i])
		if err != nil {
			return rows, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func upsertVariant(db *gorm.DB, tenantID string, p *shopify.Product, v *shopify.Variant) (*models.Product, error) {
	fields := &models.Product{
		TenantID:          tenantID,
		ShopifyProductID:  v.ID,
		Title:             fmt.Sprintf("%s - %s", p.Title, v.Title),
		Description:       nilIfEmpty(p.BodyHTML),
		Price:             parsePrice(v.Price),
		SKU:               nilIfEmpty(v.Sku),
		InventoryQuantity: v.InventoryQuantity,
		CreatedAt:         timeOrNow(p.CreatedAt, p.PublishedAt),
		UpdatedAt:         timeOrNow(v.UpdatedAt, p.UpdatedAt),
	}

	var existing models.Product
	err := db.Where("tenant_id = ? AND shopify_product_id = ?", tenantID, v.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(fields).Error; err != nil {
			return nil, err
		}
		return fields, nil
	}
	if err != nil {
		return nil, err
	}

	fields.ID = existing.ID
	if err := db.Save(fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

// FindProductByVariant resolves an order line's variant id to a local row.
func FindProductByVariant(db *gorm.DB, tenantID string, variantID int64) (*models.Product, error) {
	var product models.Product
	err := db.Where("tenant_id = ? AND shopify_product_id = ?", tenantID, variantID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: variant %d", ErrUnknownProduct, variantID)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpsertOrderRow writes the order itself, keyed (tenant, order id).
func UpsertOrderRow(db *gorm.DB, tenantID string, o *shopify.Order, customerID *string) (*models.Order, bool, error) {
	fields := &models.Order{
		TenantID:          tenantID,
		ShopifyOrderID:    o.ID,
		CustomerID:        customerID,
		TotalPrice:        parsePrice(o.TotalPrice),
		Currency:          currencyOrDefault(o.Currency),
		FinancialStatus:   nilIfEmpty(o.FinancialStatus),
		FulfillmentStatus: nilIfEmpty(o.FulfillmentStatus),
		CreatedAt:         timeOrNow(o.CreatedAt),
		UpdatedAt:         timeOrNow(o.UpdatedAt),
	}

	var existing models.Order
	err := db.Where("tenant_id = ? AND shopify_order_id = ?", tenantID, o.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(fields).Error; err != nil {
			return nil, false, err
		}
		return fields, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	fields.ID = existing.ID
	if err := db.Save(fields).Error; err != nil {
		return nil, false, err
	}
	return fields, false, nil
}

// UpsertOrderItem writes one line, keyed (order, product).
func UpsertOrderItem(db *gorm.DB, orderID, productID string, item *shopify.LineItem) error {
	fields := &models.OrderItem{
		OrderID:   orderID,
		ProductID: &productID,
		Quantity:  item.Quantity,
		Price:     parsePrice(item.Price),
	}

	var existing models.OrderItem
	err := db.Where("order_id = ? AND product_id = ?", orderID, productID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(fields).Error
	}
	if err != nil {
		return err
	}

	fields.ID = existing.ID
	return db.Save(fields).Error
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parsePrice reads Shopify's string-encoded money; malformed or missing
// values collapse to zero rather than poisoning the whole record.
func parsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}

func timeOrNow(candidates ...*time.Time) time.Time {
	for _, t := range candidates {
		if t != nil && !t.IsZero() {
			return *t
		}
	}
	return time.Now().UTC()
}
