package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is tenant-scoped and keyed by the Shopify order id. The customer
// reference is nullable: removing a customer clears it, never the order.
type Order struct {
	ID                string          `json:"id" gorm:"type:uuid;primary_key"`
	TenantID          string          `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_orders_tenant_external"`
	ShopifyOrderID    int64           `json:"shopify_order_id" gorm:"not null;uniqueIndex:idx_orders_tenant_external"`
	CustomerID        *string         `json:"customer_id" gorm:"type:uuid"`
	TotalPrice        decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2)"`
	Currency          string          `json:"currency" gorm:"default:USD"`
	FinancialStatus   *string         `json:"financial_status"`
	FulfillmentStatus *string         `json:"fulfillment_status"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime:false"`

	Customer *Customer   `json:"customer,omitempty" gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL"`
	Items    []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Tenant   Tenant      `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// OrderItem is one order line, matched to a Product by variant id.
type OrderItem struct {
	ID        string          `json:"id" gorm:"type:uuid;primary_key"`
	OrderID   string          `json:"order_id" gorm:"type:uuid;not null;uniqueIndex:idx_order_items_order_product"`
	ProductID *string         `json:"product_id" gorm:"type:uuid;uniqueIndex:idx_order_items_order_product"`
	Quantity  int             `json:"quantity" gorm:"default:1"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
