package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is one Shopify variant. A catalog product with N variants becomes
// N rows, each keyed by (tenant, variant id) and titled
// "<catalog title> - <variant title>".
type Product struct {
	ID                string          `json:"id" gorm:"type:uuid;primary_key"`
	TenantID          string          `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_products_tenant_external"`
	ShopifyProductID  int64           `json:"shopify_product_id" gorm:"not null;uniqueIndex:idx_products_tenant_external"`
	Title             string          `json:"title" gorm:"not null"`
	Description       *string         `json:"description"`
	Price             decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	SKU               *string         `json:"sku"`
	InventoryQuantity int             `json:"inventory_quantity" gorm:"default:0"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime:false"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
