package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is tenant-scoped and keyed by the Shopify customer id. Timestamps
// hold the values reported by Shopify, so gorm's auto-tracking is disabled.
type Customer struct {
	ID                string    `json:"id" gorm:"type:uuid;primary_key"`
	TenantID          string    `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_customers_tenant_external"`
	ShopifyCustomerID int64     `json:"shopify_customer_id" gorm:"not null;uniqueIndex:idx_customers_tenant_external"`
	FirstName         *string   `json:"first_name"`
	LastName          *string   `json:"last_name"`
	Email             *string   `json:"email"`
	Phone             *string   `json:"phone"`
	Address1          *string   `json:"address1"`
	Address2          *string   `json:"address2"`
	City              *string   `json:"city"`
	Province          *string   `json:"province"`
	Country           *string   `json:"country"`
	Zip               *string   `json:"zip"`
	Company           *string   `json:"company"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
