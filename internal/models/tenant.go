package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is one connected Shopify store. A user owns at most one tenant and
// the store domain is globally unique. The access token rotates on re-auth
// and is never serialized back out.
type Tenant struct {
	ID            string    `json:"id" gorm:"type:uuid;primary_key"`
	UserID        string    `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Name          string    `json:"name" gorm:"not null"`
	ShopifyDomain string    `json:"shopify_domain" gorm:"uniqueIndex;not null"`
	AccessToken   string    `json:"-" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
