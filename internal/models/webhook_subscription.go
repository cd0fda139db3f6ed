package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusSuccess = "success"
	SubscriptionStatusError   = "error"
)

// WebhookSubscription is the audit row for one (tenant, topic) registration.
// Every (re)subscription attempt upserts it with the outcome and raw response.
type WebhookSubscription struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     string    `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_webhook_subs_tenant_topic"`
	Topic        string    `json:"topic" gorm:"not null;uniqueIndex:idx_webhook_subs_tenant_topic"`
	Address      string    `json:"address" gorm:"not null"`
	Status       string    `json:"status" gorm:"not null"`
	LastResponse *string   `json:"last_response"`
	UpdatedAt    time.Time `json:"updated_at"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

func (w *WebhookSubscription) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}
