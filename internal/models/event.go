package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventType string

const (
	EventCheckoutStarted EventType = "checkout_started"
	EventCheckoutUpdated EventType = "checkout_updated"
	EventCheckoutDeleted EventType = "checkout_deleted"
	EventUnknown         EventType = "unknown"
)

// CustomEvent is an append-only envelope for checkout lifecycle webhooks.
// The inbound payload is kept verbatim in Metadata; rows are never deduplicated.
type CustomEvent struct {
	ID         string          `json:"id" gorm:"type:uuid;primary_key"`
	TenantID   string          `json:"tenant_id" gorm:"type:uuid;not null;index"`
	EventType  EventType       `json:"event_type" gorm:"not null"`
	CustomerID *string         `json:"customer_id" gorm:"type:uuid"`
	Metadata   json.RawMessage `json:"metadata" gorm:"type:jsonb"`
	CreatedAt  time.Time       `json:"created_at"`

	Customer *Customer `json:"-" gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL"`
	Tenant   Tenant    `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

func (e *CustomEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// EventTypeForTopic classifies an inbound webhook topic header.
func EventTypeForTopic(topic string) EventType {
	switch topic {
	case "checkouts/create":
		return EventCheckoutStarted
	case "checkouts/update":
		return EventCheckoutUpdated
	case "checkouts/delete":
		return EventCheckoutDeleted
	default:
		return EventUnknown
	}
}
