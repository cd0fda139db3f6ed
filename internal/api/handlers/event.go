package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shoplytics/internal/logger"
	"shoplytics/internal/models"
	"shoplytics/internal/services/shopify"
	"shoplytics/internal/sync"
)

type EventHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewEventHandler(db *gorm.DB, logger *logger.Logger) *EventHandler {
	return &EventHandler{db: db, logger: logger}
}

// Create ingests checkouts/* webhooks. The topic header classifies the event
// type; the raw payload is stored verbatim. Events are append-only, so the
// same checkout may appear many times as it moves through its lifecycle.
func (h *EventHandler) Create(c *gin.Context) {
	tenant, ok := tenantFromShopHeader(c, h.db)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	var checkout shopify.Checkout
	if err := json.Unmarshal(raw, &checkout); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	var customerID *string
	if checkout.Customer != nil {
		customer, _, err := sync.UpsertEmbeddedCustomer(h.db, tenant.ID, checkout.Customer)
		if err != nil {
			h.logger.Error("webhook: failed to upsert checkout customer %d: %v", checkout.Customer.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save customer"})
			return
		}
		customerID = &customer.ID
	}

	event := models.CustomEvent{
		TenantID:   tenant.ID,
		EventType:  models.EventTypeForTopic(c.GetHeader(WebhookTopicHeader)),
		CustomerID: customerID,
		Metadata:   json.RawMessage(raw),
	}
	if err := h.db.Create(&event).Error; err != nil {
		h.logger.Error("webhook: failed to store custom event: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": event})
}

func (h *EventHandler) List(c *gin.Context) {
	offset, limit, page := pagination(c)

	var events []models.CustomEvent
	query := h.db.Model(&models.CustomEvent{})

	if eventType := c.Query("event_type"); eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	var total int64
	query.Count(&total)

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": events,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
