package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shoplytics/internal/api/middleware"
	"shoplytics/internal/logger"
	"shoplytics/internal/models"
)

type SubscriptionHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewSubscriptionHandler(db *gorm.DB, logger *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{db: db, logger: logger}
}

// List returns the webhook registration audit trail for the authed user's
// tenant, one row per topic with the last attempt's outcome.
func (h *SubscriptionHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var tenant models.Tenant
	if err := h.db.Where("user_id = ?", userID).First(&tenant).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "No tenant associated with this user."})
		return
	}

	var subscriptions []models.WebhookSubscription
	if err := h.db.Where("tenant_id = ?", tenant.ID).Order("topic").Find(&subscriptions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subscriptions})
}
