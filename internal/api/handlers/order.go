package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shoplytics/internal/logger"
	"shoplytics/internal/models"
	"shoplytics/internal/services/shopify"
	"shoplytics/internal/sync"
)

type OrderHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewOrderHandler(db *gorm.DB, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{db: db, logger: logger}
}

// Create is the orders/create webhook ingest path. The whole write is one
// transaction: embedded customer, order row and every line item land
// together or not at all. A line referencing an unknown variant aborts
// everything, unlike backfill which skips it.
func (h *OrderHandler) Create(c *gin.Context) {
	tenant, ok := tenantFromShopHeader(c, h.db)
	if !ok {
		return
	}

	var payload shopify.Order
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var order *models.Order
	var created bool

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var customerID *string
		if payload.Customer != nil {
			customer, _, err := sync.UpsertEmbeddedCustomer(tx, tenant.ID, payload.Customer)
			if err != nil {
				return err
			}
			customerID = &customer.ID
		}

		var err error
		order, created, err = sync.UpsertOrderRow(tx, tenant.ID, &payload, customerID)
		if err != nil {
			return err
		}

		for i := range payload.LineItems {
			item := &payload.LineItems[i]
			product, err := sync.FindProductByVariant(tx, tenant.ID, item.VariantID)
			if err != nil {
				return err
			}
			if err := sync.UpsertOrderItem(tx, order.ID, product.ID, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var saved models.Order
	if err := h.db.Preload("Customer").Preload("Items").First(&saved, "id = ?", order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	c.JSON(upsertStatus(created), gin.H{"data": saved})
}

func (h *OrderHandler) List(c *gin.Context) {
	offset, limit, page := pagination(c)

	var orders []models.Order
	query := h.db.Model(&models.Order{})

	var total int64
	query.Count(&total)

	if err := query.Preload("Customer").Preload("Items").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": orders,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *OrderHandler) Get(c *gin.Context) {
	var order models.Order
	err := h.db.Preload("Customer").Preload("Items").First(&order, "id = ?", c.Param("id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *OrderHandler) Update(c *gin.Context) {
	var order models.Order
	if err := h.db.First(&order, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Save(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.db.Delete(&models.Order{}, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
