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

type CustomerHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewCustomerHandler(db *gorm.DB, logger *logger.Logger) *CustomerHandler {
	return &CustomerHandler{db: db, logger: logger}
}

// Create is the customers/create webhook ingest path: one idempotent upsert
// keyed (tenant, external customer id), same field mapping as backfill.
func (h *CustomerHandler) Create(c *gin.Context) {
	tenant, ok := tenantFromShopHeader(c, h.db)
	if !ok {
		return
	}

	var payload shopify.Customer
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, created, err := sync.UpsertCustomerProfile(h.db, tenant.ID, &payload)
	if err != nil {
		h.logger.Error("webhook: failed to upsert customer %d: %v", payload.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save customer"})
		return
	}

	c.JSON(upsertStatus(created), gin.H{"data": customer})
}

func (h *CustomerHandler) List(c *gin.Context) {
	offset, limit, page := pagination(c)

	var customers []models.Customer
	query := h.db.Model(&models.Customer{})

	var total int64
	query.Count(&total)

	if err := query.Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": customers,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *CustomerHandler) Get(c *gin.Context) {
	var customer models.Customer
	if err := h.db.First(&customer, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

func (h *CustomerHandler) Update(c *gin.Context) {
	var customer models.Customer
	if err := h.db.First(&customer, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customer"})
		return
	}

	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Save(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.db.Delete(&models.Customer{}, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
