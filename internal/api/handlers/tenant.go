package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shoplytics/internal/jobs"
	"shoplytics/internal/logger"
	"shoplytics/internal/models"
)

type TenantHandler struct {
	db     *gorm.DB
	logger *logger.Logger
	queue  jobs.Queue
}

func NewTenantHandler(db *gorm.DB, logger *logger.Logger, queue jobs.Queue) *TenantHandler {
	return &TenantHandler{db: db, logger: logger, queue: queue}
}

func (h *TenantHandler) List(c *gin.Context) {
	offset, limit, page := pagination(c)

	var tenants []models.Tenant
	query := h.db.Model(&models.Tenant{})

	var total int64
	query.Count(&total)

	if err := query.Offset(offset).Limit(limit).Find(&tenants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenants"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": tenants,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// Create registers a tenant directly (outside the OAuth flow, e.g. for a
// custom app token) and kicks off the same two sync jobs the callback does.
func (h *TenantHandler) Create(c *gin.Context) {
	var req struct {
		UserID        string `json:"user_id" binding:"required"`
		Name          string `json:"name"`
		ShopifyDomain string `json:"shopify_domain" binding:"required"`
		AccessToken   string `json:"access_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant := models.Tenant{
		UserID:        req.UserID,
		Name:          req.Name,
		ShopifyDomain: req.ShopifyDomain,
		AccessToken:   req.AccessToken,
	}
	if tenant.Name == "" {
		tenant.Name = req.ShopifyDomain
	}

	if err := h.db.Create(&tenant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tenant"})
		return
	}

	for _, jobType := range []string{jobs.JobSubscribeWebhooks, jobs.JobBackfill} {
		if _, err := h.queue.Submit(c.Request.Context(), jobType, tenant.ID); err != nil {
			h.logger.Error("tenant: failed to submit %s for tenant %s: %v", jobType, tenant.ID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"data": tenant})
}

func (h *TenantHandler) Get(c *gin.Context) {
	var tenant models.Tenant
	if err := h.db.First(&tenant, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (h *TenantHandler) Update(c *gin.Context) {
	var tenant models.Tenant
	if err := h.db.First(&tenant, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenant"})
		return
	}

	var req struct {
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.AccessToken != "" {
		tenant.AccessToken = req.AccessToken
	}

	if err := h.db.Save(&tenant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tenant"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (h *TenantHandler) Delete(c *gin.Context) {
	if err := h.db.Delete(&models.Tenant{}, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tenant"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
