package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shoplytics/internal/models"
)

// ShopDomainHeader identifies the source store on webhook ingest routes.
// Note: ingest trusts this header as-is; the OAuth callback is the only
// signature-verified surface.
const ShopDomainHeader = "X-Shopify-Shop-Domain"

// WebhookTopicHeader carries the topic on checkout event webhooks.
const WebhookTopicHeader = "X-Shopify-Topic"

// tenantFromShopHeader resolves the tenant for a webhook ingest request.
// Writes the client error itself; callers just bail when ok is false.
func tenantFromShopHeader(c *gin.Context, db *gorm.DB) (*models.Tenant, bool) {
	shopDomain := c.GetHeader(ShopDomainHeader)

	var tenant models.Tenant
	err := db.Where("shopify_domain = ?", shopDomain).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Tenant with domain %s not found.", shopDomain),
		})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve tenant"})
		return nil, false
	}
	return &tenant, true
}

// pagination reads the page/limit query parameters for list endpoints.
func pagination(c *gin.Context) (offset, limit int, page int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 250 {
		limit = 20
	}
	return (page - 1) * limit, limit, page
}

func upsertStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

const errorPageHTML = `<!doctype html>
<html>
  <head><title>Shoplytics</title></head>
  <body>
    <h1>Something went wrong</h1>
    <p>%s</p>
  </body>
</html>`

// renderErrorPage is the human-readable failure surface of the OAuth flow.
func renderErrorPage(c *gin.Context, status int, message string) {
	c.Data(status, "text/html; charset=utf-8", []byte(fmt.Sprintf(errorPageHTML, message)))
}
