package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"shoplytics/internal/api/middleware"
	"shoplytics/internal/logger"
	"shoplytics/internal/models"
)

type DashboardHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewDashboardHandler(db *gorm.DB, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{db: db, logger: logger}
}

// tenantForUser resolves the authed user's tenant; dashboard reads are
// always tenant-scoped.
func (h *DashboardHandler) tenantForUser(c *gin.Context) (*models.Tenant, bool) {
	userID := c.GetString(middleware.ContextUserID)

	var tenant models.Tenant
	if err := h.db.Where("user_id = ?", userID).First(&tenant).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "No tenant associated with this user."})
		return nil, false
	}
	return &tenant, true
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	tenant, ok := h.tenantForUser(c)
	if !ok {
		return
	}

	var totalCustomers, totalOrders int64
	h.db.Model(&models.Customer{}).Where("tenant_id = ?", tenant.ID).Count(&totalCustomers)
	h.db.Model(&models.Order{}).Where("tenant_id = ?", tenant.ID).Count(&totalOrders)

	var revenue struct {
		Total decimal.Decimal
	}
	err := h.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Where("tenant_id = ?", tenant.ID).
		Scan(&revenue).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_customers": totalCustomers,
		"total_orders":    totalOrders,
		"total_revenue":   revenue.Total,
	})
}

func (h *DashboardHandler) OrdersByDate(c *gin.Context) {
	tenant, ok := h.tenantForUser(c)
	if !ok {
		return
	}

	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	startDate := endDate.AddDate(0, 0, -30)

	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date, expected YYYY-MM-DD"})
			return
		}
		startDate = parsed
	}
	if s := c.Query("end_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date, expected YYYY-MM-DD"})
			return
		}
		endDate = parsed
	}

	var rows []struct {
		Date       string `json:"date"`
		OrderCount int64  `json:"order_count"`
	}
	err := h.db.Model(&models.Order{}).
		Select("DATE(created_at) AS date, COUNT(*) AS order_count").
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenant.ID, startDate, endDate.AddDate(0, 0, 1)).
		Group("DATE(created_at)").
		Order("date").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate orders"})
		return
	}

	c.JSON(http.StatusOK, rows)
}

func (h *DashboardHandler) TopCustomers(c *gin.Context) {
	tenant, ok := h.tenantForUser(c)
	if !ok {
		return
	}

	var rows []struct {
		FirstName  *string         `json:"first_name"`
		LastName   *string         `json:"last_name"`
		Email      *string         `json:"email"`
		TotalSpent decimal.Decimal `json:"total_spent"`
	}
	err := h.db.Table("customers").
		Select("customers.first_name, customers.last_name, customers.email, COALESCE(SUM(orders.total_price), 0) AS total_spent").
		Joins("LEFT JOIN orders ON orders.customer_id = customers.id").
		Where("customers.tenant_id = ?", tenant.ID).
		Group("customers.id, customers.first_name, customers.last_name, customers.email").
		Order("total_spent DESC").
		Limit(5).
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate customers"})
		return
	}

	c.JSON(http.StatusOK, rows)
}
