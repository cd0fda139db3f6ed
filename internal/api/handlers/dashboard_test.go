package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shoplytics/internal/api/middleware"
	"shoplytics/internal/logger"
	"shoplytics/internal/models"
)

const dashboardJWTSecret = "test-jwt-secret"

func newDashboardRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("error")

	dashboard := NewDashboardHandler(db, log)
	subscriptions := NewSubscriptionHandler(db, log)

	router := gin.New()
	authed := router.Group("/api", middleware.RequireAuth(dashboardJWTSecret))
	authed.GET("/dashboard/stats/", dashboard.Stats)
	authed.GET("/dashboard/orders-by-date/", dashboard.OrdersByDate)
	authed.GET("/dashboard/top-customers/", dashboard.TopCustomers)
	authed.GET("/webhook-subscriptions/", subscriptions.List)
	return router
}

func sessionToken(t *testing.T, userID string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(dashboardJWTSecret))
	require.NoError(t, err)
	return signed
}

func getAuthed(t *testing.T, router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedOrder(t *testing.T, db *gorm.DB, tenant *models.Tenant, externalID int64, total string, customerID *string, createdAt time.Time) {
	t.Helper()

	order := &models.Order{
		TenantID:       tenant.ID,
		ShopifyOrderID: externalID,
		CustomerID:     customerID,
		TotalPrice:     decimal.RequireFromString(total),
		Currency:       "USD",
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, db.Create(order).Error)
}

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)
	router := newDashboardRouter(db)

	email := "grace@example.com"
	now := time.Now().UTC()
	customer := &models.Customer{
		TenantID:          tenant.ID,
		ShopifyCustomerID: 7001,
		Email:             &email,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, db.Create(customer).Error)

	seedOrder(t, db, tenant, 5001, "10.00", &customer.ID, now)
	seedOrder(t, db, tenant, 5002, "15.50", nil, now)

	w := getAuthed(t, router, "/api/dashboard/stats/", sessionToken(t, tenant.UserID))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TotalCustomers int64  `json:"total_customers"`
		TotalOrders    int64  `json:"total_orders"`
		TotalRevenue   string `json:"total_revenue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.TotalCustomers)
	assert.EqualValues(t, 2, resp.TotalOrders)
	assert.True(t, decimal.RequireFromString(resp.TotalRevenue).Equal(decimal.RequireFromString("25.5")))
}

func TestDashboardStats_RequiresAuth(t *testing.T) {
	db := newTestDB(t)
	newTestTenant(t, db)
	router := newDashboardRouter(db)

	w := getAuthed(t, router, "/api/dashboard/stats/", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardStats_NoTenant(t *testing.T) {
	db := newTestDB(t)
	router := newDashboardRouter(db)

	user := &models.User{Email: "lonely@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	w := getAuthed(t, router, "/api/dashboard/stats/", sessionToken(t, user.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "No tenant associated with this user.")
}

func TestDashboardOrdersByDate(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)
	router := newDashboardRouter(db)

	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	seedOrder(t, db, tenant, 5001, "10.00", nil, day1)
	seedOrder(t, db, tenant, 5002, "20.00", nil, day1)
	seedOrder(t, db, tenant, 5003, "30.00", nil, day2)

	w := getAuthed(t, router,
		"/api/dashboard/orders-by-date/?start_date=2024-03-01&end_date=2024-03-02",
		sessionToken(t, tenant.UserID))
	require.Equal(t, http.StatusOK, w.Code)

	var rows []struct {
		Date       string `json:"date"`
		OrderCount int64  `json:"order_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.EqualValues(t, 2, rows[0].OrderCount)
	assert.EqualValues(t, 1, rows[1].OrderCount)
}

func TestDashboardOrdersByDate_BadRange(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)
	router := newDashboardRouter(db)

	w := getAuthed(t, router,
		"/api/dashboard/orders-by-date/?start_date=March+1st",
		sessionToken(t, tenant.UserID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardTopCustomers(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)
	router := newDashboardRouter(db)

	now := time.Now().UTC()
	var ids []string
	for i, email := range []string{"a@example.com", "b@example.com"} {
		e := email
		customer := &models.Customer{
			TenantID:          tenant.ID,
			ShopifyCustomerID: int64(7001 + i),
			Email:             &e,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		require.NoError(t, db.Create(customer).Error)
		ids = append(ids, customer.ID)
	}

	seedOrder(t, db, tenant, 5001, "10.00", &ids[0], now)
	seedOrder(t, db, tenant, 5002, "90.00", &ids[1], now)

	w := getAuthed(t, router, "/api/dashboard/top-customers/", sessionToken(t, tenant.UserID))
	require.Equal(t, http.StatusOK, w.Code)

	var rows []struct {
		Email      *string `json:"email"`
		TotalSpent string  `json:"total_spent"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Email)
	assert.Equal(t, "b@example.com", *rows[0].Email)
	assert.True(t, decimal.RequireFromString(rows[0].TotalSpent).Equal(decimal.RequireFromString("90")))
}

func TestSubscriptionList(t *testing.T) {
	db := newTestDB(t)
	tenant := newTestTenant(t, db)
	router := newDashboardRouter(db)

	for _, topic := range []string{"products/create", "orders/create"} {
		sub := &models.WebhookSubscription{
			TenantID: tenant.ID,
			Topic:    topic,
			Address:  "https://app.example.com/api/",
			Status:   models.SubscriptionStatusSuccess,
		}
		require.NoError(t, db.Create(sub).Error)
	}

	w := getAuthed(t, router, "/api/webhook-subscriptions/", sessionToken(t, tenant.UserID))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.WebhookSubscription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	// Ordered by topic.
	assert.Equal(t, "orders/create", resp.Data[0].Topic)
	assert.Equal(t, "products/create", resp.Data[1].Topic)
}
