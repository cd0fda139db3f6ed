package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shoplytics/internal/api/handlers"
	"shoplytics/internal/api/middleware"
	"shoplytics/internal/cache"
	"shoplytics/internal/config"
	"shoplytics/internal/database"
	"shoplytics/internal/jobs"
	"shoplytics/internal/logger"
	"shoplytics/internal/mail"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, store cache.Store, queue jobs.Queue, mailer mail.Mailer) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// Initialize handlers
	oauthHandler := handlers.NewOAuthHandler(db.DB, logger, cfg, queue)
	authHandler := handlers.NewAuthHandler(db.DB, logger, cfg, store, mailer, oauthHandler)
	tenantHandler := handlers.NewTenantHandler(db.DB, logger, queue)
	customerHandler := handlers.NewCustomerHandler(db.DB, logger)
	productHandler := handlers.NewProductHandler(db.DB, logger)
	orderHandler := handlers.NewOrderHandler(db.DB, logger)
	eventHandler := handlers.NewEventHandler(db.DB, logger)
	dashboardHandler := handlers.NewDashboardHandler(db.DB, logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(db.DB, logger)

	// Health check
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// OAuth + OTP login
	auth := router.Group("/auth")
	{
		auth.GET("/shopify/", oauthHandler.Begin)
		auth.GET("/shopify/callback/", oauthHandler.Callback)
		auth.POST("/send-otp/", authHandler.SendOTP)
		auth.POST("/verify-otp/", authHandler.VerifyOTP)
	}

	// Tenant-scoped resources; POST on customers/products/orders/custom-events
	// is the webhook ingest surface Shopify calls back into.
	apiGroup := router.Group("/api")
	{
		tenants := apiGroup.Group("/tenants")
		{
			tenants.GET("/", tenantHandler.List)
			tenants.POST("/", tenantHandler.Create)
			tenants.GET("/:id/", tenantHandler.Get)
			tenants.PUT("/:id/", tenantHandler.Update)
			tenants.DELETE("/:id/", tenantHandler.Delete)
		}

		customers := apiGroup.Group("/customers")
		{
			customers.GET("/", customerHandler.List)
			customers.POST("/", customerHandler.Create)
			customers.GET("/:id/", customerHandler.Get)
			customers.PUT("/:id/", customerHandler.Update)
			customers.DELETE("/:id/", customerHandler.Delete)
		}

		products := apiGroup.Group("/products")
		{
			products.GET("/", productHandler.List)
			products.POST("/", productHandler.Create)
			products.GET("/:id/", productHandler.Get)
			products.PUT("/:id/", productHandler.Update)
			products.DELETE("/:id/", productHandler.Delete)
		}

		orders := apiGroup.Group("/orders")
		{
			orders.GET("/", orderHandler.List)
			orders.POST("/", orderHandler.Create)
			orders.GET("/:id/", orderHandler.Get)
			orders.PUT("/:id/", orderHandler.Update)
			orders.DELETE("/:id/", orderHandler.Delete)
		}

		events := apiGroup.Group("/custom-events")
		{
			events.GET("/", eventHandler.List)
			events.POST("/", eventHandler.Create)
		}

		// Session-authed read surfaces
		authed := apiGroup.Group("")
		authed.Use(middleware.RequireAuth(cfg.JWTSecret))
		{
			authed.GET("/webhook-subscriptions/", subscriptionHandler.List)

			dashboard := authed.Group("/dashboard")
			{
				dashboard.GET("/stats/", dashboardHandler.Stats)
				dashboard.GET("/orders-by-date/", dashboardHandler.OrdersByDate)
				dashboard.GET("/top-customers/", dashboardHandler.TopCustomers)
			}
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
