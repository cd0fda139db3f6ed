package sync

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shoplytics/internal/logger"
	"shoplytics/internal/models"
	"shoplytics/internal/services/shopify"
)

// webhookEndpoints maps each subscribed topic to its local ingest path.
var webhookEndpoints = []struct {
	Topic string
	Path  string
}{
	{"orders/create", "/api/orders/"},
	{"products/create", "/api/products/"},
	{"customers/create", "/api/customers/"},
	{"checkouts/create", "/api/custom-events/"},
	{"checkouts/update", "/api/custom-events/"},
	{"checkouts/delete", "/api/custom-events/"},
}

// Subscriber registers the webhook endpoints for a tenant. Each topic is an
// independent attempt; one failure never blocks the rest. Every attempt's
// outcome lands in a WebhookSubscription audit row keyed (tenant, topic).
type Subscriber struct {
	db        *gorm.DB
	logger    *logger.Logger
	baseURL   string
	newClient ClientFactory
}

func NewSubscriber(db *gorm.DB, logger *logger.Logger, baseURL string) *Subscriber {
	return &Subscriber{
		db:      db,
		logger:  logger,
		baseURL: baseURL,
		newClient: func(shopDomain, accessToken string) PlatformClient {
			return shopify.NewClient(shopDomain, accessToken, logger)
		},
	}
}

func (s *Subscriber) Run(tenantID string) error {
	var tenant models.Tenant
	if err := s.db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("subscribe: tenant %s no longer exists, skipping", tenantID)
			return nil
		}
		return fmt.Errorf("failed to load tenant: %w", err)
	}

	client := s.newClient(tenant.ShopifyDomain, tenant.AccessToken)

	for _, endpoint := range webhookEndpoints {
		address := s.baseURL + endpoint.Path

		body, err := client.RegisterWebhook(endpoint.Topic, address)
		status := models.SubscriptionStatusSuccess
		if err != nil {
			status = models.SubscriptionStatusError
			if body == "" {
				body = err.Error()
			}
			s.logger.Error("subscribe: failed to register %s for %s: %v", endpoint.Topic, tenant.ShopifyDomain, err)
		}

		if err := s.recordAttempt(tenant.ID, endpoint.Topic, address, status, body); err != nil {
			s.logger.Error("subscribe: failed to record %s attempt: %v", endpoint.Topic, err)
		}
	}

	return nil
}

func (s *Subscriber) recordAttempt(tenantID, topic, address, status, body string) error {
	fields := &models.WebhookSubscription{
		TenantID:     tenantID,
		Topic:        topic,
		Address:      address,
		Status:       status,
		LastResponse: nilIfEmpty(body),
	}

	var existing models.WebhookSubscription
	err := s.db.Where("tenant_id = ? AND topic = ?", tenantID, topic).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(fields).Error
	}
	if err != nil {
		return err
	}

	fields.ID = existing.ID
	return s.db.Save(fields).Error
}
