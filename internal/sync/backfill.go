package sync

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"shoplytics/internal/logger"
	"shoplytics/internal/models"
	"shoplytics/internal/services/shopify"
)

// PlatformClient is the slice of the Shopify client the sync jobs need.
type PlatformClient interface {
	ProductsURL() string
	CustomersURL() string
	OrdersURL() string
	ListProducts(pageURL string) ([]shopify.Product, string, error)
	ListCustomers(pageURL string) ([]shopify.Customer, string, error)
	ListOrders(pageURL string) ([]shopify.Order, string, error)
	RegisterWebhook(topic, address string) (string, error)
}

// ClientFactory builds a client for one tenant's store.
type ClientFactory func(shopDomain, accessToken string) PlatformClient

// pageDelay throttles the walk to stay under Shopify's rate limits.
const defaultPageDelay = 500 * time.Millisecond

// Engine performs the one-time historical import for a tenant: three
// sequential page-walks over products, customers and orders. A failed page
// ends that resource's walk; the others still run. Everything it writes is an
// idempotent upsert, so re-running the job is always safe.
type Engine struct {
	db        *gorm.DB
	logger    *logger.Logger
	newClient ClientFactory
	pageDelay time.Duration
}

func NewEngine(db *gorm.DB, logger *logger.Logger) *Engine {
	return &Engine{
		db:     db,
		logger: logger,
		newClient: func(shopDomain, accessToken string) PlatformClient {
			return shopify.NewClient(shopDomain, accessToken, logger)
		},
		pageDelay: defaultPageDelay,
	}
}

func (e *Engine) Run(tenantID string) error {
	var tenant models.Tenant
	if err := e.db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e.logger.Warn("backfill: tenant %s no longer exists, skipping", tenantID)
			return nil
		}
		return fmt.Errorf("failed to load tenant: %w", err)
	}

	client := e.newClient(tenant.ShopifyDomain, tenant.AccessToken)

	e.syncProducts(&tenant, client)
	e.syncCustomers(&tenant, client)
	e.syncOrders(&tenant, client)

	e.logger.Info("backfill: completed for %s", tenant.ShopifyDomain)
	return nil
}

func (e *Engine) syncProducts(tenant *models.Tenant, client PlatformClient) {
	url := client.ProductsURL()
	for url != "" {
		products, next, err := client.ListProducts(url)
		if err != nil {
			e.logger.Error("backfill: products walk for %s stopped: %v", tenant.ShopifyDomain, err)
			return
		}

		for i := range products {
			if _, err := UpsertProductVariants(e.db, tenant.ID, &products[i]); err != nil {
				e.logger.Error("backfill: failed to upsert product %d: %v", products[i].ID, err)
			}
		}

		url = next
		e.throttle(url)
	}
}

func (e *Engine) syncCustomers(tenant *models.Tenant, client PlatformClient) {
	url := client.CustomersURL()
	for url != "" {
		customers, next, err := client.ListCustomers(url)
		if err != nil {
			e.logger.Error("backfill: customers walk for %s stopped: %v", tenant.ShopifyDomain, err)
			return
		}

		for i := range customers {
			if _, _, err := UpsertCustomerProfile(e.db, tenant.ID, &customers[i]); err != nil {
				e.logger.Error("backfill: failed to upsert customer %d: %v", customers[i].ID, err)
			}
		}

		url = next
		e.throttle(url)
	}
}

func (e *Engine) syncOrders(tenant *models.Tenant, client PlatformClient) {
	url := client.OrdersURL()
	for url != "" {
		orders, next, err := client.ListOrders(url)
		if err != nil {
			e.logger.Error("backfill: orders walk for %s stopped: %v", tenant.ShopifyDomain, err)
			return
		}

		for i := range orders {
			if err := e.importOrder(tenant, &orders[i]); err != nil {
				e.logger.Error("backfill: failed to import order %d: %v", orders[i].ID, err)
			}
		}

		url = next
		e.throttle(url)
	}
}

// importOrder tolerates a partial catalog: line items whose variant has no
// local Product row are skipped, unlike the webhook order-create path.
func (e *Engine) importOrder(tenant *models.Tenant, o *shopify.Order) error {
	var customerID *string
	if o.Customer != nil {
		customer, err := GetOrCreateCustomer(e.db, tenant.ID, o.Customer)
		if err != nil {
			return err
		}
		customerID = &customer.ID
	}

	order, _, err := UpsertOrderRow(e.db, tenant.ID, o, customerID)
	if err != nil {
		return err
	}

	for i := range o.LineItems {
		item := &o.LineItems[i]
		product, err := FindProductByVariant(e.db, tenant.ID, item.VariantID)
		if err != nil {
			if errors.Is(err, ErrUnknownProduct) {
				e.logger.Warn("backfill: order %d references unknown variant %d, skipping line", o.ID, item.VariantID)
				continue
			}
			return err
		}
		if err := UpsertOrderItem(e.db, order.ID, product.ID, item); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) throttle(next string) {
	if next != "" {
		time.Sleep(e.pageDelay)
	}
}
