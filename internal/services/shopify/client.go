package shopify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shoplytics/internal/logger"
)

// APIVersion pins the Admin REST API version for webhook registration and
// listing endpoints.
const APIVersion = "2024-07"

// Client wraps outbound calls to one store's Admin API.
type Client struct {
	shopDomain  string
	accessToken string
	httpClient  *http.Client
	logger      *logger.Logger

	// baseURL overrides https://<shopDomain>, for tests.
	baseURL string
}

func NewClient(shopDomain, accessToken string, logger *logger.Logger) *Client {
	return &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// StatusError is a non-2xx response from the platform.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shopify API request failed: %d - %s", e.Code, e.Body)
}

// GetShop fetches the shop profile.
func (c *Client) GetShop() (*Shop, error) {
	var shopResp struct {
		Shop Shop `json:"shop"`
	}
	if _, err := c.getJSON(c.base()+"/admin/api/2023-10/shop.json", &shopResp); err != nil {
		return nil, err
	}
	return &shopResp.Shop, nil
}

// RegisterWebhook subscribes the given topic to the given address.
// The returned body is kept for the subscription audit row even on failure.
func (c *Client) RegisterWebhook(topic, address string) (string, error) {
	payload, err := json.Marshal(map[string]map[string]string{
		"webhook": {
			"topic":   topic,
			"address": address,
			"format":  "json",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	url := fmt.Sprintf("%s/admin/api/%s/webhooks.json", c.base(), APIVersion)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(body), &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}

// ProductsURL is the first page of the product listing walk.
func (c *Client) ProductsURL() string {
	return fmt.Sprintf("%s/admin/api/%s/products.json?limit=250", c.base(), APIVersion)
}

// CustomersURL is the first page of the customer listing walk.
func (c *Client) CustomersURL() string {
	return fmt.Sprintf("%s/admin/api/%s/customers.json?limit=250", c.base(), APIVersion)
}

// OrdersURL is the first page of the order listing walk.
func (c *Client) OrdersURL() string {
	return fmt.Sprintf("%s/admin/api/%s/orders.json?limit=250&status=any", c.base(), APIVersion)
}

// ListProducts fetches one page; the second return is the rel="next" URL,
// empty when the walk is done.
func (c *Client) ListProducts(pageURL string) ([]Product, string, error) {
	var page struct {
		Products []Product `json:"products"`
	}
	next, err := c.getJSON(pageURL, &page)
	if err != nil {
		return nil, "", err
	}
	return page.Products, next, nil
}

func (c *Client) ListCustomers(pageURL string) ([]Customer, string, error) {
	var page struct {
		Customers []Customer `json:"customers"`
	}
	next, err := c.getJSON(pageURL, &page)
	if err != nil {
		return nil, "", err
	}
	return page.Customers, next, nil
}

func (c *Client) ListOrders(pageURL string) ([]Order, string, error) {
	var page struct {
		Orders []Order `json:"orders"`
	}
	next, err := c.getJSON(pageURL, &page)
	if err != nil {
		return nil, "", err
	}
	return page.Orders, next, nil
}

// getJSON performs an authenticated GET, decodes into target and returns the
// next-page URL from the Link header, if any.
func (c *Client) getJSON(url string, target interface{}) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return nextPageURL(resp.Header.Get("Link")), nil
}

// nextPageURL extracts the rel="next" entry from a Link header:
//
//	<https://x.myshopify.com/...page_info=abc>; rel="previous",
//	<https://x.myshopify.com/...page_info=def>; rel="next"
func nextPageURL(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, entry := range strings.Split(linkHeader, ",") {
		parts := strings.Split(entry, ";")
		if len(parts) < 2 {
			continue
		}
		if strings.TrimSpace(parts[1]) != `rel="next"` {
			continue
		}
		u := strings.TrimSpace(parts[0])
		u = strings.TrimPrefix(u, "<")
		u = strings.TrimSuffix(u, ">")
		return u
	}
	return ""
}

func (c *Client) base() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + c.shopDomain
}
