package shopify

import "time"

// Typed payload shapes for everything the platform sends us, decoded once at
// the boundary. Listing responses and webhook bodies share these.

// Product is a catalog entry; each of its variants becomes one local row.
type Product struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	BodyHTML    string     `json:"body_html"`
	Vendor      string     `json:"vendor"`
	ProductType string     `json:"product_type"`
	Handle      string     `json:"handle"`
	Status      string     `json:"status"`
	Variants    []Variant  `json:"variants"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

type Variant struct {
	ID                int64      `json:"id"`
	ProductID         int64      `json:"product_id"`
	Title             string     `json:"title"`
	Price             string     `json:"price"`
	Sku               string     `json:"sku"`
	Position          int        `json:"position"`
	InventoryQuantity int        `json:"inventory_quantity"`
	CreatedAt         *time.Time `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
}

type Customer struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	DefaultAddress *Address   `json:"default_address"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

type Address struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
	Zip      string `json:"zip"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`
}

type Order struct {
	ID                int64      `json:"id"`
	Customer          *Customer  `json:"customer"`
	TotalPrice        string     `json:"total_price"`
	Currency          string     `json:"currency"`
	FinancialStatus   string     `json:"financial_status"`
	FulfillmentStatus string     `json:"fulfillment_status"`
	LineItems         []LineItem `json:"line_items"`
	CreatedAt         *time.Time `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
}

type LineItem struct {
	ID        int64  `json:"id"`
	VariantID int64  `json:"variant_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// Checkout is the body of checkouts/* webhooks. Only the embedded customer is
// lifted out; the full payload is retained verbatim by the caller.
type Checkout struct {
	ID       int64     `json:"id"`
	Token    string    `json:"token"`
	Customer *Customer `json:"customer"`
}

// Shop is the relevant slice of the shop-profile endpoint.
type Shop struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Domain    string `json:"domain"`
	ShopOwner string `json:"shop_owner"`
	Currency  string `json:"currency"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}
