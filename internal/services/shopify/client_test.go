package shopify

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplytics/internal/logger"
)

func newTestClient(baseURL string) *Client {
	c := NewClient("acme.myshopify.com", "shpat_test_token", logger.New("error"))
	c.baseURL = baseURL
	return c
}

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "empty header",
			header: "",
			want:   "",
		},
		{
			name:   "next only",
			header: `<https://acme.myshopify.com/admin/api/2024-07/products.json?page_info=def>; rel="next"`,
			want:   "https://acme.myshopify.com/admin/api/2024-07/products.json?page_info=def",
		},
		{
			name:   "previous and next",
			header: `<https://acme.myshopify.com/p?page_info=abc>; rel="previous", <https://acme.myshopify.com/p?page_info=def>; rel="next"`,
			want:   "https://acme.myshopify.com/p?page_info=def",
		},
		{
			name:   "previous only",
			header: `<https://acme.myshopify.com/p?page_info=abc>; rel="previous"`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPageURL(tt.header))
		})
	}
}

// Three pages of products, linked by rel="next". The walk must issue exactly
// three requests and stop when the last page carries no next link.
func TestListProducts_Pagination(t *testing.T) {
	var requests int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "shpat_test_token", r.Header.Get("X-Shopify-Access-Token"))

		page := r.URL.Query().Get("page_info")
		switch page {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/products.json?page_info=two>; rel="next"`, server.URL))
			fmt.Fprint(w, `{"products": [{"id": 1, "title": "First"}]}`)
		case "two":
			w.Header().Set("Link", fmt.Sprintf(
				`<%s/products.json?page_info=one>; rel="previous", <%s/products.json?page_info=three>; rel="next"`,
				server.URL, server.URL))
			fmt.Fprint(w, `{"products": [{"id": 2, "title": "Second"}]}`)
		case "three":
			w.Header().Set("Link", fmt.Sprintf(`<%s/products.json?page_info=two>; rel="previous"`, server.URL))
			fmt.Fprint(w, `{"products": [{"id": 3, "title": "Third"}]}`)
		default:
			t.Fatalf("unexpected page_info %q", page)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	var ids []int64
	url := server.URL + "/products.json"
	for url != "" {
		products, next, err := c.ListProducts(url)
		require.NoError(t, err)
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		url = next
	}

	assert.Equal(t, 3, requests)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestListOrders_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"errors": "throttled"}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	_, _, err := c.ListOrders(server.URL + "/orders.json")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
}

func TestRegisterWebhook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/"+APIVersion+"/webhooks.json", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"webhook": {"id": 42, "topic": "orders/create"}}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	body, err := c.RegisterWebhook("orders/create", "https://app.example.com/api/orders/")
	require.NoError(t, err)
	assert.Contains(t, body, `"topic": "orders/create"`)
}

func TestRegisterWebhook_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"errors": {"address": ["is invalid"]}}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	body, err := c.RegisterWebhook("orders/create", "not-a-url")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.Code)
	assert.Contains(t, body, "is invalid")
}
