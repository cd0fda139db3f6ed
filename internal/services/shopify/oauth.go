package shopify

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"shoplytics/internal/config"
	"shoplytics/internal/logger"
)

var (
	ErrInvalidSignature    = errors.New("invalid hmac signature")
	ErrTokenExchangeFailed = errors.New("token exchange failed")
)

// Scopes requested from every store. Fixed by design.
const OAuthScopes = "read_products,read_orders,read_customers"

type OAuthService struct {
	config     *config.Config
	logger     *logger.Logger
	httpClient *http.Client

	// baseURL overrides the per-shop host, for tests.
	baseURL string
}

func NewOAuthService(cfg *config.Config, logger *logger.Logger) *OAuthService {
	return &OAuthService{
		config: cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AuthorizeURL builds the Shopify authorization URL for the given store.
func (s *OAuthService) AuthorizeURL(shopDomain, redirectURI string) string {
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s",
		shopDomain,
		s.config.ShopifyClientID,
		OAuthScopes,
		url.QueryEscape(redirectURI),
	)
}

// VerifyHMAC checks the callback signature: every query parameter except
// hmac/signature, sorted by key, joined as k=v&..., HMAC-SHA256 with the
// shared secret, compared in constant time against the supplied hex digest.
func (s *OAuthService) VerifyHMAC(params url.Values) error {
	provided := params.Get("hmac")
	if provided == "" {
		return ErrInvalidSignature
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params.Get(k)))
	}
	message := strings.Join(parts, "&")

	mac := hmac.New(sha256.New, []byte(s.config.ShopifyClientSecret))
	mac.Write([]byte(message))
	digest := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(digest), []byte(provided)) {
		return ErrInvalidSignature
	}
	return nil
}

// ExchangeCodeForToken trades the authorization code for an access token.
func (s *OAuthService) ExchangeCodeForToken(shopDomain, code string) (*TokenResponse, error) {
	tokenURL := s.shopURL(shopDomain) + "/admin/oauth/access_token"

	payload, err := json.Marshal(map[string]string{
		"client_id":     s.config.ShopifyClientID,
		"client_secret": s.config.ShopifyClientSecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrTokenExchangeFailed, resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenExchangeFailed)
	}

	return &tokenResp, nil
}

func (s *OAuthService) shopURL(shopDomain string) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	return "https://" + shopDomain
}
