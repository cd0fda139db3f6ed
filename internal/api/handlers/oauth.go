package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shoplytics/internal/api/middleware"
	"shoplytics/internal/config"
	"shoplytics/internal/jobs"
	"shoplytics/internal/logger"
	"shoplytics/internal/models"
	"shoplytics/internal/services/shopify"
)

type OAuthHandler struct {
	db           *gorm.DB
	logger       *logger.Logger
	config       *config.Config
	queue        jobs.Queue
	oauthService *shopify.OAuthService
}

func NewOAuthHandler(db *gorm.DB, logger *logger.Logger, cfg *config.Config, queue jobs.Queue) *OAuthHandler {
	return &OAuthHandler{
		db:           db,
		logger:       logger,
		config:       cfg,
		queue:        queue,
		oauthService: shopify.NewOAuthService(cfg, logger),
	}
}

// Begin starts the OAuth flow: validate the shop parameter and redirect to
// the store's authorize URL. No local state is written here.
func (h *OAuthHandler) Begin(c *gin.Context) {
	shop := c.Query("shop")
	if shop == "" {
		renderErrorPage(c, http.StatusBadRequest, "Missing shop parameter.")
		return
	}

	redirectURI := fmt.Sprintf("https://%s/auth/shopify/callback/", c.Request.Host)
	c.Redirect(http.StatusFound, h.oauthService.AuthorizeURL(shop, redirectURI))
}

// Callback completes the handshake: verify the HMAC before anything else,
// exchange the code, resolve or create the owning user, upsert the tenant
// with the fresh token and hand both sync jobs to the queue.
func (h *OAuthHandler) Callback(c *gin.Context) {
	shop := c.Query("shop")
	code := c.Query("code")

	if shop == "" || code == "" {
		renderErrorPage(c, http.StatusBadRequest, "Missing shop or code parameter.")
		return
	}

	if err := h.oauthService.VerifyHMAC(c.Request.URL.Query()); err != nil {
		renderErrorPage(c, http.StatusBadRequest, "Invalid HMAC.")
		return
	}

	tokenResp, err := h.oauthService.ExchangeCodeForToken(shop, code)
	if err != nil {
		h.logger.Error("oauth: token exchange for %s failed: %v", shop, err)
		renderErrorPage(c, http.StatusBadGateway, "Failed to get access token.")
		return
	}

	user, err := h.resolveUser(c, shop, tokenResp.AccessToken)
	if err != nil {
		h.logger.Error("oauth: failed to resolve user for %s: %v", shop, err)
		renderErrorPage(c, http.StatusBadGateway, "Failed to fetch shop details.")
		return
	}

	tenant, err := h.upsertTenant(shop, tokenResp.AccessToken, user.ID)
	if err != nil {
		h.logger.Error("oauth: failed to save tenant for %s: %v", shop, err)
		renderErrorPage(c, http.StatusInternalServerError, "Failed to save store connection.")
		return
	}

	if err := h.issueSession(c, user.ID); err != nil {
		h.logger.Error("oauth: failed to issue session: %v", err)
	}

	// Fire-and-forget; the jobs only carry the tenant id.
	for _, jobType := range []string{jobs.JobSubscribeWebhooks, jobs.JobBackfill} {
		jobID, err := h.queue.Submit(c.Request.Context(), jobType, tenant.ID)
		if err != nil {
			h.logger.Error("oauth: failed to submit %s for tenant %s: %v", jobType, tenant.ID, err)
			continue
		}
		h.logger.Info("oauth: submitted %s job %s for tenant %s", jobType, jobID, tenant.ID)
	}

	c.Redirect(http.StatusFound, h.config.FrontendURL)
}

// resolveUser reuses the authenticated principal when there is one, otherwise
// looks the shop profile up and gets-or-creates a user keyed by its email.
func (h *OAuthHandler) resolveUser(c *gin.Context, shop, accessToken string) (*models.User, error) {
	if user := h.sessionUser(c); user != nil {
		return user, nil
	}

	client := shopify.NewClient(shop, accessToken, h.logger)
	shopInfo, err := client.GetShop()
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitOwnerName(shopInfo.ShopOwner)

	var user models.User
	err = h.db.Where("email = ?", shopInfo.Email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// New users get an unguessable placeholder; login is session-based.
	passwordHash, err := randomPasswordHash()
	if err != nil {
		return nil, err
	}

	user = models.User{
		Email:        shopInfo.Email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (h *OAuthHandler) upsertTenant(shop, accessToken, userID string) (*models.Tenant, error) {
	name := strings.SplitN(shop, ".", 2)[0]

	var tenant models.Tenant
	err := h.db.Where("shopify_domain = ?", shop).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tenant = models.Tenant{
			UserID:        userID,
			Name:          name,
			ShopifyDomain: shop,
			AccessToken:   accessToken,
		}
		if err := h.db.Create(&tenant).Error; err != nil {
			return nil, err
		}
		return &tenant, nil
	}
	if err != nil {
		return nil, err
	}

	// Re-auth: rotate the token in place, never duplicate the tenant.
	tenant.UserID = userID
	tenant.Name = name
	tenant.AccessToken = accessToken
	if err := h.db.Save(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// sessionUser returns the already-authenticated user, if any.
func (h *OAuthHandler) sessionUser(c *gin.Context) *models.User {
	tokenString, err := c.Cookie(middleware.SessionCookie)
	if err != nil || tokenString == "" {
		return nil
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims := token.Claims.(*jwt.RegisteredClaims)
	var user models.User
	if err := h.db.First(&user, "id = ?", claims.Subject).Error; err != nil {
		return nil
	}
	return &user
}

func (h *OAuthHandler) issueSession(c *gin.Context, userID string) error {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.config.JWTSecret))
	if err != nil {
		return err
	}

	secure := h.config.Env == "production"
	c.SetCookie(middleware.SessionCookie, signed, int((24 * time.Hour).Seconds()), "/", "", secure, true)
	return nil
}

func splitOwnerName(owner string) (string, string) {
	parts := strings.Fields(owner)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func randomPasswordHash() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(raw)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
