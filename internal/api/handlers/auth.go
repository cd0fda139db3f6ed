package handlers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/mail"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shoplytics/internal/cache"
	"shoplytics/internal/config"
	"shoplytics/internal/logger"
	shopmail "shoplytics/internal/mail"
	"shoplytics/internal/models"
)

const (
	otpTTL         = 10 * time.Minute
	otpVerifiedTTL = 10 * time.Minute
)

// AuthHandler drives the OTP login flow. OTP and verified markers live in the
// injected TTL store, never in process memory.
type AuthHandler struct {
	db     *gorm.DB
	logger *logger.Logger
	config *config.Config
	store  cache.Store
	mailer shopmail.Mailer
	oauth  *OAuthHandler
}

func NewAuthHandler(db *gorm.DB, logger *logger.Logger, cfg *config.Config, store cache.Store, mailer shopmail.Mailer, oauth *OAuthHandler) *AuthHandler {
	return &AuthHandler{
		db:     db,
		logger: logger,
		config: cfg,
		store:  store,
		mailer: mailer,
		oauth:  oauth,
	}
}

// SendOTP emails a one-time code and stores it under otp:<email>.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid JSON format."})
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid email format."})
		return
	}

	otp, err := generateOTP()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to generate OTP."})
		return
	}

	if err := h.store.Set(c.Request.Context(), "otp:"+req.Email, otp, otpTTL); err != nil {
		h.logger.Error("auth: failed to store otp: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to store OTP."})
		return
	}

	body := fmt.Sprintf("<p>Your Shoplytics login code is <strong>%s</strong>. It expires in 10 minutes.</p>", otp)
	if err := h.mailer.Send(req.Email, "Your Shoplytics login code", body); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": fmt.Sprintf("Failed to send OTP. Error: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "OTP sent successfully. Please check your email.",
	})
}

// VerifyOTP checks the code. The stored OTP is consumed on any outcome; a
// match marks the email verified and logs the user in when one exists.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid JSON format."})
		return
	}
	if req.Email == "" || req.OTP == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Email and OTP are required."})
		return
	}

	ctx := c.Request.Context()
	stored, found, err := h.store.Get(ctx, "otp:"+req.Email)
	if err != nil {
		h.logger.Error("auth: failed to read otp: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to verify OTP."})
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "OTP expired or not found."})
		return
	}

	h.store.Delete(ctx, "otp:"+req.Email)

	if stored != req.OTP {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid OTP."})
		return
	}

	if err := h.store.Set(ctx, "otp_verified:"+req.Email, "true", otpVerifiedTTL); err != nil {
		h.logger.Error("auth: failed to mark otp verified: %v", err)
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err == nil {
		if err := h.oauth.issueSession(c, user.ID); err != nil {
			h.logger.Error("auth: failed to issue session: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP verified successfully."})
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
