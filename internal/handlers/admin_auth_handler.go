package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/services"
	"github.com/harshit21255/delhi-transit-buddy/internal/utils"
	"github.com/sirupsen/logrus"
)

// AdminAuthenticator issues admin tokens
type AdminAuthenticator interface {
	Login(username, password string) (*models.AdminLoginResponse, error)
	RefreshToken(refreshToken string) (*models.AdminLoginResponse, error)
}

// LoginLimiter throttles failed logins
type LoginLimiter interface {
	CheckLoginRateLimit(ctx context.Context, username, ip string) error
	RecordFailedLogin(ctx context.Context, username, ip string) error
	ResetLoginAttempts(ctx context.Context, username string) error
}

// AuthAuditor records login events
type AuthAuditor interface {
	LogLogin(ctx context.Context, username, ipAddress, userAgent string, success bool, reason string) error
	LogRateLimitViolation(ctx context.Context, username, ipAddress, userAgent, limitType string, retryAfter time.Time) error
}

// AdminAuthHandler handles admin authentication endpoints
type AdminAuthHandler struct {
	authService AdminAuthenticator
	limiter     LoginLimiter
	auditor     AuthAuditor
	logger      *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler. limiter and auditor may be nil.
func NewAdminAuthHandler(authService AdminAuthenticator, limiter LoginLimiter, auditor AuthAuditor, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		authService: authService,
		limiter:     limiter,
		auditor:     auditor,
		logger:      logger,
	}
}

// Login handles admin login
// @Summary Admin login
// @Description Authenticate the operator account and receive JWT tokens
// @Tags Admin Auth
// @Accept json
// @Produce json
// @Param request body models.AdminLoginRequest true "Login credentials"
// @Success 200 {object} models.AdminLoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /admin/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid admin login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  "error",
			Message: "username and password are required",
		})
		return
	}

	ctx := c.Request.Context()
	ip := utils.ClientIP(c)
	userAgent := c.Request.UserAgent()

	if h.limiter != nil {
		if err := h.limiter.CheckLoginRateLimit(ctx, req.Username, ip); err != nil {
			var limited *services.RateLimitError
			if h.auditor != nil && errors.As(err, &limited) {
				h.audit(h.auditor.LogRateLimitViolation(ctx, req.Username, ip, userAgent, limited.Type, limited.RetryAfter))
			}
			respondError(c, h.logger, err)
			return
		}
	}

	response, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"username": req.Username,
			"ip":       ip,
		}).Warn("Admin login failed")

		if h.limiter != nil && errors.Is(err, services.ErrInvalidCredentials) {
			if recErr := h.limiter.RecordFailedLogin(ctx, req.Username, ip); recErr != nil {
				h.logger.WithError(recErr).Error("Failed to record login attempt")
			}
		}
		if h.auditor != nil {
			h.audit(h.auditor.LogLogin(ctx, req.Username, ip, userAgent, false, err.Error()))
		}
		respondError(c, h.logger, err)
		return
	}

	if h.auditor != nil {
		h.audit(h.auditor.LogLogin(ctx, req.Username, ip, userAgent, true, ""))
	}

	if h.limiter != nil {
		if err := h.limiter.ResetLoginAttempts(ctx, req.Username); err != nil {
			h.logger.WithError(err).Warn("Failed to reset login attempts")
		}
	}

	respondOK(c, response)
}

// RefreshToken handles access token refresh
func (h *AdminAuthHandler) RefreshToken(c *gin.Context) {
	var req models.AdminRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  "error",
			Message: "refresh_token is required",
		})
		return
	}

	response, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, response)
}

// audit logs a failed audit write
func (h *AdminAuthHandler) audit(err error) {
	if err != nil {
		h.logger.WithError(err).Error("Failed to write audit event")
	}
}
