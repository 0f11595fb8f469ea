package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harshit21255/delhi-transit-buddy/internal/models"
	"github.com/harshit21255/delhi-transit-buddy/internal/services"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		validation *models.ValidationError
		invalid    *models.InvalidStationError
		limited    *services.RateLimitError
	)

	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.As(err, &validation):
		status, message = http.StatusBadRequest, validation.Message
	case errors.As(err, &invalid):
		status, message = http.StatusNotFound, invalid.Error()
	case errors.As(err, &limited):
		status, message = http.StatusTooManyRequests, limited.Message
		if wait := int(time.Until(limited.RetryAfter).Seconds()); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(wait))
		}
	case errors.Is(err, services.ErrRoutingUnavailable):
		status, message = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, services.ErrIngestRunning):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrInvalidRefreshToken):
		status, message = http.StatusUnauthorized, services.ErrInvalidRefreshToken.Error()
	case errors.Is(err, services.ErrAdminDisabled):
		status, message = http.StatusForbidden, err.Error()
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.JSON(status, ErrorResponse{Status: "error", Message: message})
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

// bindRoute reads and validates from/to query parameters
func bindRoute(c *gin.Context) (*models.RouteRequest, error) {
	var req models.RouteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return nil, models.ErrInvalidInput("from and to query parameters are required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
